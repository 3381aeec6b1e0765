package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wholesalehub/sessiongate/internal/api/middleware"
	"github.com/wholesalehub/sessiongate/internal/core/domain"
)

// ctxClaims extracts the identity injected by the Auth middleware. A missing
// identity means the route was wired without Auth; reject with 401.
func ctxClaims(c echo.Context) (accountID string, role domain.Role, err error) {
	accountID, _ = c.Get(middleware.CtxAccountID).(string)
	role, _ = c.Get(middleware.CtxRole).(domain.Role)
	if accountID == "" || role == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return accountID, role, nil
}

func pathRole(c echo.Context) (domain.Role, error) {
	role, err := domain.ParseRole(c.Param("role"))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusNotFound, "unknown role")
	}
	return role, nil
}
