package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
)

// RBAC is the role gate in front of role-specific endpoints: seller-only
// verification submit and the admin review group. It runs after Auth and
// reads the role Auth stored; any other role gets 403.
func RBAC(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(domain.Role)
			if !ok || !slices.Contains(roles, role) {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": "endpoint not available to this role",
				})
			}
			return next(c)
		}
	}
}
