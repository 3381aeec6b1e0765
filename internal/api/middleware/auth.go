package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
)

// Context keys set by Auth.
const (
	CtxAccountID = "account_id"
	CtxRole      = "role"
)

// Auth validates the bearer JWT and injects the account id and role into
// context. Every failure is a 401 so clients can treat it as a revoked session.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, _ := claims["sub"].(string)
			rawRole, _ := claims["role"].(string)
			role, err := domain.ParseRole(rawRole)
			if sub == "" || err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing identity")
			}

			c.Set(CtxAccountID, sub)
			c.Set(CtxRole, role)

			return next(c)
		}
	}
}

// MatchPathRole rejects a token issued for another role than the {role}
// path parameter. A token for role S never authenticates role R.
func MatchPathRole(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			want, err := domain.ParseRole(c.Param(param))
			if err != nil {
				return echo.NewHTTPError(http.StatusNotFound, "unknown role")
			}
			if got, _ := c.Get(CtxRole).(domain.Role); got != want {
				return echo.NewHTTPError(http.StatusUnauthorized, "token not valid for this role")
			}
			return next(c)
		}
	}
}
