package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAdmin enforces that the authenticated user carries the admin flag.
// It assumes JWTAuth ran earlier in the chain and stored "is_admin" in the
// context. Non-admin requests are rejected with 403.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isAdmin, ok := c.Get("is_admin").(bool); !ok || !isAdmin {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
