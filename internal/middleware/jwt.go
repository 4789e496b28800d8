// Package middleware provides shared request processing for handlers.
package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's identity claims into the request context. The
// secret must match the one used when issuing tokens. Handlers behind this
// middleware read the identity via c.Get("user_id"), c.Get("email") and
// c.Get("is_admin"). Requests without a valid token get 401; this is the
// server analog of redirecting an unauthenticated visitor to the auth page.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			sub, _ := claims["sub"].(string)
			if sub == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			email, _ := claims["email"].(string)
			isAdmin, _ := claims["is_admin"].(bool)

			c.Set("user_id", sub)
			c.Set("email", email)
			c.Set("is_admin", isAdmin)
			return next(c)
		}
	}
}

// UserID extracts the authenticated user's id from the context. The empty
// string means JWTAuth did not run or the token carried no subject.
func UserID(c echo.Context) string {
	v, _ := c.Get("user_id").(string)
	return v
}
