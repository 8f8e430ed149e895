// Package auth gates the HTTP API behind a shared bearer secret.
package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Authorized reports whether header is exactly "Bearer <secret>". An empty
// secret authorizes nothing.
func Authorized(header, secret string) bool {
	if secret == "" {
		return false
	}
	return header == "Bearer "+secret
}

// BearerMiddleware rejects requests without the shared secret before any
// handler runs. Requests for which skipper returns true pass through.
func BearerMiddleware(secret string, skipper func(c echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}
			if !Authorized(c.Request().Header.Get(echo.HeaderAuthorization), secret) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			}
			return next(c)
		}
	}
}
