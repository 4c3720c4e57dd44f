package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RateLimit rejects requests whose client address is refused by allow.
func RateLimit(allow func(key string) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if allow != nil && !allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  http.StatusTooManyRequests,
					"message": http.StatusText(http.StatusTooManyRequests),
				})
			}
			return next(c)
		}
	}
}
