package middleware

import (
	"github.com/labstack/echo/v4"
)

// The API has no user accounts.  Callers are told apart by address only,
// and every request carries an id set by echo's RequestID middleware.

// clientIP returns the caller's address as resolved by echo, or "unknown".
func clientIP(c echo.Context) string {
	if ip := c.RealIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// requestID returns the id echo assigned to the request, if any.
func requestID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
