package middleware

// identity.go holds helpers shared across middleware files for naming the
// caller of a request.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// userKey returns the authenticated user id as a string, or "anon" when
// the request has not passed through JWTAuth.
func userKey(c echo.Context) string {
	switch v := c.Get(CtxUserID).(type) {
	case uint64:
		if v != 0 {
			return strconv.FormatUint(v, 10)
		}
	case string:
		if v != "" {
			return v
		}
	}
	return "anon"
}
