package middleware

// identity.go defines helper functions shared across middleware files. It
// provides the user id extraction used for cache keys, rate limit buckets
// and request logs.  When no user is authenticated, "guest" is returned.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/fishtrack/internal/session"
)

// userID returns the uid attached by JWTAuth/OptionalJWT, or "guest".
func userID(c echo.Context) string {
    if v, ok := c.Get(userKey).(string); ok && v != "" {
        return v
    }
    if uid, ok := session.UserFromContext(c.Request().Context()); ok {
        return uid
    }
    return "guest"
}
