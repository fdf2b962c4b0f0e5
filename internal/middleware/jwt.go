package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/fishtrack/internal/session"
    "github.com/iliyamo/fishtrack/internal/utils"
)

// userKey is the echo.Context key under which the authenticated uid is
// stored next to the request context value.
const userKey = "user_id"

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// attaches the token's subject (the account uid) to the request.  The uid is
// stored both in the request context via session.WithUser, where the
// gateways read it, and under c.Get("user_id") for logging and rate
// limiting.  Requests without a valid token are rejected with 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw, ok := bearer(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing_token", "message": "missing bearer token"})
            }
            uid, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_token", "message": "invalid token"})
            }
            attach(c, uid)
            return next(c)
        }
    }
}

// OptionalJWT is JWTAuth for routes that also serve anonymous callers: a
// valid token attaches the user, a missing or invalid one is ignored.
func OptionalJWT(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if raw, ok := bearer(c); ok {
                if uid, err := utils.ParseAccessToken(secret, raw); err == nil {
                    attach(c, uid)
                }
            }
            return next(c)
        }
    }
}

// bearer extracts the raw token from the Authorization header.
func bearer(c echo.Context) (string, bool) {
    auth := c.Request().Header.Get("Authorization")
    if !strings.HasPrefix(auth, "Bearer ") {
        return "", false
    }
    raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
    return raw, raw != ""
}

func attach(c echo.Context, uid string) {
    req := c.Request()
    c.SetRequest(req.WithContext(session.WithUser(req.Context(), uid)))
    c.Set(userKey, uid)
}
