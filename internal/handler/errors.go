package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/fishtrack/internal/apierror"
)

// requestTimeout bounds the store and upstream calls of one request.
const requestTimeout = 5 * time.Second

// reqCtx derives the per-request context.  It keeps the session user that
// the JWT middleware put on the request context.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// fail writes the error envelope for known sentinels.  Anything else is
// returned to Echo as is, so the request logger reports it as a 500.
func fail(c echo.Context, err error) error {
    if status, code, ok := apierror.Lookup(err); ok {
        return c.JSON(status, apierror.Body{Error: code, Message: err.Error()})
    }
    if errors.Is(err, context.DeadlineExceeded) {
        return c.JSON(http.StatusGatewayTimeout, apierror.Body{Error: "timeout", Message: "request timed out"})
    }
    return err
}

// badBody reports an unparsable request body.
func badBody(c echo.Context) error {
    return c.JSON(http.StatusBadRequest, apierror.Body{Error: apierror.CodeInvalidBody, Message: "invalid body"})
}
