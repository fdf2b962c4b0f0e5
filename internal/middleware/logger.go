package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/fishtrack/internal/reporting"
)

// RequestLogger logs one line per request and reports 5xx errors to the
// reporter.  Handler errors are resolved through Echo's error handler here
// so the logged status is the one the client received.
func RequestLogger(log *zap.Logger, rep *reporting.Reporter) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }

            req := c.Request()
            status := c.Response().Status
            fields := []zap.Field{
                zap.String("method", req.Method),
                zap.String("route", c.Path()),
                zap.Int("status", status),
                zap.Duration("latency", time.Since(start)),
                zap.String("user_id", userID(c)),
                zap.String("ip", c.RealIP()),
            }
            switch {
            case status >= 500:
                if err != nil {
                    fields = append(fields, zap.Error(err))
                    rep.CaptureRequestError(err, req, userID(c))
                }
                log.Error("request", fields...)
            case status >= 400:
                log.Info("request", fields...)
            default:
                log.Debug("request", fields...)
            }
            return nil
        }
    }
}
