// Package reporting forwards unexpected server errors to Sentry.
package reporting

import (
    "net/http"
    "time"

    "github.com/getsentry/sentry-go"
    "go.uber.org/zap"
)

// Reporter captures exceptions when Sentry is configured and is a no-op
// otherwise.  The zero value is a disabled reporter.
type Reporter struct {
    enabled bool
}

// New initializes the Sentry SDK for dsn.  An empty dsn or an init failure
// yields a disabled reporter; the failure is logged, never fatal.
func New(dsn, environment string, log *zap.Logger) *Reporter {
    if dsn == "" {
        log.Info("SENTRY_DSN not set, error reporting disabled")
        return &Reporter{}
    }
    if environment == "" {
        environment = "development"
    }
    err := sentry.Init(sentry.ClientOptions{
        Dsn:              dsn,
        Environment:      environment,
        TracesSampleRate: 0.2,
        EnableTracing:    true,
    })
    if err != nil {
        log.Warn("sentry init failed", zap.Error(err))
        return &Reporter{}
    }
    log.Info("sentry initialized", zap.String("environment", environment))
    return &Reporter{enabled: true}
}

// Enabled reports whether events are sent.
func (r *Reporter) Enabled() bool { return r != nil && r.enabled }

// CaptureRequestError reports err with the request method, path and user
// attached to the event scope.
func (r *Reporter) CaptureRequestError(err error, req *http.Request, userID string) {
    if !r.Enabled() || err == nil {
        return
    }
    sentry.WithScope(func(scope *sentry.Scope) {
        if req != nil {
            scope.SetRequest(req)
            scope.SetTag("route", req.URL.Path)
        }
        if userID != "" {
            scope.SetUser(sentry.User{ID: userID})
        }
        sentry.CaptureException(err)
    })
}

// CaptureException reports err without request context.
func (r *Reporter) CaptureException(err error) {
    if !r.Enabled() || err == nil {
        return
    }
    sentry.CaptureException(err)
}

// Flush waits up to timeout for buffered events.
func (r *Reporter) Flush(timeout time.Duration) bool {
    if !r.Enabled() {
        return true
    }
    return sentry.Flush(timeout)
}
