package reporting

import (
    "errors"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "go.uber.org/zap"
)

func TestDisabledReporterIsNoop(t *testing.T) {
    r := New("", "test", zap.NewNop())
    assert.False(t, r.Enabled())
    r.CaptureRequestError(errors.New("boom"), httptest.NewRequest("GET", "/v1/captures", nil), "u1")
    r.CaptureException(errors.New("boom"))
    assert.True(t, r.Flush(time.Millisecond))

    var zero *Reporter
    assert.False(t, zero.Enabled())
}
