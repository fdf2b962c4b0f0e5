package queue

import (
    "bytes"
    "encoding/json"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/fishtrack/internal/model"
)

func TestJournalHandle(t *testing.T) {
    var buf bytes.Buffer
    j := NewJournal(&buf)

    c := model.Capture{ID: "c1", UserID: "u1", Species: "Tilápia", Weight: 2.5, Size: 45, Latitude: -23.5, Longitude: -46.6}
    body, err := json.Marshal(NewCaptureEvent(CaptureCreated, c, "2024-08-16T10:00:00.000000Z"))
    require.NoError(t, err)
    require.NoError(t, j.Handle(body))
    assert.Equal(t,
        "[2024-08-16T10:00:00.000000Z] capture.created | capture_id=c1 | user_id=u1 | species=\"Tilápia\" | weight=2.5 kg | size=45 cm | at=-23.5,-46.6\n",
        buf.String())

    buf.Reset()
    body, err = json.Marshal(NewCaptureEvent(CaptureDeleted, model.Capture{ID: "c1", UserID: "u1"}, "t"))
    require.NoError(t, err)
    require.NoError(t, j.Handle(body))
    assert.Equal(t, "[t] capture.deleted | capture_id=c1 | user_id=u1\n", buf.String())
}

func TestJournalRejectsBadMessages(t *testing.T) {
    j := NewJournal(&bytes.Buffer{})
    assert.Error(t, j.Handle([]byte("{")))
    assert.Error(t, j.Handle([]byte(`{"type":"capture.created"}`)))
}
