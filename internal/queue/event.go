// Package queue defines message payloads exchanged over the message broker
// and the consumer that journals them.
package queue

import "github.com/iliyamo/fishtrack/internal/model"

// Capture lifecycle event types.
const (
    CaptureCreated = "capture.created"
    CaptureUpdated = "capture.updated"
    CaptureDeleted = "capture.deleted"
)

// CaptureEvent is published after every successful write to the record
// store.  It carries enough of the record for the journal to produce a
// readable line without querying the primary database.
type CaptureEvent struct {
    Type       string  `json:"type"`
    CaptureID  string  `json:"capture_id"`
    UserID     string  `json:"user_id"`
    Species    string  `json:"species,omitempty"`
    Weight     float64 `json:"weight,omitempty"`
    Size       float64 `json:"size,omitempty"`
    Latitude   float64 `json:"latitude,omitempty"`
    Longitude  float64 `json:"longitude,omitempty"`
    OccurredAt string  `json:"occurred_at"`
}

// NewCaptureEvent builds an event of the given type from a record.
func NewCaptureEvent(typ string, c model.Capture, at string) CaptureEvent {
    return CaptureEvent{
        Type:       typ,
        CaptureID:  c.ID,
        UserID:     c.UserID,
        Species:    c.Species,
        Weight:     c.Weight,
        Size:       c.Size,
        Latitude:   c.Latitude,
        Longitude:  c.Longitude,
        OccurredAt: at,
    }
}
