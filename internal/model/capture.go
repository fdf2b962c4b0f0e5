package model

import "time"

// Capture represents one logged fish catch as stored in the `captures`
// table.  Ownership is carried by UserID; every read and write is scoped to
// the authenticated user.
//
// Fields:
//  ID          – opaque record id (UUID) assigned on creation.
//  UserID      – uid of the owning user.
//  Species     – free-text species name.
//  Weight      – weight in kilograms.
//  Size        – length in centimetres.
//  Date        – locale-formatted capture date (dd/mm/yyyy).
//  Weather     – free-text weather summary at capture time.
//  Image       – URI of the catch photo.
//  Latitude    – capture latitude.
//  Longitude   – capture longitude.
//  Description – optional free text.
//  CreatedAt   – RFC 3339 creation timestamp.
//  UpdatedAt   – RFC 3339 timestamp of the last edit, empty if never edited.
type Capture struct {
    ID          string  `json:"id"`
    UserID      string  `json:"user_id"`
    Species     string  `json:"species"`
    Weight      float64 `json:"weight"`
    Size        float64 `json:"size"`
    Date        string  `json:"date"`
    Weather     string  `json:"weather"`
    Image       string  `json:"image"`
    Latitude    float64 `json:"latitude"`
    Longitude   float64 `json:"longitude"`
    Description string  `json:"description,omitempty"`
    CreatedAt   string  `json:"created_at"`
    UpdatedAt   string  `json:"updated_at,omitempty"`
}

// CapturePatch lists the fields that may change after creation.  A nil
// field is left untouched.
type CapturePatch struct {
    Species *string  `json:"species,omitempty"`
    Size    *float64 `json:"size,omitempty"`
    Weight  *float64 `json:"weight,omitempty"`
    Weather *string  `json:"weather,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p CapturePatch) Empty() bool {
    return p.Species == nil && p.Size == nil && p.Weight == nil && p.Weather == nil
}

// TimeLayout is RFC 3339 with fixed-width microseconds, so stored
// timestamps sort lexicographically in time order.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// Timestamp formats t in UTC using TimeLayout.
func Timestamp(t time.Time) string {
    return t.UTC().Format(TimeLayout)
}
