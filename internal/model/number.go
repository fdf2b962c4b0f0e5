package model

import (
    "bytes"
    "encoding/json"
    "errors"
    "math"
    "strconv"
    "strings"
)

// ErrNotANumber is returned when a numeric field holds text that does not
// parse as a finite number.
var ErrNotANumber = errors.New("not a number")

// Number is a float64 that decodes from either a JSON number or a numeric
// string ("2.5").  Form clients send what the user typed; the store always
// receives a real number.
type Number float64

// UnmarshalJSON accepts 2.5, "2.5" and " 2.5 ".  An empty string or null
// decodes to zero.
func (n *Number) UnmarshalJSON(b []byte) error {
    b = bytes.TrimSpace(b)
    if len(b) == 0 || bytes.Equal(b, []byte("null")) {
        *n = 0
        return nil
    }
    if b[0] == '"' {
        var s string
        if err := json.Unmarshal(b, &s); err != nil {
            return err
        }
        if strings.TrimSpace(s) == "" {
            *n = 0
            return nil
        }
        v, err := ParseNumber(s)
        if err != nil {
            return err
        }
        *n = Number(v)
        return nil
    }
    var f float64
    if err := json.Unmarshal(b, &f); err != nil {
        return ErrNotANumber
    }
    *n = Number(f)
    return nil
}

// ParseNumber converts user-entered text into a finite float64.
func ParseNumber(s string) (float64, error) {
    v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
    if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
        return 0, ErrNotANumber
    }
    return v, nil
}

// FormatNumber renders a float without trailing zeros (2.5, 45).
func FormatNumber(f float64) string {
    return strconv.FormatFloat(f, 'f', -1, 64)
}
