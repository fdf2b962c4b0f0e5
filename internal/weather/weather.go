// Package weather is the Weather Lookup: current conditions and a short
// forecast from an OpenWeatherMap-compatible API, plus the fishing-condition
// rule table built on them.
package weather

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrInvalidCoordinates is returned before any request is made.
	ErrInvalidCoordinates = errors.New("coordinates invalid")
	// ErrUnavailable wraps transport, status and decoding failures.
	ErrUnavailable = errors.New("weather unavailable")
)

// Conditions is the display model of a current-weather response.
type Conditions struct {
	Place       string  `json:"place"`
	Description string  `json:"description"`
	Condition   string  `json:"condition"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`
	WindSpeed   float64 `json:"wind_speed"`
}

// RoundedTemperature rounds half up to a whole degree.
func (c Conditions) RoundedTemperature() int {
	return int(math.Floor(c.Temperature + 0.5))
}

// Summary is the one-line text stored on a catch record.
func (c Conditions) Summary() string {
	return fmt.Sprintf("%s, %d°C", c.Description, c.RoundedTemperature())
}

// Step is one 3-hour forecast interval.
type Step struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperature"`
	Description string    `json:"description"`
	RainMM      float64   `json:"rain_mm"`
}

// Forecast holds the next few steps and the derived lunar phase label.
type Forecast struct {
	Steps      []Step `json:"steps"`
	LunarPhase string `json:"lunar_phase"`
}

// ForecastSteps is how many intervals a Forecast keeps.
const ForecastSteps = 5

// Lunar phase labels.  The derivation compares sunrise and sunset and is
// not astronomically meaningful; clients display it as-is.
const (
	NewMoon  = "Lua Nova"
	FullMoon = "Lua Cheia"
)

// LunarPhase derives the phase label from the city's sunrise and sunset
// unix timestamps.
func LunarPhase(sunrise, sunset int64) string {
	if sunrise > sunset {
		return NewMoon
	}
	return FullMoon
}

// ValidateCoordinates rejects non-finite or out-of-range values and the
// unset (0,0) pair a device reports before it has a fix.
func ValidateCoordinates(lat, lon float64) error {
	switch {
	case math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0):
		return ErrInvalidCoordinates
	case lat < -90 || lat > 90 || lon < -180 || lon > 180:
		return ErrInvalidCoordinates
	case lat == 0 && lon == 0:
		return ErrInvalidCoordinates
	}
	return nil
}
