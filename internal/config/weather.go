package config

import "time"

// WeatherConfig points the weather client at an OpenWeatherMap-compatible
// API.  Units and Lang are sent verbatim as query parameters.
type WeatherConfig struct {
    BaseURL string
    APIKey  string
    Units   string
    Lang    string
    Timeout time.Duration
}

// LoadWeatherConfig reads WEATHER_* variables.  WEATHER_API_KEY has no
// default; an empty key makes every upstream call fail with 401, which the
// client reports as unavailable.
func LoadWeatherConfig() WeatherConfig {
    return WeatherConfig{
        BaseURL: envStr("WEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
        APIKey:  envStr("WEATHER_API_KEY", ""),
        Units:   envStr("WEATHER_UNITS", "metric"),
        Lang:    envStr("WEATHER_LANG", "pt_br"),
        Timeout: envDur("WEATHER_TIMEOUT", 10*time.Second),
    }
}
