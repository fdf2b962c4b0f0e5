package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/fishtrack/internal/config"
)

// Client calls the upstream weather API.
type Client struct {
	cfg  config.WeatherConfig
	http *http.Client
	log  *zap.Logger
}

// NewClient returns a Client for cfg.  A nil httpClient gets one with
// cfg.Timeout.
func NewClient(cfg config.WeatherConfig, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: httpClient, log: log}
}

type currentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
		Pressure  float64 `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Rain *struct {
			ThreeHours float64 `json:"3h"`
		} `json:"rain"`
	} `json:"list"`
	City struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"city"`
}

// FetchWeather returns the current conditions at (lat, lon).
func (c *Client) FetchWeather(ctx context.Context, lat, lon float64) (*Conditions, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	var r currentResponse
	if err := c.get(ctx, "/weather", lat, lon, &r); err != nil {
		return nil, err
	}
	if len(r.Weather) == 0 {
		return nil, fmt.Errorf("%w: response without weather entry", ErrUnavailable)
	}
	return &Conditions{
		Place:       r.Name,
		Description: r.Weather[0].Description,
		Condition:   r.Weather[0].Main,
		Temperature: r.Main.Temp,
		FeelsLike:   r.Main.FeelsLike,
		Humidity:    r.Main.Humidity,
		Pressure:    r.Main.Pressure,
		WindSpeed:   r.Wind.Speed,
	}, nil
}

// FetchForecast returns the next ForecastSteps intervals and the lunar
// phase label.
func (c *Client) FetchForecast(ctx context.Context, lat, lon float64) (*Forecast, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	var r forecastResponse
	if err := c.get(ctx, "/forecast", lat, lon, &r); err != nil {
		return nil, err
	}
	f := &Forecast{
		Steps:      make([]Step, 0, ForecastSteps),
		LunarPhase: LunarPhase(r.City.Sunrise, r.City.Sunset),
	}
	for i, item := range r.List {
		if i == ForecastSteps {
			break
		}
		s := Step{Time: time.Unix(item.Dt, 0).UTC(), Temperature: item.Main.Temp}
		if len(item.Weather) > 0 {
			s.Description = item.Weather[0].Description
		}
		if item.Rain != nil {
			s.RainMM = item.Rain.ThreeHours
		}
		f.Steps = append(f.Steps, s)
	}
	return f, nil
}

func (c *Client) get(ctx context.Context, path string, lat, lon float64, out any) error {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("units", c.cfg.Units)
	q.Set("lang", c.cfg.Lang)
	q.Set("appid", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("weather request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		c.log.Warn("weather upstream status", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: upstream status %d", ErrUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return nil
}
