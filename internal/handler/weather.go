package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"
    "golang.org/x/sync/errgroup"

    "github.com/iliyamo/fishtrack/internal/weather"
)

// WeatherLookup is the subset of weather.Client the handler calls.
type WeatherLookup interface {
    FetchWeather(ctx context.Context, lat, lon float64) (*weather.Conditions, error)
    FetchForecast(ctx context.Context, lat, lon float64) (*weather.Forecast, error)
}

// WeatherHandler proxies the weather API.  Responses are cached per rounded
// coordinate pair by the Redis cache middleware on this route group.
type WeatherHandler struct {
    Weather WeatherLookup
}

func NewWeatherHandler(w WeatherLookup) *WeatherHandler {
    return &WeatherHandler{Weather: w}
}

type conditionsResp struct {
    *weather.Conditions
    RoundedTemperature int    `json:"rounded_temperature"`
    Summary            string `json:"summary"`
}

type adviceResp struct {
    Conditions conditionsResp    `json:"conditions"`
    Forecast   *weather.Forecast `json:"forecast"`
    Advice     weather.Advice    `json:"advice"`
}

func withDisplay(w *weather.Conditions) conditionsResp {
    return conditionsResp{Conditions: w, RoundedTemperature: w.RoundedTemperature(), Summary: w.Summary()}
}

// coords parses ?lat=&lon=.  Anything unparsable counts as invalid
// coordinates, the same as an out-of-range pair.
func coords(c echo.Context) (float64, float64, error) {
    lat, err1 := strconv.ParseFloat(strings.TrimSpace(c.QueryParam("lat")), 64)
    lon, err2 := strconv.ParseFloat(strings.TrimSpace(c.QueryParam("lon")), 64)
    if err1 != nil || err2 != nil {
        return 0, 0, weather.ErrInvalidCoordinates
    }
    if err := weather.ValidateCoordinates(lat, lon); err != nil {
        return 0, 0, err
    }
    return lat, lon, nil
}

// Current returns the conditions at the given point.
func (h *WeatherHandler) Current(c echo.Context) error {
    lat, lon, err := coords(c)
    if err != nil {
        return fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    w, err := h.Weather.FetchWeather(ctx, lat, lon)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, withDisplay(w))
}

// Forecast returns the next forecast steps and the lunar phase label.
func (h *WeatherHandler) Forecast(c echo.Context) error {
    lat, lon, err := coords(c)
    if err != nil {
        return fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    f, err := h.Weather.FetchForecast(ctx, lat, lon)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, f)
}

// Advice fetches conditions and forecast concurrently and applies the
// fishing rule table.  Either upstream failing fails the request.
func (h *WeatherHandler) Advice(c echo.Context) error {
    lat, lon, err := coords(c)
    if err != nil {
        return fail(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    var (
        w *weather.Conditions
        f *weather.Forecast
    )
    g, gctx := errgroup.WithContext(ctx)
    g.Go(func() (err error) {
        w, err = h.Weather.FetchWeather(gctx, lat, lon)
        return err
    })
    g.Go(func() (err error) {
        f, err = h.Weather.FetchForecast(gctx, lat, lon)
        return err
    })
    if err := g.Wait(); err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, adviceResp{
        Conditions: withDisplay(w),
        Forecast:   f,
        Advice:     weather.AdviseFor(*w, *f),
    })
}
