package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/fishtrack/internal/alert"
	"github.com/iliyamo/fishtrack/internal/capture"
	"github.com/iliyamo/fishtrack/internal/client"
	"github.com/iliyamo/fishtrack/internal/database"
	"github.com/iliyamo/fishtrack/internal/flow"
	"github.com/iliyamo/fishtrack/internal/handler"
	"github.com/iliyamo/fishtrack/internal/reporting"
	"github.com/iliyamo/fishtrack/internal/repository"
	"github.com/iliyamo/fishtrack/internal/router"
	"github.com/iliyamo/fishtrack/internal/service"
	"github.com/iliyamo/fishtrack/internal/session"
	"github.com/iliyamo/fishtrack/internal/views"
	"github.com/iliyamo/fishtrack/internal/weather"
)

type calmWeather struct{}

func (calmWeather) FetchWeather(context.Context, float64, float64) (*weather.Conditions, error) {
	return &weather.Conditions{Place: "Represa Billings", Description: "nublado", Condition: "Clouds", Temperature: 19.5, Humidity: 70, WindSpeed: 3}, nil
}

func (calmWeather) FetchForecast(context.Context, float64, float64) (*weather.Forecast, error) {
	return &weather.Forecast{LunarPhase: weather.FullMoon}, nil
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	sessions := session.NewGateway(repository.NewUserRepo(db), repository.NewTokenRepo(db), service.LogMailer{Log: zap.NewNop()}, session.Options{
		JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 30, BcryptCost: 4, ResetURL: "https://fishtrack.app/reset",
	}, zap.NewNop())
	srv := httptest.NewServer(router.New(router.Deps{
		JWTSecret: "test-secret",
		Log:       zap.NewNop(),
		Reporter:  &reporting.Reporter{},
		Health:    &handler.HealthHandler{DB: db},
		Auth:      handler.NewAuthHandler(sessions),
		Captures:  handler.NewCaptureHandler(capture.NewGateway(repository.NewCaptureRepo(db), service.NopPublisher{}, zap.NewNop())),
		Weather:   handler.NewWeatherHandler(calmWeather{}),
		Photos:    handler.NewPhotoHandler(nil),
	}))
	t.Cleanup(srv.Close)
	return srv
}

type harness struct {
	srv    *httptest.Server
	config string
}

func (h harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := NewApp(zap.NewNop())
	app.Out = &out
	app.In = strings.NewReader(stdin)
	app.HTTP = h.srv.Client()
	root := NewRootCommand(app)
	root.SetArgs(append([]string{"--config", h.config, "--server", h.srv.URL}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fishtrack.yaml")
	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, s.Theme)
	assert.Equal(t, defaultServer, s.Server)

	s.Theme = ThemeDark
	require.NoError(t, s.SaveTokens(tokensFixture()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "@FishTrack:theme")
	assert.Contains(t, string(raw), "dark")

	again, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, again.Theme)
	assert.Equal(t, "r1", again.Tokens().Refresh)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFlagLocator(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	loc := flagLocator{cmd: cmd}
	cmd.Flags().Float64Var(&loc.lat, "lat", 0, "")
	cmd.Flags().Float64Var(&loc.lon, "lon", 0, "")

	_, err := loc.Locate(context.Background())
	assert.ErrorIs(t, err, flow.ErrPermissionDenied)

	require.NoError(t, cmd.Flags().Parse([]string{"--lat", "-23.5", "--lon", "-46.6"}))
	got, err := loc.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, flow.Location{Latitude: -23.5, Longitude: -46.6}, got)
}

func TestRenderAlert(t *testing.T) {
	for _, th := range []Theme{LightTheme(), DarkTheme()} {
		out := th.RenderAlert(alert.Confirm("Excluir", "Tem certeza?", "Excluir"))
		assert.Contains(t, out, "Tem certeza?")
		assert.Contains(t, out, "[Cancelar]")
		assert.Contains(t, out, "[Excluir]")
	}
	assert.Empty(t, LightTheme().RenderAlert(nil))
	assert.Contains(t, DarkTheme().RenderCards(nil), "Nenhuma captura")
	assert.Contains(t, LightTheme().RenderPins([]views.Pin{{Title: "Tilápia", Description: "Peso: 2 kg - Data: 01/01/2024"}}), "Peso: 2 kg")
}

func TestThemeCommand(t *testing.T) {
	h := harness{srv: newServer(t), config: filepath.Join(t.TempDir(), "cfg.yaml")}

	out, err := h.run(t, "", "theme")
	require.NoError(t, err)
	assert.Equal(t, "light\n", out)

	_, err = h.run(t, "", "theme", "dark")
	require.NoError(t, err)
	out, err = h.run(t, "", "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	_, err = h.run(t, "", "theme", "sepia")
	assert.Error(t, err)
}

func TestCatchLifecycleFromTheCommandLine(t *testing.T) {
	h := harness{srv: newServer(t), config: filepath.Join(t.TempDir(), "cfg.yaml")}

	out, err := h.run(t, "", "catches", "list")
	assert.ErrorIs(t, err, ErrShown)
	assert.Contains(t, out, views.MsgLoginToView)

	_, err = h.run(t, "", "register", "--email", "ana@example.com", "--password", "pescaria", "--name", "Ana", "--nickname", "ana")
	require.NoError(t, err)

	out, err = h.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Ana (@ana)")

	out, err = h.run(t, "", "capture", "--species", "Tilápia", "--weight", "2.5", "--size", "45", "--image", "https://cdn.test/1.jpg")
	assert.ErrorIs(t, err, ErrShown)
	assert.Contains(t, out, flow.MsgLocationForSave)

	out, err = h.run(t, "", "capture", "--lat", "-23.5", "--lon", "-46.6", "--species", "Tilápia", "--weight", "dois", "--size", "45", "--image", "https://cdn.test/1.jpg")
	assert.NoError(t, err, "validation is a warning")
	assert.Contains(t, out, alert.MsgNotANumber)

	out, err = h.run(t, "", "capture", "--lat", "-23.5", "--lon", "-46.6", "--species", "Tilápia", "--weight", "2.5", "--size", "45", "--image", "https://cdn.test/1.jpg")
	require.NoError(t, err)
	assert.Contains(t, out, flow.MsgSaved)

	out, err = h.run(t, "", "catches", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "45 cm")
	assert.Contains(t, out, "nublado, 20°C")

	out, err = h.run(t, "", "catches", "map")
	require.NoError(t, err)
	assert.Contains(t, out, "Peso: 2.5 kg")

	settings, err := LoadSettings(h.config)
	require.NoError(t, err)
	id := firstCaptureID(t, h, settings)

	out, err = h.run(t, "", "catches", "edit", id, "--weight", "3")
	require.NoError(t, err)
	assert.Contains(t, out, views.MsgUpdated)

	out, err = h.run(t, "n\n", "catches", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, msgCancelled)

	out, err = h.run(t, "", "catches", "delete", "--yes", id)
	require.NoError(t, err)
	assert.Contains(t, out, views.MsgDeleted)

	out, err = h.run(t, "", "weather", "--lat", "-23.5", "--lon", "-46.6")
	require.NoError(t, err)
	assert.Contains(t, out, "Represa Billings")
	assert.Contains(t, out, weather.FavorableText)

	_, err = h.run(t, "", "logout")
	require.NoError(t, err)
	out, err = h.run(t, "", "logout")
	assert.ErrorIs(t, err, ErrShown)
	assert.Contains(t, out, alert.MsgUnauthenticated)
}

func firstCaptureID(t *testing.T, h harness, s *Settings) string {
	t.Helper()
	app := NewApp(zap.NewNop())
	app.HTTP = h.srv.Client()
	app.configPath = h.config
	require.NoError(t, app.init())
	items, err := app.api.GetUserCaptures(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, items)
	assert.Equal(t, s.UserID, items[0].UserID)
	return items[0].ID
}

func tokensFixture() client.Tokens {
	return client.Tokens{UserID: "u1", Access: "a1", Refresh: "r1"}
}
