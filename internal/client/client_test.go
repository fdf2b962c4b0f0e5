package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/fishtrack/internal/alert"
	"github.com/iliyamo/fishtrack/internal/capture"
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

type memStore struct{ t Tokens }

func (m *memStore) Tokens() Tokens            { return m.t }
func (m *memStore) SaveTokens(t Tokens) error { m.t = t; return nil }

type sunnyWeather struct{}

func (sunnyWeather) FetchWeather(context.Context, float64, float64) (*weather.Conditions, error) {
	return &weather.Conditions{Description: "céu limpo", Condition: "Clear", Temperature: 22.4, Humidity: 50, WindSpeed: 1}, nil
}

func (sunnyWeather) FetchForecast(context.Context, float64, float64) (*weather.Forecast, error) {
	return &weather.Forecast{LunarPhase: weather.NewMoon}, nil
}

type fixedLocator struct{}

func (fixedLocator) Locate(context.Context) (flow.Location, error) {
	return flow.Location{Latitude: -23.5, Longitude: -46.6}, nil
}

// newServer runs the real route table over an in-memory database.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	sessions := session.NewGateway(repository.NewUserRepo(db), repository.NewTokenRepo(db), service.LogMailer{Log: zap.NewNop()}, session.Options{
		JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 30, BcryptCost: 4, ResetURL: "https://fishtrack.app/reset",
	}, zap.NewNop())
	e := router.New(router.Deps{
		JWTSecret: "test-secret",
		Log:       zap.NewNop(),
		Reporter:  &reporting.Reporter{},
		Health:    &handler.HealthHandler{DB: db},
		Auth:      handler.NewAuthHandler(sessions),
		Captures:  handler.NewCaptureHandler(capture.NewGateway(repository.NewCaptureRepo(db), service.NopPublisher{}, zap.NewNop())),
		Weather:   handler.NewWeatherHandler(sunnyWeather{}),
		Photos:    handler.NewPhotoHandler(nil),
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	store := &memStore{}
	c := New(srv.URL, srv.Client(), store)

	var events []session.EventKind
	defer c.Subscribe(func(e session.Event) { events = append(events, e.Kind) })()

	assert.False(t, c.Authenticated(ctx))
	_, err := c.CurrentUser(ctx)
	require.NoError(t, err)

	u, err := c.Register(ctx, "ana@example.com", "pescaria", "Ana", "ana")
	require.NoError(t, err)
	assert.Equal(t, u.UID, store.t.UserID)
	assert.True(t, c.Authenticated(ctx))

	_, err = c.Register(ctx, "bia@example.com", "pescaria", "Bia", "ana")
	assert.ErrorIs(t, err, session.ErrNicknameTaken)
	_, err = c.Login(ctx, "ana@example.com", "errada")
	assert.ErrorIs(t, err, session.ErrWrongPassword)

	me, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ana", me.Nickname)

	require.NoError(t, c.ResetPassword(ctx, "ana@example.com"))

	require.NoError(t, c.Logout(ctx))
	assert.False(t, c.Authenticated(ctx))
	assert.Equal(t, Tokens{}, store.t)
	assert.Equal(t, []session.EventKind{session.SignedIn, session.SignedOut}, events)

	_, err = c.GetUserCaptures(ctx)
	assert.ErrorIs(t, err, session.ErrUnauthenticated)
}

func TestRejectedAccessTokenIsRefreshed(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	store := &memStore{}
	c := New(srv.URL, srv.Client(), store)

	_, err := c.Register(ctx, "ana@example.com", "pescaria", "Ana", "ana")
	require.NoError(t, err)
	first := store.t
	require.NoError(t, c.setTokens(Tokens{UserID: first.UserID, Access: "expired", Refresh: first.Refresh}))

	items, err := c.GetUserCaptures(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotEqual(t, first.Refresh, store.t.Refresh, "refresh token rotated")
	assert.NotEqual(t, "expired", store.t.Access)

	require.NoError(t, c.setTokens(Tokens{UserID: first.UserID, Access: "expired", Refresh: "revoked"}))
	var signedOut bool
	defer c.Subscribe(func(e session.Event) { signedOut = e.Kind == session.SignedOut })()
	_, err = c.GetUserCaptures(ctx)
	assert.ErrorIs(t, err, session.ErrUnauthenticated)
	assert.True(t, signedOut)
	assert.False(t, c.Authenticated(ctx))
}

func TestCaptureFlowAndCatchListOverHTTP(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	c := New(srv.URL, srv.Client(), &memStore{})
	_, err := c.Register(ctx, "ana@example.com", "pescaria", "Ana", "ana")
	require.NoError(t, err)

	form := flow.NewCaptureForm(fixedLocator{}, c, c, c, zap.NewNop())
	assert.Nil(t, form.Begin(ctx))
	assert.Equal(t, "céu limpo, 22°C", form.Fields().Weather)
	form.SetImage("file:///peixe.jpg")
	form.SetSpecies("Dourado")
	form.SetWeight("4.2")
	form.SetSize("70")
	res := form.Submit(ctx)
	require.NotNil(t, res)
	assert.Equal(t, alert.KindSuccess, res.Kind)
	require.NotNil(t, form.Saved())

	list := views.NewCatchList(c, c, zap.NewNop())
	list.Attach(ctx)
	defer list.Detach()
	assert.Nil(t, list.Load(ctx))
	require.Len(t, list.Items(), 1)
	assert.Equal(t, "70 cm", list.Cards()[0].Size)
	id := list.Items()[0].ID

	edit, err := list.BeginEdit(id)
	require.NoError(t, err)
	edit.Weight = "4.5"
	assert.Equal(t, alert.KindSuccess, list.SaveEdit(ctx, id, edit).Kind)
	got, err := c.GetCapture(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 4.5, got.Weight)

	assert.True(t, list.RequestDelete(id).Has(alert.ActionConfirm))
	assert.Equal(t, alert.KindSuccess, list.ConfirmDelete(ctx, id).Kind)
	assert.Empty(t, list.Items())

	_, err = c.GetCapture(ctx, id)
	assert.ErrorIs(t, err, capture.ErrNotFound)

	require.NoError(t, c.Logout(ctx))
	assert.Equal(t, views.StatusLoginPrompt, list.Status())
}

func TestWeatherAndPhotos(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	c := New(srv.URL, srv.Client(), &memStore{})

	_, err := c.FetchWeather(ctx, 0, 0)
	assert.ErrorIs(t, err, weather.ErrInvalidCoordinates)

	report, err := c.Advice(ctx, -23.5, -46.6)
	require.NoError(t, err)
	assert.True(t, report.Advice.Favorable)
	assert.Equal(t, weather.NewMoon, report.Forecast.LunarPhase)

	_, err = c.Register(ctx, "ana@example.com", "pescaria", "Ana", "ana")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "peixe.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o600))
	_, err = c.UploadPhoto(ctx, path)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, "storage_disabled", apiErr.Code)
}

func TestDecodeResponseUnknownBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	}))
	defer srv.Close()
	c := New(srv.URL, srv.Client(), &memStore{})

	err := c.ResetPassword(context.Background(), "ana@example.com")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Contains(t, apiErr.Error(), "gateway exploded")
}
