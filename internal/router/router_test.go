package router

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/fishtrack/internal/capture"
	"github.com/iliyamo/fishtrack/internal/database"
	"github.com/iliyamo/fishtrack/internal/handler"
	"github.com/iliyamo/fishtrack/internal/model"
	"github.com/iliyamo/fishtrack/internal/reporting"
	"github.com/iliyamo/fishtrack/internal/repository"
	"github.com/iliyamo/fishtrack/internal/service"
	"github.com/iliyamo/fishtrack/internal/session"
	"github.com/iliyamo/fishtrack/internal/storage"
	"github.com/iliyamo/fishtrack/internal/weather"
)

const secret = "test-secret"

type nopMailer struct{ sent int }

func (m *nopMailer) SendPasswordReset(context.Context, string, string, string) error {
	m.sent++
	return nil
}

type stubWeather struct {
	err error
}

func (s *stubWeather) FetchWeather(context.Context, float64, float64) (*weather.Conditions, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &weather.Conditions{Place: "Represa", Description: "céu limpo", Condition: "Clear", Temperature: 24.6, Humidity: 60, WindSpeed: 2}, nil
}

func (s *stubWeather) FetchForecast(context.Context, float64, float64) (*weather.Forecast, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &weather.Forecast{LunarPhase: weather.FullMoon}, nil
}

type stubPhotos struct{ userID string }

func (s *stubPhotos) Save(_ context.Context, userID, filename, _ string, r io.Reader) (storage.Photo, error) {
	if _, err := io.ReadAll(r); err != nil {
		return storage.Photo{}, err
	}
	s.userID = userID
	return storage.Photo{Key: storage.ObjectKey(userID, filename), URL: "https://cdn.test/" + filename}, nil
}

type fixture struct {
	e       *echo.Echo
	db      *sql.DB
	mailer  *nopMailer
	weather *stubWeather
	photos  *stubPhotos
}

func newFixture(t *testing.T, withPhotos bool) *fixture {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	f := &fixture{db: db, mailer: &nopMailer{}, weather: &stubWeather{}}
	sessions := session.NewGateway(repository.NewUserRepo(db), repository.NewTokenRepo(db), f.mailer, session.Options{
		JWTSecret: secret, AccessTTLMin: 15, RefreshTTLDays: 30, BcryptCost: 4, ResetURL: "https://fishtrack.app/reset",
	}, zap.NewNop())
	captures := capture.NewGateway(repository.NewCaptureRepo(db), service.NopPublisher{}, zap.NewNop())

	var photos handler.PhotoSaver
	if withPhotos {
		f.photos = &stubPhotos{}
		photos = f.photos
	}
	f.e = New(Deps{
		JWTSecret: secret,
		Log:       zap.NewNop(),
		Reporter:  &reporting.Reporter{},
		Health:    &handler.HealthHandler{DB: db},
		Auth:      handler.NewAuthHandler(sessions),
		Captures:  handler.NewCaptureHandler(captures),
		Weather:   handler.NewWeatherHandler(f.weather),
		Photos:    handler.NewPhotoHandler(photos),
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(bs)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

func (f *fixture) signUp(t *testing.T, email, nickname string) handler.AuthResponse {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/v1/auth/register", "", echo.Map{
		"email": email, "password": "pescaria", "name": "Ana", "nickname": nickname,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[handler.AuthResponse](t, rec)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthRoutes(t *testing.T) {
	f := newFixture(t, false)
	ana := f.signUp(t, "ana@example.com", "ana")
	assert.Equal(t, "ana", ana.User.Nickname)
	assert.NotEmpty(t, ana.Access.Token)
	assert.NotEmpty(t, ana.Refresh.Token)

	cases := []struct {
		name   string
		path   string
		body   echo.Map
		status int
		code   string
	}{
		{"nickname taken", "/v1/auth/register", echo.Map{"email": "bia@example.com", "password": "pescaria", "name": "Bia", "nickname": "ana"}, http.StatusConflict, "nickname_taken"},
		{"email in use", "/v1/auth/register", echo.Map{"email": "ana@example.com", "password": "pescaria", "name": "Ana", "nickname": "ana2"}, http.StatusConflict, "email_in_use"},
		{"weak password", "/v1/auth/register", echo.Map{"email": "c@example.com", "password": "123", "name": "C", "nickname": "c"}, http.StatusBadRequest, "weak_password"},
		{"wrong password", "/v1/auth/login", echo.Map{"email": "ana@example.com", "password": "tarrafa"}, http.StatusUnauthorized, "wrong_password"},
		{"unknown user", "/v1/auth/login", echo.Map{"email": "zoe@example.com", "password": "pescaria"}, http.StatusNotFound, "user_not_found"},
		{"invalid email", "/v1/auth/login", echo.Map{"email": "zoe", "password": "pescaria"}, http.StatusBadRequest, "invalid_email"},
		{"bad refresh", "/v1/auth/refresh", echo.Map{"refresh_token": "nope"}, http.StatusUnauthorized, "invalid_token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, tc.path, "", tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, errorCode(t, rec))
		})
	}

	t.Run("me", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/v1/me", ana.Access.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ana@example.com", decode[model.User](t, rec).Email)

		rec = f.do(t, http.MethodGet, "/v1/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("update profile", func(t *testing.T) {
		rec := f.do(t, http.MethodPatch, "/v1/me", ana.Access.Token, echo.Map{"name": "Ana Paula"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "Ana Paula", decode[model.User](t, rec).Name)

		rec = f.do(t, http.MethodGet, "/v1/users/"+ana.User.UID, ana.Access.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		rec = f.do(t, http.MethodGet, "/v1/users/missing", ana.Access.Token, nil)
		assert.Equal(t, "profile_not_found", errorCode(t, rec))
	})

	t.Run("refresh then logout everywhere", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh_token": ana.Refresh.Token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		rotated := decode[handler.AuthResponse](t, rec)

		rec = f.do(t, http.MethodPost, "/v1/auth/logout", rotated.Access.Token, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = f.do(t, http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh_token": rotated.Refresh.Token})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("anonymous logout", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/auth/logout", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthenticated", errorCode(t, rec))
	})

	t.Run("password reset", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/auth/password/reset", "", echo.Map{"email": "ana@example.com"})
		assert.Equal(t, http.StatusAccepted, rec.Code)
		rec = f.do(t, http.MethodPost, "/v1/auth/password/reset", "", echo.Map{"email": "nobody@example.com"})
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, 1, f.mailer.sent)

		rec = f.do(t, http.MethodPost, "/v1/auth/password/confirm", "", echo.Map{"token": "bogus", "password": "tarrafa"})
		assert.Equal(t, "invalid_token", errorCode(t, rec))
	})
}

func TestCaptureRoutes(t *testing.T) {
	f := newFixture(t, false)
	ana := f.signUp(t, "ana@example.com", "ana").Access.Token
	bia := f.signUp(t, "bia@example.com", "bia").Access.Token

	rec := f.do(t, http.MethodPost, "/v1/captures", ana, echo.Map{
		"species": "Tilápia", "weight": "2.5", "size": "45", "date": "16/08/2024",
		"weather": "céu limpo, 25°C", "image": "file:///1.jpg", "latitude": -23.5, "longitude": -46.6,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.Capture](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 2.5, created.Weight)
	path := "/v1/captures/" + created.ID

	t.Run("create validation", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/captures", ana, echo.Map{"species": "Traíra", "weight": "pesado", "image": "x"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "not_a_number", errorCode(t, rec))

		rec = f.do(t, http.MethodPost, "/v1/captures", ana, echo.Map{"species": "Traíra"})
		assert.Equal(t, "missing_fields", errorCode(t, rec))

		rec = f.do(t, http.MethodPost, "/v1/captures", "", echo.Map{"species": "Traíra", "image": "x"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("list cards and map", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/v1/captures", ana, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[map[string][]model.Capture](t, rec)["items"], 1)

		rec = f.do(t, http.MethodGet, "/v1/captures?view=cards", ana, nil)
		assert.Contains(t, rec.Body.String(), `"45 cm"`)
		assert.Contains(t, rec.Body.String(), `"2.5 kg"`)

		rec = f.do(t, http.MethodGet, "/v1/captures/map", ana, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Peso: 2.5 kg - Data: 16/08/2024")

		rec = f.do(t, http.MethodGet, "/v1/captures", bia, nil)
		assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
	})

	t.Run("other users see not found", func(t *testing.T) {
		for _, method := range []string{http.MethodGet, http.MethodDelete} {
			rec := f.do(t, method, path, bia, nil)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, "capture_not_found", errorCode(t, rec))
		}
		rec := f.do(t, http.MethodPatch, path, bia, echo.Map{"species": "Pintado"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("update", func(t *testing.T) {
		rec := f.do(t, http.MethodPatch, path, ana, echo.Map{"species": "Tucunaré", "weight": "3"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decode[model.Capture](t, rec)
		assert.Equal(t, "Tucunaré", got.Species)
		assert.Equal(t, 3.0, got.Weight)
		assert.Equal(t, 45.0, got.Size)
		assert.NotEmpty(t, got.UpdatedAt)

		rec = f.do(t, http.MethodPut, path, ana, echo.Map{})
		assert.Equal(t, "missing_fields", errorCode(t, rec))
	})

	t.Run("delete", func(t *testing.T) {
		rec := f.do(t, http.MethodDelete, path, ana, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = f.do(t, http.MethodGet, path, ana, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestWeatherRoutes(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/v1/weather?lat=-23.5&lon=-46.6", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "céu limpo, 25°C", body["summary"])
	assert.EqualValues(t, 25, body["rounded_temperature"])

	rec = f.do(t, http.MethodGet, "/v1/weather/advice?lat=-23.5&lon=-46.6", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), weather.FavorableText)

	for _, q := range []string{"lat=abc&lon=1", "lat=91&lon=0", "lat=0&lon=0", ""} {
		rec = f.do(t, http.MethodGet, "/v1/weather/forecast?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.Equal(t, "invalid_coordinates", errorCode(t, rec))
	}

	f.weather.err = weather.ErrUnavailable
	rec = f.do(t, http.MethodGet, "/v1/weather/advice?lat=-23.5&lon=-46.6", "", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "weather_unavailable", errorCode(t, rec))

	f.weather.err = errors.New("boom")
	rec = f.do(t, http.MethodGet, "/v1/weather?lat=-23.5&lon=-46.6", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func multipartImage(t *testing.T, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", "peixe.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/photos", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	return req
}

func TestPhotoUpload(t *testing.T) {
	t.Run("storage disabled", func(t *testing.T) {
		f := newFixture(t, false)
		token := f.signUp(t, "ana@example.com", "ana").Access.Token
		rec := httptest.NewRecorder()
		f.e.ServeHTTP(rec, multipartImage(t, token))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("stored under the caller", func(t *testing.T) {
		f := newFixture(t, true)
		ana := f.signUp(t, "ana@example.com", "ana")
		rec := httptest.NewRecorder()
		f.e.ServeHTTP(rec, multipartImage(t, ana.Access.Token))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, ana.User.UID, f.photos.userID)
		assert.Equal(t, "https://cdn.test/peixe.jpg", decode[storage.Photo](t, rec).URL)

		rec = f.do(t, http.MethodPost, "/v1/photos", ana.Access.Token, echo.Map{})
		assert.Equal(t, "missing_fields", errorCode(t, rec))
	})
}
