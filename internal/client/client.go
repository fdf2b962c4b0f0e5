// Package client talks to the FishTrack HTTP API.  It implements the
// session, record store and weather interfaces the capture flow and the
// catch list expect, so the same view models run on top of the service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/fishtrack/internal/apierror"
	"github.com/iliyamo/fishtrack/internal/model"
	"github.com/iliyamo/fishtrack/internal/session"
	"github.com/iliyamo/fishtrack/internal/storage"
	"github.com/iliyamo/fishtrack/internal/weather"
)

// Tokens is the persisted session of the CLI user.
type Tokens struct {
	UserID  string
	Access  string
	Refresh string
}

// TokenStore persists Tokens between runs.
type TokenStore interface {
	Tokens() Tokens
	SaveTokens(Tokens) error
}

// APIError is returned for error responses whose code has no sentinel.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api %d %s", e.Status, e.Code)
}

// Client is safe for concurrent use.  Session changes are published on the
// embedded Notifier.
type Client struct {
	session.Notifier

	base  string
	http  *http.Client
	store TokenStore

	mu     sync.Mutex
	tokens Tokens
}

// New returns a client for baseURL.  A nil httpClient gets a 30 second
// timeout.
func New(baseURL string, httpClient *http.Client, store TokenStore) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   httpClient,
		store:  store,
		tokens: store.Tokens(),
	}
}

type authResponse struct {
	User   *model.User `json:"user"`
	Access struct {
		Token string `json:"token"`
	} `json:"access"`
	Refresh struct {
		Token string `json:"token"`
	} `json:"refresh"`
}

// AdviceReport is the body of GET /v1/weather/advice.
type AdviceReport struct {
	Conditions weather.Conditions `json:"conditions"`
	Forecast   weather.Forecast   `json:"forecast"`
	Advice     weather.Advice     `json:"advice"`
}

func (c *Client) current() Tokens {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

func (c *Client) setTokens(t Tokens) error {
	c.mu.Lock()
	c.tokens = t
	c.mu.Unlock()
	return c.store.SaveTokens(t)
}

func (c *Client) signIn(r authResponse) (*model.User, error) {
	if r.User == nil || r.Access.Token == "" {
		return nil, errors.New("malformed auth response")
	}
	if err := c.setTokens(Tokens{UserID: r.User.UID, Access: r.Access.Token, Refresh: r.Refresh.Token}); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	c.Publish(session.Event{Kind: session.SignedIn, UserID: r.User.UID, At: time.Now()})
	return r.User, nil
}

func (c *Client) signOut() {
	prev := c.current()
	_ = c.setTokens(Tokens{})
	if prev.Access != "" || prev.Refresh != "" {
		c.Publish(session.Event{Kind: session.SignedOut, UserID: prev.UserID, At: time.Now()})
	}
}

// Authenticated reports whether a session is stored locally.  An expired
// session is noticed on the next authenticated call.
func (c *Client) Authenticated(context.Context) bool {
	return c.current().Access != ""
}

// UserID returns the uid of the stored session, or "".
func (c *Client) UserID() string { return c.current().UserID }

// Register creates the account and signs in.
func (c *Client) Register(ctx context.Context, email, password, name, nickname string) (*model.User, error) {
	var out authResponse
	err := c.call(ctx, http.MethodPost, "/v1/auth/register", false, map[string]string{
		"email": email, "password": password, "name": name, "nickname": nickname,
	}, &out)
	if err != nil {
		return nil, err
	}
	return c.signIn(out)
}

// Login signs in with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	var out authResponse
	err := c.call(ctx, http.MethodPost, "/v1/auth/login", false, map[string]string{
		"email": email, "password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return c.signIn(out)
}

// Logout revokes the stored refresh token and forgets the session.  The
// local session is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	t := c.current()
	if t.Access == "" && t.Refresh == "" {
		return session.ErrUnauthenticated
	}
	err := c.call(ctx, http.MethodPost, "/v1/auth/logout", false, map[string]string{"refresh_token": t.Refresh}, nil)
	c.signOut()
	if errors.Is(err, session.ErrInvalidToken) {
		return nil
	}
	return err
}

// ResetPassword asks the server to mail a recovery link.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	return c.call(ctx, http.MethodPost, "/v1/auth/password/reset", false, map[string]string{"email": email}, nil)
}

// CurrentUser returns the profile of the signed-in user, or nil when no
// session is stored.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	if !c.Authenticated(ctx) {
		return nil, nil
	}
	var u model.User
	if err := c.call(ctx, http.MethodGet, "/v1/me", true, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// AddCapture stores a catch for the signed-in user.
func (c *Client) AddCapture(ctx context.Context, rec model.Capture) (model.Capture, error) {
	var out model.Capture
	err := c.call(ctx, http.MethodPost, "/v1/captures", true, rec, &out)
	return out, err
}

// GetUserCaptures lists the signed-in user's catches, newest first.
func (c *Client) GetUserCaptures(ctx context.Context) ([]model.Capture, error) {
	var out struct {
		Items []model.Capture `json:"items"`
	}
	if err := c.call(ctx, http.MethodGet, "/v1/captures", true, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// GetCapture fetches one catch.
func (c *Client) GetCapture(ctx context.Context, id string) (model.Capture, error) {
	var out model.Capture
	err := c.call(ctx, http.MethodGet, "/v1/captures/"+url.PathEscape(id), true, nil, &out)
	return out, err
}

// UpdateCapture applies a partial edit.
func (c *Client) UpdateCapture(ctx context.Context, id string, p model.CapturePatch) error {
	return c.call(ctx, http.MethodPatch, "/v1/captures/"+url.PathEscape(id), true, p, nil)
}

// DeleteCapture removes one catch.
func (c *Client) DeleteCapture(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/v1/captures/"+url.PathEscape(id), true, nil, nil)
}

func coordPath(path string, lat, lon float64) string {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return path + "?" + q.Encode()
}

// FetchWeather returns current conditions at a point.
func (c *Client) FetchWeather(ctx context.Context, lat, lon float64) (*weather.Conditions, error) {
	if err := weather.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	var out weather.Conditions
	if err := c.call(ctx, http.MethodGet, coordPath("/v1/weather", lat, lon), false, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Advice returns conditions, forecast and the fishing verdict in one call.
func (c *Client) Advice(ctx context.Context, lat, lon float64) (*AdviceReport, error) {
	if err := weather.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	var out AdviceReport
	if err := c.call(ctx, http.MethodGet, coordPath("/v1/weather/advice", lat, lon), false, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadPhoto sends a local image file and returns the stored photo.
func (c *Client) UploadPhoto(ctx context.Context, path string) (storage.Photo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return storage.Photo{}, err
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filepath.Base(path))
	if err != nil {
		return storage.Photo{}, err
	}
	if _, err := part.Write(data); err != nil {
		return storage.Photo{}, err
	}
	if err := w.Close(); err != nil {
		return storage.Photo{}, err
	}
	var out storage.Photo
	err = c.send(ctx, http.MethodPost, "/v1/photos", true, w.FormDataContentType(), buf.Bytes(), &out)
	return out, err
}

// call sends a JSON body (if any) and decodes a JSON response into out (if
// non-nil).
func (c *Client) call(ctx context.Context, method, path string, auth bool, body, out any) error {
	var payload []byte
	contentType := ""
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload, contentType = b, "application/json"
	}
	return c.send(ctx, method, path, auth, contentType, payload, out)
}

// send performs the request.  An authenticated request that comes back 401
// refreshes the session once and retries; when the refresh fails the local
// session is dropped and ErrUnauthenticated returned.
func (c *Client) send(ctx context.Context, method, path string, auth bool, contentType string, payload []byte, out any) error {
	if auth && !c.Authenticated(ctx) {
		return session.ErrUnauthenticated
	}
	resp, err := c.do(ctx, method, path, auth, contentType, payload)
	if err != nil {
		return err
	}
	if auth && resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		if err := c.refresh(ctx); err != nil {
			c.signOut()
			return session.ErrUnauthenticated
		}
		if resp, err = c.do(ctx, method, path, auth, contentType, payload); err != nil {
			return err
		}
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func (c *Client) do(ctx context.Context, method, path string, auth bool, contentType string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if t := c.current(); t.Access != "" && (auth || strings.HasSuffix(path, "/logout")) {
		req.Header.Set("Authorization", "Bearer "+t.Access)
	}
	return c.http.Do(req)
}

func (c *Client) refresh(ctx context.Context) error {
	t := c.current()
	if t.Refresh == "" {
		return session.ErrInvalidToken
	}
	b, _ := json.Marshal(map[string]string{"refresh_token": t.Refresh})
	resp, err := c.do(ctx, http.MethodPost, "/v1/auth/refresh", false, "application/json", b)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	var out authResponse
	if err := decodeResponse(resp, &out); err != nil {
		return err
	}
	return c.setTokens(Tokens{UserID: t.UserID, Access: out.Access.Token, Refresh: out.Refresh.Token})
}

// decodeResponse turns an error body back into its sentinel and decodes a
// success body into out.
func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}
	var body apierror.Body
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		return &APIError{Status: resp.StatusCode, Code: apierror.CodeInternal, Message: strings.TrimSpace(string(raw))}
	}
	if sentinel := apierror.FromCode(body.Error); sentinel != nil {
		return sentinel
	}
	return &APIError{Status: resp.StatusCode, Code: body.Error, Message: body.Message}
}
