package flow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/fishtrack/internal/alert"
	"github.com/iliyamo/fishtrack/internal/model"
	"github.com/iliyamo/fishtrack/internal/session"
	"github.com/iliyamo/fishtrack/internal/weather"
)

type fakeLocator struct {
	loc Location
	err error
}

func (l *fakeLocator) Locate(context.Context) (Location, error) { return l.loc, l.err }

type fakeWeather struct {
	cond *weather.Conditions
	err  error
}

func (w *fakeWeather) FetchWeather(context.Context, float64, float64) (*weather.Conditions, error) {
	return w.cond, w.err
}

type fakeStore struct {
	mu    sync.Mutex
	calls []model.Capture
	err   error
	// block, when set, makes AddCapture wait for ctx cancellation after
	// signalling entered.
	block   bool
	entered chan struct{}
}

func (s *fakeStore) AddCapture(ctx context.Context, c model.Capture) (model.Capture, error) {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()
	if s.block {
		close(s.entered)
		<-ctx.Done()
		return model.Capture{}, ctx.Err()
	}
	if s.err != nil {
		return model.Capture{}, s.err
	}
	c.ID = "c1"
	c.UserID = "u1"
	return c, nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type fakeSession bool

func (s fakeSession) Authenticated(context.Context) bool { return bool(s) }

func newForm(store *fakeStore) (*CaptureForm, *fakeLocator, *fakeWeather) {
	loc := &fakeLocator{loc: Location{Latitude: -23.55, Longitude: -46.63}}
	wx := &fakeWeather{cond: &weather.Conditions{Description: "céu limpo", Temperature: 24.6}}
	f := NewCaptureForm(loc, wx, store, fakeSession(true), nil)
	f.Now = func() time.Time { return time.Date(2024, 8, 16, 9, 30, 0, 0, time.UTC) }
	return f, loc, wx
}

func fill(f *CaptureForm, species, weight, size string) {
	f.SetImage("file:///photos/1.jpg")
	f.SetSpecies(species)
	f.SetWeight(weight)
	f.SetSize(size)
}

func TestBeginFillsContext(t *testing.T) {
	f, _, _ := newForm(&fakeStore{})
	assert.Equal(t, Idle, f.State())

	require.Nil(t, f.Begin(context.Background()))
	assert.Equal(t, ReadyForInput, f.State())
	assert.Equal(t, "16/08/2024", f.Fields().Date)
	assert.Equal(t, "céu limpo, 25°C", f.Fields().Weather)
}

func TestBeginFailuresStillReady(t *testing.T) {
	t.Run("permission denied", func(t *testing.T) {
		f, loc, _ := newForm(&fakeStore{})
		loc.err = ErrPermissionDenied
		r := f.Begin(context.Background())
		require.NotNil(t, r)
		assert.Equal(t, "Permissão necessária", r.Title)
		assert.Equal(t, ReadyForInput, f.State())
		assert.Empty(t, f.Fields().Weather)
	})
	t.Run("weather unavailable", func(t *testing.T) {
		f, _, wx := newForm(&fakeStore{})
		wx.err = weather.ErrUnavailable
		r := f.Begin(context.Background())
		require.NotNil(t, r)
		assert.Equal(t, alert.KindError, r.Kind)
		assert.Equal(t, alert.MsgWeatherDown, r.Message)
		assert.Equal(t, ReadyForInput, f.State())
	})
}

func TestSubmitStoresRecord(t *testing.T) {
	store := &fakeStore{}
	f, _, _ := newForm(store)
	require.Nil(t, f.Begin(context.Background()))
	fill(f, "Tilápia", "2.5", "45")

	r := f.Submit(context.Background())
	require.NotNil(t, r)
	assert.Equal(t, alert.KindSuccess, r.Kind)
	assert.Equal(t, "Captura registrada com sucesso!", r.Message)
	assert.Equal(t, Done, f.State())
	assert.Equal(t, Fields{}, f.Fields())

	require.Equal(t, 1, store.count())
	got := store.calls[0]
	assert.Equal(t, "Tilápia", got.Species)
	assert.Equal(t, 2.5, got.Weight)
	assert.Equal(t, 45.0, got.Size)
	assert.Equal(t, -23.55, got.Latitude)
	assert.Equal(t, "16/08/2024", got.Date)
	assert.Equal(t, "céu limpo, 25°C", got.Weather)
	require.NotNil(t, f.Saved())
	assert.Equal(t, "c1", f.Saved().ID)
}

func TestSubmitValidation(t *testing.T) {
	cases := []struct {
		name                         string
		image, species, weight, size string
		msg                          string
	}{
		{"no image", "", "Tilápia", "2.5", "45", MsgImageRequired},
		{"empty species", "img", "", "2.5", "45", alert.MsgMissingFields},
		{"blank weight", "img", "Tilápia", "  ", "45", alert.MsgMissingFields},
		{"empty size", "img", "Tilápia", "2.5", "", alert.MsgMissingFields},
		{"weight not a number", "img", "Tilápia", "dois", "45", alert.MsgNotANumber},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{}
			f, _, _ := newForm(store)
			require.Nil(t, f.Begin(context.Background()))
			f.SetImage(tc.image)
			f.SetSpecies(tc.species)
			f.SetWeight(tc.weight)
			f.SetSize(tc.size)

			r := f.Submit(context.Background())
			require.NotNil(t, r)
			assert.Equal(t, alert.KindWarning, r.Kind)
			assert.Equal(t, tc.msg, r.Message)
			assert.Equal(t, ReadyForInput, f.State())
			assert.Zero(t, store.count())
		})
	}
}

func TestSubmitRequiresSession(t *testing.T) {
	store := &fakeStore{}
	f, _, _ := newForm(store)
	f.session = fakeSession(false)
	require.Nil(t, f.Begin(context.Background()))
	fill(f, "Tilápia", "2.5", "45")

	r := f.Submit(context.Background())
	require.NotNil(t, r)
	assert.Equal(t, MsgNeedLoginToCapture, r.Message)
	assert.Zero(t, store.count())
}

func TestSubmitLocationDenied(t *testing.T) {
	store := &fakeStore{}
	f, loc, _ := newForm(store)
	require.Nil(t, f.Begin(context.Background()))
	fill(f, "Tilápia", "2.5", "45")
	loc.err = ErrPermissionDenied

	r := f.Submit(context.Background())
	require.NotNil(t, r)
	assert.Equal(t, MsgLocationForSave, r.Message)
	assert.Equal(t, ReadyForInput, f.State())
	assert.Zero(t, store.count())
}

func TestSubmitStoreFailureThenRetry(t *testing.T) {
	store := &fakeStore{err: errors.New("connection reset")}
	f, _, _ := newForm(store)
	require.Nil(t, f.Begin(context.Background()))
	fill(f, "Tilápia", "2.5", "45")

	r := f.Submit(context.Background())
	require.NotNil(t, r)
	assert.Equal(t, MsgSaveFailed, r.Message)
	assert.Equal(t, Failed, f.State())
	assert.Equal(t, "Tilápia", f.Fields().Species, "fields survive a failed submit")

	store.err = session.ErrUnauthenticated
	r = f.Submit(context.Background())
	assert.Equal(t, MsgNeedLoginToCapture, r.Message)

	store.err = nil
	r = f.Submit(context.Background())
	assert.Equal(t, alert.KindSuccess, r.Kind)
	assert.Equal(t, Done, f.State())
}

func TestSubmitOutsideInputStateIsNoop(t *testing.T) {
	store := &fakeStore{}
	f, _, _ := newForm(store)
	assert.Nil(t, f.Submit(context.Background()))
	assert.Equal(t, Idle, f.State())
	assert.Zero(t, store.count())
}

func TestCancelAbandonsSubmit(t *testing.T) {
	store := &fakeStore{block: true, entered: make(chan struct{})}
	f, _, _ := newForm(store)
	require.Nil(t, f.Begin(context.Background()))
	fill(f, "Tilápia", "2.5", "45")

	done := make(chan *alert.Request, 1)
	go func() { done <- f.Submit(context.Background()) }()

	<-store.entered
	assert.Equal(t, Submitting, f.State())
	f.Cancel()

	select {
	case r := <-done:
		assert.Nil(t, r, "a cancelled submit reports nothing")
	case <-time.After(2 * time.Second):
		t.Fatal("submit did not return after cancel")
	}
	assert.Equal(t, Idle, f.State())
	assert.Equal(t, Fields{}, f.Fields())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "ready_for_input", ReadyForInput.String())
	assert.Equal(t, "unknown", State(42).String())
}
