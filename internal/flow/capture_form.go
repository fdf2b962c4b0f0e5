// Package flow holds the Capture Form Flow: the state machine that gathers
// date, location and weather, validates the angler's input and hands the
// assembled record to the record store.
package flow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/fishtrack/internal/alert"
	"github.com/iliyamo/fishtrack/internal/model"
	"github.com/iliyamo/fishtrack/internal/session"
	"github.com/iliyamo/fishtrack/internal/weather"
)

// DateLayout is the pt-BR capture date format.
const DateLayout = "02/01/2006"

// State of a CaptureForm.
type State int

const (
	Idle State = iota
	LoadingContext
	ReadyForInput
	Submitting
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case LoadingContext:
		return "loading_context"
	case ReadyForInput:
		return "ready_for_input"
	case Submitting:
		return "submitting"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// ErrPermissionDenied is returned by a Locator when the user refused
// location access.
var ErrPermissionDenied = errors.New("location permission denied")

// Location is a single position fix.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Locator provides the device position.
type Locator interface {
	Locate(ctx context.Context) (Location, error)
}

// WeatherLookup fetches current conditions.
type WeatherLookup interface {
	FetchWeather(ctx context.Context, lat, lon float64) (*weather.Conditions, error)
}

// Store persists a new record for the session user.
type Store interface {
	AddCapture(ctx context.Context, c model.Capture) (model.Capture, error)
}

// SessionSource reports whether someone is signed in.
type SessionSource interface {
	Authenticated(ctx context.Context) bool
}

// Fields is the text the angler typed or the flow filled in.
type Fields struct {
	Image       string
	Species     string
	Weight      string
	Size        string
	Description string
	Weather     string
	Date        string
}

// User-facing texts of the flow.
const (
	MsgNeedLoginToCapture = "Você precisa estar logado para registrar uma captura."
	MsgImageRequired      = "Por favor, adicione uma imagem da captura."
	MsgLocationForWeather = "Precisamos da localização para buscar o clima."
	MsgLocationForSave    = "Precisamos da permissão de localização para salvar a captura."
	MsgSaveFailed         = "Não foi possível salvar a captura."
	MsgSaved              = "Captura registrada com sucesso!"
)

// CaptureForm is safe for concurrent use.  Every blocking step runs on a
// context derived from the caller's and owned by the form; Cancel aborts
// it, and results that arrive after a Cancel are dropped.
type CaptureForm struct {
	loc     Locator
	wx      WeatherLookup
	store   Store
	session SessionSource
	log     *zap.Logger

	Now func() time.Time

	mu     sync.Mutex
	state  State
	fields Fields
	gen    uint64
	cancel context.CancelFunc
	saved  *model.Capture
}

// NewCaptureForm wires a form in the Idle state.  sess may be nil, in which
// case the store's own authentication error is relied on.
func NewCaptureForm(loc Locator, wx WeatherLookup, store Store, sess SessionSource, log *zap.Logger) *CaptureForm {
	if log == nil {
		log = zap.NewNop()
	}
	return &CaptureForm{loc: loc, wx: wx, store: store, session: sess, log: log, Now: time.Now}
}

// State returns the current state.
func (f *CaptureForm) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Fields returns a copy of the form fields.
func (f *CaptureForm) Fields() Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// Saved returns the last record stored by this form, if any.
func (f *CaptureForm) Saved() *model.Capture {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved
}

func (f *CaptureForm) set(fn func(*Fields)) {
	f.mu.Lock()
	fn(&f.fields)
	f.mu.Unlock()
}

func (f *CaptureForm) SetImage(v string)       { f.set(func(x *Fields) { x.Image = v }) }
func (f *CaptureForm) SetSpecies(v string)     { f.set(func(x *Fields) { x.Species = v }) }
func (f *CaptureForm) SetWeight(v string)      { f.set(func(x *Fields) { x.Weight = v }) }
func (f *CaptureForm) SetSize(v string)        { f.set(func(x *Fields) { x.Size = v }) }
func (f *CaptureForm) SetDescription(v string) { f.set(func(x *Fields) { x.Description = v }) }
func (f *CaptureForm) SetWeather(v string)     { f.set(func(x *Fields) { x.Weather = v }) }
func (f *CaptureForm) SetDate(v string)        { f.set(func(x *Fields) { x.Date = v }) }

// start moves to next under a fresh generation and returns the derived
// context and the generation.  Callers hold f.mu.
func (f *CaptureForm) start(ctx context.Context, next State) (context.Context, uint64) {
	if f.cancel != nil {
		f.cancel()
	}
	f.gen++
	ctx, f.cancel = context.WithCancel(ctx)
	f.state = next
	return ctx, f.gen
}

// finish re-acquires the lock and reports whether gen is still current.
// When it returns true the caller holds f.mu.
func (f *CaptureForm) finish(gen uint64) bool {
	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		return false
	}
	return true
}

func (f *CaptureForm) release() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

// Begin stamps today's date, locates the device and fills the weather
// summary.  Location or weather failures produce an alert but still leave
// the form ReadyForInput.  Begin is a no-op unless the form is Idle, Done
// or Failed.
func (f *CaptureForm) Begin(ctx context.Context) *alert.Request {
	f.mu.Lock()
	switch f.state {
	case Idle, Done, Failed:
	default:
		f.mu.Unlock()
		return nil
	}
	f.fields = Fields{Date: f.Now().Format(DateLayout)}
	ctx, gen := f.start(ctx, LoadingContext)
	f.mu.Unlock()

	loc, err := f.loc.Locate(ctx)
	if err != nil {
		if !f.finish(gen) {
			return nil
		}
		defer f.mu.Unlock()
		f.state = ReadyForInput
		f.release()
		if errors.Is(err, ErrPermissionDenied) {
			return alert.Permission(MsgLocationForWeather)
		}
		f.log.Warn("locate failed", zap.Error(err))
		return alert.Error(alert.MsgWeatherDown)
	}

	cond, err := f.wx.FetchWeather(ctx, loc.Latitude, loc.Longitude)
	if !f.finish(gen) {
		return nil
	}
	defer f.mu.Unlock()
	f.state = ReadyForInput
	f.release()
	if err != nil {
		f.log.Warn("weather lookup failed", zap.Error(err))
		return alert.FromError(err, alert.MsgWeatherDown)
	}
	if f.fields.Weather == "" {
		f.fields.Weather = cond.Summary()
	}
	return nil
}

// Submit validates the fields, re-locates the device and stores the
// record.  Validation and location failures keep the form ReadyForInput
// without touching the store.  A store failure moves to Failed, from which
// Submit may be called again.
func (f *CaptureForm) Submit(ctx context.Context) *alert.Request {
	if f.session != nil && !f.session.Authenticated(ctx) {
		return alert.Error(MsgNeedLoginToCapture)
	}

	f.mu.Lock()
	if f.state != ReadyForInput && f.state != Failed {
		f.mu.Unlock()
		return nil
	}
	in := f.fields
	c, req := validate(in)
	if req != nil {
		f.state = ReadyForInput
		f.mu.Unlock()
		return req
	}
	ctx, gen := f.start(ctx, Submitting)
	f.mu.Unlock()

	loc, err := f.loc.Locate(ctx)
	if err != nil {
		if !f.finish(gen) {
			return nil
		}
		defer f.mu.Unlock()
		f.state = ReadyForInput
		f.release()
		if errors.Is(err, ErrPermissionDenied) {
			return alert.Error(MsgLocationForSave)
		}
		return alert.FromError(err, MsgLocationForSave)
	}
	c.Latitude, c.Longitude = loc.Latitude, loc.Longitude

	saved, err := f.store.AddCapture(ctx, c)
	if !f.finish(gen) {
		return nil
	}
	defer f.mu.Unlock()
	f.release()
	if err != nil {
		f.state = Failed
		f.log.Warn("capture submit failed", zap.Error(err))
		if errors.Is(err, session.ErrUnauthenticated) {
			return alert.Error(MsgNeedLoginToCapture)
		}
		return alert.FromError(err, MsgSaveFailed)
	}
	f.state = Done
	f.saved = &saved
	f.fields = Fields{}
	ok := alert.Success(MsgSaved)
	ok.Title = "Sucesso!"
	return ok
}

// Cancel abandons whatever is in flight and returns the form to Idle with
// empty fields.
func (f *CaptureForm) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.release()
	f.gen++
	f.state = Idle
	f.fields = Fields{}
}

func validate(in Fields) (model.Capture, *alert.Request) {
	if strings.TrimSpace(in.Image) == "" {
		return model.Capture{}, alert.Warning(MsgImageRequired)
	}
	species := strings.TrimSpace(in.Species)
	if species == "" || strings.TrimSpace(in.Weight) == "" || strings.TrimSpace(in.Size) == "" {
		return model.Capture{}, alert.Warning(alert.MsgMissingFields)
	}
	weight, err := model.ParseNumber(in.Weight)
	if err != nil {
		return model.Capture{}, alert.FromError(err, alert.MsgNotANumber)
	}
	size, err := model.ParseNumber(in.Size)
	if err != nil {
		return model.Capture{}, alert.FromError(err, alert.MsgNotANumber)
	}
	return model.Capture{
		Species:     species,
		Weight:      weight,
		Size:        size,
		Date:        in.Date,
		Weather:     in.Weather,
		Image:       strings.TrimSpace(in.Image),
		Description: strings.TrimSpace(in.Description),
	}, nil
}
