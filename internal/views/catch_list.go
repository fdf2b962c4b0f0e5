// Package views holds the read models behind the catch list and map:
// session-gated loading, edit and delete round trips, and the pure
// card/pin projections.
package views

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/fishtrack/internal/alert"
	"github.com/iliyamo/fishtrack/internal/model"
	"github.com/iliyamo/fishtrack/internal/session"
)

// ErrNotInList is returned when an edit targets a record the view has not
// loaded.
var ErrNotInList = errors.New("capture not in list")

// Store is the subset of the record store the list needs.
type Store interface {
	GetUserCaptures(ctx context.Context) ([]model.Capture, error)
	UpdateCapture(ctx context.Context, id string, p model.CapturePatch) error
	DeleteCapture(ctx context.Context, id string) error
}

// SessionSource gates the list on a signed-in user.
type SessionSource interface {
	Authenticated(ctx context.Context) bool
	Subscribe(fn func(session.Event)) (unsubscribe func())
}

// Status of the list.
type Status int

const (
	StatusEmpty Status = iota
	StatusLoading
	StatusLoaded
	StatusLoginPrompt
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusLoginPrompt:
		return "login_prompt"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// EditForm holds the editable fields as text, the way the user sees them.
type EditForm struct {
	Species string
	Size    string
	Weight  string
	Weather string
}

const (
	MsgLoginToView    = "Faça login para visualizar suas capturas"
	MsgLoadFailed     = "Não foi possível carregar as capturas"
	MsgUpdated        = "Captura atualizada com sucesso!"
	MsgUpdateFailed   = "Não foi possível atualizar a captura"
	MsgConfirmTitle   = "Confirmar exclusão"
	MsgConfirmDelete  = "Tem certeza que deseja excluir esta captura?"
	MsgDeleted        = "Captura excluída com sucesso!"
	MsgDeleteFailed   = "Não foi possível excluir a captura"
	confirmDeleteText = "Excluir"
)

const (
	loadKey = "captures"

	// reloadTimeout bounds the reload triggered by a sign-in event.
	reloadTimeout = 15 * time.Second
)

// CatchList is the catch list/map view model.  Every mutation is followed
// by a full reload; nothing is patched locally.
type CatchList struct {
	store Store
	sess  SessionSource
	log   *zap.Logger

	loads singleflight.Group

	mu          sync.Mutex
	gen         uint64
	status      Status
	items       []model.Capture
	unsubscribe func()
}

// NewCatchList returns an empty list.
func NewCatchList(store Store, sess SessionSource, log *zap.Logger) *CatchList {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatchList{store: store, sess: sess, log: log}
}

// Status returns the current status.
func (l *CatchList) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Items returns a copy of the loaded records.
func (l *CatchList) Items() []model.Capture {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Capture(nil), l.items...)
}

// Cards projects the loaded records.
func (l *CatchList) Cards() []Card { return Cards(l.Items()) }

// Pins projects the loaded records.
func (l *CatchList) Pins() []Pin { return Pins(l.Items()) }

// Attach subscribes to session changes: a sign-out clears the list and
// shows the login prompt, a sign-in reloads.  The reload keeps the values
// of ctx but not its cancellation.  Attach is idempotent; Detach undoes it.
func (l *CatchList) Attach(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.unsubscribe != nil {
		return
	}
	base := context.WithoutCancel(ctx)
	l.unsubscribe = l.sess.Subscribe(func(e session.Event) {
		switch e.Kind {
		case session.SignedOut:
			l.showLoginPrompt()
		case session.SignedIn:
			rctx, cancel := context.WithTimeout(base, reloadTimeout)
			defer cancel()
			if r := l.Load(rctx); r != nil {
				l.log.Warn("reload after sign-in failed", zap.String("message", r.Message))
			}
		}
	})
}

// Detach stops listening to session changes.
func (l *CatchList) Detach() {
	l.mu.Lock()
	unsubscribe := l.unsubscribe
	l.unsubscribe = nil
	l.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// showLoginPrompt clears the list and invalidates any load in flight.
func (l *CatchList) showLoginPrompt() {
	l.mu.Lock()
	l.gen++
	l.status = StatusLoginPrompt
	l.items = nil
	l.mu.Unlock()
}

// Load refetches the full list.  Without a session it shows the login
// prompt and queries nothing.  Overlapping calls share one fetch, and only
// the most recent call writes its result.
func (l *CatchList) Load(ctx context.Context) *alert.Request {
	if !l.sess.Authenticated(ctx) {
		l.showLoginPrompt()
		return alert.LoginRequired(MsgLoginToView)
	}

	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.status = StatusLoading
	l.mu.Unlock()

	v, err, _ := l.loads.Do(loadKey, func() (any, error) {
		return l.store.GetUserCaptures(ctx)
	})

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		if l.status == StatusLoginPrompt {
			return alert.LoginRequired(MsgLoginToView)
		}
		return nil
	}
	if err != nil {
		if errors.Is(err, session.ErrUnauthenticated) {
			l.status = StatusLoginPrompt
			l.items = nil
			return alert.LoginRequired(MsgLoginToView)
		}
		l.log.Warn("load captures failed", zap.Error(err))
		l.status = StatusError
		return alert.FromError(err, MsgLoadFailed)
	}
	l.items = v.([]model.Capture)
	l.status = StatusLoaded
	return nil
}

// reload refetches without joining a fetch that started before a write.
func (l *CatchList) reload(ctx context.Context) *alert.Request {
	l.loads.Forget(loadKey)
	return l.Load(ctx)
}

// BeginEdit pre-fills an edit form from a loaded record.
func (l *CatchList) BeginEdit(id string) (EditForm, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.items {
		if c.ID == id {
			return EditForm{
				Species: c.Species,
				Size:    model.FormatNumber(c.Size),
				Weight:  model.FormatNumber(c.Weight),
				Weather: c.Weather,
			}, nil
		}
	}
	return EditForm{}, ErrNotInList
}

// SaveEdit writes the edited fields and reloads the list.
func (l *CatchList) SaveEdit(ctx context.Context, id string, form EditForm) *alert.Request {
	species := strings.TrimSpace(form.Species)
	if species == "" || strings.TrimSpace(form.Size) == "" || strings.TrimSpace(form.Weight) == "" {
		return alert.Warning(alert.MsgMissingFields)
	}
	size, err := model.ParseNumber(form.Size)
	if err != nil {
		return alert.FromError(err, MsgUpdateFailed)
	}
	weight, err := model.ParseNumber(form.Weight)
	if err != nil {
		return alert.FromError(err, MsgUpdateFailed)
	}
	weatherText := form.Weather
	patch := model.CapturePatch{Species: &species, Size: &size, Weight: &weight, Weather: &weatherText}

	if err := l.store.UpdateCapture(ctx, id, patch); err != nil {
		return alert.FromError(err, MsgUpdateFailed)
	}
	if r := l.reload(ctx); r != nil {
		return r
	}
	return alert.Success(MsgUpdated)
}

// RequestDelete returns the confirmation to show before ConfirmDelete.
func (l *CatchList) RequestDelete(id string) *alert.Request {
	return alert.Confirm(MsgConfirmTitle, MsgConfirmDelete, confirmDeleteText)
}

// ConfirmDelete deletes the record and reloads the list.
func (l *CatchList) ConfirmDelete(ctx context.Context, id string) *alert.Request {
	if err := l.store.DeleteCapture(ctx, id); err != nil {
		return alert.FromError(err, MsgDeleteFailed)
	}
	if r := l.reload(ctx); r != nil {
		return r
	}
	return alert.Success(MsgDeleted)
}
