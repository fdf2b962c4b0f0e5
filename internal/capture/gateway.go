// Package capture is the Record Store Gateway: per-user catch records
// scoped to the session user carried in the context.
package capture

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "github.com/iliyamo/fishtrack/internal/model"
    "github.com/iliyamo/fishtrack/internal/queue"
    "github.com/iliyamo/fishtrack/internal/repository"
    "github.com/iliyamo/fishtrack/internal/session"
)

var (
    // ErrNotFound covers both a missing record and one owned by another
    // user; callers cannot tell the two apart.
    ErrNotFound = errors.New("capture not found or no permission")
    // ErrUnauthenticated is returned when the context has no session user.
    ErrUnauthenticated = session.ErrUnauthenticated
)

// Publisher receives capture lifecycle events.
type Publisher interface {
    PublishCaptureEvent(ctx context.Context, ev queue.CaptureEvent) error
}

// Gateway reads and writes the session user's captures.
type Gateway struct {
    repo *repository.CaptureRepo
    pub  Publisher
    log  *zap.Logger

    Now   func() time.Time
    NewID func() string
}

// NewGateway wires a Gateway.  pub may be nil.
func NewGateway(repo *repository.CaptureRepo, pub Publisher, log *zap.Logger) *Gateway {
    if log == nil {
        log = zap.NewNop()
    }
    return &Gateway{
        repo:  repo,
        pub:   pub,
        log:   log,
        Now:   time.Now,
        NewID: uuid.NewString,
    }
}

// AddCapture stores c for the session user.  The owner, id and creation
// time are always assigned here; whatever the caller put there is ignored.
func (g *Gateway) AddCapture(ctx context.Context, c model.Capture) (model.Capture, error) {
    uid, err := session.RequireUser(ctx)
    if err != nil {
        return model.Capture{}, err
    }
    c.ID = g.NewID()
    c.UserID = uid
    c.CreatedAt = model.Timestamp(g.Now())
    c.UpdatedAt = ""
    if err := g.repo.Insert(ctx, c); err != nil {
        return model.Capture{}, fmt.Errorf("insert capture: %w", err)
    }
    g.log.Info("capture added", zap.String("capture_id", c.ID), zap.String("user_id", uid))
    g.publish(ctx, queue.CaptureCreated, c)
    return c, nil
}

// GetUserCaptures returns every capture of the session user, newest first.
func (g *Gateway) GetUserCaptures(ctx context.Context) ([]model.Capture, error) {
    uid, err := session.RequireUser(ctx)
    if err != nil {
        return nil, err
    }
    list, err := g.repo.ListByOwner(ctx, uid)
    if err != nil {
        return nil, fmt.Errorf("list captures: %w", err)
    }
    return list, nil
}

// GetCapture returns one capture of the session user.
func (g *Gateway) GetCapture(ctx context.Context, id string) (model.Capture, error) {
    uid, err := session.RequireUser(ctx)
    if err != nil {
        return model.Capture{}, err
    }
    c, err := g.repo.GetByIDAndOwner(ctx, id, uid)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return model.Capture{}, ErrNotFound
        }
        return model.Capture{}, fmt.Errorf("get capture: %w", err)
    }
    return c, nil
}

// UpdateCapture applies p to a capture owned by the session user.  The
// ownership check and the write are one statement, so a record can never
// be changed by anyone but its owner.
func (g *Gateway) UpdateCapture(ctx context.Context, id string, p model.CapturePatch) error {
    uid, err := session.RequireUser(ctx)
    if err != nil {
        return err
    }
    now := model.Timestamp(g.Now())
    if err := g.repo.UpdateByIDAndOwner(ctx, id, uid, p, now); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            g.log.Warn("capture update denied", zap.String("capture_id", id), zap.String("user_id", uid))
            return ErrNotFound
        }
        return fmt.Errorf("update capture: %w", err)
    }
    ev := model.Capture{ID: id, UserID: uid}
    if p.Species != nil {
        ev.Species = *p.Species
    }
    if p.Weight != nil {
        ev.Weight = *p.Weight
    }
    if p.Size != nil {
        ev.Size = *p.Size
    }
    g.publish(ctx, queue.CaptureUpdated, ev)
    return nil
}

// DeleteCapture removes a capture owned by the session user.
func (g *Gateway) DeleteCapture(ctx context.Context, id string) error {
    uid, err := session.RequireUser(ctx)
    if err != nil {
        return err
    }
    if err := g.repo.DeleteByIDAndOwner(ctx, id, uid); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            g.log.Warn("capture delete denied", zap.String("capture_id", id), zap.String("user_id", uid))
            return ErrNotFound
        }
        return fmt.Errorf("delete capture: %w", err)
    }
    g.publish(ctx, queue.CaptureDeleted, model.Capture{ID: id, UserID: uid})
    return nil
}

func (g *Gateway) publish(ctx context.Context, typ string, c model.Capture) {
    if g.pub == nil {
        return
    }
    ev := queue.NewCaptureEvent(typ, c, model.Timestamp(g.Now()))
    if err := g.pub.PublishCaptureEvent(ctx, ev); err != nil {
        g.log.Warn("capture event not published", zap.String("type", typ), zap.String("capture_id", c.ID), zap.Error(err))
    }
}
