package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/fishtrack/internal/model"
)

// CaptureRepo encapsulates all database queries related to catch records.
// Every method except Insert takes the owner id and folds it into the WHERE
// clause, so ownership is checked and acted on in a single statement.
type CaptureRepo struct {
	db *sql.DB
}

// NewCaptureRepo constructs a CaptureRepo with the provided DB handle.
func NewCaptureRepo(db *sql.DB) *CaptureRepo {
	return &CaptureRepo{db: db}
}

const captureColumns = `id, user_id, species, weight, size, date, weather, image,
	latitude, longitude, description, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCapture(s rowScanner) (model.Capture, error) {
	var c model.Capture
	err := s.Scan(&c.ID, &c.UserID, &c.Species, &c.Weight, &c.Size, &c.Date, &c.Weather,
		&c.Image, &c.Latitude, &c.Longitude, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Insert stores a fully stamped capture.
func (r *CaptureRepo) Insert(ctx context.Context, c model.Capture) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO captures ("+captureColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)",
		c.ID, c.UserID, c.Species, c.Weight, c.Size, c.Date, c.Weather, c.Image,
		c.Latitude, c.Longitude, c.Description, c.CreatedAt, c.UpdatedAt)
	return err
}

// ListByOwner returns all captures for a user, newest first.
func (r *CaptureRepo) ListByOwner(ctx context.Context, userID string) ([]model.Capture, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+captureColumns+" FROM captures WHERE user_id = ? ORDER BY created_at DESC, id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Capture{}
	for rows.Next() {
		c, err := scanCapture(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByIDAndOwner fetches a capture by id but only if it belongs to the
// specified user.  Otherwise ErrNotFound is returned.
func (r *CaptureRepo) GetByIDAndOwner(ctx context.Context, id, userID string) (model.Capture, error) {
	c, err := scanCapture(r.db.QueryRowContext(ctx,
		"SELECT "+captureColumns+" FROM captures WHERE id = ? AND user_id = ?", id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

// UpdateByIDAndOwner applies the non-nil fields of p and stamps updated_at.
// ErrNotFound means no row with that id belongs to userID; nothing changed.
func (r *CaptureRepo) UpdateByIDAndOwner(ctx context.Context, id, userID string, p model.CapturePatch, updatedAt string) error {
	sets := []string{"updated_at = ?"}
	args := []any{updatedAt}
	if p.Species != nil {
		sets = append(sets, "species = ?")
		args = append(args, *p.Species)
	}
	if p.Size != nil {
		sets = append(sets, "size = ?")
		args = append(args, *p.Size)
	}
	if p.Weight != nil {
		sets = append(sets, "weight = ?")
		args = append(args, *p.Weight)
	}
	if p.Weather != nil {
		sets = append(sets, "weather = ?")
		args = append(args, *p.Weather)
	}
	args = append(args, id, userID)

	res, err := r.db.ExecContext(ctx,
		"UPDATE captures SET "+strings.Join(sets, ", ")+" WHERE id = ? AND user_id = ?", args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByIDAndOwner removes a capture owned by userID.
func (r *CaptureRepo) DeleteByIDAndOwner(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM captures WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
