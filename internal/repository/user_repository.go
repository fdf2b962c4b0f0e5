package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/fishtrack/internal/model"
)

// UserRepo persists accounts (credentials) and user profiles.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,uid,email,name,nickname,created_at,updated_at"

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts the account and its profile in one transaction.  A
// duplicate email or nickname rolls both rows back, so no account is ever
// left without a profile.
func (r *UserRepo) Create(ctx context.Context, a model.Account, u model.User) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		"INSERT INTO accounts (uid, email, password_hash, created_at) VALUES (?,?,?,?)",
		a.UID, NormalizeEmail(a.Email), a.PasswordHash, a.CreatedAt); err != nil {
		if isDuplicate(err, "email") {
			return ErrEmailExists
		}
		return err
	}
	if _, err = tx.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?,?,?,?,?,?,?)",
		u.ID, u.UID, NormalizeEmail(u.Email), u.Name, u.Nickname, u.CreatedAt, u.UpdatedAt); err != nil {
		if isDuplicate(err, "nickname") {
			return ErrNicknameExists
		}
		return err
	}
	return nil
}

// GetAccountByEmail fetches credentials by normalized email.
func (r *UserRepo) GetAccountByEmail(ctx context.Context, email string) (model.Account, error) {
	var a model.Account
	err := r.DB.QueryRowContext(ctx,
		"SELECT uid,email,password_hash,created_at FROM accounts WHERE email=? LIMIT 1",
		NormalizeEmail(email)).Scan(&a.UID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

// UpdatePassword replaces the password hash of an account.
func (r *UserRepo) UpdatePassword(ctx context.Context, uid, hash string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE accounts SET password_hash=? WHERE uid=?", hash, uid)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// EmailExists reports whether an account uses email.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM accounts WHERE email=?", NormalizeEmail(email)).Scan(&n)
	return n > 0, err
}

// NicknameTaken reports whether a profile other than exceptUID uses
// nickname.  Pass an empty exceptUID to check against every profile.
func (r *UserRepo) NicknameTaken(ctx context.Context, nickname, exceptUID string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE nickname=? AND uid<>?", nickname, exceptUID).Scan(&n)
	return n > 0, err
}

// GetByUID fetches a profile by identity-provider uid.
func (r *UserRepo) GetByUID(ctx context.Context, uid string) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE uid=? LIMIT 1", uid).
		Scan(&u.ID, &u.UID, &u.Email, &u.Name, &u.Nickname, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpdateProfile sets name and nickname for uid.  The unique index turns a
// concurrent nickname grab into ErrNicknameExists.
func (r *UserRepo) UpdateProfile(ctx context.Context, uid, name, nickname, updatedAt string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, nickname=?, updated_at=? WHERE uid=?",
		name, nickname, updatedAt, uid)
	if err != nil {
		if isDuplicate(err, "nickname") {
			return ErrNicknameExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
