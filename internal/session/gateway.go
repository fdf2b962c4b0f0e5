// Package session is the Session Gateway: registration, sign-in, sign-out
// and password recovery against the account store, plus the session-change
// notifications the read models listen to.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/fishtrack/internal/model"
	"github.com/iliyamo/fishtrack/internal/repository"
	"github.com/iliyamo/fishtrack/internal/utils"
)

const resetTokenBytes = 32 // 64 hex characters

// Mailer delivers password recovery links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, toEmail, toName, resetURL string) error
}

// Options carries the token and hashing parameters from config.Config.
type Options struct {
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
	ResetURL       string
	ResetTTL       time.Duration
}

// Session is the result of a successful sign-in.
type Session struct {
	User    *model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// RegisterInput holds the sign-up form.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Nickname string
}

// ProfileUpdate lists editable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Name     *string
	Nickname *string
}

// Gateway implements the session operations on top of the user and token
// repositories.
type Gateway struct {
	Notifier

	users  *repository.UserRepo
	tokens *repository.TokenRepo
	mailer Mailer
	opts   Options
	log    *zap.Logger

	Now   func() time.Time
	NewID func() string
}

// NewGateway wires a Gateway.  A zero ResetTTL defaults to one hour.
func NewGateway(users *repository.UserRepo, tokens *repository.TokenRepo, mailer Mailer, opts Options, log *zap.Logger) *Gateway {
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		users:  users,
		tokens: tokens,
		mailer: mailer,
		opts:   opts,
		log:    log,
		Now:    time.Now,
		NewID:  func() string { return uuid.NewString() },
	}
}

func (g *Gateway) stamp() string { return model.Timestamp(g.Now()) }

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// Register creates the account and its profile.  The nickname lookup gives
// the common case a precise error; the unique index and the single
// transaction in UserRepo.Create cover the race between two sign-ups.
func (g *Gateway) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := repository.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	nickname := strings.TrimSpace(in.Nickname)
	if email == "" || in.Password == "" || name == "" || nickname == "" {
		return nil, ErrMissingFields
	}
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	if err := utils.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	taken, err := g.users.NicknameTaken(ctx, nickname, "")
	if err != nil {
		return nil, fmt.Errorf("nickname lookup: %w", err)
	}
	if taken {
		return nil, ErrNicknameTaken
	}
	exists, err := g.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("email lookup: %w", err)
	}
	if exists {
		return nil, ErrEmailInUse
	}

	hash, err := utils.HashPassword(in.Password, g.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := g.stamp()
	uid := g.NewID()
	acc := model.Account{UID: uid, Email: email, PasswordHash: hash, CreatedAt: now}
	user := model.User{ID: g.NewID(), UID: uid, Email: email, Name: name, Nickname: nickname, CreatedAt: now, UpdatedAt: now}

	switch err := g.users.Create(ctx, acc, user); {
	case errors.Is(err, repository.ErrNicknameExists):
		return nil, ErrNicknameTaken
	case errors.Is(err, repository.ErrEmailExists):
		return nil, ErrEmailInUse
	case err != nil:
		return nil, fmt.Errorf("create account: %w", err)
	}
	g.log.Info("account registered", zap.String("uid", uid), zap.String("nickname", nickname))
	return &user, nil
}

// Login verifies credentials and starts a session.  Each failure mode has
// its own error so clients can show a precise message.
func (g *Gateway) Login(ctx context.Context, email, password string) (*Session, error) {
	email = repository.NormalizeEmail(email)
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	if password == "" {
		return nil, ErrInvalidCredential
	}
	acc, err := g.users.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	if !utils.VerifyPassword(acc.PasswordHash, password) {
		return nil, ErrWrongPassword
	}
	user, err := g.UserData(ctx, acc.UID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			g.log.Warn("authenticated account has no profile", zap.String("uid", acc.UID))
		}
		return nil, err
	}
	return g.StartSession(ctx, user)
}

// StartSession issues an access/refresh pair for user and notifies
// subscribers.
func (g *Gateway) StartSession(ctx context.Context, user *model.User) (*Session, error) {
	s, err := g.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	g.Publish(Event{Kind: SignedIn, UserID: user.UID, At: g.Now()})
	return s, nil
}

func (g *Gateway) issue(ctx context.Context, user *model.User) (*Session, error) {
	access, err := utils.NewAccessToken(g.opts.JWTSecret, user.UID, g.opts.AccessTTLMin)
	if err != nil {
		return nil, fmt.Errorf("issue access: %w", err)
	}
	refresh, err := utils.NewRefreshToken(g.opts.RefreshTTLDays)
	if err != nil {
		return nil, fmt.Errorf("issue refresh: %w", err)
	}
	if err := g.tokens.StoreRefresh(ctx, user.UID, utils.HashToken(refresh.Raw), refresh.Exp); err != nil {
		return nil, fmt.Errorf("save refresh: %w", err)
	}
	return &Session{User: user, Access: access, Refresh: refresh}, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.  Revocation is conditional, so only one of two concurrent
// refreshes with the same token succeeds.
func (g *Gateway) Refresh(ctx context.Context, raw string) (*Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}
	hash := utils.HashToken(raw)
	uid, err := g.tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if err := g.tokens.RevokeByHash(ctx, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	user, err := g.UserData(ctx, uid)
	if err != nil {
		return nil, err
	}
	return g.issue(ctx, user)
}

// Logout revokes the given refresh token, or every refresh token of the
// context user when raw is empty.
func (g *Gateway) Logout(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	var uid string
	if raw != "" {
		hash := utils.HashToken(raw)
		owner, err := g.tokens.ValidateRefresh(ctx, hash)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidToken
			}
			return fmt.Errorf("logout: %w", err)
		}
		if err := g.tokens.RevokeByHash(ctx, hash); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("logout: %w", err)
		}
		uid = owner
	} else {
		var err error
		if uid, err = RequireUser(ctx); err != nil {
			return err
		}
		if err := g.tokens.RevokeAllForUser(ctx, uid); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
	}
	g.Publish(Event{Kind: SignedOut, UserID: uid, At: g.Now()})
	return nil
}

// ResetPassword sends a recovery link.  An unknown email is not an error,
// so the endpoint does not reveal which addresses are registered.
func (g *Gateway) ResetPassword(ctx context.Context, email string) error {
	email = repository.NormalizeEmail(email)
	if !validEmail(email) {
		return ErrInvalidEmail
	}
	acc, err := g.users.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			g.log.Debug("password reset for unknown email")
			return nil
		}
		return fmt.Errorf("load account: %w", err)
	}
	raw, err := utils.RandomHex(resetTokenBytes)
	if err != nil {
		return fmt.Errorf("reset token: %w", err)
	}
	if err := g.tokens.StoreReset(ctx, acc.UID, utils.HashToken(raw), g.Now().Add(g.opts.ResetTTL)); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	name := ""
	if u, err := g.users.GetByUID(ctx, acc.UID); err == nil {
		name = u.Name
	}
	if err := g.mailer.SendPasswordReset(ctx, acc.Email, name, resetLink(g.opts.ResetURL, raw)); err != nil {
		g.log.Error("password reset mail failed", zap.String("uid", acc.UID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

func resetLink(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// ConfirmPasswordReset consumes a recovery token and sets a new password.
// All refresh tokens of the account are revoked afterwards.
func (g *Gateway) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if err := utils.ValidatePassword(newPassword); err != nil {
		return err
	}
	uid, err := g.tokens.ConsumeReset(ctx, utils.HashToken(strings.TrimSpace(token)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	hash, err := utils.HashPassword(newPassword, g.opts.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := g.users.UpdatePassword(ctx, uid, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := g.tokens.RevokeAllForUser(ctx, uid); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	g.Publish(Event{Kind: SignedOut, UserID: uid, At: g.Now()})
	return nil
}

// Authenticated reports whether ctx carries a session user.
func (g *Gateway) Authenticated(ctx context.Context) bool {
	_, ok := UserFromContext(ctx)
	return ok
}

// CurrentUser returns the profile of the context user, or nil when the
// context is anonymous.
func (g *Gateway) CurrentUser(ctx context.Context) (*model.User, error) {
	uid, ok := UserFromContext(ctx)
	if !ok {
		return nil, nil
	}
	return g.UserData(ctx, uid)
}

// UserData looks up a profile by account uid.
func (g *Gateway) UserData(ctx context.Context, uid string) (*model.User, error) {
	u, err := g.users.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return u, nil
}

// UpdateProfile changes the context user's name and/or nickname.
func (g *Gateway) UpdateProfile(ctx context.Context, in ProfileUpdate) (*model.User, error) {
	uid, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	u, err := g.UserData(ctx, uid)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name != "" {
			u.Name = name
		}
	}
	if in.Nickname != nil {
		nickname := strings.TrimSpace(*in.Nickname)
		if nickname == "" {
			return nil, ErrMissingFields
		}
		if nickname != u.Nickname {
			taken, err := g.users.NicknameTaken(ctx, nickname, uid)
			if err != nil {
				return nil, fmt.Errorf("nickname lookup: %w", err)
			}
			if taken {
				return nil, ErrNicknameTaken
			}
			u.Nickname = nickname
		}
	}
	u.UpdatedAt = g.stamp()
	if err := g.users.UpdateProfile(ctx, uid, u.Name, u.Nickname, u.UpdatedAt); err != nil {
		if errors.Is(err, repository.ErrNicknameExists) {
			return nil, ErrNicknameTaken
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}
