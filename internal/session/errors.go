package session

import (
	"errors"

	"github.com/iliyamo/fishtrack/internal/utils"
)

var (
	ErrUnauthenticated   = errors.New("not authenticated")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrMissingFields     = errors.New("missing required fields")
	ErrWeakPassword      = utils.ErrWeakPassword
	ErrUserNotFound      = errors.New("user not found")
	ErrWrongPassword     = errors.New("wrong password")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrEmailInUse        = errors.New("email already registered")
	ErrNicknameTaken     = errors.New("nickname already in use")
	ErrProfileNotFound   = errors.New("user profile not found")
	ErrInvalidToken      = errors.New("invalid or expired token")
	ErrDelivery          = errors.New("could not send email")
)
