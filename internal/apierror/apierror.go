// Package apierror is the error contract between the HTTP API and its
// clients: every domain sentinel has a status and a stable code, and the
// client turns a code back into the same sentinel.
package apierror

import (
	"errors"
	"net/http"

	"github.com/iliyamo/fishtrack/internal/capture"
	"github.com/iliyamo/fishtrack/internal/model"
	"github.com/iliyamo/fishtrack/internal/session"
	"github.com/iliyamo/fishtrack/internal/storage"
	"github.com/iliyamo/fishtrack/internal/weather"
)

// Body is the JSON error envelope.
type Body struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Generic codes without a domain sentinel.
const (
	CodeInvalidBody = "invalid_body"
	CodeInternal    = "internal"
)

// ErrInvalidBody is what FromCode returns for CodeInvalidBody.
var ErrInvalidBody = errors.New("invalid request body")

type entry struct {
	err    error
	status int
	code   string
}

var table = []entry{
	{session.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{session.ErrInvalidEmail, http.StatusBadRequest, "invalid_email"},
	{session.ErrMissingFields, http.StatusBadRequest, "missing_fields"},
	{session.ErrWeakPassword, http.StatusBadRequest, "weak_password"},
	{session.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{session.ErrWrongPassword, http.StatusUnauthorized, "wrong_password"},
	{session.ErrInvalidCredential, http.StatusUnauthorized, "invalid_credential"},
	{session.ErrEmailInUse, http.StatusConflict, "email_in_use"},
	{session.ErrNicknameTaken, http.StatusConflict, "nickname_taken"},
	{session.ErrProfileNotFound, http.StatusNotFound, "profile_not_found"},
	{session.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{session.ErrDelivery, http.StatusBadGateway, "delivery_failed"},
	{capture.ErrNotFound, http.StatusNotFound, "capture_not_found"},
	{weather.ErrInvalidCoordinates, http.StatusBadRequest, "invalid_coordinates"},
	{weather.ErrUnavailable, http.StatusBadGateway, "weather_unavailable"},
	{model.ErrNotANumber, http.StatusBadRequest, "not_a_number"},
	{storage.ErrInvalidImage, http.StatusBadRequest, "invalid_image"},
	{storage.ErrTooLarge, http.StatusRequestEntityTooLarge, "image_too_large"},
	{storage.ErrUploadFailed, http.StatusBadGateway, "upload_failed"},
	{ErrInvalidBody, http.StatusBadRequest, CodeInvalidBody},
}

// Lookup returns the status and code for a known sentinel in err's chain.
func Lookup(err error) (status int, code string, ok bool) {
	for _, e := range table {
		if errors.Is(err, e.err) {
			return e.status, e.code, true
		}
	}
	return 0, "", false
}

// FromCode returns the sentinel for a code, or nil when the code is
// unknown.
func FromCode(code string) error {
	for _, e := range table {
		if e.code == code {
			return e.err
		}
	}
	return nil
}
