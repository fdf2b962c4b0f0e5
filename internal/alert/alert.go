// Package alert is the single user-facing notification value every flow
// and view model produces.  Rendering is left to the client.
package alert

import (
	"errors"

	"github.com/iliyamo/fishtrack/internal/capture"
	"github.com/iliyamo/fishtrack/internal/model"
	"github.com/iliyamo/fishtrack/internal/session"
	"github.com/iliyamo/fishtrack/internal/weather"
)

// Kind selects the icon and color of an alert.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Style is the visual weight of an action button.
type Style string

const (
	StyleDefault     Style = "default"
	StyleCancel      Style = "cancel"
	StyleDestructive Style = "destructive"
)

// Action is one button.  ID is what the client reports back when the user
// picks it.
type Action struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Style Style  `json:"style"`
}

// Request is an alert to show.
type Request struct {
	Kind    Kind     `json:"kind"`
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Actions []Action `json:"actions,omitempty"`
}

// Action ids used by the built-in requests.
const (
	ActionOK      = "ok"
	ActionCancel  = "cancel"
	ActionConfirm = "confirm"
	ActionLogin   = "login"
	ActionRetry   = "retry"
)

var okAction = Action{ID: ActionOK, Text: "OK", Style: StyleDefault}

func Success(message string) *Request {
	return &Request{Kind: KindSuccess, Title: "Sucesso", Message: message, Actions: []Action{okAction}}
}

func Error(message string) *Request {
	return &Request{Kind: KindError, Title: "Erro", Message: message, Actions: []Action{okAction}}
}

func Warning(message string) *Request {
	return &Request{Kind: KindWarning, Title: "Atenção", Message: message, Actions: []Action{okAction}}
}

// Permission reports a denied device permission.
func Permission(message string) *Request {
	return &Request{Kind: KindError, Title: "Permissão necessária", Message: message, Actions: []Action{okAction}}
}

// Confirm asks before a destructive action.
func Confirm(title, message, confirmText string) *Request {
	return &Request{
		Kind:    KindWarning,
		Title:   title,
		Message: message,
		Actions: []Action{
			{ID: ActionCancel, Text: "Cancelar", Style: StyleCancel},
			{ID: ActionConfirm, Text: confirmText, Style: StyleDestructive},
		},
	}
}

// LoginRequired is shown by views that need a session.
func LoginRequired(message string) *Request {
	return &Request{
		Kind:    KindWarning,
		Title:   "Atenção",
		Message: message,
		Actions: []Action{{ID: ActionLogin, Text: "Fazer Login", Style: StyleDefault}},
	}
}

// Has reports whether the request offers the action id.
func (r *Request) Has(id string) bool {
	if r == nil {
		return false
	}
	for _, a := range r.Actions {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Messages for errors with a dedicated text.
const (
	MsgInvalidEmail      = "Email inválido"
	MsgUserNotFound      = "Usuário não encontrado"
	MsgWrongPassword     = "Senha incorreta"
	MsgInvalidCredential = "Email ou senha incorretos"
	MsgEmailInUse        = "Este email já está cadastrado"
	MsgNicknameTaken     = "Este apelido já está em uso"
	MsgProfileNotFound   = "Dados do usuário não encontrados"
	MsgMissingFields     = "Por favor, preencha todos os campos."
	MsgWeakPassword      = "A senha deve ter pelo menos 6 caracteres"
	MsgUnauthenticated   = "Usuário não autenticado"
	MsgInvalidToken      = "Link inválido ou expirado"
	MsgDelivery          = "Erro ao enviar email de recuperação"
	MsgNotOwned          = "Captura não encontrada ou sem permissão"
	MsgBadCoordinates    = "Coordenadas inválidas"
	MsgWeatherDown       = "Não foi possível obter o clima."
	MsgNotANumber        = "Peso e tamanho devem ser números."
)

var table = []struct {
	err  error
	kind Kind
	msg  string
}{
	{session.ErrInvalidEmail, KindError, MsgInvalidEmail},
	{session.ErrUserNotFound, KindError, MsgUserNotFound},
	{session.ErrWrongPassword, KindError, MsgWrongPassword},
	{session.ErrInvalidCredential, KindError, MsgInvalidCredential},
	{session.ErrEmailInUse, KindError, MsgEmailInUse},
	{session.ErrNicknameTaken, KindError, MsgNicknameTaken},
	{session.ErrProfileNotFound, KindError, MsgProfileNotFound},
	{session.ErrMissingFields, KindWarning, MsgMissingFields},
	{session.ErrWeakPassword, KindWarning, MsgWeakPassword},
	{session.ErrUnauthenticated, KindError, MsgUnauthenticated},
	{session.ErrInvalidToken, KindError, MsgInvalidToken},
	{session.ErrDelivery, KindError, MsgDelivery},
	{capture.ErrNotFound, KindError, MsgNotOwned},
	{weather.ErrInvalidCoordinates, KindError, MsgBadCoordinates},
	{weather.ErrUnavailable, KindError, MsgWeatherDown},
	{model.ErrNotANumber, KindWarning, MsgNotANumber},
}

// FromError maps a gateway error to an alert.  Errors without a dedicated
// message get fallback, the action-specific generic text.
func FromError(err error, fallback string) *Request {
	if err == nil {
		return nil
	}
	for _, e := range table {
		if errors.Is(err, e.err) {
			if e.kind == KindWarning {
				return Warning(e.msg)
			}
			return Error(e.msg)
		}
	}
	return Error(fallback)
}
