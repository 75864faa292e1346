package apperr

import (
	"errors"
	"net/http"
	"time"
)

// Kind classifies an expected failure so the HTTP layer can map it to a
// status code without inspecting message strings.
type Kind int

const (
	KindInternal Kind = iota
	KindMissingField
	KindValidation
	KindInvalidCredentials
	KindAccountDisabled
	KindTenantDisabled
	KindNotFound
	KindConflict
	KindRateLimited
)

// User-facing messages. The platform serves Norwegian gyms; the client
// renders these verbatim.
const (
	MsgMissingCredentials = "Brukernavn/e-post og passord må fylles ut"
	MsgInvalidCredentials = "Ugyldig brukernavn/e-post eller passord"
	MsgAccountDisabled    = "Kontoen er deaktivert"
	MsgTenantDisabled     = "Senteret er deaktivert"
	MsgTenantNotFound     = "Fant ikke senteret"
	MsgAccountNotFound    = "Fant ikke brukeren"
	MsgEmailTaken         = "E-postadressen er allerede registrert"
	MsgUsernameTaken      = "Brukernavnet er opptatt"
	MsgRateLimited        = "For mange forsøk. Prøv igjen senere"
	MsgInternal           = "Noe gikk galt. Prøv igjen senere"
)

type Error struct {
	Kind       Kind
	Message    string
	RetryAfter time.Duration
	cause      error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

func RateLimited(retryAfter time.Duration) *Error {
	return &Error{Kind: KindRateLimited, Message: MsgRateLimited, RetryAfter: retryAfter}
}

func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: MsgInternal, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// From extracts an *Error from err, treating anything unclassified as
// internal so unexpected failures never leak detail to the client.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

func (k Kind) HTTPStatus() int {
	switch k {
	case KindMissingField, KindValidation:
		return http.StatusBadRequest
	case KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindAccountDisabled, KindTenantDisabled:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
