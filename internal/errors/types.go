// Package errors implements the taxonomy of typed errors the simulation
// kernel and API layer raise, and maps them onto the {ok,...} HTTP envelope.
package errors

import (
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Kind is the error taxonomy §7 of the design defines; each maps to exactly
// one HTTP status.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindAuth         Kind = "auth"
	KindNotFound     Kind = "not_found"
	KindBusinessRule Kind = "business_rule"
	KindPersistence  Kind = "persistence"
	KindInternal     Kind = "internal"
	KindRateLimited  Kind = "rate_limited"
)

func (k Kind) httpStatus() int {
	switch k {
	case KindValidation, KindBusinessRule:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindPersistence, KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// AppError is a typed application error carrying enough context to both map
// to an HTTP status and surface an actionable message.
type AppError struct {
	Kind    Kind   `json:"-"`
	Message string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code this error maps to.
func (e *AppError) HTTPStatus() int {
	return e.Kind.httpStatus()
}

// New builds an AppError of the given kind.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap builds an AppError of the given kind wrapping a lower-level cause.
func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *AppError   { return New(KindValidation, message) }
func Auth(message string) *AppError         { return New(KindAuth, message) }
func NotFound(message string) *AppError     { return New(KindNotFound, message) }
func BusinessRule(message string) *AppError { return New(KindBusinessRule, message) }
func Persistence(message string, err error) *AppError {
	return Wrap(KindPersistence, message, err)
}
func Internal(message string, err error) *AppError {
	return Wrap(KindInternal, message, err)
}

// envelope is the wire shape for a failed request: {ok:false, error:"..."}.
type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// RespondWithError writes the {ok:false, error} envelope for err, choosing
// the HTTP status from its Kind when err is an *AppError, and detailing the
// cause only when verbose is true (the APP_ENV-derived dev flag).
func RespondWithError(w http.ResponseWriter, err error, verbose bool) {
	var appErr *AppError
	if !stdErrors.As(err, &appErr) {
		appErr = Internal("internal error", err)
	}

	message := appErr.Message
	if verbose && appErr.Err != nil {
		message = fmt.Sprintf("%s: %v", appErr.Message, appErr.Err)
	}
	if appErr.Kind == KindInternal && !verbose {
		message = "an internal error occurred"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus())
	_ = json.NewEncoder(w).Encode(envelope{OK: false, Error: message})
}
