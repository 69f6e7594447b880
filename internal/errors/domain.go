package errors

import "fmt"

// Domain-specific error templates for consistent API responses.

var (
	ErrAuthMissingToken = &AppError{Kind: KindAuth, Message: "missing or malformed identity token"}
	ErrAuthInvalidToken = &AppError{Kind: KindAuth, Message: "identity token is invalid or expired"}

	ErrUniverseNotFound = &AppError{Kind: KindNotFound, Message: "universe not found"}
	ErrAnomalyNotFound  = &AppError{Kind: KindNotFound, Message: "anomaly not found"}

	ErrNotOwner = &AppError{Kind: KindAuth, Message: "universe does not belong to this identity"}

	ErrUniverseEnded       = &AppError{Kind: KindBusinessRule, Message: "universe has already ended"}
	ErrAnomalyAlreadyDone  = &AppError{Kind: KindBusinessRule, Message: "anomaly is already resolved"}
	ErrInvalidDifficulty   = &AppError{Kind: KindValidation, Message: "difficulty must be one of Beginner, Intermediate, Advanced"}
	ErrInvalidSteps        = &AppError{Kind: KindValidation, Message: "steps must be a positive integer"}
	ErrMissingAnomalyID    = &AppError{Kind: KindValidation, Message: "anomalyId is required"}

	ErrWriteConflict = &AppError{Kind: KindPersistence, Message: "universe was modified concurrently"}

	ErrRateLimited = &AppError{Kind: KindRateLimited, Message: "too many simulation requests, slow down"}
)

// NewNotFound returns a NotFoundError with a custom message.
func NewNotFound(format string, args ...any) error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

// NewValidation returns a ValidationError with a custom message.
func NewValidation(format string, args ...any) error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

// NewBusinessRule returns a BusinessRuleError with a custom message.
func NewBusinessRule(format string, args ...any) error {
	return New(KindBusinessRule, fmt.Sprintf(format, args...))
}

// NewInternal returns an InternalError wrapping cause with a custom message.
func NewInternal(cause error, format string, args ...any) error {
	return Wrap(KindInternal, fmt.Sprintf(format, args...), cause)
}
