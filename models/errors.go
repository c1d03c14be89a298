package models

import "fmt"

// Domain error codes surfaced by the core services.
const (
	ErrCodeValidation   = "validation_error"
	ErrCodeInvalidState = "invalid_state"
	ErrCodeStaleOffer   = "stale_offer"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
)

// DomainError is the error type returned by the booking and commission services.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewValidationError(format string, args ...any) error {
	return &DomainError{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidStateError(format string, args ...any) error {
	return &DomainError{Code: ErrCodeInvalidState, Message: fmt.Sprintf(format, args...)}
}

// NewStaleOfferError marks a provider response that arrived after the offer
// already moved on (deadline fired or re-offered to another provider).
func NewStaleOfferError(format string, args ...any) error {
	return &DomainError{Code: ErrCodeStaleOffer, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...any) error {
	return &DomainError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewConflictError marks an optimistic-concurrency version mismatch. Callers
// may retry such operations; no state was changed.
func NewConflictError(format string, args ...any) error {
	return &DomainError{Code: ErrCodeConflict, Message: fmt.Sprintf(format, args...)}
}

// ErrorCode extracts the domain error code, or empty for non-domain errors.
func ErrorCode(err error) string {
	if de, ok := err.(*DomainError); ok {
		return de.Code
	}
	return ""
}

func IsNotFound(err error) bool { return ErrorCode(err) == ErrCodeNotFound }

func IsStaleOffer(err error) bool { return ErrorCode(err) == ErrCodeStaleOffer }

func IsConflict(err error) bool { return ErrorCode(err) == ErrCodeConflict }
