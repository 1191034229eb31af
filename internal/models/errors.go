package models

import "errors"

// ValidationError is a coded error for invalid domain input
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new coded validation error
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

// Custom errors
var (
	ErrUnknownBetType    = NewValidationError("unknown_bet_type", "unknown bet type")
	ErrUnknownBetMethod  = NewValidationError("unknown_bet_method", "unknown bet method")
	ErrUnsupportedMethod = NewValidationError("unsupported_method", "bet method not supported for bet type")
	ErrInvalidStake      = NewValidationError("invalid_stake", "stake must not be negative")
	ErrArityMismatch     = NewValidationError("arity_mismatch", "horse count does not match bet type")
	ErrInvalidHorse      = NewValidationError("invalid_horse", "invalid horse data")

	// ErrNoResultData is returned when a race has no finishing order yet.
	ErrNoResultData = errors.New("no result data available")
	ErrNotFound     = errors.New("record not found")
)
