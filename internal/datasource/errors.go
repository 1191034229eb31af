package datasource

import (
	"errors"
)

// ProviderError represents errors from odds provider operations
type ProviderError struct {
	Source  string // Provider name
	Code    string // Error code (e.g., "proxies_exhausted")
	Message string // Error message
	Err     error  // Underlying error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

// Unwrap returns the underlying error
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error of the error code
func (e *ProviderError) Is(target error) bool {
	sentinel, ok := codeSentinels[e.Code]
	return ok && sentinel == target
}

// Common error codes
const (
	ErrCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrCodeNotFound          = "not_found"
	ErrCodeInvalidData       = "invalid_data"
	ErrCodeNetworkError      = "network_error"
	ErrCodeServerError       = "server_error"
	ErrCodeProxiesExhausted  = "proxies_exhausted"
	ErrCodeCircuitOpen       = "circuit_open"
)

// Sentinels matched by errors.Is against a *ProviderError code
var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrNotFound          = errors.New("data not found")
	ErrInvalidData       = errors.New("invalid data format")
	ErrNetworkError      = errors.New("network error")
	ErrServerError       = errors.New("server error")
	ErrProxiesExhausted  = errors.New("all proxies failed")
	ErrCircuitOpen       = errors.New("circuit breaker open")
	ErrBodyTooLarge      = errors.New("response body too large")
)

var codeSentinels = map[string]error{
	ErrCodeRateLimitExceeded: ErrRateLimitExceeded,
	ErrCodeNotFound:          ErrNotFound,
	ErrCodeInvalidData:       ErrInvalidData,
	ErrCodeNetworkError:      ErrNetworkError,
	ErrCodeServerError:       ErrServerError,
	ErrCodeProxiesExhausted:  ErrProxiesExhausted,
	ErrCodeCircuitOpen:       ErrCircuitOpen,
}

// NewProviderError creates a new provider error
func NewProviderError(source, code, message string, err error) *ProviderError {
	return &ProviderError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
