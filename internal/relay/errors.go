package relay

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation means the request body had no messages array.
	ErrValidation = errors.New("messages array required")
	// ErrMissingCredential means the provider API key env var is unset.
	ErrMissingCredential = errors.New("API key not configured")
	// ErrRateLimited means the relay-wide rate limit was exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// ProviderError is a non-2xx response from the completion provider. Body is
// logged but never sent to the client.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider API error: %d", e.StatusCode)
}
