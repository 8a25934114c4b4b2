package catalog

import (
	"errors"
	"fmt"
)

// Common errors returned by catalog providers.
var (
	// ErrRateLimited indicates the provider's rate limit has been exceeded.
	ErrRateLimited = errors.New("catalog rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue or timeout.
	ErrNetworkError = errors.New("network error communicating with catalog")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from catalog")
)

// APIError represents an error response from a catalog API.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsTransient returns true if the error is worth retrying or falling back
// on: rate limits, network failures, and server-side (5xx) errors.
// Anything else (bad request, malformed payload) retries the same way it
// failed, so it is treated as permanent for this call.
func IsTransient(err error) bool {
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrNetworkError) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}
