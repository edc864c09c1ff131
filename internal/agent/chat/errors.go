package chat

import (
	"errors"
	"strings"
)

// Sentinel errors surfaced to the API layer, which maps them to HTTP
// statuses. Provider errors are classified by substring because SDK
// error types vary across providers.
var (
	// ErrEmptyMessage indicates a blank user message.
	ErrEmptyMessage = errors.New("message must not be empty")

	// ErrUnauthorized indicates invalid or missing provider credentials.
	ErrUnauthorized = errors.New("model provider rejected credentials")

	// ErrRateLimited indicates the provider throttled the request.
	ErrRateLimited = errors.New("model provider rate limit exceeded")

	// ErrBadRequest indicates the provider rejected the request shape.
	ErrBadRequest = errors.New("model provider rejected request")

	// ErrModelNotConfigured indicates the selected provider has no
	// credential; the server runs, but every exchange fails until one
	// is supplied.
	ErrModelNotConfigured = errors.New("no model credential configured")
)

// ClassifyProviderError maps a raw provider error onto one of the
// sentinel errors above, wrapping the original for context. Unmatched
// errors pass through unchanged.
func ClassifyProviderError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case containsAny(msg, "401", "unauthorized", "api key", "permission denied", "invalid authentication"):
		return errors.Join(ErrUnauthorized, err)
	case containsAny(msg, "429", "rate limit", "quota exceeded", "resource exhausted"):
		return errors.Join(ErrRateLimited, err)
	case containsAny(msg, "400", "invalid argument", "bad request"):
		return errors.Join(ErrBadRequest, err)
	default:
		return err
	}
}

// containsAny checks if s contains any of the substrings (case-insensitive).
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
