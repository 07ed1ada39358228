package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Provider error taxonomy. The orchestrator treats every one of these the
// same way (advance to the next tier), but they are distinguished for logs
// and tests.
var (
	// ErrTimeout means the per-call deadline expired.
	ErrTimeout = errors.New("provider timeout")
	// ErrAuthFailure means the provider rejected our credentials.
	ErrAuthFailure = errors.New("provider auth failure")
	// ErrRateLimited means the provider throttled the request.
	ErrRateLimited = errors.New("provider rate limited")
	// ErrInvalidResponse means the payload failed structural validation.
	ErrInvalidResponse = errors.New("invalid provider response shape")
	// ErrTransientNetwork covers transport failures and 5xx responses.
	ErrTransientNetwork = errors.New("transient network error")
)

// statusError maps an HTTP status code onto the taxonomy.
func statusError(provider string, status int, body []byte) error {
	var sentinel error
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		sentinel = ErrAuthFailure
	case status == http.StatusTooManyRequests:
		sentinel = ErrRateLimited
	case status >= 500:
		sentinel = ErrTransientNetwork
	default:
		sentinel = ErrInvalidResponse
	}
	return fmt.Errorf("%w: %s returned status %d: %s", sentinel, provider, status, truncate(body, 200))
}

// transportError maps a client-side error onto the taxonomy.
func transportError(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, provider, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrTransientNetwork, provider, err)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
