package paymo

import (
	"errors"
	"fmt"
	"time"
)

// APIError is any non-2xx, non-429 response from the Paymo API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("paymo api error: status %d", e.Status)
	}
	return fmt.Sprintf("paymo api error: status %d: %s", e.Status, e.Body)
}

// RateLimitError is a 429 response. RetryAfter carries the provider-supplied
// Retry-After value (60s when the header is missing or unparsable).
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("paymo rate limit exceeded: retry after %s", e.RetryAfter)
}

// IsRateLimit reports whether err wraps a 429 failure.
func IsRateLimit(err error) bool {
	var rateErr *RateLimitError
	return errors.As(err, &rateErr)
}
