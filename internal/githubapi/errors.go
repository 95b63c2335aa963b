package githubapi

import (
	"errors"
	"fmt"
)

// NotFoundError indicates the requested GitHub resource does not exist,
// typically an unknown username.
type NotFoundError struct {
	Endpoint string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("github: not found: %s", e.Endpoint)
}

// RateLimitedError indicates GitHub rejected the request with HTTP 403
// because the request quota for the current credential is exhausted.
type RateLimitedError struct {
	Endpoint string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf(
		"github: rate limit exceeded for %s: sign in with GitHub or configure a token for higher limits",
		e.Endpoint,
	)
}

// UpstreamError indicates any other non-success GitHub response. It carries
// the upstream status text for surfacing to the caller.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Status     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("github: %s returned %s", e.Endpoint, e.Status)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsRateLimited reports whether err is a RateLimitedError.
func IsRateLimited(err error) bool {
	var target *RateLimitedError
	return errors.As(err, &target)
}
