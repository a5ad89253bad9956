package analyzer

import (
	"errors"
	"fmt"
	"time"
)

// TransientError marks an analyzer failure that is likely to clear on retry:
// timeouts, connection resets, provider 5xx responses.
type TransientError struct {
	Provider string
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient analyzer error from %s: %v", e.Provider, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks an analyzer failure that no retry can fix: rejected
// payloads, authentication failures, unsupported media.
type PermanentError struct {
	Provider string
	Err      error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent analyzer error from %s: %v", e.Provider, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// RateLimitError is a transient failure carrying the provider's requested
// backoff, honored by the retry loop when it exceeds the computed delay.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by %s (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// MalformedOutputError marks a response the provider delivered successfully
// but whose payload could not be decoded into a draft. Retried like a
// transient failure, since regeneration often produces parseable output, but
// kept distinct so an exhausted run is reported as a malformed-output
// failure rather than a provider outage.
type MalformedOutputError struct {
	Provider string
	Raw      string
	Err      error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed analyzer output from %s: %v", e.Provider, e.Err)
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt against the analyzer could
// plausibly succeed.
func Retryable(err error) bool {
	var te *TransientError
	var rl *RateLimitError
	var mo *MalformedOutputError
	return errors.As(err, &te) || errors.As(err, &rl) || errors.As(err, &mo)
}

// RetryAfter extracts the provider-requested delay from a rate-limit error,
// or zero when the error carries none.
func RetryAfter(err error) time.Duration {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryAfter
	}
	return 0
}
