package analyzer

import (
	"context"
	"math/rand"
	"time"
)

// BackoffPolicy computes the wait between analyzer attempts: exponential
// growth from BaseDelay, capped at MaxDelay, with a symmetric random jitter
// so a burst of failing jobs does not retry in lockstep.
type BackoffPolicy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
	// Jitter is the fraction of the computed delay randomized in either
	// direction, e.g. 0.2 for plus or minus 20%.
	Jitter float64
}

// DefaultBackoffPolicy mirrors the provider guidance for multimodal
// endpoints: 2s, 4s, capped at 30s, three attempts total.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		BaseDelay:   2 * time.Second,
		MaxDelay:    30 * time.Second,
		MaxAttempts: 3,
		Jitter:      0.2,
	}
}

// Delay returns the wait before retrying after the given failed attempt
// (1-based). The result is always positive once jitter is applied.
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay << uint(attempt-1)
	if p.MaxDelay > 0 && (d > p.MaxDelay || d <= 0) {
		d = p.MaxDelay
	}
	if p.Jitter > 0 {
		spread := float64(d) * p.Jitter
		d += time.Duration((rand.Float64()*2 - 1) * spread)
	}
	if d < 0 {
		d = 0
	}
	return d
}

// Wait blocks for the delay owed after the given failed attempt, honoring a
// provider-requested minimum when one is larger. It returns early with the
// context error when the context is canceled.
func (p BackoffPolicy) Wait(ctx context.Context, attempt int, minimum time.Duration) error {
	d := p.Delay(attempt)
	if minimum > d {
		d = minimum
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
