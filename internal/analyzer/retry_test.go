package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffPolicy_DelayGrowsExponentially(t *testing.T) {
	p := BackoffPolicy{BaseDelay: time.Second, MaxDelay: time.Minute, MaxAttempts: 5}

	assert.Equal(t, time.Second, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(2))
	assert.Equal(t, 4*time.Second, p.Delay(3))
}

func TestBackoffPolicy_DelayCapped(t *testing.T) {
	p := BackoffPolicy{BaseDelay: 10 * time.Second, MaxDelay: 15 * time.Second, MaxAttempts: 5}

	assert.Equal(t, 15*time.Second, p.Delay(2))
	assert.Equal(t, 15*time.Second, p.Delay(10))
}

func TestBackoffPolicy_JitterStaysWithinSpread(t *testing.T) {
	p := BackoffPolicy{BaseDelay: time.Second, MaxDelay: time.Minute, MaxAttempts: 3, Jitter: 0.2}

	for i := 0; i < 100; i++ {
		d := p.Delay(2)
		assert.GreaterOrEqual(t, d, 1600*time.Millisecond)
		assert.LessOrEqual(t, d, 2400*time.Millisecond)
	}
}

func TestBackoffPolicy_WaitHonorsProviderMinimum(t *testing.T) {
	p := BackoffPolicy{BaseDelay: time.Millisecond, MaxDelay: time.Second, MaxAttempts: 3}

	start := time.Now()
	err := p.Wait(context.Background(), 1, 30*time.Millisecond)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestBackoffPolicy_WaitReturnsOnCancel(t *testing.T) {
	p := BackoffPolicy{BaseDelay: time.Hour, MaxDelay: time.Hour, MaxAttempts: 3}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := p.Wait(ctx, 1, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultBackoffPolicy(t *testing.T) {
	p := DefaultBackoffPolicy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 2*time.Second, p.BaseDelay)
}
