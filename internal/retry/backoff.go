package retry

import (
	"math"
	"math/rand"
	"time"

	"github.com/vvka-141/pgretry/pkg/pgretry"
)

// NoBackoff retries immediately. It is the executor's default.
type NoBackoff struct{}

// NextDelay always returns zero.
func (NoBackoff) NextDelay(int) time.Duration { return 0 }

// ExponentialBackoff implements exponential backoff with jitter.
// It only computes delays; the attempt budget belongs to the Executor.
type ExponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64

	// jitter of 0.1 means +/- 10% randomness
	jitter     float64
	jitterFunc func() float64
}

// BackoffOption is a functional option for configuring ExponentialBackoff.
type BackoffOption func(*ExponentialBackoff)

// WithInitialDelay sets the delay before the first retry.
func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.initialDelay = d
	}
}

// WithMaxDelay caps the delay between attempts.
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.maxDelay = d
	}
}

// WithMultiplier sets the factor by which delay increases between attempts.
func WithMultiplier(m float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.multiplier = m
	}
}

// WithJitter sets the jitter factor (0.0-1.0).
func WithJitter(j float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.jitter = j
	}
}

// WithJitterFunc sets a custom source of random values in [0, 1).
func WithJitterFunc(f func() float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.jitterFunc = f
	}
}

// NewExponentialBackoff creates an exponential backoff strategy.
//
// Example:
//
//	backoff := retry.NewExponentialBackoff(
//	    retry.WithInitialDelay(5 * time.Millisecond),
//	    retry.WithMaxDelay(time.Second),
//	)
func NewExponentialBackoff(opts ...BackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: 10 * time.Millisecond,
		maxDelay:     time.Second,
		multiplier:   2.0,
		jitter:       0.1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NextDelay calculates the delay before the given zero-indexed retry.
func (b *ExponentialBackoff) NextDelay(retry int) time.Duration {
	delay := float64(b.initialDelay) * math.Pow(b.multiplier, float64(retry))
	if delay > float64(b.maxDelay) {
		delay = float64(b.maxDelay)
	}

	if b.jitter > 0 {
		jitterFunc := b.jitterFunc
		if jitterFunc == nil {
			jitterFunc = rand.Float64
		}
		// map [0,1) to [-1,1)
		randomOffset := (jitterFunc() - 0.5) * 2.0
		delay *= 1.0 + b.jitter*randomOffset
	}

	return time.Duration(delay)
}

// InitialDelay returns the initial delay for tests and debugging.
func (b *ExponentialBackoff) InitialDelay() time.Duration {
	return b.initialDelay
}

// MaxDelay returns the maximum delay for tests and debugging.
func (b *ExponentialBackoff) MaxDelay() time.Duration {
	return b.maxDelay
}

var (
	_ pgretry.BackoffStrategy = NoBackoff{}
	_ pgretry.BackoffStrategy = (*ExponentialBackoff)(nil)
)
