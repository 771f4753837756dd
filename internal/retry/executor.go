package retry

import (
	"context"
	"net/http"
	"time"

	"github.com/vvka-141/pgretry/internal/logging"
	"github.com/vvka-141/pgretry/pkg/pgretry"
)

// Executor re-invokes an inner handler while it fails with a retryable error kind.
//
// Thread Safety:
// The Executor holds no per-invocation state; Serve may be called concurrently.
// WithOnRetry returns a NEW instance and leaves the receiver unchanged.
type Executor struct {
	inner       pgretry.Handler
	maxAttempts int
	kinds       []pgretry.ErrorKind

	backoff  pgretry.BackoffStrategy
	observer pgretry.Observer
	logger   pgretry.Logger
	onRetry  func(attempt int, err error, delay time.Duration)
}

// Option configures an Executor.
type Option func(*Executor)

// WithBackoff layers a delay between attempts. Waits honour the request context.
func WithBackoff(strategy pgretry.BackoffStrategy) Option {
	return func(e *Executor) {
		if strategy != nil {
			e.backoff = strategy
		}
	}
}

// WithObserver registers an observer for retries and outcomes.
func WithObserver(observer pgretry.Observer) Option {
	return func(e *Executor) {
		e.observer = observer
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger pgretry.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExecutor creates an executor allowing maxAttempts total invocations of inner.
// kinds is copied; an empty set is valid and disables retrying.
// Panics if inner is nil or maxAttempts is below 1.
func NewExecutor(inner pgretry.Handler, maxAttempts int, kinds []pgretry.ErrorKind, opts ...Option) *Executor {
	if inner == nil {
		panic("inner handler cannot be nil")
	}
	if maxAttempts < 1 {
		panic("maxAttempts must be at least 1")
	}
	e := &Executor{
		inner:       inner,
		maxAttempts: maxAttempts,
		kinds:       append([]pgretry.ErrorKind(nil), kinds...),
		backoff:     NoBackoff{},
		logger:      logging.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithOnRetry returns a new Executor with the specified retry callback.
//
// This method does NOT modify the receiver; it returns a new instance.
//
// Example:
//
//	executor := retry.NewExecutor(app, 3, kinds)
//	traced := executor.WithOnRetry(callback) // New instance
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// Inner returns the wrapped handler.
func (e *Executor) Inner() pgretry.Handler { return e.inner }

// MaxAttempts returns the total attempt budget.
func (e *Executor) MaxAttempts() int { return e.maxAttempts }

// Kinds returns a copy of the retryable kinds in configured order.
func (e *Executor) Kinds() []pgretry.ErrorKind {
	return append([]pgretry.ErrorKind(nil), e.kinds...)
}

// IsRetryable reports whether err belongs to one of the retryable kinds.
func (e *Executor) IsRetryable(err error) bool {
	return pgretry.MatchAny(e.kinds, err)
}

// Serve invokes the inner handler until it succeeds, fails with a non-retryable
// error, or the attempt budget is spent. Every attempt receives the same start.
// Errors are returned exactly as the inner handler produced them.
func (e *Executor) Serve(req *http.Request, start pgretry.StartResponse) (pgretry.Body, error) {
	for attempt := 1; ; attempt++ {
		body, err := e.inner.Serve(req, start)
		if err == nil {
			e.observeOutcome(pgretry.OutcomeSuccess, attempt)
			return body, nil
		}

		if !e.IsRetryable(err) {
			e.observeOutcome(pgretry.OutcomeFatal, attempt)
			return nil, err
		}

		if attempt == e.maxAttempts {
			e.logger.Info("giving up after %d attempts: %v", attempt, err)
			e.observeOutcome(pgretry.OutcomeExhausted, attempt)
			return nil, err
		}

		delay := e.backoff.NextDelay(attempt - 1)
		e.logger.Verbose("attempt %d/%d failed, retrying in %v: %v", attempt, e.maxAttempts, delay, err)
		if e.onRetry != nil {
			e.onRetry(attempt, err, delay)
		}
		if e.observer != nil {
			e.observer.ObserveRetry(attempt, err)
		}

		if werr := wait(req.Context(), delay); werr != nil {
			e.logger.Verbose("abandoning after %d attempts: %v", attempt, werr)
			e.observeOutcome(pgretry.OutcomeCancelled, attempt)
			return nil, werr
		}
	}
}

func (e *Executor) observeOutcome(outcome pgretry.Outcome, attempts int) {
	if e.observer != nil {
		e.observer.ObserveOutcome(outcome, attempts)
	}
}

// wait sleeps for delay unless ctx ends first. A non-positive delay returns
// immediately without consulting ctx.
func wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ pgretry.Handler = (*Executor)(nil)
