package pgretry

import "time"

// BackoffStrategy calculates the delay before the next attempt.
type BackoffStrategy interface {
	// NextDelay returns the duration to wait before retry number retry.
	// retry is zero-indexed (0 = first retry, 1 = second retry, etc.)
	NextDelay(retry int) time.Duration
}

// Outcome is the terminal state of one middleware invocation.
type Outcome int

const (
	// OutcomeSuccess means an attempt returned normally.
	OutcomeSuccess Outcome = iota
	// OutcomeExhausted means the final permitted attempt failed with a retryable error.
	OutcomeExhausted
	// OutcomeFatal means an attempt failed with a non-retryable error.
	OutcomeFatal
	// OutcomeCancelled means the request context ended while waiting to retry.
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeFatal:
		return "fatal"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Observer receives retry lifecycle notifications.
// Implementations must be safe for concurrent use.
type Observer interface {
	// ObserveRetry is called after attempt failed with a retryable error
	// and before the next attempt starts.
	ObserveRetry(attempt int, err error)

	// ObserveOutcome is called once per invocation with the number of attempts made.
	ObserveOutcome(outcome Outcome, attempts int)
}
