// Package retry re-invokes a request handler when it fails with a transient,
// replay-safe error such as an optimistic-concurrency conflict.
//
// # Example Usage
//
//	kinds := []pgretry.ErrorKind{pgretry.Conflict}
//	executor := retry.NewExecutor(app, 3, kinds)
//
//	body, err := executor.Serve(req, start)
//
// # Attempt Budget
//
// maxAttempts counts every invocation, the first one included. The loop stops at
// the first success, at the first error outside the retryable kinds, or when the
// budget is spent; in the last two cases the handler's error is returned as is.
//
// # Error Kinds
//
// Retryable kinds are pgretry.ErrorKind values. PgCodeKind matches PostgreSQL
// SQLSTATE codes or classes; TransientConnectionKind reuses the connection
// failure rules of PostgreSQLErrorClassifier.
//
// # Backoff
//
// Retries are immediate unless WithBackoff layers a BackoffStrategy on top.
//
// # Thread Safety
//
// Executor instances hold no per-invocation state and are safe for concurrent use.
package retry
