// Package store keeps named counters behind optimistic concurrency control.
// Lost races surface as *pgretry.ConflictError so the retry middleware can
// replay the request.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for a counter that was never incremented.
var ErrNotFound = errors.New("counter not found")

// Counter is a named value with a monotonically increasing version.
type Counter struct {
	Name    string `json:"name"`
	Value   int64  `json:"value"`
	Version int64  `json:"version"`
}

// Store reads and increments counters.
type Store interface {
	Get(ctx context.Context, name string) (Counter, error)
	Increment(ctx context.Context, name string) (Counter, error)
}
