package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/vvka-141/pgretry/pkg/pgretry"
)

// Memory is an in-process Store. Increment reads a snapshot, then commits with
// a compare-and-swap on the version; a concurrent commit in between makes it fail
// with a conflict instead of blocking.
type Memory struct {
	mu       sync.Mutex
	counters map[string]Counter

	// BeforeCommit, if set, runs between the read and the commit of Increment.
	BeforeCommit func(name string)
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{counters: make(map[string]Counter)}
}

func (m *Memory) Get(ctx context.Context, name string) (Counter, error) {
	if err := ctx.Err(); err != nil {
		return Counter{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.counters[name]
	if !ok {
		return Counter{}, ErrNotFound
	}
	return c, nil
}

func (m *Memory) Increment(ctx context.Context, name string) (Counter, error) {
	if err := ctx.Err(); err != nil {
		return Counter{}, err
	}

	m.mu.Lock()
	snapshot := m.counters[name]
	m.mu.Unlock()

	if m.BeforeCommit != nil {
		m.BeforeCommit(name)
	}

	next := Counter{Name: name, Value: snapshot.Value + 1, Version: snapshot.Version + 1}

	m.mu.Lock()
	defer m.mu.Unlock()
	if current := m.counters[name]; current.Version != snapshot.Version {
		return Counter{}, &pgretry.ConflictError{
			Resource: "counter/" + name,
			Err:      fmt.Errorf("read version %d, found %d", snapshot.Version, current.Version),
		}
	}
	m.counters[name] = next
	return next, nil
}

// Bump increments name unconditionally, simulating a concurrent writer.
func (m *Memory) Bump(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.counters[name]
	m.counters[name] = Counter{Name: name, Value: c.Value + 1, Version: c.Version + 1}
}

var _ Store = (*Memory)(nil)
