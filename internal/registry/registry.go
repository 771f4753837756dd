// Package registry resolves dotted names from configuration to error kinds.
package registry

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/vvka-141/pgretry/internal/retry"
	"github.com/vvka-141/pgretry/pkg/pgretry"
)

// Names of the kinds pre-registered by Default.
const (
	SerializationFailure = "pgconn.SerializationFailure"
	DeadlockDetected     = "pgconn.DeadlockDetected"
	TransactionRollback  = "pgconn.TransactionRollback"
	LockNotAvailable     = "pgconn.LockNotAvailable"
	ConnectionFailure    = "pgconn.ConnectionFailure"
	DeadlineExceeded     = "context.DeadlineExceeded"
)

var dottedName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)+$`)

// Registry maps dotted names to error kinds.
// Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]pgretry.ErrorKind
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{kinds: make(map[string]pgretry.ErrorKind)}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry holding the built-in kinds.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New()
		for _, kind := range builtins() {
			if err := defaultRegistry.Register(kind); err != nil {
				panic(err)
			}
		}
	})
	return defaultRegistry
}

func builtins() []pgretry.ErrorKind {
	return []pgretry.ErrorKind{
		pgretry.Conflict,
		retry.PgCodeKind(SerializationFailure, retry.SQLStateSerializationFailure),
		retry.PgCodeKind(DeadlockDetected, retry.SQLStateDeadlockDetected),
		retry.PgCodeKind(TransactionRollback, retry.SQLStateTransactionRollback),
		retry.PgCodeKind(LockNotAvailable, retry.SQLStateLockNotAvailable),
		retry.TransientConnectionKind(ConnectionFailure),
		pgretry.SentinelKind(DeadlineExceeded, context.DeadlineExceeded),
	}
}

// Conflicts returns the built-in kinds that signal a lost concurrency race, as
// opposed to other transient failures such as a dropped connection.
func Conflicts() []pgretry.ErrorKind {
	return []pgretry.ErrorKind{
		pgretry.Conflict,
		retry.PgCodeKind(SerializationFailure, retry.SQLStateSerializationFailure),
		retry.PgCodeKind(DeadlockDetected, retry.SQLStateDeadlockDetected),
	}
}

// Register adds kind under kind.Name().
func (r *Registry) Register(kind pgretry.ErrorKind) error {
	name := kind.Name()
	if !dottedName.MatchString(name) {
		return fmt.Errorf("register %q: malformed dotted name", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.kinds[name]; ok {
		return fmt.Errorf("register %q: %w", name, pgretry.ErrDuplicateKind)
	}
	r.kinds[name] = kind
	return nil
}

// Resolve returns the kind registered under name. The entry-point form
// "package:Name" is accepted as an alias of "package.Name".
func (r *Registry) Resolve(name string) (pgretry.ErrorKind, error) {
	normalized := strings.Replace(strings.TrimSpace(name), ":", ".", 1)

	r.mu.RLock()
	kind, ok := r.kinds[normalized]
	r.mu.RUnlock()

	if !ok {
		return nil, &pgretry.ConfigurationError{
			Option: pgretry.OptionRetryable,
			Value:  name,
			Err:    pgretry.ErrUnknownKind,
		}
	}
	return kind, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
