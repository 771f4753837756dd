// Package middleware builds retry executors from flat key/value configuration
// and keeps the table of named filter factories.
package middleware

import (
	"strconv"
	"strings"

	"github.com/vvka-141/pgretry/internal/registry"
	"github.com/vvka-141/pgretry/internal/retry"
	"github.com/vvka-141/pgretry/pkg/pgretry"
)

// Resolver maps a dotted name to an error kind.
type Resolver interface {
	Resolve(name string) (pgretry.ErrorKind, error)
}

// Build wraps inner in a retry executor configured by cfg.
//
// Recognized options:
//   - tries: total attempts, a positive integer (default 3)
//   - retryable: whitespace-separated kind names (default the conflict kind)
//
// Unknown keys are ignored. Invalid values fail with *pgretry.ConfigurationError
// before any request is served. A nil resolver means registry.Default().
func Build(inner pgretry.Handler, cfg map[string]string, resolver Resolver, opts ...retry.Option) (*retry.Executor, error) {
	tries, err := parseTries(cfg)
	if err != nil {
		return nil, err
	}

	if resolver == nil {
		resolver = registry.Default()
	}
	kinds, err := resolveKinds(cfg, resolver)
	if err != nil {
		return nil, err
	}

	return retry.NewExecutor(inner, tries, kinds, opts...), nil
}

func parseTries(cfg map[string]string) (int, error) {
	raw, ok := cfg[pgretry.OptionTries]
	if !ok {
		return pgretry.DefaultTries, nil
	}
	tries, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || tries < 1 {
		return 0, &pgretry.ConfigurationError{
			Option: pgretry.OptionTries,
			Value:  raw,
			Err:    pgretry.ErrInvalidTries,
		}
	}
	return tries, nil
}

// resolveKinds keeps listed order; a repeated name is kept at its first position.
// A present but blank option yields no kinds at all.
func resolveKinds(cfg map[string]string, resolver Resolver) ([]pgretry.ErrorKind, error) {
	raw, ok := cfg[pgretry.OptionRetryable]
	if !ok {
		return []pgretry.ErrorKind{pgretry.Conflict}, nil
	}

	var kinds []pgretry.ErrorKind
	seen := make(map[string]bool)
	for _, name := range strings.Fields(raw) {
		kind, err := resolver.Resolve(name)
		if err != nil {
			return nil, err
		}
		if seen[kind.Name()] {
			continue
		}
		seen[kind.Name()] = true
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
