package middleware

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vvka-141/pgretry/internal/registry"
	"github.com/vvka-141/pgretry/internal/retry"
	"github.com/vvka-141/pgretry/pkg/pgretry"
)

// FilterFactory wraps an inner handler according to cfg.
type FilterFactory func(inner pgretry.Handler, cfg map[string]string, opts ...retry.Option) (pgretry.Handler, error)

var (
	filtersMu sync.RWMutex
	filters   = map[string]FilterFactory{}
)

func init() {
	Register(pgretry.FilterName, func(inner pgretry.Handler, cfg map[string]string, opts ...retry.Option) (pgretry.Handler, error) {
		executor, err := Build(inner, cfg, registry.Default(), opts...)
		if err != nil {
			return nil, err
		}
		return executor, nil
	})
}

// Register makes a filter factory available under name.
// It panics if name is already taken.
func Register(name string, factory FilterFactory) {
	filtersMu.Lock()
	defer filtersMu.Unlock()
	if _, dup := filters[name]; dup {
		panic(fmt.Sprintf("middleware: filter %q registered twice", name))
	}
	filters[name] = factory
}

// Lookup returns the filter factory registered under name.
func Lookup(name string) (FilterFactory, bool) {
	filtersMu.RLock()
	defer filtersMu.RUnlock()
	f, ok := filters[name]
	return f, ok
}

// Filters returns the registered filter names in sorted order.
func Filters() []string {
	filtersMu.RLock()
	defer filtersMu.RUnlock()
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
