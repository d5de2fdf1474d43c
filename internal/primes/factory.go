package primes

import (
	"fmt"
	"sort"
	"sync"

	apperrors "github.com/agbru/primecount/internal/errors"
)

// CounterFactory resolves counters by their registry key.
type CounterFactory interface {
	// Get returns the counter registered under name.
	Get(name string) (Counter, error)
	// List returns the registered keys in sorted order.
	List() []string
	// GetAll returns a copy of the registry.
	GetAll() map[string]Counter
	// Register adds or replaces a counter.
	Register(name string, c Counter) error
}

// DefaultFactory is a concurrency-safe, map-backed CounterFactory.
type DefaultFactory struct {
	mu       sync.RWMutex
	counters map[string]Counter
}

// NewDefaultFactory returns a factory with the built-in counters registered
// under "trial", "sqrt" and "sieve".
func NewDefaultFactory() *DefaultFactory {
	return &DefaultFactory{counters: map[string]Counter{
		"trial": TrialDivision{},
		"sqrt":  SqrtTrialDivision{},
		"sieve": SegmentedSieve{},
	}}
}

// Get returns the counter registered under name.
func (f *DefaultFactory) Get(name string) (Counter, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c, ok := f.counters[name]
	if !ok {
		return nil, apperrors.ValidationError{Field: "algo", Message: fmt.Sprintf("unknown algorithm %q", name)}
	}
	return c, nil
}

// List returns the registered keys in sorted order.
func (f *DefaultFactory) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	keys := make([]string, 0, len(f.counters))
	for k := range f.counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetAll returns a copy of the registry.
func (f *DefaultFactory) GetAll() map[string]Counter {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]Counter, len(f.counters))
	for k, v := range f.counters {
		out[k] = v
	}
	return out
}

// Register adds or replaces a counter.
func (f *DefaultFactory) Register(name string, c Counter) error {
	if name == "" || name == "all" {
		return apperrors.ValidationError{Field: "algo", Message: fmt.Sprintf("reserved or empty algorithm name %q", name)}
	}
	if c == nil {
		return apperrors.ValidationError{Field: "algo", Message: "nil counter"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters[name] = c
	return nil
}
