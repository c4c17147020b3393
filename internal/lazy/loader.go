// Package lazy provides a mutex-guarded, load-once value holder for
// expensive process-wide resources such as inference models.
package lazy

import (
	"context"
	"sync"
	"sync/atomic"
)

// LoadFunc produces the value held by a Loader
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Loader runs its LoadFunc at most once successfully. Concurrent callers
// wait for an in-flight load. A failed load is not remembered, so the next
// caller tries again. A loaded value is never evicted.
type Loader[T any] struct {
	mu    sync.Mutex
	load  LoadFunc[T]
	value T

	// loaded is published after value is set and read without mu
	loaded atomic.Bool
}

// New creates a Loader around load
func New[T any](load LoadFunc[T]) *Loader[T] {
	return &Loader[T]{load: load}
}

// Get returns the loaded value, loading it first if needed
func (l *Loader[T]) Get(ctx context.Context) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded.Load() {
		return l.value, nil
	}

	value, err := l.load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	l.value = value
	l.loaded.Store(true)
	return value, nil
}

// Loaded reports whether a value has been loaded. It never waits for an
// in-flight load.
func (l *Loader[T]) Loaded() bool {
	return l.loaded.Load()
}
