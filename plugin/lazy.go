package plugin

import (
	"context"
	"sync"
)

// Lazy defers producing a value until it is first needed. A successful load
// is cached; a failed one is retried on the next Get.
type Lazy[T any] struct {
	load   func(ctx context.Context) (T, error)
	mu     sync.Mutex
	value  T
	loaded bool
}

func NewLazy[T any](load func(ctx context.Context) (T, error)) *Lazy[T] {
	return &Lazy[T]{load: load}
}

// Value returns a Lazy that is already resolved to v.
func Value[T any](v T) *Lazy[T] {
	return &Lazy[T]{value: v, loaded: true}
}

func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded {
		return l.value, nil
	}
	v, err := l.load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	l.value = v
	l.loaded = true
	return v, nil
}

func (l *Lazy[T]) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

func (l *Lazy[T]) valid() bool {
	return l != nil && (l.loaded || l.load != nil)
}
