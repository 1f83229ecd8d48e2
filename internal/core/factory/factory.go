package factory

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrUnknownKind   = errors.New("unknown kind")
	ErrDuplicateKind = errors.New("kind already registered")
	ErrInvalidKind   = errors.New("invalid kind")
	ErrEmptyFactory  = errors.New("factory has no kinds")
)

// Constructor builds one product.
type Constructor[T any] func() (T, error)

// Factory creates products by kind name through registered constructors.
type Factory[T any] struct {
	mu    sync.RWMutex
	ctors map[string]Constructor[T]
	kinds []string
}

func New[T any]() *Factory[T] {
	return &Factory[T]{ctors: make(map[string]Constructor[T])}
}

func (f *Factory[T]) Register(kind string, ctor Constructor[T]) error {
	if kind == "" || ctor == nil {
		return ErrInvalidKind
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ctors[kind]; ok {
		return fmt.Errorf("register %q: %w", kind, ErrDuplicateKind)
	}
	f.ctors[kind] = ctor
	f.kinds = append(f.kinds, kind)
	return nil
}

func (f *Factory[T]) Create(kind string) (T, error) {
	f.mu.RLock()
	ctor, ok := f.ctors[kind]
	f.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("create %q: %w", kind, ErrUnknownKind)
	}
	return ctor()
}

// Kinds returns kind names in registration order.
func (f *Factory[T]) Kinds() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.kinds))
	copy(out, f.kinds)
	return out
}
