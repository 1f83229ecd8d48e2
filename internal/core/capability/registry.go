package capability

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/zeusync/composer/internal/core/observability/log"
)

// Registry maps role names to behaviors. In strict mode a role can only be
// registered once; Replace is the explicit way to swap it.
type Registry struct {
	mu        sync.RWMutex
	slots     map[string]Behavior
	order     []string
	strict    bool
	observers []Observer
	logger    log.Log
}

type Option func(*Registry)

// WithStrict makes Register fail with ErrDuplicateRole on an existing role.
func WithStrict(strict bool) Option {
	return func(r *Registry) { r.strict = strict }
}

func WithLogger(l log.Log) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		slots:  make(map[string]Behavior),
		logger: log.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Strict reports whether duplicate registrations are rejected.
func (r *Registry) Strict() bool { return r.strict }

// Register stores impl under role, overwriting any previous value unless the
// registry is strict.
func (r *Registry) Register(role string, impl Behavior) error {
	if role == "" {
		return ErrInvalidRole
	}
	if impl == nil {
		return fmt.Errorf("register %q: %w", role, ErrNilBehavior)
	}

	r.mu.Lock()
	prev, exists := r.slots[role]
	if exists && r.strict {
		r.mu.Unlock()
		return fmt.Errorf("register %q: %w", role, ErrDuplicateRole)
	}
	r.slots[role] = impl
	if !exists {
		r.order = append(r.order, role)
	}
	observers := append([]Observer(nil), r.observers...)
	r.mu.Unlock()

	r.logger.Debug("behavior registered", log.String("role", role), log.Bool("overwrite", exists))
	for _, o := range observers {
		o.OnChange(role, prev, impl)
	}
	return nil
}

// Replace swaps the implementation of an already registered role. Strict mode
// does not apply.
func (r *Registry) Replace(role string, impl Behavior) error {
	if impl == nil {
		return fmt.Errorf("replace %q: %w", role, ErrNilBehavior)
	}

	r.mu.Lock()
	prev, exists := r.slots[role]
	if !exists {
		r.mu.Unlock()
		return fmt.Errorf("replace %q: %w", role, ErrUnknownRole)
	}
	r.slots[role] = impl
	observers := append([]Observer(nil), r.observers...)
	r.mu.Unlock()

	r.logger.Debug("behavior replaced", log.String("role", role))
	for _, o := range observers {
		o.OnChange(role, prev, impl)
	}
	return nil
}

// Unregister drops role. Missing roles are ignored.
func (r *Registry) Unregister(role string) {
	r.mu.Lock()
	prev, exists := r.slots[role]
	if !exists {
		r.mu.Unlock()
		return
	}
	delete(r.slots, role)
	for i, name := range r.order {
		if name == role {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	observers := append([]Observer(nil), r.observers...)
	r.mu.Unlock()

	for _, o := range observers {
		o.OnChange(role, prev, nil)
	}
}

func (r *Registry) Resolve(role string) (Behavior, error) {
	r.mu.RLock()
	impl, ok := r.slots[role]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("resolve %q: %w", role, ErrUnknownRole)
	}
	return impl, nil
}

// Invoke resolves role and performs it. Errors returned by the behavior are
// passed through unchanged.
func (r *Registry) Invoke(ctx context.Context, role string, args ...any) (any, error) {
	impl, err := r.Resolve(role)
	if err != nil {
		return nil, err
	}
	return impl.Perform(ctx, args...)
}

// Has reports whether role is registered.
func (r *Registry) Has(role string) bool {
	r.mu.RLock()
	_, ok := r.slots[role]
	r.mu.RUnlock()
	return ok
}

// Roles returns registered role names, sorted.
func (r *Registry) Roles() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.slots))
	for role := range r.slots {
		out = append(out, role)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Slots returns the active configuration in registration order.
func (r *Registry) Slots() []BehaviorSlot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]BehaviorSlot, 0, len(r.order))
	for _, role := range r.order {
		out = append(out, BehaviorSlot{Role: role, Impl: r.slots[role]})
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots)
}
