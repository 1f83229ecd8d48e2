package capability

import (
	"context"
	"fmt"
)

// Entity owns a set of behavior slots and performs them by role, the way a
// duck delegates flying and quacking to whatever strategy it currently holds.
type Entity struct {
	name     string
	behavior *Registry
}

// NewEntity creates an entity whose slots live in their own registry. The
// registry is never shared between entities.
func NewEntity(name string, opts ...Option) *Entity {
	return &Entity{name: name, behavior: NewRegistry(opts...)}
}

func (e *Entity) Name() string { return e.name }

// Set installs or swaps the behavior for role.
func (e *Entity) Set(role string, impl Behavior) error {
	if e.behavior.Has(role) {
		return e.behavior.Replace(role, impl)
	}
	return e.behavior.Register(role, impl)
}

func (e *Entity) Perform(ctx context.Context, role string, args ...any) (any, error) {
	out, err := e.behavior.Invoke(ctx, role, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}
	return out, nil
}

// Slots returns the entity's active configuration.
func (e *Entity) Slots() []BehaviorSlot { return e.behavior.Slots() }
