package capability

import "context"

// Behavior is an interchangeable implementation of a role (a strategy).
type Behavior interface {
	Perform(ctx context.Context, args ...any) (any, error)
}

// BehaviorFunc adapts a plain function to Behavior.
type BehaviorFunc func(ctx context.Context, args ...any) (any, error)

func (f BehaviorFunc) Perform(ctx context.Context, args ...any) (any, error) {
	return f(ctx, args...)
}

// Const returns a Behavior that always yields v.
func Const(v any) Behavior {
	return constBehavior{value: v}
}

type constBehavior struct {
	value any
}

func (c constBehavior) Perform(context.Context, ...any) (any, error) { return c.value, nil }

// BehaviorSlot pairs a role name with its current implementation.
type BehaviorSlot struct {
	Role string
	Impl Behavior
}

// Observer is told about every change to a registry's active configuration.
// previous is nil for a first registration; current is nil on removal.
type Observer interface {
	OnChange(role string, previous, current Behavior)
}

type ObserverFunc func(role string, previous, current Behavior)

func (f ObserverFunc) OnChange(role string, previous, current Behavior) { f(role, previous, current) }
