package chain

import "context"

// Component is anything that can sit in a chain: a concrete base or a Node
// wrapping another Component.
type Component interface {
	Name() string
	Describe() string
	Operate(ctx context.Context) (float64, error)
}

// Layer is the augmentation carried by a Node. Apply receives the wrapped
// component and decides whether to call it before, after, around its own
// work, or not at all.
type Layer interface {
	Label() string
	Apply(ctx context.Context, inner Component) (float64, error)
}

// Describer lets a layer rewrite the description of the component it wraps.
// Layers that do not implement it append ", <label>".
type Describer interface {
	Describe(inner string) string
}
