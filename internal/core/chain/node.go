package chain

import (
	"context"
	"fmt"
)

const DefaultMaxDepth = 1000

// Node wraps exactly one inner component. The reference is fixed at Wrap time.
type Node struct {
	layer Layer
	inner Component
	depth int
}

var _ Component = (*Node)(nil)

type options struct {
	maxDepth int
}

type Option func(*options)

// WithMaxDepth overrides DefaultMaxDepth. Non-positive values are ignored.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Wrap returns a new Node applying layer around inner.
func Wrap(inner Component, layer Layer, opts ...Option) (*Node, error) {
	if inner == nil {
		return nil, ErrNilComponent
	}
	if layer == nil {
		return nil, ErrNilLayer
	}
	o := buildOptions(opts)
	depth := Depth(inner) + 1
	if depth > o.maxDepth {
		return nil, fmt.Errorf("wrap %q with %q: depth %d exceeds %d: %w",
			inner.Name(), layer.Label(), depth, o.maxDepth, ErrChainTooDeep)
	}
	return &Node{layer: layer, inner: inner, depth: depth}, nil
}

func (n *Node) Name() string { return n.layer.Label() }

func (n *Node) Describe() string {
	if d, ok := n.layer.(Describer); ok {
		return d.Describe(n.inner.Describe())
	}
	return n.inner.Describe() + ", " + n.layer.Label()
}

func (n *Node) Operate(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return n.layer.Apply(ctx, n.inner)
}

// Inner returns the wrapped component.
func (n *Node) Inner() Component { return n.inner }

func (n *Node) Layer() Layer { return n.layer }

// Depth is the number of layers between n and its base, n included.
func (n *Node) Depth() int { return n.depth }

// Depth reports how many Nodes wrap the base of c. A bare component has depth 0.
func Depth(c Component) int {
	if n, ok := c.(*Node); ok {
		return n.depth
	}
	return 0
}

// Base walks to the terminal concrete component of c.
func Base(c Component) Component {
	for {
		n, ok := c.(*Node)
		if !ok {
			return c
		}
		c = n.inner
	}
}

// Labels lists layer labels from the outermost layer inwards.
func Labels(c Component) []string {
	var out []string
	for {
		n, ok := c.(*Node)
		if !ok {
			return out
		}
		out = append(out, n.layer.Label())
		c = n.inner
	}
}
