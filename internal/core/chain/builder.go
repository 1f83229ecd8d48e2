package chain

// Builder assembles a linear chain, innermost layer first. The first error
// sticks and is returned from Build.
type Builder struct {
	current Component
	opts    []Option
	err     error
}

func NewBuilder(base Component, opts ...Option) *Builder {
	b := &Builder{current: base, opts: opts}
	if base == nil {
		b.err = ErrNilComponent
	}
	return b
}

func (b *Builder) With(layers ...Layer) *Builder {
	for _, l := range layers {
		if b.err != nil {
			return b
		}
		node, err := Wrap(b.current, l, b.opts...)
		if err != nil {
			b.err = err
			return b
		}
		b.current = node
	}
	return b
}

func (b *Builder) Build() (Component, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.current, nil
}
