package chain

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCondimentChain(t *testing.T) {
	ctx := context.Background()
	beverage, err := NewBuilder(NewItem("Dark Roast", 0.99)).
		With(Additive("Mocha", 0.20), Additive("Mocha", 0.20), Additive("Whip", 0.10)).
		Build()
	require.NoError(t, err)

	cost, err := beverage.Operate(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.49, cost, 1e-9)
	assert.Equal(t, "Dark Roast, Mocha, Mocha, Whip", beverage.Describe())
	assert.Equal(t, 3, Depth(beverage))
	assert.Equal(t, "Dark Roast", Base(beverage).Name())
	assert.Equal(t, []string{"Whip", "Mocha", "Mocha"}, Labels(beverage))
}

func TestAdditiveLayersCommute(t *testing.T) {
	ctx := context.Background()
	increments := []float64{0.15, 0.20, 0.10, 0.35, 1.25, 0.05}
	base := 1.0
	want := base
	for _, inc := range increments {
		want += inc
	}

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		perm := rng.Perm(len(increments))
		b := NewBuilder(NewItem("base", base))
		for _, idx := range perm {
			b.With(Additive("inc", increments[idx]))
		}
		c, err := b.Build()
		require.NoError(t, err)

		got, err := c.Operate(ctx)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-9, "permutation %v", perm)
	}
}

func TestLayerOrderMattersForNonAdditive(t *testing.T) {
	ctx := context.Background()
	a, err := NewBuilder(NewItem("base", 2)).With(Additive("plus", 1), Multiplier("double", 2)).Build()
	require.NoError(t, err)
	b, err := NewBuilder(NewItem("base", 2)).With(Multiplier("double", 2), Additive("plus", 1)).Build()
	require.NoError(t, err)

	va, _ := a.Operate(ctx)
	vb, _ := b.Operate(ctx)
	assert.Equal(t, 6.0, va)
	assert.Equal(t, 5.0, vb)
	assert.Equal(t, "base, plus x2 (double)", a.Describe())
}

func TestWrapDepthLimit(t *testing.T) {
	var c Component = NewItem("base", 0)
	for i := 0; i < 5; i++ {
		n, err := Wrap(c, Additive("x", 1), WithMaxDepth(5))
		require.NoError(t, err)
		c = n
	}

	_, err := Wrap(c, Additive("x", 1), WithMaxDepth(5))
	assert.ErrorIs(t, err, ErrChainTooDeep)

	_, err = NewBuilder(NewItem("base", 0), WithMaxDepth(2)).
		With(Additive("a", 1), Additive("b", 1), Additive("c", 1)).
		Build()
	assert.ErrorIs(t, err, ErrChainTooDeep)
}

func TestWrapDefaultDepth(t *testing.T) {
	ctx := context.Background()
	b := NewBuilder(NewItem("base", 0))
	for i := 0; i < DefaultMaxDepth; i++ {
		b.With(Additive("x", 1))
	}
	c, err := b.Build()
	require.NoError(t, err)

	v, err := c.Operate(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(DefaultMaxDepth), v)

	_, err = Wrap(c, Additive("x", 1))
	assert.ErrorIs(t, err, ErrChainTooDeep)
}

func TestWrapNilArguments(t *testing.T) {
	_, err := Wrap(nil, Additive("x", 1))
	assert.ErrorIs(t, err, ErrNilComponent)

	_, err = Wrap(NewItem("base", 1), nil)
	assert.ErrorIs(t, err, ErrNilLayer)

	_, err = NewBuilder(nil).With(Additive("x", 1)).Build()
	assert.ErrorIs(t, err, ErrNilComponent)
}

func TestLayerDecidesWhenToCallInner(t *testing.T) {
	ctx := context.Background()
	var trace []string
	inner := Func{Name: "spy", Fn: func(ctx context.Context, c Component) (float64, error) {
		trace = append(trace, "inner")
		return c.Operate(ctx)
	}}
	before := Before("before", func(context.Context) error {
		trace = append(trace, "before")
		return nil
	})
	after := After("after", func(_ context.Context, v float64) (float64, error) {
		trace = append(trace, "after")
		return v + 1, nil
	})

	c, err := NewBuilder(NewItem("base", 1)).With(inner, before, after).Build()
	require.NoError(t, err)

	v, err := c.Operate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
	assert.Equal(t, []string{"before", "inner", "after"}, trace)
}

func TestGuardShortCircuits(t *testing.T) {
	ctx := context.Background()
	called := false
	spy := Func{Name: "spy", Fn: func(ctx context.Context, c Component) (float64, error) {
		called = true
		return c.Operate(ctx)
	}}

	c, err := NewBuilder(NewItem("base", 10)).
		With(spy, Guard("closed", func(context.Context) bool { return false }, -1)).
		Build()
	require.NoError(t, err)

	v, err := c.Operate(ctx)
	require.NoError(t, err)
	assert.Equal(t, -1.0, v)
	assert.False(t, called)
}

func TestLayerErrorsPropagate(t *testing.T) {
	boom := errors.New("out of milk")
	c, err := NewBuilder(NewItem("base", 1)).
		With(Before("milk", func(context.Context) error { return boom }), Additive("whip", 0.1)).
		Build()
	require.NoError(t, err)

	_, err = c.Operate(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestOperateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, err := Wrap(NewItem("base", 1), Additive("x", 1))
	require.NoError(t, err)

	_, err = c.Operate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
