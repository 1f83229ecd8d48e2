package chain

import (
	"context"
	"fmt"
)

// Item is a concrete base component with a fixed value.
type Item struct {
	name  string
	value float64
}

func NewItem(name string, value float64) *Item {
	return &Item{name: name, value: value}
}

func (i *Item) Name() string     { return i.name }
func (i *Item) Describe() string { return i.name }

func (i *Item) Operate(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return i.value, nil
}

type additive struct {
	label  string
	amount float64
}

// Additive calls the inner component first and adds amount to its result.
func Additive(label string, amount float64) Layer {
	return additive{label: label, amount: amount}
}

func (a additive) Label() string { return a.label }

func (a additive) Apply(ctx context.Context, inner Component) (float64, error) {
	v, err := inner.Operate(ctx)
	if err != nil {
		return 0, err
	}
	return v + a.amount, nil
}

type multiplier struct {
	label  string
	factor float64
}

// Multiplier scales the inner result. Unlike Additive its position in the
// chain changes the total.
func Multiplier(label string, factor float64) Layer {
	return multiplier{label: label, factor: factor}
}

func (m multiplier) Label() string { return m.label }

func (m multiplier) Apply(ctx context.Context, inner Component) (float64, error) {
	v, err := inner.Operate(ctx)
	if err != nil {
		return 0, err
	}
	return v * m.factor, nil
}

func (m multiplier) Describe(inner string) string {
	return fmt.Sprintf("%s x%g (%s)", inner, m.factor, m.label)
}

// Func is a Layer built from a function. The function owns the call to inner.
type Func struct {
	Name string
	Fn   func(ctx context.Context, inner Component) (float64, error)
}

func (f Func) Label() string { return f.Name }

func (f Func) Apply(ctx context.Context, inner Component) (float64, error) {
	return f.Fn(ctx, inner)
}

// Before runs hook ahead of the inner component. A hook error stops the call.
func Before(label string, hook func(ctx context.Context) error) Layer {
	return Func{Name: label, Fn: func(ctx context.Context, inner Component) (float64, error) {
		if err := hook(ctx); err != nil {
			return 0, fmt.Errorf("%s: %w", label, err)
		}
		return inner.Operate(ctx)
	}}
}

// After passes the inner result through hook.
func After(label string, hook func(ctx context.Context, v float64) (float64, error)) Layer {
	return Func{Name: label, Fn: func(ctx context.Context, inner Component) (float64, error) {
		v, err := inner.Operate(ctx)
		if err != nil {
			return 0, err
		}
		return hook(ctx, v)
	}}
}

// Guard only calls the inner component when allow reports true; otherwise it
// short-circuits with fallback.
func Guard(label string, allow func(ctx context.Context) bool, fallback float64) Layer {
	return Func{Name: label, Fn: func(ctx context.Context, inner Component) (float64, error) {
		if !allow(ctx) {
			return fallback, nil
		}
		return inner.Operate(ctx)
	}}
}
