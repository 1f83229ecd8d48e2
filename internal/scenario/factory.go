package scenario

import (
	"context"
	"fmt"
	"io"

	"github.com/zeusync/composer/internal/core/capability"
	"github.com/zeusync/composer/internal/core/factory"
	"github.com/zeusync/composer/internal/engine"
	"github.com/zeusync/composer/pkg/concurrent"
)

// produced is one factory product and what it reported when performing.
type produced struct {
	entity *capability.Entity
	lines  []string
}

func runFactory(ctx context.Context, eng *engine.Engine, c *FactoryConfig, report *Report, out io.Writer) error {
	f := factory.New[*capability.Entity]()
	for _, k := range c.Kinds {
		if err := f.Register(k.Name, entityConstructor(eng, k)); err != nil {
			return fmt.Errorf("factory: %w", err)
		}
	}

	opts := []factory.BalancedOption{factory.WithSeed(c.Seed)}
	if c.TieBreak == "random" {
		opts = append(opts, factory.WithTieBreak(factory.TieBreakRandom))
	}
	balanced := factory.NewBalanced(f, opts...)

	products := make([]*produced, 0, c.Count)
	for i := 0; i < c.Count; i++ {
		_, e, err := balanced.Next()
		if err != nil {
			return fmt.Errorf("factory: %w", err)
		}
		products = append(products, &produced{entity: e})
	}

	// each product only touches its own lines
	err := concurrent.ForEach(ctx, products, c.Workers, func(ctx context.Context, p *produced) error {
		for _, role := range c.Perform {
			res, err := p.entity.Perform(ctx, role)
			if err != nil {
				return err
			}
			p.lines = append(p.lines, fmt.Sprintf("%s %s: %v", p.entity.Name(), role, res))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("factory: %w", err)
	}

	for _, p := range products {
		report.Produced = append(report.Produced, p.entity.Name())
		for _, line := range p.lines {
			fmt.Fprintln(out, line)
		}
		report.Performed = append(report.Performed, p.lines...)
	}
	return nil
}

// entityConstructor numbers the entities of one kind: mallard-1, mallard-2...
func entityConstructor(eng *engine.Engine, k KindConfig) factory.Constructor[*capability.Entity] {
	n := 0
	return func() (*capability.Entity, error) {
		n++
		e := eng.NewEntity(fmt.Sprintf("%s-%d", k.Name, n))
		if err := install(eng.Registry, e, k.Behaviors); err != nil {
			return nil, err
		}
		return e, nil
	}
}
