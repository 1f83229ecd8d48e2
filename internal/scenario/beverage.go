package scenario

import (
	"fmt"

	"github.com/zeusync/composer/internal/core/chain"
	"github.com/zeusync/composer/internal/engine"
)

func buildBeverage(eng *engine.Engine, c *BeverageConfig) (chain.Component, error) {
	layers := make([]chain.Layer, 0, len(c.Layers))
	for _, lc := range c.Layers {
		switch lc.Type {
		case "add":
			layers = append(layers, chain.Additive(lc.Name, lc.Amount))
		case "multiply":
			layers = append(layers, chain.Multiplier(lc.Name, lc.Factor))
		default:
			return nil, fmt.Errorf("unknown layer type %q", lc.Type)
		}
	}
	bev, err := eng.Wrap(chain.NewItem(c.Name, c.Cost), layers...)
	if err != nil {
		return nil, fmt.Errorf("beverage %q: %w", c.Name, err)
	}
	return bev, nil
}
