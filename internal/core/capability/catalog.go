package capability

import (
	"fmt"
	"sort"
)

// Stock strategies used by the demo and by scenario files.
var (
	FlyWithWings = Const("Flying with wings")
	FlyNoWay     = Const("I can't fly")
	FlyRocket    = Const("Flying with a rocket")
	Quack        = Const("Quack")
	Squeak       = Const("Squeak")
	MuteQuack    = Const("<< Silence >>")
)

// Catalog resolves behavior names found in configuration files.
type Catalog map[string]Behavior

// DefaultCatalog returns the stock strategies keyed by name.
func DefaultCatalog() Catalog {
	return Catalog{
		"FlyWithWings": FlyWithWings,
		"FlyNoWay":     FlyNoWay,
		"FlyRocket":    FlyRocket,
		"Quack":        Quack,
		"Squeak":       Squeak,
		"MuteQuack":    MuteQuack,
	}
}

func (c Catalog) Lookup(name string) (Behavior, error) {
	b, ok := c[name]
	if !ok {
		return nil, fmt.Errorf("unknown behavior %q", name)
	}
	return b, nil
}

func (c Catalog) Names() []string {
	out := make([]string, 0, len(c))
	for name := range c {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
