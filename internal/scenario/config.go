package scenario

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Scenario describes a demonstration run in JSON or YAML.
type Scenario struct {
	Name          string               `json:"name" yaml:"name"`
	Entities      []EntityConfig       `json:"entities,omitempty" yaml:"entities,omitempty"`
	Beverage      *BeverageConfig      `json:"beverage,omitempty" yaml:"beverage,omitempty"`
	Factory       *FactoryConfig       `json:"factory,omitempty" yaml:"factory,omitempty"`
	Lights        []string             `json:"lights,omitempty" yaml:"lights,omitempty"`
	Remote        *RemoteConfig        `json:"remote,omitempty" yaml:"remote,omitempty"`
	Steps         []StepConfig         `json:"steps,omitempty" yaml:"steps,omitempty"`
	Subscribers   []SubscriberConfig   `json:"subscribers,omitempty" yaml:"subscribers,omitempty"`
	Notifications []NotificationConfig `json:"notifications,omitempty" yaml:"notifications,omitempty"`
}

// EntityConfig installs behaviors on an entity and performs roles, first
// with the initial behaviors and again after applying Swap.
type EntityConfig struct {
	Name      string            `json:"name" yaml:"name"`
	Behaviors map[string]string `json:"behaviors" yaml:"behaviors"`
	Perform   []string          `json:"perform,omitempty" yaml:"perform,omitempty"`
	Swap      map[string]string `json:"swap,omitempty" yaml:"swap,omitempty"`
}

type BeverageConfig struct {
	Name   string        `json:"name" yaml:"name"`
	Cost   float64       `json:"cost" yaml:"cost"`
	Layers []LayerConfig `json:"layers,omitempty" yaml:"layers,omitempty"`
}

// LayerConfig is one decorator. Type is "add" (uses Amount) or "multiply"
// (uses Factor).
type LayerConfig struct {
	Type   string  `json:"type" yaml:"type"`
	Name   string  `json:"name" yaml:"name"`
	Amount float64 `json:"amount,omitempty" yaml:"amount,omitempty"`
	Factor float64 `json:"factor,omitempty" yaml:"factor,omitempty"`
}

// FactoryConfig produces Count entities from Kinds through a balanced
// factory and has each of them perform the Perform roles, Workers at a time
// (zero means all at once).
type FactoryConfig struct {
	Kinds    []KindConfig `json:"kinds" yaml:"kinds"`
	Count    int          `json:"count" yaml:"count"`
	Perform  []string     `json:"perform,omitempty" yaml:"perform,omitempty"`
	TieBreak string       `json:"tie_break,omitempty" yaml:"tie_break,omitempty"` // order or random
	Seed     int64        `json:"seed,omitempty" yaml:"seed,omitempty"`
	Workers  int          `json:"workers,omitempty" yaml:"workers,omitempty"`
}

type KindConfig struct {
	Name      string            `json:"name" yaml:"name"`
	Behaviors map[string]string `json:"behaviors" yaml:"behaviors"`
}

// RemoteConfig loads commands into the slots of a remote control. An empty
// side of a slot does nothing when pressed.
type RemoteConfig struct {
	Slots []SlotConfig `json:"slots" yaml:"slots"`
}

type SlotConfig struct {
	On  *CommandConfig `json:"on,omitempty" yaml:"on,omitempty"`
	Off *CommandConfig `json:"off,omitempty" yaml:"off,omitempty"`
}

// StepConfig is one invoker action: "execute" (with Command), "undo",
// "redo", or a remote button: "press.on" and "press.off" (with Slot) and
// "press.undo".
type StepConfig struct {
	Op      string         `json:"op" yaml:"op"`
	Command *CommandConfig `json:"command,omitempty" yaml:"command,omitempty"`
	Slot    int            `json:"slot,omitempty" yaml:"slot,omitempty"`
}

// CommandConfig describes a command against a light: "light.on",
// "light.off", "light.dim" (uses Level), "fail" (always fails) or "macro"
// (uses Steps).
type CommandConfig struct {
	Type   string          `json:"type" yaml:"type"`
	Name   string          `json:"name,omitempty" yaml:"name,omitempty"`
	Target string          `json:"target,omitempty" yaml:"target,omitempty"`
	Level  int             `json:"level,omitempty" yaml:"level,omitempty"`
	Steps  []CommandConfig `json:"steps,omitempty" yaml:"steps,omitempty"`
}

type SubscriberConfig struct {
	ID     string `json:"id" yaml:"id"`
	Topic  string `json:"topic" yaml:"topic"`
	Reject bool   `json:"reject,omitempty" yaml:"reject,omitempty"`
}

type NotificationConfig struct {
	Topic   string `json:"topic" yaml:"topic"`
	Payload any    `json:"payload" yaml:"payload"`
}

// LoadJSON loads a scenario from a JSON reader.
func LoadJSON(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &s, s.Validate()
}

// LoadYAML loads a scenario from a YAML reader.
func LoadYAML(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &s, s.Validate()
}

// Validate validates the scenario
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}

	for i, e := range s.Entities {
		if e.Name == "" {
			return fmt.Errorf("entity %d: name is required", i)
		}
		for _, role := range e.Perform {
			if _, ok := e.Behaviors[role]; !ok {
				return fmt.Errorf("entity %q: perform %q has no behavior", e.Name, role)
			}
		}
	}

	if s.Beverage != nil {
		if s.Beverage.Name == "" {
			return fmt.Errorf("beverage name is required")
		}
		for i, l := range s.Beverage.Layers {
			if err := l.Validate(); err != nil {
				return fmt.Errorf("layer %d: %w", i, err)
			}
		}
	}

	if s.Factory != nil {
		if err := s.Factory.Validate(); err != nil {
			return fmt.Errorf("factory: %w", err)
		}
	}

	lights := make(map[string]bool, len(s.Lights))
	for _, l := range s.Lights {
		lights[l] = true
	}
	slots := 0
	if s.Remote != nil {
		slots = len(s.Remote.Slots)
		for i, sl := range s.Remote.Slots {
			for _, c := range []*CommandConfig{sl.On, sl.Off} {
				if c == nil {
					continue
				}
				if err := c.validate(lights); err != nil {
					return fmt.Errorf("remote slot %d: %w", i, err)
				}
			}
		}
	}
	for i, st := range s.Steps {
		switch st.Op {
		case "execute":
			if st.Command == nil {
				return fmt.Errorf("step %d: execute needs a command", i)
			}
			if err := st.Command.validate(lights); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		case "undo", "redo":
		case "press.on", "press.off":
			if st.Slot < 0 || st.Slot >= slots {
				return fmt.Errorf("step %d: %s: no remote slot %d", i, st.Op, st.Slot)
			}
		case "press.undo":
			if s.Remote == nil {
				return fmt.Errorf("step %d: press.undo needs a remote", i)
			}
		default:
			return fmt.Errorf("step %d: unknown op %q", i, st.Op)
		}
	}

	for i, sub := range s.Subscribers {
		if sub.ID == "" || sub.Topic == "" {
			return fmt.Errorf("subscriber %d: id and topic are required", i)
		}
	}
	for i, n := range s.Notifications {
		if n.Topic == "" {
			return fmt.Errorf("notification %d: topic is required", i)
		}
	}
	return nil
}

func (f *FactoryConfig) Validate() error {
	if len(f.Kinds) == 0 {
		return fmt.Errorf("no kinds")
	}
	if f.Count < 0 || f.Workers < 0 {
		return fmt.Errorf("count and workers must not be negative")
	}
	switch f.TieBreak {
	case "", "order", "random":
	default:
		return fmt.Errorf("unknown tie_break %q", f.TieBreak)
	}
	seen := make(map[string]bool, len(f.Kinds))
	for _, k := range f.Kinds {
		if k.Name == "" {
			return fmt.Errorf("kind name is required")
		}
		if seen[k.Name] {
			return fmt.Errorf("duplicate kind %q", k.Name)
		}
		seen[k.Name] = true
		for _, role := range f.Perform {
			if _, ok := k.Behaviors[role]; !ok {
				return fmt.Errorf("kind %q: perform %q has no behavior", k.Name, role)
			}
		}
	}
	return nil
}

func (l LayerConfig) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("layer name is required")
	}
	switch l.Type {
	case "add", "multiply":
		return nil
	default:
		return fmt.Errorf("unknown layer type %q", l.Type)
	}
}

func (c *CommandConfig) validate(lights map[string]bool) error {
	switch c.Type {
	case "light.on", "light.off", "light.dim":
		if !lights[c.Target] {
			return fmt.Errorf("%s: unknown light %q", c.Type, c.Target)
		}
	case "fail":
	case "macro":
		if len(c.Steps) == 0 {
			return fmt.Errorf("macro %q has no steps", c.Name)
		}
		for i := range c.Steps {
			if err := c.Steps[i].validate(lights); err != nil {
				return fmt.Errorf("macro %q step %d: %w", c.Name, i, err)
			}
		}
	default:
		return fmt.Errorf("unknown command type %q", c.Type)
	}
	return nil
}
