package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeusync/composer/internal/core/command"
)

var errScripted = errors.New("scripted failure")

func buildCommand(c CommandConfig, lights map[string]*Light) (command.Command, error) {
	name := c.Name
	if name == "" {
		name = c.Type
		if c.Target != "" {
			name += " " + c.Target
		}
	}

	switch c.Type {
	case "light.on":
		return lightCommand(name, lights[c.Target], func(l *Light) {
			l.On = true
			if l.Level == 0 {
				l.Level = 100
			}
		}), nil
	case "light.off":
		return lightCommand(name, lights[c.Target], func(l *Light) { l.On = false }), nil
	case "light.dim":
		level := c.Level
		return lightCommand(name, lights[c.Target], func(l *Light) {
			l.On = level > 0
			l.Level = level
		}), nil
	case "fail":
		return command.New(name, func(context.Context) error { return errScripted }, nil), nil
	case "macro":
		steps := make([]command.Command, 0, len(c.Steps))
		for _, sc := range c.Steps {
			sub, err := buildCommand(sc, lights)
			if err != nil {
				return nil, err
			}
			steps = append(steps, sub)
		}
		return command.NewMacro(name, steps...), nil
	default:
		return nil, fmt.Errorf("unknown command type %q", c.Type)
	}
}

// lightCommand applies change and undoes it by restoring the state the light
// had right before the matching Execute.
func lightCommand(name string, l *Light, change func(*Light)) command.Command {
	h := newHistory()
	return command.New(name, func(context.Context) error {
		h.save(l)
		change(l)
		return nil
	}, func(context.Context) error {
		h.restore(l)
		return nil
	})
}

// buildRemote returns nil when the scenario has no remote.
func buildRemote(inv *command.Invoker, c *RemoteConfig, lights map[string]*Light) (*command.Remote, error) {
	if c == nil {
		return nil, nil
	}
	remote := command.NewRemote(inv, len(c.Slots))
	for i, sl := range c.Slots {
		on, err := buildOptional(sl.On, lights)
		if err != nil {
			return nil, fmt.Errorf("remote slot %d: %w", i, err)
		}
		off, err := buildOptional(sl.Off, lights)
		if err != nil {
			return nil, fmt.Errorf("remote slot %d: %w", i, err)
		}
		if err = remote.SetCommand(i, on, off); err != nil {
			return nil, err
		}
	}
	return remote, nil
}

func buildOptional(c *CommandConfig, lights map[string]*Light) (command.Command, error) {
	if c == nil {
		return command.NoOp, nil
	}
	return buildCommand(*c, lights)
}
