package command

import (
	"context"
	"fmt"
	"sync"
)

// Macro runs its sub-commands in order. It remembers how many of them
// completed so that Unexecute only reverses effects that actually happened.
type Macro struct {
	name     string
	commands []Command

	mu        sync.Mutex
	completed int
}

var _ Partial = (*Macro)(nil)

func NewMacro(name string, commands ...Command) *Macro {
	cmds := make([]Command, 0, len(commands))
	for _, c := range commands {
		if c != nil {
			cmds = append(cmds, c)
		}
	}
	return &Macro{name: name, commands: cmds}
}

func (m *Macro) Name() string { return m.name }

// Execute stops at the first failing sub-command and returns a *MacroError.
// The failing sub-command is assumed to have had no effect. A macro whose
// effects are still applied must be unexecuted before it runs again;
// otherwise Execute returns ErrAlreadyApplied.
func (m *Macro) Execute(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.completed > 0 {
		return fmt.Errorf("macro %q: %w", m.name, ErrAlreadyApplied)
	}
	for i, c := range m.commands {
		if err := ctx.Err(); err != nil {
			return &MacroError{Macro: m.name, Command: c.Name(), Index: i, Completed: m.completed, Err: err}
		}
		if err := c.Execute(ctx); err != nil {
			return &MacroError{Macro: m.name, Command: c.Name(), Index: i, Completed: m.completed, Err: err}
		}
		m.completed = i + 1
	}
	return nil
}

// Unexecute reverses the completed prefix, last first. If a sub-command
// refuses, the ones before it stay applied and Completed reflects that.
func (m *Macro) Unexecute(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := m.completed - 1; i >= 0; i-- {
		if err := m.commands[i].Unexecute(ctx); err != nil {
			m.completed = i + 1
			return &MacroError{Macro: m.name, Command: m.commands[i].Name(), Index: i, Completed: m.completed, Err: err}
		}
	}
	m.completed = 0
	return nil
}

// Completed is the number of sub-commands whose effects are currently applied.
func (m *Macro) Completed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completed
}

func (m *Macro) Applied() bool { return m.Completed() > 0 }

func (m *Macro) Len() int { return len(m.commands) }
