package command

import "context"

// Command is a reified action. Unexecute must exactly reverse the effect of
// Execute on the receiver.
type Command interface {
	Name() string
	Execute(ctx context.Context) error
	Unexecute(ctx context.Context) error
}

// Partial is implemented by commands that can fail half way and still leave
// some effect behind.
type Partial interface {
	Command
	// Applied reports whether any effect of the last Execute is in place.
	Applied() bool
}

type funcCommand struct {
	name string
	do   func(ctx context.Context) error
	undo func(ctx context.Context) error
}

// New builds a command from an execute/unexecute pair. A nil undo makes the
// command irreversible in effect (Unexecute is a no-op).
func New(name string, do, undo func(ctx context.Context) error) Command {
	return &funcCommand{name: name, do: do, undo: undo}
}

func (c *funcCommand) Name() string { return c.name }

func (c *funcCommand) Execute(ctx context.Context) error {
	if c.do == nil {
		return nil
	}
	return c.do(ctx)
}

func (c *funcCommand) Unexecute(ctx context.Context) error {
	if c.undo == nil {
		return nil
	}
	return c.undo(ctx)
}

type noOp struct{}

// NoOp fills empty remote slots.
var NoOp Command = noOp{}

func (noOp) Name() string                    { return "no-op" }
func (noOp) Execute(context.Context) error   { return nil }
func (noOp) Unexecute(context.Context) error { return nil }
