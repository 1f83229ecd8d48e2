package command

import (
	"context"
	"fmt"
	"sync"

	"github.com/zeusync/composer/internal/core/observability/log"
	"github.com/zeusync/composer/pkg/sequence"
	"go.uber.org/multierr"
)

// EventKind tells a Listener what the invoker just did.
type EventKind uint8

const (
	Executed EventKind = iota
	Undone
	Redone
	Failed
	Evicted
)

func (k EventKind) String() string {
	switch k {
	case Executed:
		return "executed"
	case Undone:
		return "undone"
	case Redone:
		return "redone"
	case Failed:
		return "failed"
	case Evicted:
		return "evicted"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind    EventKind
	Command string
	Err     error
}

// Listener receives invoker events after the stacks have been updated.
type Listener interface {
	OnCommand(ctx context.Context, e Event)
}

type ListenerFunc func(ctx context.Context, e Event)

func (f ListenerFunc) OnCommand(ctx context.Context, e Event) { f(ctx, e) }

// Invoker executes commands and keeps undo/redo history. Stack mutations are
// serialized; command effects run outside the lock.
type Invoker struct {
	mu   sync.Mutex
	undo *sequence.BoundedStack[Command]
	redo *sequence.BoundedStack[Command]

	rollbackOnFailure bool
	listeners         []Listener
	logger            log.Log
}

type Option func(*Invoker)

// WithHistoryLimit bounds the undo stack. Zero keeps everything.
func WithHistoryLimit(n int) Option {
	return func(inv *Invoker) {
		inv.undo = sequence.NewBoundedStack[Command](n)
		inv.redo = sequence.NewBoundedStack[Command](n)
	}
}

// WithRollbackOnFailure makes the invoker immediately reverse whatever part
// of a Partial command took effect before it failed, instead of keeping it on
// the undo stack.
func WithRollbackOnFailure(enabled bool) Option {
	return func(inv *Invoker) { inv.rollbackOnFailure = enabled }
}

func WithListener(l Listener) Option {
	return func(inv *Invoker) {
		if l != nil {
			inv.listeners = append(inv.listeners, l)
		}
	}
}

func WithLogger(l log.Log) Option {
	return func(inv *Invoker) {
		if l != nil {
			inv.logger = l
		}
	}
}

func NewInvoker(opts ...Option) *Invoker {
	inv := &Invoker{
		undo:   sequence.NewBoundedStack[Command](0),
		redo:   sequence.NewBoundedStack[Command](0),
		logger: log.NewNop(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Execute runs cmd and records it for undo, clearing the redo stack.
// A failed command is not recorded, except a Partial command that left some
// effect applied; that one is recorded (or rolled back, see
// WithRollbackOnFailure) so the effect can still be reversed. A Partial
// command that is still applied from an earlier run is rejected with
// ErrAlreadyApplied.
func (inv *Invoker) Execute(ctx context.Context, cmd Command) error {
	if cmd == nil {
		return ErrNilCommand
	}
	if partial, ok := cmd.(Partial); ok && partial.Applied() {
		return fmt.Errorf("execute %q: %w", cmd.Name(), ErrAlreadyApplied)
	}

	err := cmd.Execute(ctx)
	if err == nil {
		inv.record(ctx, cmd)
		inv.logger.Debug("command executed", log.String("command", cmd.Name()))
		inv.notify(ctx, Event{Kind: Executed, Command: cmd.Name()})
		return nil
	}

	return inv.failed(ctx, cmd, err, "execute")
}

// Undo reverses the most recent command. On an empty stack it returns
// ErrNothingToUndo and changes nothing; callers may ignore that error.
func (inv *Invoker) Undo(ctx context.Context) error {
	inv.mu.Lock()
	cmd, ok := inv.undo.Pop()
	inv.mu.Unlock()
	if !ok {
		return ErrNothingToUndo
	}

	if err := cmd.Unexecute(ctx); err != nil {
		inv.mu.Lock()
		inv.undo.Push(cmd)
		inv.mu.Unlock()
		return fmt.Errorf("undo %q: %w", cmd.Name(), err)
	}

	inv.mu.Lock()
	inv.redo.Push(cmd)
	inv.mu.Unlock()

	inv.logger.Debug("command undone", log.String("command", cmd.Name()))
	inv.notify(ctx, Event{Kind: Undone, Command: cmd.Name()})
	return nil
}

// Redo re-executes the most recently undone command.
func (inv *Invoker) Redo(ctx context.Context) error {
	inv.mu.Lock()
	cmd, ok := inv.redo.Pop()
	inv.mu.Unlock()
	if !ok {
		return ErrNothingToRedo
	}

	if err := cmd.Execute(ctx); err != nil {
		if partial, ok := cmd.(Partial); !ok || !partial.Applied() {
			inv.mu.Lock()
			inv.redo.Push(cmd)
			inv.mu.Unlock()
		}
		return inv.failed(ctx, cmd, err, "redo")
	}

	inv.mu.Lock()
	evicted := inv.undo.Push(cmd)
	inv.mu.Unlock()
	inv.reportEvicted(ctx, evicted)

	inv.logger.Debug("command redone", log.String("command", cmd.Name()))
	inv.notify(ctx, Event{Kind: Redone, Command: cmd.Name()})
	return nil
}

func (inv *Invoker) CanUndo() bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return !inv.undo.IsEmpty()
}

func (inv *Invoker) CanRedo() bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return !inv.redo.IsEmpty()
}

// History returns the names on the undo stack, oldest first.
func (inv *Invoker) History() []string {
	inv.mu.Lock()
	items := inv.undo.Items()
	inv.mu.Unlock()
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.Name()
	}
	return out
}

// Clear forgets both stacks without touching any receiver.
func (inv *Invoker) Clear() {
	inv.mu.Lock()
	inv.undo.Clear()
	inv.redo.Clear()
	inv.mu.Unlock()
}

// failed handles a command whose Execute returned err. A Partial command that
// left effects behind is either rolled back or recorded for undo.
func (inv *Invoker) failed(ctx context.Context, cmd Command, err error, op string) error {
	inv.logger.Warn("command failed", log.String("command", cmd.Name()), log.String("op", op), log.Error(err))
	inv.notify(ctx, Event{Kind: Failed, Command: cmd.Name(), Err: err})

	partial, ok := cmd.(Partial)
	if !ok || !partial.Applied() {
		return fmt.Errorf("%s %q: %w", op, cmd.Name(), err)
	}

	if inv.rollbackOnFailure {
		rbErr := partial.Unexecute(ctx)
		if rbErr == nil {
			if op == "redo" {
				// back to the state it was undone into
				inv.mu.Lock()
				inv.redo.Push(cmd)
				inv.mu.Unlock()
			}
			return fmt.Errorf("%s %q: %w", op, cmd.Name(), err)
		}
		err = multierr.Append(err, fmt.Errorf("rollback: %w", rbErr))
		if !partial.Applied() {
			return fmt.Errorf("%s %q: %w", op, cmd.Name(), err)
		}
		// whatever the rollback left applied must stay reachable by Undo
	}

	if op == "redo" {
		inv.mu.Lock()
		evicted := inv.undo.Push(cmd)
		inv.mu.Unlock()
		inv.reportEvicted(ctx, evicted)
	} else {
		inv.record(ctx, cmd)
	}
	return fmt.Errorf("%s %q: %w", op, cmd.Name(), err)
}

func (inv *Invoker) record(ctx context.Context, cmd Command) {
	inv.mu.Lock()
	evicted := inv.undo.Push(cmd)
	inv.redo.Clear()
	inv.mu.Unlock()
	inv.reportEvicted(ctx, evicted)
}

func (inv *Invoker) reportEvicted(ctx context.Context, evicted []Command) {
	for _, c := range evicted {
		inv.notify(ctx, Event{Kind: Evicted, Command: c.Name()})
	}
}

func (inv *Invoker) notify(ctx context.Context, e Event) {
	for _, l := range inv.listeners {
		l.OnCommand(ctx, e)
	}
}
