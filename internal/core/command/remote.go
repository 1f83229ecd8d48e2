package command

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Remote is a fixed bank of on/off slots in front of an Invoker. Slots start
// filled with NoOp.
type Remote struct {
	invoker *Invoker

	mu  sync.RWMutex
	on  []Command
	off []Command
}

func NewRemote(invoker *Invoker, slots int) *Remote {
	r := &Remote{
		invoker: invoker,
		on:      make([]Command, slots),
		off:     make([]Command, slots),
	}
	for i := 0; i < slots; i++ {
		r.on[i] = NoOp
		r.off[i] = NoOp
	}
	return r
}

func (r *Remote) SetCommand(slot int, on, off Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot < 0 || slot >= len(r.on) {
		return fmt.Errorf("slot %d: %w", slot, ErrNoSlot)
	}
	if on == nil {
		on = NoOp
	}
	if off == nil {
		off = NoOp
	}
	r.on[slot] = on
	r.off[slot] = off
	return nil
}

func (r *Remote) PressOn(ctx context.Context, slot int) error {
	cmd, err := r.slot(r.on, slot)
	if err != nil {
		return err
	}
	return r.invoker.Execute(ctx, cmd)
}

func (r *Remote) PressOff(ctx context.Context, slot int) error {
	cmd, err := r.slot(r.off, slot)
	if err != nil {
		return err
	}
	return r.invoker.Execute(ctx, cmd)
}

func (r *Remote) PressUndo(ctx context.Context) error {
	return r.invoker.Undo(ctx)
}

func (r *Remote) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var b strings.Builder
	b.WriteString("------ Remote Control ------\n")
	for i := range r.on {
		fmt.Fprintf(&b, "[slot %d] %-24s %s\n", i, r.on[i].Name(), r.off[i].Name())
	}
	return b.String()
}

func (r *Remote) slot(bank []Command, slot int) (Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if slot < 0 || slot >= len(bank) {
		return nil, fmt.Errorf("slot %d: %w", slot, ErrNoSlot)
	}
	return bank[slot], nil
}
