package scenario

import (
	"fmt"

	"github.com/zeusync/composer/pkg/sequence"
)

// Light is the command receiver used by scenarios.
type Light struct {
	Name  string
	On    bool
	Level int
}

func (l *Light) String() string {
	if !l.On {
		return fmt.Sprintf("%s light is off", l.Name)
	}
	return fmt.Sprintf("%s light is on at %d%%", l.Name, l.Level)
}

// state is a restorable snapshot of a Light.
type state struct {
	on    bool
	level int
}

func (l *Light) save() state { return state{on: l.On, level: l.Level} }

func (l *Light) restore(s state) {
	l.On = s.on
	l.Level = s.level
}

// history remembers the states a command replaced, so the same command
// object can be executed repeatedly (as remote buttons are) and still undo in
// LIFO order.
type history struct {
	states *sequence.BoundedStack[state]
}

func newHistory() *history {
	return &history{states: sequence.NewBoundedStack[state](0)}
}

func (h *history) save(l *Light) { h.states.Push(l.save()) }

func (h *history) restore(l *Light) {
	if s, ok := h.states.Pop(); ok {
		l.restore(s)
	}
}
