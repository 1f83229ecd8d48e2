package command

import (
	"errors"
	"fmt"
)

var (
	ErrNothingToUndo  = errors.New("nothing to undo")
	ErrNothingToRedo  = errors.New("nothing to redo")
	ErrNilCommand     = errors.New("command is nil")
	ErrNoSlot         = errors.New("no such slot")
	ErrAlreadyApplied = errors.New("command is already applied")
)

// MacroError reports the sub-command that stopped a macro. Completed is the
// number of sub-commands whose effects were applied before the failure.
type MacroError struct {
	Macro     string
	Command   string
	Index     int
	Completed int
	Err       error
}

func (e *MacroError) Error() string {
	return fmt.Sprintf("macro %q: step %d (%s) failed after %d completed: %v",
		e.Macro, e.Index, e.Command, e.Completed, e.Err)
}

func (e *MacroError) Unwrap() error { return e.Err }
