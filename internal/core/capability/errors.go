package capability

import "errors"

var (
	ErrUnknownRole   = errors.New("unknown role")
	ErrDuplicateRole = errors.New("role already registered")
	ErrInvalidRole   = errors.New("invalid role")
	ErrNilBehavior   = errors.New("behavior is nil")
)
