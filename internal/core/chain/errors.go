package chain

import "errors"

var (
	ErrChainTooDeep = errors.New("chain too deep")
	ErrNilComponent = errors.New("component is nil")
	ErrNilLayer     = errors.New("layer is nil")
)
