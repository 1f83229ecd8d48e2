package hub

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

var (
	ErrNilSubscriber = errors.New("subscriber is nil")
	ErrEmptyTopic    = errors.New("topic name is empty")
	ErrPanic         = errors.New("subscriber panicked")
)

// SubscriberHandlerError wraps the failure of a single subscriber. Publish
// keeps delivering after one and returns all of them together.
type SubscriberHandlerError struct {
	Topic        string
	SubscriberID string
	Err          error
}

func (e *SubscriberHandlerError) Error() string {
	return fmt.Sprintf("subscriber %s on %q: %v", e.SubscriberID, e.Topic, e.Err)
}

func (e *SubscriberHandlerError) Unwrap() error { return e.Err }

// Failures splits a Publish error into the per-subscriber failures it holds.
func Failures(err error) []*SubscriberHandlerError {
	var out []*SubscriberHandlerError
	for _, e := range multierr.Errors(err) {
		var she *SubscriberHandlerError
		if errors.As(e, &she) {
			out = append(out, she)
		}
	}
	return out
}
