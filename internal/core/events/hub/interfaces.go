package hub

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Notification is the immutable message delivered to subscribers.
//
// Fields:
// - ID: unique per publish call.
// - Topic: channel the notification was published on.
// - Payload: opaque value for subscribers.
// - Timestamp: creation time.
// - Metadata: small key/value annotations, may be nil.
type Notification struct {
	ID        string         `json:"id"`
	Topic     string         `json:"topic"`
	Payload   any            `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewNotification stamps payload with a fresh ID and the current time.
func NewNotification(topic string, payload any, metadata map[string]any) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}

// Subscriber receives notifications. Two subscribers with the same ID are
// considered the same subscriber.
type Subscriber interface {
	ID() string
	Notify(ctx context.Context, n Notification) error
}

// HandlerFunc is the callback behind SubscriberFunc.
type HandlerFunc func(ctx context.Context, n Notification) error

type funcSubscriber struct {
	id string
	fn HandlerFunc
}

func (s *funcSubscriber) ID() string { return s.id }

func (s *funcSubscriber) Notify(ctx context.Context, n Notification) error {
	return s.fn(ctx, n)
}

// SubscriberFunc wraps fn in a Subscriber with a random ID.
func SubscriberFunc(fn HandlerFunc) Subscriber {
	return &funcSubscriber{id: uuid.NewString(), fn: fn}
}

// NamedSubscriber wraps fn in a Subscriber with a caller-chosen ID.
func NamedSubscriber(id string, fn HandlerFunc) Subscriber {
	return &funcSubscriber{id: id, fn: fn}
}

// Observer is notified about deliveries. Observers should return quickly.
type Observer interface {
	OnPublish(n Notification, subscribers int)
	OnDelivered(n Notification, delivered int, failures int, duration time.Duration)
}

// Metrics is updated only while at least one observer is registered.
type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Failures          uint64
	Topics            uint64
	SubscribersActive uint64
}

// TopicInfo is a snapshot of one topic.
type TopicInfo struct {
	Name        string
	Subscribers int
}
