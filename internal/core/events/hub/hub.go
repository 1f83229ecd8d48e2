package hub

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/multierr"

	"github.com/zeusync/composer/internal/core/observability/log"
	"github.com/zeusync/composer/pkg/concurrent"
)

const DefaultShards = 16

// topic keeps subscribers in registration order.
type topic struct {
	subs []Subscriber
}

func (t *topic) index(id string) int {
	for i, s := range t.subs {
		if s.ID() == id {
			return i
		}
	}
	return -1
}

// shard owns the topics whose name hashes onto it.
type shard struct {
	mu     sync.RWMutex
	topics map[string]*topic
}

// Hub is a synchronous, in-process notification hub.
//
// Key characteristics:
// - Ordered fan-out: subscribers are notified in the order they subscribed.
// - Idempotent subscribe: a subscriber ID appears at most once per topic.
// - Snapshot delivery: the subscriber list is copied under the shard lock and
// handlers run after it is released, so a handler may (un)subscribe freely
// and changes only apply to later publishes.
// - Failure isolation: a failing or panicking subscriber does not stop
// delivery; all failures come back as one error after delivery.
// - Optional observability: metrics are produced only when observers are registered.
// - The hub does not own subscribers; they stay registered until unsubscribed.
type Hub struct {
	shards []*shard

	obsMu     sync.RWMutex
	observers map[Observer]struct{}
	metrics   Metrics

	broadcastLimit int
	logger         log.Log
}

type Option func(*Hub)

// WithShards sets how many lock shards topics are spread across.
func WithShards(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.shards = newShards(n)
		}
	}
}

// WithBroadcastLimit caps the number of topics delivered concurrently by Broadcast.
func WithBroadcastLimit(n int) Option {
	return func(h *Hub) { h.broadcastLimit = n }
}

func WithLogger(l log.Log) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(h *Hub) {
		if o != nil {
			h.observers[o] = struct{}{}
		}
	}
}

func New(opts ...Option) *Hub {
	h := &Hub{
		shards:    newShards(DefaultShards),
		observers: make(map[Observer]struct{}),
		logger:    log.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func newShards(n int) []*shard {
	out := make([]*shard, n)
	for i := range out {
		out[i] = &shard{topics: make(map[string]*topic)}
	}
	return out
}

func (h *Hub) shardFor(name string) *shard {
	return h.shards[xxhash.Sum64String(name)%uint64(len(h.shards))]
}

// Subscribe appends sub to the topic unless a subscriber with the same ID is
// already there. It reports whether sub was added.
func (h *Hub) Subscribe(name string, sub Subscriber) (bool, error) {
	if name == "" {
		return false, ErrEmptyTopic
	}
	if sub == nil {
		return false, ErrNilSubscriber
	}

	s := h.shardFor(name)
	s.mu.Lock()
	t, ok := s.topics[name]
	if !ok {
		t = &topic{}
		s.topics[name] = t
	}
	if t.index(sub.ID()) >= 0 {
		s.mu.Unlock()
		return false, nil
	}
	t.subs = append(t.subs, sub)
	s.mu.Unlock()

	h.logger.Debug("subscribed", log.String("topic", name), log.String("subscriber", sub.ID()))
	return true, nil
}

// Unsubscribe removes sub from the topic. Absent subscribers are ignored.
func (h *Hub) Unsubscribe(name string, sub Subscriber) bool {
	if sub == nil {
		return false
	}

	s := h.shardFor(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.topics[name]
	if !ok {
		return false
	}
	i := t.index(sub.ID())
	if i < 0 {
		return false
	}
	subs := make([]Subscriber, 0, len(t.subs)-1)
	subs = append(subs, t.subs[:i]...)
	subs = append(subs, t.subs[i+1:]...)
	t.subs = subs
	if len(t.subs) == 0 {
		delete(s.topics, name)
	}
	return true
}

// Subscribers lists subscriber IDs of a topic in notification order.
func (h *Hub) Subscribers(name string) []string {
	s := h.shardFor(name)
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.topics[name]
	if !ok {
		return nil
	}
	out := make([]string, len(t.subs))
	for i, sub := range t.subs {
		out[i] = sub.ID()
	}
	return out
}

// Publish notifies every current subscriber of the topic, in order. The
// returned error is nil or a multierr of *SubscriberHandlerError values.
func (h *Hub) Publish(ctx context.Context, name string, payload any) error {
	return h.PublishNotification(ctx, NewNotification(name, payload, nil))
}

func (h *Hub) PublishNotification(ctx context.Context, n Notification) error {
	start := time.Now()
	subs := h.snapshot(n.Topic)
	observers := h.observerSnapshot()

	for _, o := range observers {
		o.OnPublish(n, len(subs))
	}

	var all error
	failures := 0
	for _, sub := range subs {
		if err := notify(ctx, sub, n); err != nil {
			failures++
			h.logger.Warn("subscriber failed",
				log.String("topic", n.Topic),
				log.String("subscriber", sub.ID()),
				log.Error(err),
			)
			all = multierr.Append(all, &SubscriberHandlerError{Topic: n.Topic, SubscriberID: sub.ID(), Err: err})
		}
	}

	if len(observers) > 0 {
		dur := time.Since(start)
		for _, o := range observers {
			o.OnDelivered(n, len(subs)-failures, failures, dur)
		}
		h.updateMetrics(len(subs), failures)
	}
	return all
}

// Broadcast publishes payload to several topics concurrently. Delivery order
// within each topic is unchanged; failures from all topics are combined.
func (h *Hub) Broadcast(ctx context.Context, payload any, topics ...string) error {
	var (
		mu  sync.Mutex
		all error
	)
	concurrent.ForEachMute(ctx, topics, h.broadcastLimit, func(ctx context.Context, name string) error {
		return h.Publish(ctx, name, payload)
	}, func(_ string, err error) {
		mu.Lock()
		all = multierr.Append(all, err)
		mu.Unlock()
	})
	return all
}

// Topics returns a snapshot of topics with at least one subscriber, sorted by name.
func (h *Hub) Topics() []TopicInfo {
	var out []TopicInfo
	for _, s := range h.shards {
		s.mu.RLock()
		for name, t := range s.topics {
			out = append(out, TopicInfo{Name: name, Subscribers: len(t.subs)})
		}
		s.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (h *Hub) AddObserver(o Observer) {
	h.obsMu.Lock()
	h.observers[o] = struct{}{}
	h.obsMu.Unlock()
}

func (h *Hub) RemoveObserver(o Observer) {
	h.obsMu.Lock()
	delete(h.observers, o)
	h.obsMu.Unlock()
}

// Metrics returns a snapshot of the counters.
func (h *Hub) Metrics() Metrics {
	h.obsMu.RLock()
	defer h.obsMu.RUnlock()
	return h.metrics
}

func (h *Hub) snapshot(name string) []Subscriber {
	s := h.shardFor(name)
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.topics[name]
	if !ok {
		return nil
	}
	out := make([]Subscriber, len(t.subs))
	copy(out, t.subs)
	return out
}

func (h *Hub) observerSnapshot() []Observer {
	h.obsMu.RLock()
	defer h.obsMu.RUnlock()
	if len(h.observers) == 0 {
		return nil
	}
	out := make([]Observer, 0, len(h.observers))
	for o := range h.observers {
		out = append(out, o)
	}
	return out
}

func (h *Hub) updateMetrics(total, failures int) {
	var topics, subs uint64
	for _, s := range h.shards {
		s.mu.RLock()
		topics += uint64(len(s.topics))
		for _, t := range s.topics {
			subs += uint64(len(t.subs))
		}
		s.mu.RUnlock()
	}

	h.obsMu.Lock()
	h.metrics.Published++
	h.metrics.DeliveredHandlers += uint64(total - failures)
	if failures > 0 {
		h.metrics.Failures += uint64(failures)
	}
	h.metrics.Topics = topics
	h.metrics.SubscribersActive = subs
	h.obsMu.Unlock()
}

func notify(ctx context.Context, sub Subscriber, n Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return sub.Notify(ctx, n)
}
