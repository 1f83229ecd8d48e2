package factory

import (
	"math/rand"
	"sync"
)

// TieBreak picks among kinds that have been created equally often.
type TieBreak uint8

const (
	// TieBreakOrder picks the earliest registered kind.
	TieBreakOrder TieBreak = iota
	// TieBreakRandom picks uniformly using the balanced factory's seeded source.
	TieBreakRandom
)

// Balanced hands out products so that no kind is created again while another
// kind has been created fewer times. Kinds registered later start at zero and
// are therefore preferred until they catch up.
type Balanced[T any] struct {
	factory *Factory[T]
	policy  TieBreak

	mu     sync.Mutex
	counts map[string]int
	rng    *rand.Rand
}

type BalancedOption func(*balancedOptions)

type balancedOptions struct {
	policy TieBreak
	seed   int64
}

func WithTieBreak(p TieBreak) BalancedOption {
	return func(o *balancedOptions) { o.policy = p }
}

// WithSeed fixes the random source used by TieBreakRandom.
func WithSeed(seed int64) BalancedOption {
	return func(o *balancedOptions) { o.seed = seed }
}

func NewBalanced[T any](f *Factory[T], opts ...BalancedOption) *Balanced[T] {
	o := balancedOptions{policy: TieBreakOrder, seed: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return &Balanced[T]{
		factory: f,
		policy:  o.policy,
		counts:  make(map[string]int),
		rng:     rand.New(rand.NewSource(o.seed)),
	}
}

// Next creates a product of one of the least used kinds and returns its kind.
// The kind is reserved before the constructor runs, so concurrent callers
// never pick the same least used kind; a failed construction releases it.
func (b *Balanced[T]) Next() (string, T, error) {
	kind, err := b.reserve()
	if err != nil {
		var zero T
		return "", zero, err
	}
	product, err := b.factory.Create(kind)
	if err != nil {
		b.release(kind)
		var zero T
		return kind, zero, err
	}
	return kind, product, nil
}

// Counts returns how many products of each kind were handed out, counting
// ones whose constructor is still running.
func (b *Balanced[T]) Counts() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]int, len(b.counts))
	for k, v := range b.counts {
		out[k] = v
	}
	return out
}

// Reset forgets usage so every kind is eligible again.
func (b *Balanced[T]) Reset() {
	b.mu.Lock()
	clear(b.counts)
	b.mu.Unlock()
}

func (b *Balanced[T]) release(kind string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.counts[kind] <= 1 {
		delete(b.counts, kind)
		return
	}
	b.counts[kind]--
}

// reserve picks one of the least used kinds and counts it, in one critical section.
func (b *Balanced[T]) reserve() (string, error) {
	kinds := b.factory.Kinds()
	if len(kinds) == 0 {
		return "", ErrEmptyFactory
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	least := -1
	var eligible []string
	for _, k := range kinds {
		c := b.counts[k]
		switch {
		case least < 0 || c < least:
			least = c
			eligible = append(eligible[:0], k)
		case c == least:
			eligible = append(eligible, k)
		}
	}

	kind := eligible[0]
	if b.policy == TieBreakRandom && len(eligible) > 1 {
		kind = eligible[b.rng.Intn(len(eligible))]
	}
	b.counts[kind]++
	return kind, nil
}
