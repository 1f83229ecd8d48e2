package sequence

// BoundedStack is a LIFO stack that forgets its oldest items once it holds
// more than limit entries. A limit of zero or less means unbounded.
// It is not safe for concurrent use.
type BoundedStack[T any] struct {
	items []T
	limit int
}

func NewBoundedStack[T any](limit int) *BoundedStack[T] {
	if limit < 0 {
		limit = 0
	}
	return &BoundedStack[T]{limit: limit}
}

// Push adds value on top and returns the items evicted from the bottom.
func (s *BoundedStack[T]) Push(value T) (evicted []T) {
	s.items = append(s.items, value)
	if s.limit > 0 && len(s.items) > s.limit {
		over := len(s.items) - s.limit
		evicted = make([]T, over)
		copy(evicted, s.items[:over])
		var zero T
		for i := 0; i < over; i++ {
			s.items[i] = zero
		}
		s.items = s.items[over:]
	}
	return evicted
}

func (s *BoundedStack[T]) Pop() (T, bool) {
	var zero T
	n := len(s.items)
	if n == 0 {
		return zero, false
	}
	item := s.items[n-1]
	s.items[n-1] = zero // avoid memory leak
	s.items = s.items[:n-1]
	return item, true
}

func (s *BoundedStack[T]) Peek() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

func (s *BoundedStack[T]) Len() int {
	return len(s.items)
}

func (s *BoundedStack[T]) IsEmpty() bool {
	return len(s.items) == 0
}

func (s *BoundedStack[T]) Limit() int {
	return s.limit
}

func (s *BoundedStack[T]) Clear() {
	clear(s.items)
	s.items = s.items[:0]
}

// Items returns a copy ordered bottom to top.
func (s *BoundedStack[T]) Items() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}
