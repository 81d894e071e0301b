// Package pool provides a bounded free-list for recycling instances.
package pool

// Pool is a bounded last-in-first-out free-list.
//
// A Pool has a single owner and is not safe for concurrent use. Items
// rejected by TryReturn remain the caller's responsibility.
type Pool[T any] struct {
	items   []T
	maxSize int
}

// New creates a pool holding at most maxSize items. A non-positive
// maxSize yields a pool that rejects every return.
func New[T any](maxSize int) *Pool[T] {
	if maxSize < 0 {
		maxSize = 0
	}
	return &Pool[T]{
		items:   make([]T, 0, maxSize),
		maxSize: maxSize,
	}
}

// TryPull removes and returns the most recently returned item.
func (p *Pool[T]) TryPull() (T, bool) {
	var zero T
	n := len(p.items)
	if n == 0 {
		return zero, false
	}

	item := p.items[n-1]
	p.items[n-1] = zero
	p.items = p.items[:n-1]
	return item, true
}

// TryReturn stores item if the pool has room. It never evicts.
func (p *Pool[T]) TryReturn(item T) bool {
	if len(p.items) >= p.maxSize {
		return false
	}
	p.items = append(p.items, item)
	return true
}

// Count returns the number of pooled items.
func (p *Pool[T]) Count() int {
	return len(p.items)
}

// Any reports whether at least one item is pooled.
func (p *Pool[T]) Any() bool {
	return len(p.items) > 0
}

// Cap returns the maximum number of items the pool accepts.
func (p *Pool[T]) Cap() int {
	return p.maxSize
}

// Drain empties the pool and returns its items in pull order.
func (p *Pool[T]) Drain() []T {
	out := make([]T, 0, len(p.items))
	for {
		item, ok := p.TryPull()
		if !ok {
			return out
		}
		out = append(out, item)
	}
}
