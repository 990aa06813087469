package queue

import (
	"sync"
)

// Queue is a thread-safe FIFO of keyed items. Pushing a key that is already
// queued replaces the waiting item and keeps its place in line, so only the
// latest value per key is ever delivered.
type Queue[K comparable, T any] struct {
	mu    sync.Mutex
	order []K
	items map[K]T
	ready chan struct{}
}

// New creates a new empty queue.
func New[K comparable, T any]() *Queue[K, T] {
	return &Queue[K, T]{
		items: make(map[K]T),
		ready: make(chan struct{}, 1),
	}
}

// Push queues item under key and reports whether it replaced a waiting one.
func (q *Queue[K, T]) Push(key K, item T) bool {
	_, replaced := q.Put(key, item)
	return replaced
}

// Put is Push returning the replaced item.
func (q *Queue[K, T]) Put(key K, item T) (T, bool) {
	q.mu.Lock()
	old, replaced := q.items[key]
	q.items[key] = item
	if !replaced {
		q.order = append(q.order, key)
	}
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return old, replaced
}

// Pop removes and returns the oldest key and its latest item.
func (q *Queue[K, T]) Pop() (K, T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.order) == 0 {
		var k K
		var zero T
		return k, zero, false
	}
	key := q.order[0]
	q.order = q.order[1:]
	item := q.items[key]
	delete(q.items, key)
	return key, item, true
}

// Requeue puts item back at the tail unless a newer item for key was pushed
// in the meantime.
func (q *Queue[K, T]) Requeue(key K, item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.items[key]; ok {
		return false
	}
	q.items[key] = item
	q.order = append(q.order, key)
	return true
}

// Ready is signalled after a push. A receive does not guarantee an item,
// callers Pop until it reports false.
func (q *Queue[K, T]) Ready() <-chan struct{} {
	return q.ready
}

// Empty returns true if the queue has no items.
func (q *Queue[K, T]) Empty() bool {
	return q.Len() == 0
}

// Len returns the number of items in the queue.
func (q *Queue[K, T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// GetAndEmpty returns all items in queue order and clears the queue.
func (q *Queue[K, T]) GetAndEmpty() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := make([]T, 0, len(q.order))
	for _, k := range q.order {
		result = append(result, q.items[k])
	}
	q.order = nil
	clear(q.items)
	return result
}
