// Package cache holds the keyed collections the engines reconcile against.
package cache

import (
	"sync"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// Store is a keyed collection with deterministic, key-ordered iteration.
// It is safe for concurrent use, but the values it holds usually are not.
type Store[K constraints.Ordered, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

func New[K constraints.Ordered, V any]() *Store[K, V] {
	return &Store[K, V]{m: make(map[K]V)}
}

// Get returns the value stored under key.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

// Has reports whether key is present.
func (s *Store[K, V]) Has(key K) bool {
	_, ok := s.Get(key)
	return ok
}

// Set stores v under key, replacing any previous value.
func (s *Store[K, V]) Set(key K, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = v
}

// Delete removes key and returns what was stored there.
func (s *Store[K, V]) Delete(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	if ok {
		delete(s.m, key)
	}
	return v, ok
}

func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// Keys returns the keys in ascending order.
func (s *Store[K, V]) Keys() []K {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]K, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Values returns the values in key order.
func (s *Store[K, V]) Values() []V {
	keys := s.Keys()
	s.mu.RLock()
	defer s.mu.RUnlock()
	values := make([]V, 0, len(keys))
	for _, k := range keys {
		if v, ok := s.m[k]; ok {
			values = append(values, v)
		}
	}
	return values
}

// Range calls fn in key order until it returns false. fn may modify the
// store.
func (s *Store[K, V]) Range(fn func(key K, v V) bool) {
	for _, k := range s.Keys() {
		v, ok := s.Get(k)
		if !ok {
			continue
		}
		if !fn(k, v) {
			return
		}
	}
}

// Reset empties the store and returns what it held, in key order.
func (s *Store[K, V]) Reset() []V {
	values := s.Values()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = make(map[K]V)
	return values
}
