package memory

import (
	"sync"
)

// FlushFunc receives a snapshot of the store after every mutation. Used to
// hook the JSON-file persister in; a nil hook disables persistence.
type FlushFunc[T any] func(snapshot []T)

// Store is a mutex-guarded keyed store. Values go in and come out by value,
// so callers never observe torn or aliased state.
type Store[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	keys  []string
	flush FlushFunc[T]
}

func NewStore[T any](flush FlushFunc[T]) *Store[T] {
	return &Store[T]{
		items: make(map[string]T),
		flush: flush,
	}
}

func (s *Store[T]) Put(key string, value T) {
	s.mu.Lock()
	if _, ok := s.items[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.items[key] = value
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.flushed(snapshot)
}

// PutIfAbsent stores the value unless the key is taken. The check and the
// write happen under one lock, so concurrent registrations cannot race.
func (s *Store[T]) PutIfAbsent(key string, value T) bool {
	s.mu.Lock()
	if _, ok := s.items[key]; ok {
		s.mu.Unlock()
		return false
	}
	s.keys = append(s.keys, key)
	s.items[key] = value
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.flushed(snapshot)
	return true
}

func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

// All returns the values in insertion order.
func (s *Store[T]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store[T]) Delete(key string) {
	s.mu.Lock()
	if _, ok := s.items[key]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.items, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.flushed(snapshot)
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store[T]) snapshotLocked() []T {
	out := make([]T, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.items[k])
	}
	return out
}

func (s *Store[T]) flushed(snapshot []T) {
	if s.flush != nil {
		s.flush(snapshot)
	}
}
