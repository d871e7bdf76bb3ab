// Package cache provides the in-memory stores the register keeps beside
// its database. Unlike a web-tier cache these are not best-effort: the
// catalog uses its store as the read path of record, so entries are never
// evicted or expired — they change only through explicit Set/Delete or a
// wholesale Replace from the database.
package cache

import "sync"

// Cache is the read/write surface handed to consumers.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Len() int
}

// Store is a mutex-guarded map cache. Constructed once at startup and
// passed by injection; there is no package-level instance.
type Store[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{items: make(map[string]T)}
}

func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

func (s *Store[T]) Set(key string, data T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = data
}

func (s *Store[T]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Snapshot returns a copy of the current contents. Callers may iterate it
// without holding any lock.
func (s *Store[T]) Snapshot() map[string]T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]T, len(s.items))
	for k, v := range s.items {
		out[k] = v
	}
	return out
}

// Replace swaps the entire contents, used when reloading from the
// database after a restore.
func (s *Store[T]) Replace(items map[string]T) {
	next := make(map[string]T, len(items))
	for k, v := range items {
		next[k] = v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = next
}
