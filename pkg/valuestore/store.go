// SPDX-License-Identifier: GPL-3.0-or-later

package valuestore

import (
	"maps"
	"slices"
	"sync"
)

// Store is a string keyed store of float tuples.
// A check invocation has exclusive access to its own keys.
type Store interface {
	Get(key string) ([]float64, bool)
	Set(key string, entry []float64)
	Delete(key string)
}

// MemStore is an in-memory Store.
type MemStore struct {
	mu      sync.RWMutex
	entries map[string][]float64
}

func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string][]float64)}
}

func (s *MemStore) Get(key string) ([]float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(v), true
}

func (s *MemStore) Set(key string, entry []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = slices.Clone(entry)
}

func (s *MemStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
}

func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

func (s *MemStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.entries))
}

// Prefixed returns a Store that prepends prefix to every key of s.
func Prefixed(s Store, prefix string) Store {
	return &prefixedStore{s: s, prefix: prefix}
}

type prefixedStore struct {
	s      Store
	prefix string
}

func (p *prefixedStore) Get(key string) ([]float64, bool) { return p.s.Get(p.prefix + key) }
func (p *prefixedStore) Set(key string, entry []float64)  { p.s.Set(p.prefix+key, entry) }
func (p *prefixedStore) Delete(key string)                { p.s.Delete(p.prefix + key) }
