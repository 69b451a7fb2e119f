// SPDX-License-Identifier: GPL-3.0-or-later

package valuestore

import (
	"encoding/json"
	"maps"
	"slices"
	"sync"
)

// ScopeKey builds the scope name of one service of a host.
// Plugin names never contain ':' so the result is unique per (plugin, item).
func ScopeKey(plugin, item string) string {
	return plugin + ":" + item
}

// HostStore holds the value store entries of all services of one host.
type HostStore struct {
	mu      sync.Mutex
	scopes  map[string]map[string][]float64
	updated chan struct{}
}

func NewHostStore() *HostStore {
	return &HostStore{
		scopes:  make(map[string]map[string][]float64),
		updated: make(chan struct{}, 1),
	}
}

// DecodeHostStore restores a HostStore from the output of Bytes.
func DecodeHostStore(bs []byte) (*HostStore, error) {
	hs := NewHostStore()
	if len(bs) == 0 {
		return hs, nil
	}
	if err := json.Unmarshal(bs, &hs.scopes); err != nil {
		return nil, err
	}
	if hs.scopes == nil {
		hs.scopes = make(map[string]map[string][]float64)
	}
	return hs, nil
}

// Scope returns the Store of one service.
func (h *HostStore) Scope(name string) Store {
	return &scopedStore{host: h, scope: name}
}

func (h *HostStore) Scopes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return slices.Sorted(maps.Keys(h.scopes))
}

// ScopeEntries returns a copy of the entries of one scope.
func (h *HostStore) ScopeEntries(scope string) map[string][]float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	return cloneEntries(h.scopes[scope])
}

// SetScopeEntries replaces the entries of one scope.
func (h *HostStore) SetScopeEntries(scope string, entries map[string][]float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(entries) == 0 {
		delete(h.scopes, scope)
	} else {
		h.scopes[scope] = cloneEntries(entries)
	}
	h.notify()
}

// Retain drops all scopes not present in keep. Used after rediscovery removed services.
func (h *HostStore) Retain(keep map[string]bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for scope := range h.scopes {
		if !keep[scope] {
			delete(h.scopes, scope)
		}
	}
	h.notify()
}

func (h *HostStore) Bytes() ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return json.MarshalIndent(h.scopes, "", " ")
}

func (h *HostStore) Updated() <-chan struct{} {
	return h.updated
}

func (h *HostStore) get(scope, key string) ([]float64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	v, ok := h.scopes[scope][key]
	if !ok {
		return nil, false
	}
	return slices.Clone(v), true
}

func (h *HostStore) set(scope, key string, entry []float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries, ok := h.scopes[scope]
	if !ok {
		entries = make(map[string][]float64)
		h.scopes[scope] = entries
	}
	entries[key] = slices.Clone(entry)
	h.notify()
}

func (h *HostStore) delete(scope, key string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries, ok := h.scopes[scope]
	if !ok {
		return
	}
	delete(entries, key)
	if len(entries) == 0 {
		delete(h.scopes, scope)
	}
	h.notify()
}

func (h *HostStore) notify() {
	select {
	case h.updated <- struct{}{}:
	default:
	}
}

type scopedStore struct {
	host  *HostStore
	scope string
}

func (s *scopedStore) Get(key string) ([]float64, bool) { return s.host.get(s.scope, key) }
func (s *scopedStore) Set(key string, entry []float64)  { s.host.set(s.scope, key, entry) }
func (s *scopedStore) Delete(key string)                { s.host.delete(s.scope, key) }

func cloneEntries(m map[string][]float64) map[string][]float64 {
	out := make(map[string][]float64, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}
