// Package cache holds resolved outcomes for the lifetime of the process.
package cache

import (
	"sort"
)

// Memory is an unbounded in-process map with no expiry.
// It is not synchronized: the owner serializes access, usually under a lock that also guards related state.
type Memory[V any] struct {
	entries map[string]V
}

// NewMemory creates an empty cache
func NewMemory[V any]() *Memory[V] {
	return &Memory[V]{entries: make(map[string]V)}
}

// Get retrieves a value by key
func (m *Memory[V]) Get(key string) (V, bool) {
	v, ok := m.entries[key]
	return v, ok
}

// Set stores a value, replacing any previous one
func (m *Memory[V]) Set(key string, value V) {
	m.entries[key] = value
}

// Delete removes a key and reports whether it was present
func (m *Memory[V]) Delete(key string) bool {
	_, ok := m.entries[key]
	delete(m.entries, key)
	return ok
}

// Clear removes all entries and returns how many were dropped
func (m *Memory[V]) Clear() int {
	n := len(m.entries)
	clear(m.entries)
	return n
}

// Len returns the number of entries
func (m *Memory[V]) Len() int {
	return len(m.entries)
}

// Keys returns all keys, sorted
func (m *Memory[V]) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Range calls fn for every entry until it returns false
func (m *Memory[V]) Range(fn func(key string, value V) bool) {
	for k, v := range m.entries {
		if !fn(k, v) {
			return
		}
	}
}
