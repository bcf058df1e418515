// Package casemap provides a map whose string keys are case-insensitive.
package casemap

import (
	"iter"
	"slices"

	"golang.org/x/text/cases"

	"github.com/olehkaliuzhnyi/snap-keyring/internal/kerr"
)

// Fold returns the canonical form of key used for storage.
func Fold(key string) string {
	return cases.Fold().String(key)
}

// Pair is a key/value pair used to build a Map.
type Pair[V any] struct {
	Key   string
	Value V
}

// Map stores values under case-folded keys, preserving insertion order.
// It is not safe for concurrent use.
type Map[V any] struct {
	values map[string]V
	order  []string
}

// New returns a Map populated with pairs. Later pairs overwrite earlier
// ones whose keys differ only in case.
func New[V any](pairs ...Pair[V]) *Map[V] {
	m := &Map[V]{values: make(map[string]V, len(pairs))}
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}
	return m
}

// FromMap returns a Map holding the entries of src.
func FromMap[V any](src map[string]V) *Map[V] {
	m := &Map[V]{values: make(map[string]V, len(src))}
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		m.Set(k, src[k])
	}
	return m
}

// Get returns the value stored under key.
func (m *Map[V]) Get(key string) (V, bool) {
	v, ok := m.values[Fold(key)]
	return v, ok
}

// MustGet returns the value stored under key or a NotFound error naming
// label and key.
func (m *Map[V]) MustGet(key, label string) (V, error) {
	v, ok := m.Get(key)
	if !ok {
		if label == "" {
			label = "Key"
		}
		return v, kerr.NotFound(label, key)
	}
	return v, nil
}

// Has reports whether key is present.
func (m *Map[V]) Has(key string) bool {
	_, ok := m.values[Fold(key)]
	return ok
}

// Set stores value under key, replacing any value stored under a case
// variant of key.
func (m *Map[V]) Set(key string, value V) {
	k := Fold(key)
	if _, ok := m.values[k]; !ok {
		m.order = append(m.order, k)
	}
	m.values[k] = value
}

// Delete removes key and reports whether it was present.
func (m *Map[V]) Delete(key string) bool {
	k := Fold(key)
	if _, ok := m.values[k]; !ok {
		return false
	}
	delete(m.values, k)
	if i := slices.Index(m.order, k); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
	return true
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	return len(m.values)
}

// All iterates over folded keys and values in insertion order.
func (m *Map[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, k := range m.order {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Values iterates over values in insertion order.
func (m *Map[V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, k := range m.order {
			if !yield(m.values[k]) {
				return
			}
		}
	}
}

// ToMap exports the entries as a plain map keyed by folded keys.
func (m *Map[V]) ToMap() map[string]V {
	out := make(map[string]V, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}
