// Package registry implements a case-insensitive store whose entries
// remember the snap that created them. Only that snap may update or delete
// an entry; every other snap sees it as absent.
package registry

import (
	"iter"

	"github.com/olehkaliuzhnyi/snap-keyring/internal/casemap"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/kerr"
)

// Entry is a stored value together with the snap that owns it.
type Entry[V any] struct {
	Value V      `json:"value"`
	Owner string `json:"owner"`
}

// Registry is an ownership-checked keyed store. It is not safe for
// concurrent use; the keyring serializes access.
type Registry[V any] struct {
	m *casemap.Map[Entry[V]]
}

// New returns an empty Registry.
func New[V any]() *Registry[V] {
	return &Registry[V]{m: casemap.New[Entry[V]]()}
}

// FromMap rebuilds a Registry from its exported form.
func FromMap[V any](src map[string]Entry[V]) *Registry[V] {
	return &Registry[V]{m: casemap.FromMap(src)}
}

// Get returns the value stored under key if it is owned by owner.
func (r *Registry[V]) Get(owner, key string) (V, bool) {
	e, ok := r.m.Get(key)
	if !ok || e.Owner != owner {
		var zero V
		return zero, false
	}
	return e.Value, true
}

// Has reports whether key is present and owned by owner.
func (r *Registry[V]) Has(owner, key string) bool {
	_, ok := r.Get(owner, key)
	return ok
}

// Set inserts a new entry or updates an entry with the same owner. An
// existing entry owned by a different snap is never overwritten.
func (r *Registry[V]) Set(key string, entry Entry[V]) error {
	if existing, ok := r.m.Get(key); ok && existing.Owner != entry.Owner {
		return kerr.OwnershipViolation(entry.Owner, key)
	}
	r.m.Set(key, entry)
	return nil
}

// Delete removes key if it is owned by owner.
func (r *Registry[V]) Delete(owner, key string) bool {
	return r.Has(owner, key) && r.m.Delete(key)
}

// Values iterates over all entries regardless of owner.
func (r *Registry[V]) Values() iter.Seq[Entry[V]] {
	return r.m.Values()
}

// Len returns the number of entries.
func (r *Registry[V]) Len() int {
	return r.m.Len()
}

// ToMap exports the entries keyed by folded key.
func (r *Registry[V]) ToMap() map[string]Entry[V] {
	return r.m.ToMap()
}
