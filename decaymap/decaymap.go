// Package decaymap is a generic map whose entries decay after a deadline.
//
// Expiry is checked lazily on read. Call Cleanup from a background loop if
// memory hygiene matters; correctness does not depend on it.
package decaymap

import (
	"sync"
	"time"
)

// Zilch returns the zero value of any type.
func Zilch[T any]() T {
	var zero T
	return zero
}

type entry[V any] struct {
	Value  V
	Expiry time.Time
}

type Impl[K comparable, V any] struct {
	data map[K]entry[V]
	lock sync.RWMutex
}

func New[K comparable, V any]() *Impl[K, V] {
	return &Impl[K, V]{
		data: make(map[K]entry[V]),
	}
}

func (m *Impl[K, V]) expire(key K) bool {
	m.lock.Lock()
	defer m.lock.Unlock()

	ent, ok := m.data[key]
	if !ok {
		return false
	}

	// Re-check under the write lock, Set may have raced us.
	if time.Now().Before(ent.Expiry) {
		return false
	}

	delete(m.data, key)
	return true
}

// Get fetches a value by key. Entries past their deadline read as absent.
func (m *Impl[K, V]) Get(key K) (V, bool) {
	m.lock.RLock()
	ent, ok := m.data[key]
	m.lock.RUnlock()

	if !ok {
		return Zilch[V](), false
	}

	if time.Now().After(ent.Expiry) {
		m.expire(key)
		return Zilch[V](), false
	}

	return ent.Value, true
}

// Set stores a value that decays after ttl.
func (m *Impl[K, V]) Set(key K, value V, ttl time.Duration) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.data[key] = entry[V]{
		Value:  value,
		Expiry: time.Now().Add(ttl),
	}
}

// Delete removes a key, reporting if it was present.
func (m *Impl[K, V]) Delete(key K) bool {
	m.lock.Lock()
	defer m.lock.Unlock()

	_, ok := m.data[key]
	if ok {
		delete(m.data, key)
	}
	return ok
}

// Len reports the number of live and not-yet-collected decayed entries.
func (m *Impl[K, V]) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.data)
}

// Cleanup drops every entry past its deadline.
func (m *Impl[K, V]) Cleanup() {
	now := time.Now()

	m.lock.Lock()
	defer m.lock.Unlock()

	for key, ent := range m.data {
		if now.After(ent.Expiry) {
			delete(m.data, key)
		}
	}
}
