package quest

import (
	"sync"
	"time"
)

// Registry keeps live sessions in memory by ID and forgets idle ones
type Registry[T any] struct {
	mu      sync.Mutex
	entries map[string]*registryEntry[T]
	now     func() time.Time
}

type registryEntry[T any] struct {
	value   T
	touched time.Time
}

// NewRegistry creates an empty registry
func NewRegistry[T any](now func() time.Time) *Registry[T] {
	if now == nil {
		now = time.Now
	}
	return &Registry[T]{entries: make(map[string]*registryEntry[T]), now: now}
}

// Put stores value under id
func (r *Registry[T]) Put(id string, value T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = &registryEntry[T]{value: value, touched: r.now()}
}

// Get returns the value under id and marks it as used
func (r *Registry[T]) Get(id string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		var zero T
		return zero, false
	}
	e.touched = r.now()
	return e.value, true
}

// Remove forgets id
func (r *Registry[T]) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Len returns the number of live sessions
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep removes and returns every session idle for longer than ttl
func (r *Registry[T]) Sweep(ttl time.Duration) []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-ttl)
	var expired []T
	for id, e := range r.entries {
		if e.touched.Before(cutoff) {
			expired = append(expired, e.value)
			delete(r.entries, id)
		}
	}
	return expired
}
