package state

import (
	"sync"
	"time"
)

type registryEntry[T any] struct {
	slot     *Slot[T]
	lastSeen time.Time
	watchers int
}

// Registry keeps one Slot per visitor session.
type Registry[T any] struct {
	newSlot func() *Slot[T]
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry[T]
}

func NewRegistry[T any](newSlot func() *Slot[T]) *Registry[T] {
	return &Registry[T]{
		newSlot: newSlot,
		now:     time.Now,
		entries: make(map[string]*registryEntry[T]),
	}
}

// SetClock replaces time.Now. Used by tests.
func (r *Registry[T]) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

// Slot returns the session's slot, creating it on first use.
func (r *Registry[T]) Slot(session string) *Slot[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[session]
	if !ok {
		e = &registryEntry[T]{slot: r.newSlot()}
		r.entries[session] = e
	}
	e.lastSeen = r.now()
	return e.slot
}

// Watch returns the session's slot and pins the session until release is
// called. Pinned sessions are never swept, however long they stay idle.
func (r *Registry[T]) Watch(session string) (slot *Slot[T], release func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[session]
	if !ok {
		e = &registryEntry[T]{slot: r.newSlot()}
		r.entries[session] = e
	}
	e.lastSeen = r.now()
	e.watchers++

	var once sync.Once
	return e.slot, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			e.watchers--
			e.lastSeen = r.now()
		})
	}
}

// Lookup returns the session's slot without creating one.
func (r *Registry[T]) Lookup(session string) (*Slot[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[session]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.slot, true
}

func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep forgets unwatched sessions not touched for idle and returns how many were dropped.
func (r *Registry[T]) Sweep(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	removed := 0
	for id, e := range r.entries {
		if e.watchers == 0 && e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}
