package state

import (
	"errors"
	"sync"
)

var (
	// ErrUnbound is returned by Update when no context has ever been bound.
	ErrUnbound = errors.New("state slot is not bound to a context")
	// ErrStaleContext is returned by Update when the caller's context no longer owns the slot.
	ErrStaleContext = errors.New("state slot is owned by another context")
)

// Slot is a single shared value scoped to one context key at a time.
// Binding a different key resets the value to its initial state, so state
// never leaks from one entity to the next. Subscribers are called
// synchronously after each change, outside the slot's lock, and see changes
// in the order they were applied. A subscriber must not update the slot it
// is subscribed to, and one that panics is not recovered.
type Slot[T any] struct {
	initial T

	// delivery is held from a change until its subscribers have run.
	delivery sync.Mutex

	mu     sync.Mutex
	owner  string
	bound  bool
	value  T
	subs   map[uint64]func(T)
	nextID uint64
}

func NewSlot[T any](initial T) *Slot[T] {
	return &Slot[T]{
		initial: initial,
		value:   initial,
		subs:    make(map[uint64]func(T)),
	}
}

// Subscribe registers fn for every update and reset. The returned function
// removes it; calling it more than once is harmless.
func (s *Slot[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Bind returns the current value for key. If another key owns the slot it is
// reset to the initial value, re-owned by key, and subscribers are notified
// before Bind returns.
func (s *Slot[T]) Bind(key string) T {
	s.delivery.Lock()
	defer s.delivery.Unlock()

	s.mu.Lock()
	if s.bound && s.owner == key {
		v := s.value
		s.mu.Unlock()
		return v
	}
	s.owner = key
	s.bound = true
	s.value = s.initial
	v := s.value
	subs := s.snapshot()
	s.mu.Unlock()

	notify(subs, v)
	return v
}

// Update applies fn to a copy of the value owned by key and publishes the result.
// It is a no-op returning ErrUnbound or ErrStaleContext when key does not own the slot.
func (s *Slot[T]) Update(key string, fn func(*T)) error {
	s.delivery.Lock()
	defer s.delivery.Unlock()

	s.mu.Lock()
	if !s.bound {
		s.mu.Unlock()
		return ErrUnbound
	}
	if s.owner != key {
		s.mu.Unlock()
		return ErrStaleContext
	}
	next := s.value
	fn(&next)
	s.value = next
	subs := s.snapshot()
	s.mu.Unlock()

	notify(subs, next)
	return nil
}

// Snapshot returns the owner key (empty if unbound) and the current value.
func (s *Slot[T]) Snapshot() (string, T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner, s.value
}

// Attach registers a subscriber that carries its own bound context.
// fn may be nil for writers that do not need notifications.
func (s *Slot[T]) Attach(fn func(T)) *Handle[T] {
	h := &Handle[T]{slot: s}
	if fn != nil {
		h.unsubscribe = s.Subscribe(fn)
	}
	return h
}

func (s *Slot[T]) snapshot() []func(T) {
	subs := make([]func(T), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify[T any](subs []func(T), v T) {
	for _, fn := range subs {
		fn(v)
	}
}

// Handle is one subscriber's view of a Slot. Update always targets the
// context the handle last bound.
type Handle[T any] struct {
	slot        *Slot[T]
	unsubscribe func()

	mu    sync.Mutex
	key   string
	bound bool
}

func (h *Handle[T]) Bind(key string) T {
	h.mu.Lock()
	h.key = key
	h.bound = true
	h.mu.Unlock()
	return h.slot.Bind(key)
}

func (h *Handle[T]) Key() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.key, h.bound
}

func (h *Handle[T]) Update(fn func(*T)) error {
	key, bound := h.Key()
	if !bound {
		return ErrUnbound
	}
	return h.slot.Update(key, fn)
}

// Close stops notifications to this handle.
func (h *Handle[T]) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
}
