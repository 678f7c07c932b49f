// Package signal provides small push-style observables used to wire
// availability changes and applied updates between components.
//
// Subscribers are invoked synchronously, in subscription order, on the
// goroutine that changed the value or sent the event. A subscriber must not
// call Set or Send on the same observable it is being notified by.
package signal

import "sync"

type subscriber[T any] struct {
	id int
	fn func(T)
}

// subscribers is the shared registration list for Value and Event.
type subscribers[T any] struct {
	mu     sync.Mutex
	nextID int
	list   []subscriber[T]
}

func (s *subscribers[T]) add(fn func(T)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.list = append(s.list, subscriber[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *subscribers[T]) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.list {
		if sub.id == id {
			s.list = append(s.list[:i:i], s.list[i+1:]...)
			return
		}
	}
}

func (s *subscribers[T]) snapshot() []subscriber[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]subscriber[T], len(s.list))
	copy(out, s.list)
	return out
}

func (s *subscribers[T]) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.list)
}

// Value holds the latest value of T and notifies subscribers on change.
// Setting a value equal to the current one is not a change.
type Value[T comparable] struct {
	mu      sync.Mutex
	deliver sync.Mutex
	current T
	subs    subscribers[T]
}

// NewValue creates a Value holding initial.
func NewValue[T comparable](initial T) *Value[T] {
	return &Value[T]{current: initial}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Set replaces the current value and notifies subscribers if it changed.
// It reports whether a change happened. Notifications from concurrent
// calls are delivered one change at a time, in the order the changes
// were made.
func (v *Value[T]) Set(next T) bool {
	v.deliver.Lock()
	defer v.deliver.Unlock()

	v.mu.Lock()
	if v.current == next {
		v.mu.Unlock()
		return false
	}
	v.current = next
	v.mu.Unlock()

	for _, sub := range v.subs.snapshot() {
		sub.fn(next)
	}
	return true
}

// Subscribe registers fn to be called with every subsequent change.
// The current value is not replayed. The returned function unsubscribes.
func (v *Value[T]) Subscribe(fn func(T)) func() {
	return v.subs.add(fn)
}

// Subscribers returns the number of registered subscribers.
func (v *Value[T]) Subscribers() int {
	return v.subs.count()
}

// Event is a stream of discrete occurrences of T with no retained state.
type Event[T any] struct {
	deliver sync.Mutex
	subs    subscribers[T]
}

// NewEvent creates an Event with no subscribers.
func NewEvent[T any]() *Event[T] {
	return &Event[T]{}
}

// Send delivers x to every subscriber.
func (e *Event[T]) Send(x T) {
	e.deliver.Lock()
	defer e.deliver.Unlock()
	for _, sub := range e.subs.snapshot() {
		sub.fn(x)
	}
}

// Subscribe registers fn for every subsequent Send. The returned function
// unsubscribes.
func (e *Event[T]) Subscribe(fn func(T)) func() {
	return e.subs.add(fn)
}

// Subscribers returns the number of registered subscribers.
func (e *Event[T]) Subscribers() int {
	return e.subs.count()
}

// Collect subscribes to e and returns a function reporting everything
// received so far. Mostly useful in tests and for diagnostics capture.
func Collect[T any](e *Event[T]) (received func() []T, cancel func()) {
	var mu sync.Mutex
	var items []T
	cancel = e.Subscribe(func(x T) {
		mu.Lock()
		items = append(items, x)
		mu.Unlock()
	})
	received = func() []T {
		mu.Lock()
		defer mu.Unlock()
		out := make([]T, len(items))
		copy(out, items)
		return out
	}
	return received, cancel
}
