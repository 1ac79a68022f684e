// Package events provides the dispatch primitives used by simulation entities.
//
// A Registry belongs to a single entity (one job, one host) and holds one-shot
// slots: dispatching a kind consumes every handler registered for it. A
// Broadcaster holds persistent subscriptions that observe every sender of a
// family, which is how monitors follow thousands of short-lived jobs without
// subscribing to each of them.
//
// Neither type is safe for concurrent use. The simulation engine drives all
// transitions from a single goroutine.
package events

import "errors"

// Handler is invoked with the entity that fired the event.
type Handler[S any] func(sender S) error

// Registry is a per-entity observer registry keyed by event kind.
// The zero value is ready to use.
type Registry[K comparable, S any] struct {
	slots map[K][]Handler[S]
}

// Subscribe registers h to be invoked on the next dispatch of kind.
func (r *Registry[K, S]) Subscribe(kind K, h Handler[S]) {
	if h == nil {
		return
	}
	if r.slots == nil {
		r.slots = make(map[K][]Handler[S])
	}
	r.slots[kind] = append(r.slots[kind], h)
}

// Dispatch invokes, in registration order, every handler registered for kind
// and clears the slot. The slot is emptied before any handler runs, so a
// handler that subscribes again lands in a fresh slot and is not called by
// this dispatch. Every handler runs even if an earlier one fails; the
// returned error joins all handler errors.
func (r *Registry[K, S]) Dispatch(kind K, sender S) error {
	handlers := r.slots[kind]
	if len(handlers) == 0 {
		return nil
	}
	delete(r.slots, kind)

	var errs []error
	for _, h := range handlers {
		if err := h(sender); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of handlers waiting on kind.
func (r *Registry[K, S]) Len(kind K) int {
	return len(r.slots[kind])
}
