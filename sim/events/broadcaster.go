package events

import "errors"

type subscription[S any] struct {
	id      uint64
	handler Handler[S]
}

// Broadcaster delivers every dispatch of a kind to all of its subscribers,
// whatever the sender. Subscriptions persist until cancelled.
// The zero value is ready to use.
type Broadcaster[K comparable, S any] struct {
	nextID uint64
	subs   map[K][]subscription[S]
}

// Subscribe registers h for kind and returns a func that removes it.
// Calling the returned func more than once is a no-op.
func (b *Broadcaster[K, S]) Subscribe(kind K, h Handler[S]) (cancel func()) {
	if h == nil {
		return func() {}
	}
	if b.subs == nil {
		b.subs = make(map[K][]subscription[S])
	}
	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscription[S]{id: id, handler: h})

	return func() {
		subs := b.subs[kind]
		for i, s := range subs {
			if s.id == id {
				b.subs[kind] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Dispatch invokes the subscribers of kind in subscription order. The list is
// captured before the first call, so subscribers added or removed by a
// handler take effect on the next dispatch.
func (b *Broadcaster[K, S]) Dispatch(kind K, sender S) error {
	subs := b.subs[kind]
	if len(subs) == 0 {
		return nil
	}
	captured := make([]subscription[S], len(subs))
	copy(captured, subs)

	var errs []error
	for _, s := range captured {
		if err := s.handler(sender); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of subscribers of kind.
func (b *Broadcaster[K, S]) Len(kind K) int {
	return len(b.subs[kind])
}
