// Package eventbus implements the typed, synchronous in-process
// publish/subscribe bus. Publication invokes each subscribed handler
// on the caller's own goroutine, in subscription order — always the
// simulation thread in this system — so handlers can side-effect
// immediately (e.g. feed the publication pipeline). The bus holds its
// handler list behind a mutex solely for subscribe/unsubscribe; dispatch
// copies the list under the lock and calls out to handlers outside it.
package eventbus

import (
	"sync"

	"github.com/arclight-sim/elevator-traffic-sim/internal/domain"
)

// Handler receives a published domain event.
type Handler func(domain.Event)

// Subscription is returned by Subscribe; Unsubscribe removes the handler.
type Subscription struct {
	bus *Bus
	id  uint64
}

// Unsubscribe removes the handler from the bus. Safe to call more than
// once.
func (s *Subscription) Unsubscribe() {
	s.bus.remove(s.id)
}

type entry struct {
	id      uint64
	handler Handler
}

// Bus is a typed synchronous publish/subscribe dispatcher.
type Bus struct {
	mu       sync.Mutex
	handlers []entry
	nextID   uint64
}

// New constructs an empty event bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers handler and returns a disposable handle. Handlers
// run in subscription order.
func (b *Bus) Subscribe(handler Handler) *Subscription {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers = append(b.handlers, entry{id: id, handler: handler})
	b.mu.Unlock()
	return &Subscription{bus: b, id: id}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.handlers {
		if e.id == id {
			b.handlers = append(b.handlers[:i], b.handlers[i+1:]...)
			return
		}
	}
}

// Publish invokes every current subscriber synchronously, in subscription
// order. The handler list is copied under the lock and dispatch happens
// outside it, so a handler may itself subscribe or unsubscribe without
// deadlocking.
func (b *Bus) Publish(event domain.Event) {
	b.mu.Lock()
	snapshot := make([]entry, len(b.handlers))
	copy(snapshot, b.handlers)
	b.mu.Unlock()

	for _, e := range snapshot {
		e.handler(event)
	}
}
