package local

import (
	"sync"

	"github.com/codewaveai/go-session"
)

// broadcaster fans auth change events out to every registered handler.
// Emission is synchronous so subscribers observe events in order; handlers
// that need to do real work must hand it off themselves.
type broadcaster struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]session.AuthChangeHandler
}

func newBroadcaster() *broadcaster {
	return &broadcaster{
		handlers: map[int]session.AuthChangeHandler{},
	}
}

func (b *broadcaster) subscribe(handler session.AuthChangeHandler) session.Subscription {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[id] = handler
	b.mu.Unlock()

	return &broadcastSubscription{owner: b, id: id}
}

func (b *broadcaster) emit(event session.AuthChangeEvent, sess session.Session) {
	b.mu.Lock()
	snapshot := make([]session.AuthChangeHandler, 0, len(b.handlers))
	for _, handler := range b.handlers {
		snapshot = append(snapshot, handler)
	}
	b.mu.Unlock()

	for _, handler := range snapshot {
		handler(event, sess)
	}
}

func (b *broadcaster) remove(id int) {
	b.mu.Lock()
	delete(b.handlers, id)
	b.mu.Unlock()
}

func (b *broadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}

type broadcastSubscription struct {
	owner *broadcaster
	id    int
	once  sync.Once
}

func (s *broadcastSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.owner.remove(s.id)
	})
}
