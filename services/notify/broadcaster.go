// Package notify fans content notifications out to the connected clients.
package notify

import (
	"context"
	"sync"

	"github.com/trezcool/swimschool/core/content"
	"github.com/trezcool/swimschool/services/metrics"
)

// EventName is the event every client listens to for new contents.
const EventName = "new-notification-content"

const subscriberBuffer = 8

type (
	Event struct {
		Name    string          `json:"event"`
		Content content.Content `json:"content"`
	}

	Broadcaster struct {
		mu     sync.RWMutex
		nextID int
		subs   map[int]chan Event
		closed bool
	}
)

var _ content.Notifier = (*Broadcaster)(nil)

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Event)}
}

// Notify sends c to every subscriber. Slow subscribers miss the event instead of blocking the publisher.
func (b *Broadcaster) Notify(_ context.Context, c content.Content) {
	metrics.Notifications.Inc()
	evt := Event{Name: EventName, Content: c}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Subscribe returns the events channel and a function releasing it.
// The channel is closed on release or when the broadcaster closes.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.nextID++
	id := b.nextID
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
}

// Close ends every subscription so that streaming clients return.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
