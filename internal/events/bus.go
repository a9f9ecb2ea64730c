// Package events carries run and task lifecycle notifications from the engine
// to observers such as the CLI status printer.
package events

import "sync"

// Bus is a channel-based pub-sub bus. Publishing never blocks: a subscriber
// whose channel is full misses the event.
type Bus struct {
	mu      sync.RWMutex
	subs    map[string][]chan Event // topic -> subscriber channels
	allSubs []chan Event
	closed  bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string][]chan Event),
	}
}

// Subscribe returns a channel receiving every event published to the topic.
// bufSize defaults to 64 if <= 0.
func (b *Bus) Subscribe(topic string, bufSize int) <-chan Event {
	return b.add(bufSize, func(ch chan Event) {
		b.subs[topic] = append(b.subs[topic], ch)
	})
}

// SubscribeAll returns a channel receiving events from every topic.
func (b *Bus) SubscribeAll(bufSize int) <-chan Event {
	return b.add(bufSize, func(ch chan Event) {
		b.allSubs = append(b.allSubs, ch)
	})
}

func (b *Bus) add(bufSize int, register func(chan Event)) <-chan Event {
	if bufSize <= 0 {
		bufSize = 64
	}
	ch := make(chan Event, bufSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch
	}
	register(ch)
	return ch
}

// Publish delivers the event to all subscribers of its topic.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subs[event.Topic()] {
		select {
		case ch <- event:
		default:
		}
	}
	for _, ch := range b.allSubs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close closes every subscriber channel. Idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, channels := range b.subs {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range b.allSubs {
		close(ch)
	}
}
