// Package events fans payload-less notifications out to every connected frontend.
package events

import (
	"sync"

	"editorshell/metrics"
)

// Broadcaster manages notification subscribers.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan string]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan string]struct{}),
	}
}

// Subscribe adds a subscriber and returns its channel of event names.
// The caller must call Unsubscribe when done.
func (b *Broadcaster) Subscribe() chan string {
	ch := make(chan string, 64)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan string) {
	b.mu.Lock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Emit publishes event to all subscribers. Non-blocking: slow consumers miss it.
func (b *Broadcaster) Emit(event string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
	metrics.RecordNotification(event)
}

func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
