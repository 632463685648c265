// Package notifier fans out reload generations to SSE listeners.
package notifier

import "sync"

// Notifier broadcasts the latest reload generation to all subscribers.
// Each subscriber holds at most one pending generation; a newer broadcast
// replaces an unread older one, so slow listeners only ever see the latest
// data.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan uint64]struct{}
	gen       uint64
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan uint64]struct{}),
	}
}

// Subscribe returns a channel that receives reload generations.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier) Subscribe() chan uint64 {
	ch := make(chan uint64, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan uint64) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// Broadcast starts a new generation and delivers it to every listener
// without blocking.
func (n *Notifier) Broadcast() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.gen++
	for ch := range n.listeners {
		select {
		case <-ch:
		default:
		}
		ch <- n.gen
	}
	return n.gen
}

// Generation returns the last broadcast generation.
func (n *Notifier) Generation() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.gen
}

// Listeners returns the number of active subscribers.
func (n *Notifier) Listeners() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
