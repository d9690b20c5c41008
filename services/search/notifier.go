package search

import (
	"sync"
	"sync/atomic"
)

type listener struct {
	fn     func()
	active atomic.Bool
}

// Notifier fans a zero-argument change signal out to its listeners.
// Listeners may unsubscribe, or subscribe others, while a signal is being
// delivered. An unsubscribed listener is not called again, even by a delivery
// that is already in progress.
type Notifier struct {
	mu        sync.Mutex
	listeners []*listener
}

// Subscribe registers fn and returns a function that removes it. The returned
// function may be called more than once.
func (n *Notifier) Subscribe(fn func()) (unsubscribe func()) {
	l := &listener{fn: fn}
	l.active.Store(true)

	n.mu.Lock()
	n.listeners = append(n.listeners, l)
	n.mu.Unlock()

	return func() {
		if !l.active.CompareAndSwap(true, false) {
			return
		}
		n.mu.Lock()
		defer n.mu.Unlock()
		for i, existing := range n.listeners {
			if existing == l {
				n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
				break
			}
		}
	}
}

// Notify calls every active listener once, in subscription order.
func (n *Notifier) Notify() {
	n.mu.Lock()
	snapshot := make([]*listener, len(n.listeners))
	copy(snapshot, n.listeners)
	n.mu.Unlock()

	for _, l := range snapshot {
		if l.active.Load() {
			l.fn()
		}
	}
}

// Clear drops every listener.
func (n *Notifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, l := range n.listeners {
		l.active.Store(false)
	}
	n.listeners = nil
}

func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners)
}
