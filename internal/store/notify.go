// Package store holds the client-side caches that mediate every read and
// write through the remote data service. Each store owns its slice of
// state, tracks the request lifecycle (loading, error), and notifies
// subscribers after every state change. Methods are synchronous and safe to
// call from any goroutine; overlapping calls interleave exactly as their
// remote completions do, with no coalescing and no retries.
package store

import "sync"

// notifier fans out change notifications to subscribers. Callbacks run on
// the mutating goroutine and must not block.
type notifier struct {
	mu   sync.Mutex
	subs map[int]func()
	next int
}

// subscribe registers fn and returns its cancel func.
func (n *notifier) subscribe(fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs == nil {
		n.subs = make(map[int]func())
	}
	id := n.next
	n.next++
	n.subs[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// notify invokes every subscriber. The snapshot is taken under the lock so
// a callback may cancel itself.
func (n *notifier) notify() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
