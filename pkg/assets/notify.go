package assets

// notify.go implements the reload notification channel (§4.4, §6): a
// broadcast endpoint emitting Reload(key) events whenever a load is
// initiated against a pre-existing cell. Supplemented per SPEC_FULL.md to
// support more than one independent subscriber, following the original
// engine's per-subscriber cloned channel shape.
//
// © 2025 3l14 engine authors. MIT License.

import (
	"sync"

	"github.com/cobalthex/3l14/pkg/assetkey"
)

// Notification is a single reload event.
type Notification struct {
	Key assetkey.Key
}

type notifier struct {
	mu     sync.Mutex
	subs   map[int]chan Notification
	nextID int
	depth  int
}

func newNotifier(depth int) *notifier {
	return &notifier{subs: make(map[int]chan Notification), depth: depth}
}

// Subscribe registers a new listener and returns its channel plus an
// unsubscribe function. The channel is buffered; a subscriber that falls
// behind has events dropped rather than blocking the publisher.
func (n *notifier) subscribe() (<-chan Notification, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	ch := make(chan Notification, n.depth)
	n.subs[id] = ch
	return ch, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if c, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(c)
		}
	}
}

func (n *notifier) publish(note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- note:
		default:
			// subscriber backlogged; drop rather than block the caller that
			// triggered the reload.
		}
	}
}
