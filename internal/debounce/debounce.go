// Package debounce batches a stream of arbitrary keys arriving over a short
// time window into a single downstream callback, so a filesystem watcher
// that reports several events per saved file (truncate, write, chmod) drives
// at most one reload per key per window.
//
// This is the same rotation shape as a generation ring -- a bounded set of
// time-bounded buckets that age out and flush -- adapted from a byte-capacity
// ring to a wall-clock, key-deduplicating one: where the original rotates on
// accumulated bytes and frees an arena, this rotates on a timer and flushes a
// deduplicated key set to a callback.
//
// © 2025 3l14 engine authors. MIT License.
package debounce

import (
	"sync"
	"time"
)

// Batcher coalesces repeated keys within Window into a single flush.
type Batcher[K comparable] struct {
	mu      sync.Mutex
	pending map[K]struct{}
	timer   *time.Timer
	window  time.Duration
	flush   func([]K)
}

// New constructs a Batcher that invokes flush with the deduplicated set of
// keys added since the previous flush, no sooner than window after the first
// key in a batch arrives.
func New[K comparable](window time.Duration, flush func([]K)) *Batcher[K] {
	return &Batcher[K]{
		pending: make(map[K]struct{}),
		window:  window,
		flush:   flush,
	}
}

// Add records k as dirty, arming the flush timer if this is the first
// pending key in the current batch.
func (b *Batcher[K]) Add(k K) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[k] = struct{}{}
	if b.timer == nil {
		b.timer = time.AfterFunc(b.window, b.fire)
	}
}

func (b *Batcher[K]) fire() {
	b.mu.Lock()
	keys := make([]K, 0, len(b.pending))
	for k := range b.pending {
		keys = append(keys, k)
	}
	b.pending = make(map[K]struct{})
	b.timer = nil
	b.mu.Unlock()
	if len(keys) > 0 {
		b.flush(keys)
	}
}

// Stop cancels any pending, not-yet-fired batch.
func (b *Batcher[K]) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.pending = make(map[K]struct{})
}
