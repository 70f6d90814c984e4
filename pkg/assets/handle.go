package assets

// handle.go implements the Handle Inner shared cell (§3, §4.2) and the
// type-parameterized Typed Handle (§4.3) that wraps it.
//
// HandleInner itself is intentionally *not* generic: the Handle Bank stores
// one map of Key -> *HandleInner regardless of how many concrete asset types
// are in play, and the Drop worker frees a HandleInner knowing only its key,
// not its type parameter. The type-specific payload cell lives behind the
// erasedCell interface; Registry supplies the deallocator that knows how to
// tear the concrete cell down (§4.5).
//
// © 2025 3l14 engine authors. MIT License.

import (
	"context"
	"sync/atomic"

	"github.com/cobalthex/3l14/internal/waker"
	"github.com/cobalthex/3l14/pkg/assetkey"
)

// erasedCell is the type-erased face of a cell[T], letting the worker pool
// and registry publish into / clear a cell without knowing T. Every method
// takes the owning HandleInner so it can drive the generation/waker tail of
// the publish protocol (§4.2 steps 4-6) from type-erased call sites.
// publishPendingAny advances the generation and wakes any waiter but leaves
// is_reloading as it is, since a reload publishes Pending right after
// raising that flag.
type erasedCell interface {
	publishPendingAny(inner *HandleInner)
	publishAvailableAny(inner *HandleInner, v any)
	publishUnavailableAny(inner *HandleInner, kind ErrorKind)
}

func (c *cell[T]) publishPendingAny(inner *HandleInner) {
	c.publishPending()
	inner.generation.Add(1)
	inner.waker.Wake()
}

func (c *cell[T]) publishAvailableAny(inner *HandleInner, v any) {
	c.publishAvailable(v.(T))
	inner.bumpGenerationAndWake()
}

func (c *cell[T]) publishUnavailableAny(inner *HandleInner, kind ErrorKind) {
	c.publishUnavailable(kind)
	inner.bumpGenerationAndWake()
}

// HandleInner is the shared, manually-lifetime-managed cell a Handle points
// to. Allocated, and removed from the bank on Drop, only while the owning
// bank's mutex is held (§4.4, §9); the registry's deallocator then runs on
// the Drop worker after that mutex has been released. Go's ownership model (much like Rust's) cannot on its own
// express "shared by N typed handles plus one worker, keyed by a type known
// only at runtime", so lifetime is managed explicitly via refCount + the
// bank mutex rather than solely relying on the garbage collector.
type HandleInner struct {
	key         assetkey.Key
	refCount    atomic.Int64
	generation  atomic.Uint64
	isReloading atomic.Bool
	waker       waker.Slot
	erased      erasedCell
	dropper     func(*HandleInner)
}

// Key returns the immutable key this cell was allocated for.
func (h *HandleInner) Key() assetkey.Key { return h.key }

// RefCount loads the current strong reference count.
func (h *HandleInner) RefCount() int64 { return h.refCount.Load() }

// Generation loads the current publish generation.
func (h *HandleInner) Generation() uint64 { return h.generation.Load() }

// IsReloading reports whether a reload is in flight for this cell.
func (h *HandleInner) IsReloading() bool { return h.isReloading.Load() }

// bumpGenerationAndWake implements the tail of the publish protocol (§4.2
// steps 4-6): clear is_reloading, increment generation, wake any parked
// waiter. Called by the cell publication helpers above (publishAvailableAny,
// publishUnavailableAny).
func (h *HandleInner) bumpGenerationAndWake() {
	h.isReloading.Store(false)
	h.generation.Add(1)
	h.waker.Wake()
}

// Handle is a typed, ref-counted smart pointer to a HandleInner -- the
// public, awaitable asset reference callers hold (§4.3).
type Handle[T any] struct {
	inner *HandleInner
	cell  *cell[T]
}

// newHandle wraps inner/c into a Handle without adjusting the refcount; used
// internally where the caller has already accounted for the new reference
// (e.g. the bank handing out refcount=1 on first allocation).
func newHandle[T any](inner *HandleInner, c *cell[T]) Handle[T] {
	return Handle[T]{inner: inner, cell: c}
}

// Key returns the key identifying this handle's asset.
func (h Handle[T]) Key() assetkey.Key { return h.inner.Key() }

// RefCount returns the live clone count of the underlying cell.
func (h Handle[T]) RefCount() int64 { return h.inner.RefCount() }

// Generation returns the cell's current publish generation.
func (h Handle[T]) Generation() uint64 { return h.inner.Generation() }

// IsValid reports whether this handle wraps an inner pointer at all; the
// zero Handle (e.g. from LoadDependency on an unregistered asset type) is
// not valid. Drop does not clear the pointer, so IsValid still reports true
// after Drop: Go does not let us poison a value in place the way the
// original consumes `self`, so callers must simply not use a handle again
// after Drop.
func (h Handle[T]) IsValid() bool { return h.inner != nil }

// Equal reports whether two handles alias the same cell, i.e. their
// underlying pointers match (§4.3: "two handles compare equal iff their
// pointers match").
func (h Handle[T]) Equal(o Handle[T]) bool { return h.inner == o.inner }

// Clone bumps the refcount (Acquire) and returns a new handle aliasing the
// same cell.
func (h Handle[T]) Clone() Handle[T] {
	h.inner.refCount.Add(1)
	return Handle[T]{inner: h.inner, cell: h.cell}
}

// Drop releases this handle's reference (Release semantics). On the 1->0
// transition it enqueues a Drop request for the underlying inner pointer.
// Callers must not use the handle after calling Drop.
func (h Handle[T]) Drop() {
	if h.inner.refCount.Add(-1) == 0 {
		h.inner.dropper(h.inner)
	}
}

// Payload returns the cell's current state without blocking.
func (h Handle[T]) Payload() Payload[T] { return h.cell.read() }

// Poll implements the future-like interface without blocking: Ready payloads
// return (payload, true); a Pending or mid-reload cell returns (zero, false).
// Poll does not park a waiter; Wait arms the waker slot between its polls.
func (h Handle[T]) Poll() (Payload[T], bool) {
	if h.inner.IsReloading() {
		return Payload[T]{}, false
	}
	p := h.cell.read()
	if p.State == Pending {
		return Payload[T]{}, false
	}
	return p, true
}

// Wait blocks until the payload resolves to a terminal state (Available or
// Unavailable) or ctx is cancelled. It always resolves on success -- per
// §7's propagation policy, a payload failure is never surfaced as an error
// from Wait; only context cancellation is.
func (h Handle[T]) Wait(ctx context.Context) (Payload[T], error) {
	for {
		if p, ready := h.Poll(); ready {
			return p, nil
		}
		woken := h.inner.waker.Park()
		// Re-check after arming the waker: a publish between the failed Poll
		// and Park would otherwise be missed.
		if p, ready := h.Poll(); ready {
			return p, nil
		}
		select {
		case <-woken:
		case <-ctx.Done():
			return Payload[T]{}, ctx.Err()
		}
	}
}

// IsLoadedRecursive reports whether the payload is Available and, if the
// asset type T implements RecursiveLoadChecker, that its declared
// dependencies are themselves loaded-recursive (§4.3).
func (h Handle[T]) IsLoadedRecursive() bool {
	p, ready := h.Poll()
	if !ready || p.State != Available {
		return false
	}
	defer p.Release()
	if checker, ok := any(p.Value()).(RecursiveLoadChecker); ok {
		return checker.IsLoadedRecursive()
	}
	return true
}

// RecursiveLoadChecker is implemented by asset values that hold child
// handles, so IsLoadedRecursive can walk the dependency graph (§9: cycles
// are not expected; implementations may assume acyclicity).
type RecursiveLoadChecker interface {
	IsLoadedRecursive() bool
}
