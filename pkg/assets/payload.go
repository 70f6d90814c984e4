package assets

// payload.go implements the Pending/Available/Unavailable trichotomy
// published into a cell (spec data model, Handle Inner / Payload states).
//
// The original engine packs this into a single tagged machine word: zero for
// Pending, the high bit set for an Available pointer, a small integer
// otherwise for Unavailable. That representation relies on the allocator
// guaranteeing the high bit of a live heap pointer is always clear, an
// assumption a precise garbage collector is not allowed to let user code
// exploit -- the GC must always be able to tell, from the word alone,
// whether it is looking at a pointer or an integer. We get the same
// "read is a single atomic load, publish is a single atomic swap" shape by
// swapping a *box[T] instead of a raw word: nil means Pending, and the box
// itself carries the Available/Unavailable discriminant. This preserves
// every ordering guarantee in §5 (AcqRel swap on publish, Acquire load on
// read) without ever lying to the collector about pointer-ness.
//
// © 2025 3l14 engine authors. MIT License.

import (
	"sync/atomic"

	"github.com/cobalthex/3l14/internal/shared"
)

// State discriminates a Payload's variant.
type State int8

const (
	Pending State = iota
	Available
	Unavailable
)

func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Available:
		return "Available"
	case Unavailable:
		return "Unavailable"
	default:
		return "Invalid"
	}
}

// Payload is a snapshot of a cell's state, returned by a handle's Poll or
// Wait. An Available payload holds a borrowed strong reference to the shared
// value; the caller should call Release when done observing it if it intends
// to let go of the reference deterministically, though letting it be
// garbage-collected is also safe (Release's only externally visible effect
// is eagerly freeing resources the value itself might hold).
type Payload[T any] struct {
	State State
	cell  *shared.Cell[T]
	Err   ErrorKind
}

// Value returns the Available value. Panics if State != Available --
// callers are expected to branch on State first, exactly as they must
// inspect a Rust enum's discriminant before projecting a variant.
func (p Payload[T]) Value() T {
	if p.State != Available {
		panic("assets: Value called on non-Available payload")
	}
	return p.cell.Value()
}

// Release drops this payload's reference to its shared value, if any. Safe
// to call on any payload, including Pending/Unavailable ones (no-op).
func (p Payload[T]) Release() {
	if p.cell != nil {
		p.cell.Release()
	}
}

// box is the heap object swapped atomically into a cell. Exactly one of
// (value present, err) is meaningful, selected by state.
type box[T any] struct {
	state State
	value *shared.Cell[T]
	err   ErrorKind
}

// cell is the type-erased-by-instantiation publication point embedded in a
// HandleInner via an unsafe-free generic wrapper (see handle.go). It is not
// exported; HandleInner stores an erasedCell interface over it so the bank,
// worker pool and registry can manipulate cells without knowing T.
type cell[T any] struct {
	word atomic.Pointer[box[T]]
}

// publish implements §4.2's publish protocol for a single payload word: swap
// in the new box, decrement the old Available box's shared refcount if it
// held one. Returns the old box's state, useful for callers logging
// transitions.
func (c *cell[T]) publish(b *box[T]) State {
	old := c.word.Swap(b)
	if old == nil {
		return Pending
	}
	if old.state == Available {
		old.value.Release()
	}
	return old.state
}

// publishAvailable publishes a successful value, taking ownership of v by
// wrapping it in a fresh shared cell with one reference.
func (c *cell[T]) publishAvailable(v T) {
	c.publish(&box[T]{state: Available, value: shared.New(v)})
}

// publishUnavailable publishes a terminal failure.
func (c *cell[T]) publishUnavailable(kind ErrorKind) {
	c.publish(&box[T]{state: Unavailable, err: kind})
}

// publishPending re-arms the cell, e.g. before a reload, or to release an
// Available value's hold early (used by the Drop deallocator, §4.6).
func (c *cell[T]) publishPending() {
	c.publish(nil)
}

// read implements §4.2's read protocol: a single atomic load, then a clone
// of the shared value's reference (never a decrement) for Available cells.
func (c *cell[T]) read() Payload[T] {
	b := c.word.Load()
	if b == nil {
		return Payload[T]{State: Pending}
	}
	switch b.state {
	case Available:
		return Payload[T]{State: Available, cell: b.value.Acquire()}
	default:
		return Payload[T]{State: Unavailable, Err: b.err}
	}
}
