// Package shared provides a strong-refcounted, GC-safe cell holding a single
// immutable value of arbitrary type T. It exists to give Available asset
// payloads the same "shared ownership, cheap clone" semantics the original
// engine gets from an atomically tagged pointer: readers observe a published
// value without copying it, and the value is freed only once every reader has
// released its reference.
//
// A tagged machine word (the high bit stolen from a heap pointer) cannot be
// expressed safely under a precise, moving-capable garbage collector: Go's GC
// must be able to tell a pointer from an integer at every safepoint, so the
// payload cell here is a *pointer* that is always either nil or a valid
// pointer to a Cell, swapped atomically. The refcount lives inside the Cell
// itself rather than in the pointer's bit pattern.
//
// © 2025 3l14 engine authors. MIT License.
package shared

import "sync/atomic"

// Cell is a strong-refcounted box around a value of type T. The zero Cell is
// not valid; construct with New.
type Cell[T any] struct {
	value T
	refs  atomic.Int32
}

// New wraps v in a fresh Cell with one outstanding reference.
func New[T any](v T) *Cell[T] {
	c := &Cell[T]{value: v}
	c.refs.Store(1)
	return c
}

// Acquire bumps the strong refcount and returns the same cell, for callers
// that are about to hand out another alias to it.
func (c *Cell[T]) Acquire() *Cell[T] {
	if c == nil {
		return nil
	}
	c.refs.Add(1)
	return c
}

// Release drops one strong reference. The caller must not touch the cell's
// Value after a release that it does not know to be non-final.
func (c *Cell[T]) Release() {
	if c == nil {
		return
	}
	if c.refs.Add(-1) == 0 {
		var zero T
		c.value = zero // drop references the value may hold, eagerly
	}
}

// Value returns the wrapped value. Valid only while the caller holds a
// reference obtained via New or Acquire that it has not yet Released.
func (c *Cell[T]) Value() T {
	return c.value
}
