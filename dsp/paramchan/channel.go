// Package paramchan hands parameter snapshots from a control goroutine to
// an audio goroutine without locks.
package paramchan

import (
	"errors"
	"fmt"
	"math/bits"
	"sync/atomic"
)

// ErrInvalidCapacity is returned for a capacity below 1.
var ErrInvalidCapacity = errors.New("paramchan: capacity must be >= 1")

// Channel is a fixed-capacity single-producer single-consumer ring of
// values. TrySend, Flush and Pending may only be called from one goroutine
// and Drain from one other goroutine. None of them blocks or allocates.
//
// A value that does not fit is held back on the producer side until Flush
// or a newer TrySend replaces it, so the newest value always reaches the
// consumer once the producer flushes.
type Channel[T any] struct {
	buf  []T
	mask uint64

	// Producer-owned.
	pending    T
	hasPending bool

	// head counts values written, tail counts values consumed.
	head atomic.Uint64
	tail atomic.Uint64
}

// New returns a channel holding at least capacity values, rounded up to a
// power of two.
func New[T any](capacity int) (*Channel[T], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	n := uint64(1) << bits.Len64(uint64(capacity-1))

	return &Channel[T]{
		buf:  make([]T, n),
		mask: n - 1,
	}, nil
}

// Cap returns the number of values the ring holds.
func (c *Channel[T]) Cap() int { return len(c.buf) }

// Len returns the number of pending values. It is exact only when called
// from the producer or the consumer while the other side is idle.
func (c *Channel[T]) Len() int {
	return int(c.head.Load() - c.tail.Load())
}

// TrySend enqueues v and discards any held-back value, which v supersedes.
// When the ring is full it holds v back instead and returns false; a later
// Flush delivers it.
func (c *Channel[T]) TrySend(v T) bool {
	head := c.head.Load()
	if head-c.tail.Load() == uint64(len(c.buf)) {
		c.pending, c.hasPending = v, true
		return false
	}

	c.buf[head&c.mask] = v
	c.head.Store(head + 1)

	var zero T
	c.pending, c.hasPending = zero, false

	return true
}

// Flush enqueues the held-back value, if any. It returns false while the
// ring is still full.
func (c *Channel[T]) Flush() bool {
	if !c.hasPending {
		return true
	}

	return c.TrySend(c.pending)
}

// Pending reports whether a value is held back.
func (c *Channel[T]) Pending() bool { return c.hasPending }

// Drain consumes every pending value and returns the most recent one. ok is
// false when nothing was pending.
func (c *Channel[T]) Drain() (v T, ok bool) {
	tail := c.tail.Load()
	head := c.head.Load()

	if head == tail {
		return v, false
	}

	v = c.buf[(head-1)&c.mask]
	c.tail.Store(head)

	return v, true
}
