// Package arena provides the bump allocator that backs a compiled definition
// and the small fixed-record containers the compiler keeps its bookkeeping in.
package arena

import (
	"errors"
	"fmt"
)

// ErrOutOfMemory is returned when an allocation would exceed an arena's maximum size.
var ErrOutOfMemory = errors.New("out of memory")

const minCapacity = 4096

// Linear is a bump allocator over a single byte slice with a fixed maximum
// size. Allocations are addressed by offset: the backing slice may be
// reallocated as it grows, so callers must never hold on to a slice taken
// from Bytes across an Allocate call.
type Linear struct {
	buf []byte
	max int
}

// NewLinear reserves an arena that may grow up to max bytes.
func NewLinear(max int) *Linear {
	return &Linear{max: max}
}

// Allocate bump-allocates size zeroed bytes aligned to align (a power of two,
// or 0/1 for none) and returns the offset of the first byte.
func (l *Linear) Allocate(size, align int) (int, error) {
	if size < 0 {
		return 0, fmt.Errorf("arena: negative allocation size %d", size)
	}
	off := len(l.buf)
	if align > 1 {
		off = (off + align - 1) &^ (align - 1)
	}
	end := off + size
	if end > l.max {
		return 0, fmt.Errorf("arena: %d bytes requested with %d of %d in use: %w", size, len(l.buf), l.max, ErrOutOfMemory)
	}
	if end > cap(l.buf) {
		newCap := cap(l.buf) * 2
		if newCap < minCapacity {
			newCap = minCapacity
		}
		for newCap < end {
			newCap *= 2
		}
		if newCap > l.max {
			newCap = l.max
		}
		grown := make([]byte, len(l.buf), newCap)
		copy(grown, l.buf)
		l.buf = grown
	}
	// The region past len may hold bytes from a previous Truncate.
	used := len(l.buf)
	l.buf = l.buf[:end]
	clear(l.buf[used:])
	return off, nil
}

// Bytes returns the allocated region. The slice is invalidated by the next Allocate.
func (l *Linear) Bytes() []byte { return l.buf }

// Offset returns the number of bytes allocated so far.
func (l *Linear) Offset() int { return len(l.buf) }

// Max returns the maximum size of the arena.
func (l *Linear) Max() int { return l.max }

// Truncate discards everything allocated past offset.
func (l *Linear) Truncate(offset int) {
	if offset < 0 || offset > len(l.buf) {
		return
	}
	l.buf = l.buf[:offset]
}

// Snapshot returns a copy of the allocated region.
func (l *Linear) Snapshot() []byte {
	return append([]byte(nil), l.buf...)
}

// Restore replaces the arena contents with a snapshot taken earlier.
func (l *Linear) Restore(snap []byte) {
	l.buf = l.buf[:0]
	l.buf = append(l.buf, snap...)
}

// Reset releases all allocations but keeps the reserved capacity.
func (l *Linear) Reset() { l.buf = l.buf[:0] }

// Destroy releases the backing memory.
func (l *Linear) Destroy() { l.buf = nil }
