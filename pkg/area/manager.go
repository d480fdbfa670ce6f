// Package area implements the relocatable output buffer a definition is
// compiled into.
//
// The buffer is split into an ordered list of contiguous areas. Any area may
// grow at any time: the areas after it are moved forward and every relative
// pointer recorded with AddRelPointer is patched so that it still reaches its
// target. This lets the compiler emit records in declaration order while
// still appending to structures it started earlier.
package area

import (
	"encoding/binary"
	"fmt"

	"ddlc/pkg/arena"
)

var le = binary.LittleEndian

// Manager owns the backing arena, the area list and the relocation table.
type Manager struct {
	mem    *arena.Linear
	areas  *arena.Pool[Area]
	relocs *arena.Vector[uint32]
	first  *Area
	last   *Area
}

// NewManager creates a manager writing into mem. Bookkeeping is charged to
// scratch, which may be nil.
func NewManager(mem, scratch *arena.Linear) *Manager {
	return &Manager{
		mem:    mem,
		areas:  arena.NewPool[Area](scratch, 32),
		relocs: arena.NewVector[uint32](scratch, 1024),
	}
}

// NewArea appends an empty area at the end of the buffer.
func (m *Manager) NewArea() (*Area, error) {
	a, err := m.areas.Get()
	if err != nil {
		return nil, err
	}
	a.mgr = m
	a.offset = uint32(m.mem.Offset())
	m.link(a)
	return a, nil
}

// NewAreaAfter inserts an empty area directly after prev.
func (m *Manager) NewAreaAfter(prev *Area) (*Area, error) {
	a, err := m.areas.Get()
	if err != nil {
		return nil, err
	}
	a.mgr = m
	a.offset = prev.offset + prev.size
	a.next = prev.next
	prev.next = a
	if m.last == prev {
		m.last = a
	}
	return a, nil
}

// Wrap appends an area covering bytes already present in the buffer.
func (m *Manager) Wrap(offset, size uint32) (*Area, error) {
	if uint64(offset)+uint64(size) > uint64(m.mem.Offset()) {
		return nil, fmt.Errorf("area: wrap [%d, %d) past end of buffer (%d)", offset, offset+size, m.mem.Offset())
	}
	a, err := m.areas.Get()
	if err != nil {
		return nil, err
	}
	a.mgr = m
	a.offset = offset
	a.size = size
	m.link(a)
	return a, nil
}

func (m *Manager) link(a *Area) {
	if m.last == nil {
		m.first = a
	} else {
		m.last.next = a
	}
	m.last = a
}

// Merge folds the area following first into first.
func (m *Manager) Merge(first *Area) {
	second := first.next
	if second == nil {
		return
	}
	first.size += second.size
	first.next = second.next
	if m.last == second {
		m.last = first
	}
	m.areas.Put(second)
}

// Grow inserts size bytes at the end of a, shifting every later area and
// patching the relative pointers that straddle the insertion point. The new
// bytes are not cleared.
func (m *Manager) Grow(a *Area, size uint32) error {
	if size == 0 {
		return nil
	}
	old := uint32(m.mem.Offset())
	if _, err := m.mem.Allocate(int(size), 1); err != nil {
		return err
	}
	next := a.next
	if next == nil {
		return nil
	}
	for n := next; n != nil; n = n.next {
		n.offset += size
	}

	limit := next.offset - size
	buf := m.mem.Bytes()
	for i := range m.relocs.Len() {
		slot := m.relocs.Ptr(i)
		at := *slot
		if rel := int32(le.Uint32(buf[at:])); rel != 0 {
			target := uint32(int64(at) + int64(rel))
			switch {
			case at < limit && target >= limit:
				rel += int32(size)
			case at >= limit && target < limit:
				rel -= int32(size)
			}
			le.PutUint32(buf[at:], uint32(rel))
		}
		if at >= limit {
			*slot = at + size
		}
	}
	copy(buf[limit+size:], buf[limit:old])
	return nil
}

// AddRelPointer records that a relative pointer is stored at offset.
func (m *Manager) AddRelPointer(offset uint32) error {
	return m.relocs.Append(offset)
}

// Relocations returns the recorded pointer offsets.
func (m *Manager) Relocations() []uint32 {
	out := make([]uint32, m.relocs.Len())
	for i := range out {
		out[i] = m.relocs.At(i)
	}
	return out
}

// Truncate drops the buffer bytes past size. It must be called before any
// area is created.
func (m *Manager) Truncate(size uint32) { m.mem.Truncate(int(size)) }

// Bytes returns the buffer. It is invalidated by the next growth.
func (m *Manager) Bytes() []byte { return m.mem.Bytes() }

// Size returns the number of bytes in the buffer.
func (m *Manager) Size() uint32 { return uint32(m.mem.Offset()) }

// Write copies the finished buffer into dst and returns the byte count.
func (m *Manager) Write(dst []byte) int { return copy(dst, m.mem.Bytes()) }

// ReadRel resolves the relative pointer stored at offset. ok is false for null.
func (m *Manager) ReadRel(at uint32) (target uint32, ok bool) {
	rel := int32(le.Uint32(m.mem.Bytes()[at:]))
	if rel == 0 {
		return 0, false
	}
	return uint32(int64(at) + int64(rel)), true
}

// WriteRel stores a relative pointer to target at offset at.
func (m *Manager) WriteRel(at, target uint32) {
	le.PutUint32(m.mem.Bytes()[at:], uint32(int32(int64(target)-int64(at))))
}

// Areas returns the number of live areas.
func (m *Manager) Areas() int {
	n := 0
	for a := m.first; a != nil; a = a.next {
		n++
	}
	return n
}
