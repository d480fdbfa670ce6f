package area

import (
	"bytes"
	"hash/crc32"

	"ddlc/pkg/arena"
)

// StringArea appends NUL-terminated strings to an area. Repeated strings
// share storage.
type StringArea struct {
	area *Area
	seen *arena.Set[uint32]
}

// NewStringArea wraps a for string storage.
func NewStringArea(a *Area, scratch *arena.Linear) *StringArea {
	return &StringArea{area: a, seen: arena.NewSet[uint32](scratch, 64)}
}

// Area returns the underlying area.
func (s *StringArea) Area() *Area { return s.area }

// Add stores str and returns a pointer to its first byte.
func (s *StringArea) Add(str string) (Ptr, error) {
	h := crc32.ChecksumIEEE([]byte(str))
	if off, ok := s.seen.Find(h); ok {
		p := Ptr{area: s.area, off: off}
		b := p.buf()
		if len(b) > len(str) && b[len(str)] == 0 && bytes.Equal(b[:len(str)], []byte(str)) {
			return p, nil
		}
	}
	p, err := s.area.Allocate(uint32(len(str)) + 1)
	if err != nil {
		return Ptr{}, err
	}
	p.PutBytes([]byte(str))
	if err := s.seen.Insert(h, p.off); err != nil {
		return Ptr{}, err
	}
	return p, nil
}
