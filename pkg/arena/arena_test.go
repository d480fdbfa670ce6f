package arena

import (
	"errors"
	"testing"
)

func TestLinearAllocate(t *testing.T) {
	l := NewLinear(64)

	tests := []struct {
		name     string
		size     int
		align    int
		expected int
	}{
		{"first byte", 1, 1, 0},
		{"aligned word", 4, 4, 4},
		{"unaligned", 3, 0, 8},
		{"aligned double", 8, 8, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			off, err := l.Allocate(tt.size, tt.align)
			if err != nil {
				t.Fatalf("Allocate failed: %v", err)
			}
			if off != tt.expected {
				t.Errorf("expected offset %d, got %d", tt.expected, off)
			}
		})
	}
	if l.Offset() != 24 {
		t.Errorf("expected current offset 24, got %d", l.Offset())
	}
}

func TestLinearOutOfMemory(t *testing.T) {
	l := NewLinear(16)
	if _, err := l.Allocate(12, 1); err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	_, err := l.Allocate(8, 1)
	if !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("expected ErrOutOfMemory, got %v", err)
	}
	if l.Offset() != 12 {
		t.Errorf("failed allocation moved the offset to %d", l.Offset())
	}
}

func TestLinearZeroesReusedBytes(t *testing.T) {
	l := NewLinear(32)
	off, _ := l.Allocate(8, 1)
	for i := range 8 {
		l.Bytes()[off+i] = 0xFF
	}
	l.Truncate(0)
	off, _ = l.Allocate(8, 1)
	for i, b := range l.Bytes()[off : off+8] {
		if b != 0 {
			t.Fatalf("byte %d not zeroed: %#x", i, b)
		}
	}
}

func TestLinearSnapshotRestore(t *testing.T) {
	l := NewLinear(1 << 16)
	l.Allocate(4, 1)
	l.Bytes()[0] = 7
	snap := l.Snapshot()
	l.Allocate(5000, 1)
	l.Bytes()[0] = 9
	l.Restore(snap)
	if l.Offset() != 4 || l.Bytes()[0] != 7 {
		t.Errorf("expected restored 4 bytes starting with 7, got %d bytes starting with %d", l.Offset(), l.Bytes()[0])
	}
}

func TestPoolReuse(t *testing.T) {
	p := NewPool[int](nil, 2)
	a, _ := p.Get()
	b, _ := p.Get()
	c, _ := p.Get()
	*a, *b, *c = 1, 2, 3
	if p.Live() != 3 {
		t.Fatalf("expected 3 live records, got %d", p.Live())
	}
	p.Put(b)
	d, _ := p.Get()
	if d != b {
		t.Errorf("expected released record to be reused")
	}
	if *d != 0 {
		t.Errorf("expected reused record to be zeroed, got %d", *d)
	}
	if *a != 1 || *c != 3 {
		t.Errorf("unrelated records changed: %d %d", *a, *c)
	}
}

func TestPoolBudget(t *testing.T) {
	budget := NewLinear(8 * 4)
	p := NewPool[uint64](budget, 4)
	for i := range 4 {
		if _, err := p.Get(); err != nil {
			t.Fatalf("Get %d failed: %v", i, err)
		}
	}
	if _, err := p.Get(); !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("expected ErrOutOfMemory once the budget is spent, got %v", err)
	}
}

func TestVectorStablePointers(t *testing.T) {
	v := NewVector[uint32](nil, 4)
	v.Append(10)
	first := v.Ptr(0)
	for i := range 100 {
		if err := v.Append(uint32(i)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if *first != 10 {
		t.Errorf("expected first element 10, got %d", *first)
	}
	*first = 11
	if v.At(0) != 11 {
		t.Errorf("expected pointer write to be visible, got %d", v.At(0))
	}
	if v.Len() != 101 || v.At(100) != 99 {
		t.Errorf("expected 101 elements ending in 99, got %d ending in %d", v.Len(), v.At(v.Len()-1))
	}
}

func TestSet(t *testing.T) {
	s := NewSet[string](nil, 4)
	keys := []uint32{1, 17, 33, 2, 0xFFFFFFFF}
	for i, k := range keys {
		if err := s.Insert(k, string(rune('a'+i))); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	if s.Len() != len(keys) {
		t.Fatalf("expected %d keys, got %d", len(keys), s.Len())
	}
	if v, ok := s.Find(33); !ok || v != "c" {
		t.Errorf("expected c for key 33, got %q (%v)", v, ok)
	}
	if s.Contains(3) {
		t.Errorf("unexpected key 3")
	}
	s.Insert(17, "z")
	if v, _ := s.Find(17); v != "z" || s.Len() != len(keys) {
		t.Errorf("expected replacement in place, got %q with %d keys", v, s.Len())
	}

	var order []uint32
	s.Each(func(k uint32, _ string) bool {
		order = append(order, k)
		return true
	})
	for i := range keys {
		if order[i] != keys[i] {
			t.Errorf("expected insertion order %v, got %v", keys, order)
			break
		}
	}
}

func TestStack(t *testing.T) {
	s := NewStack[int](nil)
	for i := range 5 {
		s.Push(i)
	}
	if top, _ := s.Peek(); top != 4 {
		t.Errorf("expected top 4, got %d", top)
	}
	for want := 4; want >= 0; want-- {
		got, ok := s.Pop()
		if !ok || got != want {
			t.Fatalf("expected %d, got %d (%v)", want, got, ok)
		}
	}
	if _, ok := s.Pop(); ok {
		t.Errorf("expected empty stack")
	}
	s.Push(1)
	s.Reset()
	if s.Len() != 0 {
		t.Errorf("expected empty stack after Reset, got %d", s.Len())
	}
}
