package area

// Area is a contiguous, growable range [Offset, Offset+Size) of the buffer.
type Area struct {
	mgr    *Manager
	offset uint32
	size   uint32
	next   *Area
}

// Offset returns the current start of the area. It changes when an earlier area grows.
func (a *Area) Offset() uint32 { return a.offset }

// Size returns the number of bytes in the area.
func (a *Area) Size() uint32 { return a.size }

// Start returns a pointer to the first byte of the area.
func (a *Area) Start() Ptr { return Ptr{area: a} }

// End returns a pointer to the first byte past the area.
func (a *Area) End() Ptr { return Ptr{area: a, off: a.size} }

// Manager returns the owning manager.
func (a *Area) Manager() *Manager { return a.mgr }

// Allocate appends size zeroed bytes to the area.
func (a *Area) Allocate(size uint32) (Ptr, error) {
	if err := a.mgr.Grow(a, size); err != nil {
		return Ptr{}, err
	}
	start := a.offset + a.size
	clear(a.mgr.mem.Bytes()[start : start+size])
	p := Ptr{area: a, off: a.size}
	a.size += size
	return p, nil
}

// Align pads the area with zeroes until its end is a multiple of n.
func (a *Area) Align(n uint32) error {
	if n <= 1 {
		return nil
	}
	pad := (n - (a.offset+a.size)%n) % n
	if pad == 0 {
		return nil
	}
	_, err := a.Allocate(pad)
	return err
}

// NewArea inserts an empty area directly after a.
func (a *Area) NewArea() (*Area, error) { return a.mgr.NewAreaAfter(a) }

// Merge folds the following area into a.
func (a *Area) Merge() { a.mgr.Merge(a) }

// AddRelPointer records that p holds a relative pointer.
func (a *Area) AddRelPointer(p Ptr) error { return a.mgr.AddRelPointer(p.Abs()) }
