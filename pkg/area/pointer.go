package area

import "math"

// Ptr addresses a byte inside an area. It stays valid while the area moves
// because it is stored relative to the area start.
type Ptr struct {
	area *Area
	off  uint32
}

// IsNil reports whether p points nowhere.
func (p Ptr) IsNil() bool { return p.area == nil }

// Area returns the area p points into.
func (p Ptr) Area() *Area { return p.area }

// Abs returns the absolute buffer offset of p.
func (p Ptr) Abs() uint32 { return p.area.offset + p.off }

// Add returns p advanced by n bytes.
func (p Ptr) Add(n uint32) Ptr { return Ptr{area: p.area, off: p.off + n} }

func (p Ptr) buf() []byte { return p.area.mgr.mem.Bytes()[p.Abs():] }

func (p Ptr) Uint8() uint8         { return p.buf()[0] }
func (p Ptr) PutUint8(v uint8)     { p.buf()[0] = v }
func (p Ptr) Uint16() uint16       { return le.Uint16(p.buf()) }
func (p Ptr) PutUint16(v uint16)   { le.PutUint16(p.buf(), v) }
func (p Ptr) Uint32() uint32       { return le.Uint32(p.buf()) }
func (p Ptr) PutUint32(v uint32)   { le.PutUint32(p.buf(), v) }
func (p Ptr) Int32() int32         { return int32(le.Uint32(p.buf())) }
func (p Ptr) PutInt32(v int32)     { le.PutUint32(p.buf(), uint32(v)) }
func (p Ptr) Uint64() uint64       { return le.Uint64(p.buf()) }
func (p Ptr) PutUint64(v uint64)   { le.PutUint64(p.buf(), v) }
func (p Ptr) PutInt64(v int64)     { le.PutUint64(p.buf(), uint64(v)) }
func (p Ptr) PutFloat32(v float32) { le.PutUint32(p.buf(), math.Float32bits(v)) }
func (p Ptr) PutFloat64(v float64) { le.PutUint64(p.buf(), math.Float64bits(v)) }
func (p Ptr) Float64() float64     { return math.Float64frombits(le.Uint64(p.buf())) }

// PutBytes copies b to p.
func (p Ptr) PutBytes(b []byte) { copy(p.buf(), b) }

// SetRel stores at p a relative pointer to target, or null.
func (p Ptr) SetRel(target Ptr) {
	if target.IsNil() {
		p.PutUint32(0)
		return
	}
	p.area.mgr.WriteRel(p.Abs(), target.Abs())
}

// SetRelOffset stores at p a relative pointer to the absolute offset target.
func (p Ptr) SetRelOffset(target uint32) { p.area.mgr.WriteRel(p.Abs(), target) }

// CopyRel stores at p a relative pointer to whatever src points at.
func (p Ptr) CopyRel(src Ptr) {
	target, ok := p.area.mgr.ReadRel(src.Abs())
	if !ok {
		p.PutUint32(0)
		return
	}
	p.area.mgr.WriteRel(p.Abs(), target)
}

// Target returns the absolute offset the relative pointer at p refers to.
func (p Ptr) Target() (uint32, bool) { return p.area.mgr.ReadRel(p.Abs()) }
