package ddl

import (
	"bytes"
	"encoding/binary"
)

var le = binary.LittleEndian

type view struct {
	b   []byte
	off uint32
}

func (v view) u8(at uint32) uint8   { return v.b[v.off+at] }
func (v view) u16(at uint32) uint16 { return le.Uint16(v.b[v.off+at:]) }
func (v view) u32(at uint32) uint32 { return le.Uint32(v.b[v.off+at:]) }
func (v view) u64(at uint32) uint64 { return le.Uint64(v.b[v.off+at:]) }
func (v view) i32(at uint32) int32  { return int32(le.Uint32(v.b[v.off+at:])) }

func (v view) ptr(at uint32) (uint32, bool) {
	return resolve(v.b, v.off+at)
}

func (v view) str(at uint32) string {
	p, ok := v.ptr(at)
	if !ok {
		return ""
	}
	return cstring(v.b, p)
}

func (v view) at(off uint32) view { return view{b: v.b, off: off} }

// Offset returns the absolute position of the record in the blob.
func (v view) Offset() uint32 { return v.off }

// IsNil reports whether the view refers to nothing.
func (v view) IsNil() bool { return v.b == nil }

func resolve(b []byte, slot uint32) (uint32, bool) {
	rel := int32(le.Uint32(b[slot:]))
	if rel == 0 {
		return 0, false
	}
	return uint32(int64(slot) + int64(rel)), true
}

func cstring(b []byte, p uint32) string {
	end := bytes.IndexByte(b[p:], 0)
	if end < 0 {
		return string(b[p:])
	}
	return string(b[p : p+uint32(end)])
}

// info is shared by every record starting with the basic name/author/
// description/label block.
type info struct {
	view
	name, author, description, label uint32
}

func (i info) Name() string        { return i.str(i.name) }
func (i info) Author() string      { return i.str(i.author) }
func (i info) Description() string { return i.str(i.description) }
func (i info) Label() string       { return i.str(i.label) }

// DisplayLabel returns the label, or the name when no label was given.
func (i info) DisplayLabel() string {
	if l := i.Label(); l != "" {
		return l
	}
	return i.Name()
}

func firstTag(v view, at uint32) (Tag, bool) {
	p, ok := v.ptr(at)
	if !ok {
		return Tag{}, false
	}
	return Tag{v.at(p)}, true
}

func findTag(v view, at uint32, t TagType) (Tag, bool) {
	for tag, ok := firstTag(v, at); ok; tag, ok = tag.Next() {
		if tag.Type() == t {
			return tag, true
		}
	}
	return Tag{}, false
}
