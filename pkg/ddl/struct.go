package ddl

import (
	"hash/crc32"
	"math"
)

// StructDecl is a record declaration with optional single inheritance.
type StructDecl struct{ Aggregate }

func (s StructDecl) NumFields() uint32 { return s.u32(StNumFields) }

// Parent returns the base struct.
func (s StructDecl) Parent() (StructDecl, bool) {
	p, ok := s.ptr(StParent)
	if !ok {
		return StructDecl{}, false
	}
	return StructDecl{newAggregate(s.at(p))}, true
}

// Definition returns the definition the struct belongs to.
func (s StructDecl) Definition() Definition {
	p, _ := s.ptr(StDefinition)
	return Definition{s.at(p)}
}

func (s StructDecl) Tags() (Tag, bool)         { return firstTag(s.view, StTags) }
func (s StructDecl) Tag(t TagType) (Tag, bool) { return findTag(s.view, StTags, t) }

// Field returns the struct's own field at index i.
func (s StructDecl) Field(i uint32) StructField {
	p, _ := s.ptr(StFields + i*PointerSize)
	return newStructField(s.at(p))
}

// FindField returns the field called name, searching base structs too.
func (s StructDecl) FindField(name string) (StructField, bool) {
	return s.FindFieldHash(Hash(name))
}

// FindFieldHash returns the field whose name hashes to h, searching base structs too.
func (s StructDecl) FindFieldHash(h uint32) (StructField, bool) {
	for cur, ok := s, true; ok; cur, ok = cur.Parent() {
		for i := range cur.NumFields() {
			if f := cur.Field(i); f.ValueInfo().NameHash() == h {
				return f, true
			}
		}
	}
	return StructField{}, false
}

// IsInherited reports whether f is declared by a base struct rather than s.
func (s StructDecl) IsInherited(f StructField) bool {
	for i := range s.NumFields() {
		if s.Field(i).Offset() == f.Offset() {
			return false
		}
	}
	return true
}

// NumAllFields counts own and inherited fields.
func (s StructDecl) NumAllFields() uint32 {
	n := uint32(0)
	for cur, ok := s, true; ok; cur, ok = cur.Parent() {
		n += cur.NumFields()
	}
	return n
}

// SchemaCRC hashes the name, type, shape and order of every field,
// inherited ones first. Defaults, tags and descriptive text do not
// contribute.
func (s StructDecl) SchemaCRC() uint32 {
	var crc uint32
	if parent, ok := s.Parent(); ok {
		crc = parent.SchemaCRC()
	}
	for i := range s.NumFields() {
		crc = crc32.Update(crc, crc32.IEEETable, le.AppendUint32(nil, s.Field(i).ValueInfo().SchemaCRC()))
	}
	return crc
}

// StructField is one declared field.
type StructField struct{ info }

func newStructField(v view) StructField {
	return StructField{info{view: v, name: FieldName, author: FieldAuthor, description: FieldDescription, label: FieldLabel}}
}

// ValueInfo returns the field's type and default information.
func (f StructField) ValueInfo() ValueInfo { return ValueInfo{f.at(f.off + FieldValueInfo)} }

// ValueInfo describes the type, shape and default value of a field.
type ValueInfo struct{ view }

func (v ValueInfo) NameHash() uint32     { return v.u32(VINameHash) }
func (v ValueInfo) Type() Type           { return Type(v.u32(VIType)) }
func (v ValueInfo) TypeNameHash() uint32 { return v.u32(VITypeNameHash) }
func (v ValueInfo) ArrayType() ArrayType { return ArrayType(v.u32(VIArrayType)) }
func (v ValueInfo) KeyType() Type        { return Type(v.u32(VIKeyType)) }

// Count returns the number of elements a default value holds: 1 for a
// scalar, the declared size of a fixed array, 0 otherwise.
func (v ValueInfo) Count() uint32 {
	switch v.ArrayType() {
	case Scalar:
		return 1
	case Fixed:
		return v.u32(VICount)
	}
	return 0
}

func (v ValueInfo) Tags() (Tag, bool)         { return firstTag(v.view, VITags) }
func (v ValueInfo) Tag(t TagType) (Tag, bool) { return findTag(v.view, VITags, t) }

// Value returns the default value.
func (v ValueInfo) Value() (FieldValue, bool) {
	p, ok := v.ptr(VIValue)
	if !ok {
		return FieldValue{}, false
	}
	return FieldValue{view: v.at(p), typ: v.Type()}, true
}

// Aggregate returns the select, bitfield or struct the field refers to.
func (v ValueInfo) Aggregate(d Definition) (Aggregate, bool) {
	if !v.Type().IsAggregate() {
		return Aggregate{}, false
	}
	return d.FindAggregateHash(v.TypeNameHash())
}

// KeyBitSize returns the width in bits of a hashmap key, or 0.
func (v ValueInfo) KeyBitSize() int {
	if v.ArrayType() != Hashmap {
		return 0
	}
	switch v.KeyType() {
	case Uint8, Int8:
		return 8
	case Uint16, Int16:
		return 16
	case Uint32, Int32, String, File:
		return 32
	case Uint64, Int64, Tuid:
		return 64
	}
	return 0
}

// SchemaCRC hashes the field's name, type and shape. Struct-typed fields
// fold in the referenced struct's CRC.
func (v ValueInfo) SchemaCRC() uint32 {
	var b [24]byte
	le.PutUint32(b[0:], v.NameHash())
	le.PutUint32(b[4:], uint32(v.Type()))
	le.PutUint32(b[8:], uint32(v.ArrayType()))
	le.PutUint32(b[12:], v.u32(VICount))
	le.PutUint32(b[16:], uint32(v.KeyType()))
	if v.Type().IsAggregate() {
		le.PutUint32(b[20:], v.TypeNameHash())
	}
	crc := crc32.ChecksumIEEE(b[:])
	if v.Type() == Struct {
		if def, ok := v.definition(); ok {
			if a, ok := def.FindAggregateHash(v.TypeNameHash()); ok {
				if s, ok := a.Struct(); ok {
					crc = crc32.Update(crc, crc32.IEEETable, le.AppendUint32(nil, s.SchemaCRC()))
				}
			}
		}
	}
	return crc
}

// definition locates the blob header. Blobs always start with it.
func (v ValueInfo) definition() (Definition, bool) {
	d := Definition{view{b: v.b}}
	if len(v.b) < DefinitionSize || d.u32(DefOne) != OneMarker {
		return Definition{}, false
	}
	return d, true
}

// FieldValue is the default value of a field: one element for a scalar, or
// Count elements for a fixed array.
type FieldValue struct {
	view
	typ Type
}

func (f FieldValue) elem(i uint32) uint32 { return i * f.typ.Size() }

func (f FieldValue) Uint(i uint32) uint64 {
	switch f.typ.Size() {
	case 1:
		return uint64(f.u8(f.elem(i)))
	case 2:
		return uint64(f.u16(f.elem(i)))
	case 4:
		return uint64(f.u32(f.elem(i)))
	}
	return f.u64(f.elem(i))
}

func (f FieldValue) Int(i uint32) int64 {
	switch f.typ.Size() {
	case 1:
		return int64(int8(f.u8(f.elem(i))))
	case 2:
		return int64(int16(f.u16(f.elem(i))))
	case 4:
		return int64(int32(f.u32(f.elem(i))))
	}
	return int64(f.u64(f.elem(i)))
}

func (f FieldValue) Float(i uint32) float64 {
	if f.typ == Float32 {
		return float64(math.Float32frombits(f.u32(f.elem(i))))
	}
	return math.Float64frombits(f.u64(f.elem(i)))
}

func (f FieldValue) Bool(i uint32) bool   { return f.u8(f.elem(i)) != 0 }
func (f FieldValue) Tuid(i uint32) uint64 { return f.u64(f.elem(i)) }

// String returns a string, file or json element.
func (f FieldValue) String(i uint32) string { return f.str(f.elem(i)) }

// SelectHash returns the name hash of the selected item.
func (f FieldValue) SelectHash(i uint32) uint32 { return f.u32(f.elem(i)) }

// Bitfield returns the flags set in element i.
func (f FieldValue) Bitfield(i uint32) (BitfieldValue, bool) {
	p, ok := f.ptr(f.elem(i))
	if !ok {
		return BitfieldValue{}, false
	}
	return BitfieldValue{f.at(p)}, true
}

// Struct returns the field values of element i.
func (f FieldValue) Struct(i uint32) (StructValue, bool) {
	p, ok := f.ptr(f.elem(i))
	if !ok {
		return StructValue{}, false
	}
	return StructValue{f.at(p)}, true
}

// BitfieldValue lists the name hashes of the flags set in a default.
type BitfieldValue struct{ view }

func (b BitfieldValue) Count() uint32        { return b.u32(BfvCount) }
func (b BitfieldValue) Hash(i uint32) uint32 { return b.u32(BfvHashes + i*4) }

// StructValue lists the fields given a value in a struct default.
type StructValue struct{ view }

func (s StructValue) Count() uint32 { return s.u32(SvCount) }

func (s StructValue) ValueInfo(i uint32) ValueInfo {
	return ValueInfo{s.at(s.off + SvValues + i*ValueInfoSize)}
}
