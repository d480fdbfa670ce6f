package ddl

import (
	"errors"
	"fmt"
)

var (
	// ErrShortBlob is returned when a buffer is too small to hold a definition.
	ErrShortBlob = errors.New("blob too short")
	// ErrByteOrder is returned for a blob written with the other byte order.
	ErrByteOrder = errors.New("blob has foreign byte order")
	// ErrCorrupt is returned when a blob fails structural checks.
	ErrCorrupt = errors.New("corrupt blob")
)

// Definition is the header of a compiled blob.
type Definition struct{ view }

// FromBytes interprets b as a compiled blob. Only the header is checked; use
// Verify before navigating untrusted data.
func FromBytes(b []byte) (Definition, error) {
	if len(b) < DefinitionSize {
		return Definition{}, ErrShortBlob
	}
	d := Definition{view{b: b}}
	switch d.u32(DefOne) {
	case OneMarker:
	case SwappedMarker:
		return Definition{}, ErrByteOrder
	default:
		return Definition{}, fmt.Errorf("%w: bad marker %#x", ErrCorrupt, d.u32(DefOne))
	}
	if total := d.TotalSize(); total > uint32(len(b)) {
		return Definition{}, fmt.Errorf("%w: total size %d exceeds %d bytes", ErrShortBlob, total, len(b))
	}
	return d, nil
}

// Bytes returns the blob trimmed to its total size.
func (d Definition) Bytes() []byte { return d.b[:d.TotalSize()] }

func (d Definition) NumAggregates() uint32 { return d.u32(DefNumAggregates) }
func (d Definition) TotalSize() uint32     { return d.u32(DefTotalSize) }

// Aggregate returns the aggregate at index i.
func (d Definition) Aggregate(i uint32) Aggregate {
	p, _ := d.ptr(DefAggregates + i*PointerSize)
	return newAggregate(d.at(p))
}

// FindAggregate returns the aggregate called name.
func (d Definition) FindAggregate(name string) (Aggregate, bool) {
	return d.FindAggregateHash(Hash(name))
}

// FindAggregateHash returns the aggregate whose name hashes to h.
func (d Definition) FindAggregateHash(h uint32) (Aggregate, bool) {
	for i := range d.NumAggregates() {
		if a := d.Aggregate(i); a.NameHash() == h {
			return a, true
		}
	}
	return Aggregate{}, false
}

// View interprets b as a blob without checking it. The compiler uses it to
// read a definition that is still being built.
func View(b []byte) Definition { return Definition{view{b: b}} }

// AggregateAt returns the aggregate stored at blob offset off.
func (d Definition) AggregateAt(off uint32) Aggregate { return newAggregate(d.at(off)) }

// SelectItemAt returns the select item stored at blob offset off.
func (d Definition) SelectItemAt(off uint32) SelectItem { return newSelectItem(d.at(off)) }

// BitfieldFlagAt returns the bitfield flag stored at blob offset off.
func (d Definition) BitfieldFlagAt(off uint32) BitfieldFlag { return newBitfieldFlag(d.at(off)) }

// StructFieldAt returns the struct field stored at blob offset off.
func (d Definition) StructFieldAt(off uint32) StructField { return newStructField(d.at(off)) }

// TagAt returns the tag stored at blob offset off.
func (d Definition) TagAt(off uint32) Tag { return Tag{d.at(off)} }

// Aggregate is the common header of selects, bitfields and structs.
type Aggregate struct{ info }

func newAggregate(v view) Aggregate {
	return Aggregate{info{view: v, name: AggName, author: AggAuthor, description: AggDescription, label: AggLabel}}
}

// Type returns Select, Bitfield or Struct.
func (a Aggregate) Type() Type       { return Type(a.u32(AggType)) }
func (a Aggregate) NameHash() uint32 { return a.u32(AggNameHash) }

// Select returns a as a select when it is one.
func (a Aggregate) Select() (SelectDecl, bool) {
	if a.Type() != Select {
		return SelectDecl{}, false
	}
	return SelectDecl{a}, true
}

// Bitfield returns a as a bitfield when it is one.
func (a Aggregate) Bitfield() (BitfieldDecl, bool) {
	if a.Type() != Bitfield {
		return BitfieldDecl{}, false
	}
	return BitfieldDecl{a}, true
}

// Struct returns a as a struct when it is one.
func (a Aggregate) Struct() (StructDecl, bool) {
	if a.Type() != Struct {
		return StructDecl{}, false
	}
	return StructDecl{a}, true
}

// Tags returns the head of the aggregate's tag chain.
func (a Aggregate) Tags() (Tag, bool) {
	switch a.Type() {
	case Select:
		return firstTag(a.view, SelTags)
	case Bitfield:
		return firstTag(a.view, BfTags)
	case Struct:
		return firstTag(a.view, StTags)
	}
	return Tag{}, false
}

// Tag returns the first tag of type t.
func (a Aggregate) Tag(t TagType) (Tag, bool) {
	for tag, ok := a.Tags(); ok; tag, ok = tag.Next() {
		if tag.Type() == t {
			return tag, true
		}
	}
	return Tag{}, false
}
