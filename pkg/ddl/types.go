// Package ddl reads compiled definition blobs in place.
//
// A blob is a Definition header followed by its aggregates. Every internal
// pointer is a signed 32-bit offset relative to the location that stores it,
// with 0 meaning null, so a blob can be loaded at any address and navigated
// without decoding. All integers are little-endian.
package ddl

import "hash/crc32"

// Type is the declared type of a struct field.
type Type uint32

const (
	Uint8 Type = iota
	Uint16
	Uint32
	Uint64
	Int8
	Int16
	Int32
	Int64
	Float32
	Float64
	String
	Select
	Bitfield
	Struct
	Unknown
	Boolean
	File
	Tuid
	Json
	numTypes
)

var typeNames = [...]string{
	Uint8:    "uint8",
	Uint16:   "uint16",
	Uint32:   "uint32",
	Uint64:   "uint64",
	Int8:     "int8",
	Int16:    "int16",
	Int32:    "int32",
	Int64:    "int64",
	Float32:  "float32",
	Float64:  "float64",
	String:   "string",
	Select:   "select",
	Bitfield: "bitfield",
	Struct:   "struct",
	Unknown:  "unknown",
	Boolean:  "boolean",
	File:     "file",
	Tuid:     "tuid",
	Json:     "json",
}

var typeSizes = [...]uint32{
	Uint8: 1, Uint16: 2, Uint32: 4, Uint64: 8,
	Int8: 1, Int16: 2, Int32: 4, Int64: 8,
	Float32: 4, Float64: 8,
	String: 4, Select: 4, Bitfield: 4, Struct: 4, Unknown: 4,
	Boolean: 1, File: 4, Tuid: 8, Json: 4,
}

var typeAligns = [...]uint32{
	Uint8: 1, Uint16: 2, Uint32: 4, Uint64: 8,
	Int8: 1, Int16: 2, Int32: 4, Int64: 8,
	Float32: 4, Float64: 8,
	String: 4, Select: 4, Bitfield: 4, Struct: 8, Unknown: 4,
	Boolean: 1, File: 4, Tuid: 8, Json: 4,
}

func (t Type) String() string {
	if t < numTypes {
		return typeNames[t]
	}
	return "invalid"
}

// Size returns the number of bytes one default value of type t occupies.
func (t Type) Size() uint32 {
	if t < numTypes {
		return typeSizes[t]
	}
	return 0
}

// Align returns the alignment of a default value of type t.
func (t Type) Align() uint32 {
	if t < numTypes {
		return typeAligns[t]
	}
	return 1
}

// IsInteger reports whether t is one of the fixed-width integer types.
func (t Type) IsInteger() bool { return t <= Int64 }

// IsNumeric reports whether t is an integer or floating point type.
func (t Type) IsNumeric() bool { return t <= Float64 }

// IsAggregate reports whether t refers to a select, bitfield or struct.
func (t Type) IsAggregate() bool { return t == Select || t == Bitfield || t == Struct }

// ArrayType is the shape of a struct field.
type ArrayType uint32

const (
	Scalar ArrayType = iota
	Fixed
	Dynamic
	Hashmap
)

func (a ArrayType) String() string {
	switch a {
	case Scalar:
		return "scalar"
	case Fixed:
		return "fixed"
	case Dynamic:
		return "dynamic"
	case Hashmap:
		return "hashmap"
	}
	return "invalid"
}

// TagType identifies the concrete record behind a Tag header.
type TagType uint32

const (
	TagExtensions TagType = iota
	TagVaultHints
	TagUIRange
	TagUIRender
	TagParallel
	TagVersion
	TagCallback
	TagKey
	TagUnits
	TagAbstract
	TagGeneric
)

var tagNames = [...]string{
	TagExtensions: "extensions",
	TagVaultHints: "vaulthints",
	TagUIRange:    "uirange",
	TagUIRender:   "uirender",
	TagParallel:   "parallel",
	TagVersion:    "version",
	TagCallback:   "callback",
	TagKey:        "key",
	TagUnits:      "units",
	TagAbstract:   "abstract",
	TagGeneric:    "generic",
}

func (t TagType) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "invalid"
}

// Hash returns the 32-bit hash used for every name stored in a blob.
func Hash(name string) uint32 {
	return crc32.ChecksumIEEE([]byte(name))
}
