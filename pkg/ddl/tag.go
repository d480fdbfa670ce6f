package ddl

import "math"

// Tag is one entry of a tag chain. The accessor to use depends on Type.
type Tag struct{ view }

func (t Tag) Type() TagType { return TagType(t.u32(TagKind)) }

// Next returns the following tag in the chain.
func (t Tag) Next() (Tag, bool) { return firstTag(t.view, TagNext) }

// Strings returns the entries of an extensions or vaulthints tag.
func (t Tag) Strings() []string {
	if t.Type() != TagExtensions && t.Type() != TagVaultHints {
		return nil
	}
	n := t.u32(ListCount)
	out := make([]string, n)
	for i := range n {
		out[i] = t.str(ListStrings + i*PointerSize)
	}
	return out
}

// Text returns the string argument of a render, version, callback, key or
// units tag.
func (t Tag) Text() string {
	switch t.Type() {
	case TagUIRender, TagVersion, TagCallback, TagKey, TagUnits:
		return t.str(TextValue)
	}
	return ""
}

// Parallel returns the field a parallel tag links to.
func (t Tag) Parallel() (StructField, bool) {
	if t.Type() != TagParallel {
		return StructField{}, false
	}
	p, ok := t.ptr(ParallelField)
	if !ok {
		return StructField{}, false
	}
	return newStructField(t.at(p)), true
}

// RangeValue is a range bound. It holds an int64, a uint64 or a float64
// depending on the type of the field the range belongs to.
type RangeValue uint64

func (r RangeValue) Int() int64       { return int64(r) }
func (r RangeValue) Uint() uint64     { return uint64(r) }
func (r RangeValue) Float() float64   { return math.Float64frombits(uint64(r)) }
func (r RangeValue) Float32() float32 { return float32(math.Float64frombits(uint64(r))) }

// UIRange holds the bounds of a range tag.
type UIRange struct {
	SoftMin, SoftMax RangeValue
	HardMin, HardMax RangeValue
	Step             RangeValue
}

// Range returns the bounds of a range tag.
func (t Tag) Range() (UIRange, bool) {
	if t.Type() != TagUIRange {
		return UIRange{}, false
	}
	return UIRange{
		SoftMin: RangeValue(t.u64(RangeSoftMin)),
		SoftMax: RangeValue(t.u64(RangeSoftMax)),
		HardMin: RangeValue(t.u64(RangeHardMin)),
		HardMax: RangeValue(t.u64(RangeHardMax)),
		Step:    RangeValue(t.u64(RangeStep)),
	}, true
}

// Generic returns a tag(...) clause.
func (t Tag) Generic() (GenericTag, bool) {
	if t.Type() != TagGeneric {
		return GenericTag{}, false
	}
	return GenericTag{t.view}, true
}

// GenericTag is a named tag carrying an ordered list of values.
type GenericTag struct{ view }

func (g GenericTag) Name() string      { return g.str(GenName) }
func (g GenericTag) NameHash() uint32  { return g.u32(GenNameHash) }
func (g GenericTag) NumValues() uint32 { return g.u32(GenNumValues) }

// Value returns the i-th argument.
func (g GenericTag) Value(i uint32) GenericValue {
	v := g.at(g.off + GenValues + i*GenValueSize)
	gv := GenericValue{Type: Type(v.u32(GenValType))}
	switch gv.Type {
	case Int64:
		gv.Int = int64(v.u64(GenValValue))
	case Float64:
		gv.Float = math.Float64frombits(v.u64(GenValValue))
	case String:
		gv.String = v.str(GenValValue)
	}
	return gv
}

// GenericValue is one argument of a generic tag. Type is Int64, Float64 or
// String and selects the populated field.
type GenericValue struct {
	Type   Type
	Int    int64
	Float  float64
	String string
}
