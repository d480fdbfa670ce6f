package compiler

import (
	"math"
	"strconv"

	"ddlc/pkg/ddl"
)

// ValueKind is the dynamic type of a Value.
type ValueKind int

const (
	IntValue ValueKind = iota
	FloatValue
	StringValue
)

// Value is the result of evaluating a constant expression. Operations on
// operand kinds they do not support produce an invalid Value instead of
// failing, so callers check Valid once the whole expression is folded.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Str   string
	Valid bool
}

func IntOf(v int64) Value     { return Value{Kind: IntValue, Int: v, Valid: true} }
func FloatOf(v float64) Value { return Value{Kind: FloatValue, Float: v, Valid: true} }
func StringOf(v string) Value { return Value{Kind: StringValue, Str: v, Valid: true} }
func boolOf(b bool, valid bool) Value {
	v := Value{Kind: IntValue, Valid: valid}
	if b {
		v.Int = 1
	}
	return v
}

var invalid = Value{}

// GetInt returns the value as an integer, truncating floats.
func (v Value) GetInt() int64 {
	if v.Kind == FloatValue {
		return int64(v.Float)
	}
	return v.Int
}

// GetFloat returns the value as a float.
func (v Value) GetFloat() float64 {
	if v.Kind == IntValue {
		return float64(v.Int)
	}
	return v.Float
}

// Hash returns the name hash of a string value.
func (v Value) Hash() uint32 { return ddl.Hash(v.Str) }

func (v Value) IsNumber() bool { return v.Kind == IntValue || v.Kind == FloatValue }
func (v Value) IsString() bool { return v.Kind == StringValue }

// fitsInt reports whether v is an integer in [lo, hi], or a float with no
// fractional part in that range.
func (v Value) fitsInt(lo, hi float64, ilo, ihi int64) bool {
	switch v.Kind {
	case IntValue:
		return v.Int >= ilo && v.Int <= ihi
	case FloatValue:
		return v.Float >= lo && v.Float <= hi && v.Float == math.Trunc(v.Float)
	}
	return false
}

func (v Value) IsInt8() bool {
	return v.fitsInt(math.MinInt8, math.MaxInt8, math.MinInt8, math.MaxInt8)
}

func (v Value) IsUint8() bool { return v.fitsInt(0, math.MaxUint8, 0, math.MaxUint8) }

func (v Value) IsInt16() bool {
	return v.fitsInt(math.MinInt16, math.MaxInt16, math.MinInt16, math.MaxInt16)
}

func (v Value) IsUint16() bool { return v.fitsInt(0, math.MaxUint16, 0, math.MaxUint16) }

func (v Value) IsInt32() bool {
	return v.fitsInt(math.MinInt32, math.MaxInt32, math.MinInt32, math.MaxInt32)
}

func (v Value) IsUint32() bool { return v.fitsInt(0, math.MaxUint32, 0, math.MaxUint32) }

// IsInt64 accepts any integer, or an integral float within int64 range.
func (v Value) IsInt64() bool {
	return v.fitsInt(math.MinInt64, math.MaxInt64, math.MinInt64, math.MaxInt64)
}

// IsUint64 accepts any integer, so that literals such as
// 0xffffffffffffffff (held as -1) can initialise uint64 fields.
func (v Value) IsUint64() bool {
	return v.fitsInt(0, math.MaxUint64, math.MinInt64, math.MaxInt64)
}

func (v Value) IsFloat32() bool {
	return v.IsNumber() && math.Abs(v.GetFloat()) <= math.MaxFloat32
}

func (v Value) IsFloat64() bool {
	return v.Kind == FloatValue || v.Kind == IntValue
}

// Fits reports whether v can be stored in a field of numeric type t.
func (v Value) Fits(t ddl.Type) bool {
	switch t {
	case ddl.Uint8:
		return v.IsUint8()
	case ddl.Uint16:
		return v.IsUint16()
	case ddl.Uint32:
		return v.IsUint32()
	case ddl.Uint64, ddl.Tuid:
		return v.IsUint64()
	case ddl.Int8:
		return v.IsInt8()
	case ddl.Int16:
		return v.IsInt16()
	case ddl.Int32:
		return v.IsInt32()
	case ddl.Int64, ddl.Boolean:
		return v.IsInt64()
	case ddl.Float32:
		return v.IsFloat32()
	case ddl.Float64:
		return v.IsFloat64()
	}
	return false
}

func (v Value) truth() bool {
	if v.Kind == FloatValue {
		return v.Float != 0
	}
	return v.Int != 0
}

func both(a, b Value) bool { return a.Valid && b.Valid }

func (v Value) LogicalOr(o Value) Value {
	if !v.IsNumber() || !o.IsNumber() {
		return invalid
	}
	return boolOf(v.truth() || o.truth(), both(v, o))
}

func (v Value) LogicalAnd(o Value) Value {
	if !v.IsNumber() || !o.IsNumber() {
		return invalid
	}
	return boolOf(v.truth() && o.truth(), both(v, o))
}

func (v Value) intOp(o Value, fn func(a, b int64) int64) Value {
	if v.Kind != IntValue || o.Kind != IntValue {
		return invalid
	}
	return Value{Kind: IntValue, Int: fn(v.Int, o.Int), Valid: both(v, o)}
}

func (v Value) BitOr(o Value) Value  { return v.intOp(o, func(a, b int64) int64 { return a | b }) }
func (v Value) BitXor(o Value) Value { return v.intOp(o, func(a, b int64) int64 { return a ^ b }) }
func (v Value) BitAnd(o Value) Value { return v.intOp(o, func(a, b int64) int64 { return a & b }) }

// Shl shifts left. Counts of 64 or more yield 0; negative counts are invalid.
func (v Value) Shl(o Value) Value {
	if o.Kind == IntValue && o.Int < 0 {
		return invalid
	}
	return v.intOp(o, func(a, b int64) int64 {
		if b >= 64 {
			return 0
		}
		return a << uint(b)
	})
}

// Shr is an arithmetic right shift with the same count rules as Shl.
func (v Value) Shr(o Value) Value {
	if o.Kind == IntValue && o.Int < 0 {
		return invalid
	}
	return v.intOp(o, func(a, b int64) int64 {
		if b >= 64 {
			return 0
		}
		return a >> uint(b)
	})
}

func (v Value) Eq(o Value) Value {
	switch {
	case v.Kind == IntValue && o.Kind == IntValue:
		return boolOf(v.Int == o.Int, both(v, o))
	case v.IsString() && o.IsString():
		return boolOf(v.Str == o.Str, both(v, o))
	case v.IsNumber() && o.IsNumber():
		return boolOf(v.GetFloat() == o.GetFloat(), both(v, o))
	}
	return invalid
}

func (v Value) Ne(o Value) Value { return v.Eq(o).Not() }

func (v Value) Lt(o Value) Value {
	switch {
	case v.Kind == IntValue && o.Kind == IntValue:
		return boolOf(v.Int < o.Int, both(v, o))
	case v.IsNumber() && o.IsNumber():
		return boolOf(v.GetFloat() < o.GetFloat(), both(v, o))
	}
	return invalid
}

func (v Value) Le(o Value) Value { return v.Lt(o).LogicalOr(v.Eq(o)) }
func (v Value) Gt(o Value) Value { return v.Le(o).Not() }
func (v Value) Ge(o Value) Value { return v.Lt(o).Not() }

func (v Value) arith(o Value, i func(a, b int64) (int64, bool), f func(a, b float64) float64) Value {
	switch {
	case v.Kind == IntValue && o.Kind == IntValue:
		r, ok := i(v.Int, o.Int)
		if !ok {
			return invalid
		}
		return Value{Kind: IntValue, Int: r, Valid: both(v, o)}
	case v.IsNumber() && o.IsNumber():
		return Value{Kind: FloatValue, Float: f(v.GetFloat(), o.GetFloat()), Valid: both(v, o)}
	}
	return invalid
}

func (v Value) Add(o Value) Value {
	return v.arith(o, func(a, b int64) (int64, bool) { return a + b, true },
		func(a, b float64) float64 { return a + b })
}

func (v Value) Sub(o Value) Value {
	return v.arith(o, func(a, b int64) (int64, bool) { return a - b, true },
		func(a, b float64) float64 { return a - b })
}

func (v Value) Mul(o Value) Value {
	return v.arith(o, func(a, b int64) (int64, bool) { return a * b, true },
		func(a, b float64) float64 { return a * b })
}

// Div divides. Integer division by zero is invalid.
func (v Value) Div(o Value) Value {
	return v.arith(o, func(a, b int64) (int64, bool) {
		if b == 0 {
			return 0, false
		}
		return a / b, true
	}, func(a, b float64) float64 { return a / b })
}

// Mod is the remainder. Integer modulo by zero is invalid.
func (v Value) Mod(o Value) Value {
	return v.arith(o, func(a, b int64) (int64, bool) {
		if b == 0 {
			return 0, false
		}
		return a % b, true
	}, math.Mod)
}

func (v Value) Neg() Value {
	switch v.Kind {
	case IntValue:
		return Value{Kind: IntValue, Int: -v.Int, Valid: v.Valid}
	case FloatValue:
		return Value{Kind: FloatValue, Float: -v.Float, Valid: v.Valid}
	}
	return invalid
}

// Complement is bitwise not.
func (v Value) Complement() Value {
	if v.Kind != IntValue {
		return invalid
	}
	return Value{Kind: IntValue, Int: ^v.Int, Valid: v.Valid}
}

// Not is logical not.
func (v Value) Not() Value {
	if !v.IsNumber() {
		return invalid
	}
	return boolOf(!v.truth(), v.Valid)
}

func (v Value) String() string {
	switch v.Kind {
	case IntValue:
		return strconv.FormatInt(v.Int, 10)
	case FloatValue:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	}
	return strconv.Quote(v.Str)
}
