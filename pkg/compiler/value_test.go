package compiler

import (
	"math"
	"testing"

	"ddlc/pkg/ddl"
)

func TestValueArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		got      Value
		expected Value
	}{
		{"Int Add", IntOf(2).Add(IntOf(3)), IntOf(5)},
		{"Int Sub", IntOf(2).Sub(IntOf(3)), IntOf(-1)},
		{"Int Mul", IntOf(-4).Mul(IntOf(3)), IntOf(-12)},
		{"Int Div Truncates", IntOf(7).Div(IntOf(2)), IntOf(3)},
		{"Int Mod", IntOf(7).Mod(IntOf(4)), IntOf(3)},
		{"Promote Add", IntOf(1).Add(FloatOf(0.5)), FloatOf(1.5)},
		{"Promote Div", FloatOf(7).Div(IntOf(2)), FloatOf(3.5)},
		{"Float Mod", FloatOf(7.5).Mod(IntOf(2)), FloatOf(1.5)},
		{"Shl", IntOf(1).Shl(IntOf(4)), IntOf(16)},
		{"Shl Wide", IntOf(1).Shl(IntOf(64)), IntOf(0)},
		{"Shr Arithmetic", IntOf(-8).Shr(IntOf(1)), IntOf(-4)},
		{"BitOr", IntOf(0x10).BitOr(IntOf(1)), IntOf(0x11)},
		{"BitXor", IntOf(6).BitXor(IntOf(3)), IntOf(5)},
		{"BitAnd", IntOf(6).BitAnd(IntOf(3)), IntOf(2)},
		{"Complement", IntOf(0).Complement(), IntOf(-1)},
		{"Neg Float", FloatOf(2.5).Neg(), FloatOf(-2.5)},
		{"Not", IntOf(0).Not(), IntOf(1)},
		{"Eq Mixed", IntOf(2).Eq(FloatOf(2)), IntOf(1)},
		{"Eq Strings", StringOf("a").Eq(StringOf("a")), IntOf(1)},
		{"Ne Strings", StringOf("a").Ne(StringOf("b")), IntOf(1)},
		{"Lt", IntOf(1).Lt(IntOf(2)), IntOf(1)},
		{"Le Equal", IntOf(2).Le(IntOf(2)), IntOf(1)},
		{"Gt", FloatOf(2.5).Gt(IntOf(2)), IntOf(1)},
		{"Ge", IntOf(1).Ge(IntOf(2)), IntOf(0)},
		{"LogicalAnd", IntOf(3).LogicalAnd(FloatOf(0)), IntOf(0)},
		{"LogicalOr", IntOf(0).LogicalOr(IntOf(9)), IntOf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, tt.got)
			}
		})
	}
}

func TestValueInvalid(t *testing.T) {
	tests := []struct {
		name string
		got  Value
	}{
		{"String Add", StringOf("a").Add(IntOf(1))},
		{"String Lt", StringOf("a").Lt(StringOf("b"))},
		{"String Neg", StringOf("a").Neg()},
		{"String Eq Int", StringOf("1").Eq(IntOf(1))},
		{"Float BitOr", FloatOf(1).BitOr(IntOf(1))},
		{"Float Complement", FloatOf(1).Complement()},
		{"Div Zero", IntOf(1).Div(IntOf(0))},
		{"Mod Zero", IntOf(1).Mod(IntOf(0))},
		{"Negative Shift", IntOf(1).Shl(IntOf(-1))},
		{"Poisoned Operand", invalid.Add(IntOf(1))},
		{"Poisoned Compare", IntOf(1).Ge(invalid)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.Valid {
				t.Errorf("expected invalid value, got %+v", tt.got)
			}
		})
	}
}

func TestValueFits(t *testing.T) {
	tests := []struct {
		name     string
		v        Value
		typ      ddl.Type
		expected bool
	}{
		{"Uint8 Max", IntOf(255), ddl.Uint8, true},
		{"Uint8 Over", IntOf(256), ddl.Uint8, false},
		{"Uint8 Negative", IntOf(-1), ddl.Uint8, false},
		{"Int8 Min", IntOf(-128), ddl.Int8, true},
		{"Int8 Under", IntOf(-129), ddl.Int8, false},
		{"Uint16 Integral Float", FloatOf(65535), ddl.Uint16, true},
		{"Int16 Fractional", FloatOf(1.5), ddl.Int16, false},
		{"Uint32 Max", IntOf(math.MaxUint32), ddl.Uint32, true},
		{"Int32 Over", IntOf(math.MaxInt32 + 1), ddl.Int32, false},
		{"Uint64 All Ones", IntOf(-1), ddl.Uint64, true},
		{"Tuid", IntOf(42), ddl.Tuid, true},
		{"Int64", IntOf(math.MinInt64), ddl.Int64, true},
		{"Float32", FloatOf(3.5), ddl.Float32, true},
		{"Float32 Over", FloatOf(math.MaxFloat64), ddl.Float32, false},
		{"Float64 From Int", IntOf(3), ddl.Float64, true},
		{"String Never Numeric", StringOf("1"), ddl.Int32, false},
		{"Boolean", IntOf(1), ddl.Boolean, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Fits(tt.typ); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestValueString(t *testing.T) {
	if got := IntOf(-3).String(); got != "-3" {
		t.Errorf("expected -3, got %s", got)
	}
	if got := FloatOf(0.25).String(); got != "0.25" {
		t.Errorf("expected 0.25, got %s", got)
	}
	if got := StringOf("a\"b").String(); got != `"a\"b"` {
		t.Errorf("expected quoted string, got %s", got)
	}
	if StringOf("x").Hash() != ddl.Hash("x") {
		t.Error("expected string hash to match ddl.Hash")
	}
}
