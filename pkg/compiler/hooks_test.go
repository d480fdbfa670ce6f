package compiler

import (
	"errors"
	"strings"
	"testing"

	"ddlc/pkg/ddl"
)

type seenTag struct {
	kind      OwnerKind
	owner     string
	aggregate string
	tag       string
	values    uint32
}

func TestValidatorOwners(t *testing.T) {
	var got []seenTag
	v := TagValidatorFunc(func(_ ddl.Definition, owner Owner, tag ddl.GenericTag, _ TagSet) error {
		got = append(got, seenTag{owner.Kind, owner.Name(), owner.Aggregate.Name(), tag.Name(), tag.NumValues()})
		return nil
	})
	src := `
select Sel, tag(s1) { item, tag(i1, 1); }
bitfield Bf, tag(b1, "x", 2) { flag, tag(f1); }
struct St, tag(st1) { int32 fld, tag(fd1, 1.5); }
`
	if _, err := compileSource(t, src, Options{Validator: v}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []seenTag{
		{OwnerSelect, "Sel", "Sel", "s1", 0},
		{OwnerItem, "item", "Sel", "i1", 1},
		{OwnerBitfield, "Bf", "Bf", "b1", 2},
		{OwnerFlag, "flag", "Bf", "f1", 0},
		{OwnerStruct, "St", "St", "st1", 0},
		{OwnerField, "fld", "St", "fd1", 1},
	}
	if len(got) != len(expected) {
		t.Fatalf("expected %d validations, got %d: %+v", len(expected), len(got), got)
	}
	for i, want := range expected {
		if got[i] != want {
			t.Errorf("validation %d: expected %+v, got %+v", i, want, got[i])
		}
	}
}

func TestValidatorSeenTags(t *testing.T) {
	var seen TagSet
	v := TagValidatorFunc(func(_ ddl.Definition, _ Owner, _ ddl.GenericTag, s TagSet) error {
		seen = s
		return nil
	})
	src := `struct S { int32 x, range(0, 5), label("X"), tag(check); }`
	if _, err := compileSource(t, src, Options{Validator: v}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seen.Contains(RANGE) || !seen.Contains(LABEL) {
		t.Error("expected range and label to be reported as seen")
	}
	if seen.Contains(VALUE) || seen.Contains(TAG) {
		t.Error("expected value and tag not to be reported as seen")
	}
}

func TestValidatorRejects(t *testing.T) {
	v := TagValidatorFunc(func(_ ddl.Definition, owner Owner, tag ddl.GenericTag, _ TagSet) error {
		if tag.Name() == "forbidden" {
			return errors.New("forbidden tags are not allowed here")
		}
		return nil
	})
	src := "struct S\n{\n  int32 x, tag(fine);\n  int32 y, tag(forbidden);\n}"
	_, err := compileSource(t, src, Options{Validator: v})
	if !errors.Is(err, ErrTagRejected) {
		t.Fatalf("expected ErrTagRejected, got %v", err)
	}
	var e *Error
	errors.As(err, &e)
	if e.Line != 4 {
		t.Errorf("expected line 4, got %d", e.Line)
	}
	if e.Msg != "forbidden tags are not allowed here" {
		t.Errorf("expected the validator's message, got %q", e.Msg)
	}
}

func TestAllowedTags(t *testing.T) {
	allowed := AllowedTags{
		OwnerField: {"primary", "index"},
		OwnerItem:  {},
	}
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{name: "Allowed Field Tag", src: `struct S { int32 x, tag(primary), tag(index); }`},
		{name: "Unrestricted Kind", src: `struct S, tag(anything) { int32 x; }`},
		{
			name: "Rejected Field Tag",
			src:  `struct S { int32 x, tag(other); }`,
			msg:  `tag "other" is not allowed on field "x"`,
		},
		{
			name: "Empty List Rejects All",
			src:  `select S { a, tag(primary); }`,
			msg:  `tag "primary" is not allowed on item "a"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileSource(t, tt.src, Options{Validator: allowed})
			if tt.msg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrTagRejected) {
				t.Fatalf("expected ErrTagRejected, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("expected %q in %q", tt.msg, err.Error())
			}
		})
	}
}

func TestValidatorsChain(t *testing.T) {
	calls := 0
	count := TagValidatorFunc(func(ddl.Definition, Owner, ddl.GenericTag, TagSet) error {
		calls++
		return nil
	})
	chain := Validators{count, AllowedTags{OwnerStruct: {"ok"}}, count}

	if _, err := compileSource(t, `struct S, tag(ok) { int32 x; }`, Options{Validator: chain}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}

	calls = 0
	if _, err := compileSource(t, `struct S, tag(bad) { int32 x; }`, Options{Validator: chain}); !errors.Is(err, ErrTagRejected) {
		t.Fatalf("expected ErrTagRejected, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected the chain to stop at the rejection, got %d calls", calls)
	}
}

func TestOwnerKindNames(t *testing.T) {
	for k := OwnerStruct; k <= OwnerFlag; k++ {
		got, ok := ParseOwnerKind(k.String())
		if !ok || got != k {
			t.Errorf("expected %v to round trip, got %v", k, got)
		}
	}
	if _, ok := ParseOwnerKind("enum"); ok {
		t.Error("expected enum to be rejected")
	}
	if got := OwnerKind(42).String(); got != "OwnerKind(42)" {
		t.Errorf("expected OwnerKind(42), got %s", got)
	}
}
