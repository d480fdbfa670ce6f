package compiler

import (
	"fmt"
	"slices"

	"ddlc/pkg/ddl"
)

// OwnerKind is the kind of declaration a generic tag is attached to.
type OwnerKind int

const (
	OwnerStruct OwnerKind = iota
	OwnerField
	OwnerSelect
	OwnerItem
	OwnerBitfield
	OwnerFlag
)

var ownerNames = [...]string{
	OwnerStruct:   "struct",
	OwnerField:    "field",
	OwnerSelect:   "select",
	OwnerItem:     "item",
	OwnerBitfield: "bitfield",
	OwnerFlag:     "flag",
}

func (k OwnerKind) String() string {
	if int(k) >= 0 && int(k) < len(ownerNames) {
		return ownerNames[k]
	}
	return fmt.Sprintf("OwnerKind(%d)", int(k))
}

// ParseOwnerKind is the inverse of OwnerKind.String.
func ParseOwnerKind(s string) (OwnerKind, bool) {
	for k, name := range ownerNames {
		if name == s {
			return OwnerKind(k), true
		}
	}
	return 0, false
}

// Owner is the declaration a generic tag belongs to. Aggregate is always the
// enclosing select, bitfield or struct; Item, Flag and Field are set only for
// the matching Kind.
type Owner struct {
	Kind      OwnerKind
	Aggregate ddl.Aggregate
	Item      ddl.SelectItem
	Flag      ddl.BitfieldFlag
	Field     ddl.StructField
}

// Name returns the name of the tagged declaration.
func (o Owner) Name() string {
	switch o.Kind {
	case OwnerItem:
		return o.Item.Name()
	case OwnerFlag:
		return o.Flag.Name()
	case OwnerField:
		return o.Field.Name()
	}
	return o.Aggregate.Name()
}

// TagSet is the set of info keywords already used on an owner.
type TagSet struct{ bits [2]uint64 }

func (s *TagSet) add(tt TokenType) { s.bits[tt/64] |= 1 << (tt % 64) }

// Contains reports whether the info keyword tt was used.
func (s TagSet) Contains(tt TokenType) bool { return s.bits[tt/64]&(1<<(tt%64)) != 0 }

// TagValidator checks every generic tag(...) clause as it is parsed. A non-nil
// error aborts the compilation and its text becomes the diagnostic.
//
// The definition passed in is still being built: the owner and everything
// declared before it are readable, later declarations are not.
type TagValidator interface {
	ValidateTag(def ddl.Definition, owner Owner, tag ddl.GenericTag, seen TagSet) error
}

// TagValidatorFunc adapts a function to TagValidator.
type TagValidatorFunc func(def ddl.Definition, owner Owner, tag ddl.GenericTag, seen TagSet) error

func (f TagValidatorFunc) ValidateTag(def ddl.Definition, owner Owner, tag ddl.GenericTag, seen TagSet) error {
	return f(def, owner, tag, seen)
}

// AllowedTags accepts only the listed tag names for each owner kind. Kinds
// without an entry accept any name.
type AllowedTags map[OwnerKind][]string

func (a AllowedTags) ValidateTag(_ ddl.Definition, owner Owner, tag ddl.GenericTag, _ TagSet) error {
	names, ok := a[owner.Kind]
	if !ok || slices.Contains(names, tag.Name()) {
		return nil
	}
	return fmt.Errorf("tag %q is not allowed on %s %q", tag.Name(), owner.Kind, owner.Name())
}

// Validators runs each validator in turn and stops at the first rejection.
type Validators []TagValidator

func (vs Validators) ValidateTag(def ddl.Definition, owner Owner, tag ddl.GenericTag, seen TagSet) error {
	for _, v := range vs {
		if err := v.ValidateTag(def, owner, tag, seen); err != nil {
			return err
		}
	}
	return nil
}
