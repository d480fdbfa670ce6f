package ddl

import (
	"bytes"
	"fmt"
)

// Verify walks every record of a blob and checks that each relative pointer
// resolves inside the blob and that each record fits.
func Verify(b []byte) error { return walk(b, nil) }

// Pointers verifies b and returns the offset of every non-null relative
// pointer stored in it.
func Pointers(b []byte) ([]uint32, error) {
	var slots []uint32
	if err := walk(b, func(slot uint32) { slots = append(slots, slot) }); err != nil {
		return nil, err
	}
	return slots, nil
}

func walk(b []byte, visit func(slot uint32)) error {
	d, err := FromBytes(b)
	if err != nil {
		return err
	}
	v := verifier{b: b[:d.TotalSize()], visit: visit}
	if err := v.need(0, DefinitionSize+d.NumAggregates()*PointerSize); err != nil {
		return err
	}
	for i := range d.NumAggregates() {
		p, err := v.target(DefAggregates+i*PointerSize, AggregateSize)
		if err != nil {
			return fmt.Errorf("aggregate %d: %w", i, err)
		}
		if err := v.aggregate(p); err != nil {
			return fmt.Errorf("aggregate %d: %w", i, err)
		}
	}
	return nil
}

type verifier struct {
	b     []byte
	visit func(slot uint32)
}

func (v verifier) need(off, size uint32) error {
	if uint64(off)+uint64(size) > uint64(len(v.b)) {
		return fmt.Errorf("%w: record [%d, +%d) past end %d", ErrCorrupt, off, size, len(v.b))
	}
	return nil
}

// target resolves the pointer at slot, which must not be null.
func (v verifier) target(slot, size uint32) (uint32, error) {
	p, ok, err := v.optional(slot, size)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: null pointer at %d", ErrCorrupt, slot)
	}
	return p, nil
}

func (v verifier) optional(slot, size uint32) (uint32, bool, error) {
	if err := v.need(slot, PointerSize); err != nil {
		return 0, false, err
	}
	p, ok := resolve(v.b, slot)
	if !ok {
		return 0, false, nil
	}
	if err := v.need(p, size); err != nil {
		return 0, false, fmt.Errorf("pointer at %d: %w", slot, err)
	}
	if v.visit != nil {
		v.visit(slot)
	}
	return p, true, nil
}

func (v verifier) str(slot uint32) error {
	p, ok, err := v.optional(slot, 1)
	if err != nil || !ok {
		return err
	}
	if bytes.IndexByte(v.b[p:], 0) < 0 {
		return fmt.Errorf("%w: unterminated string at %d", ErrCorrupt, p)
	}
	return nil
}

func (v verifier) strs(slots ...uint32) error {
	for _, s := range slots {
		if err := v.str(s); err != nil {
			return err
		}
	}
	return nil
}

func (v verifier) aggregate(p uint32) error {
	if err := v.strs(p+AggName, p+AggAuthor, p+AggDescription, p+AggLabel); err != nil {
		return err
	}
	a := newAggregate(view{b: v.b, off: p})
	switch a.Type() {
	case Select:
		if err := v.need(p, SelectSize+a.u32(SelNumItems)*PointerSize); err != nil {
			return err
		}
		for i := range a.u32(SelNumItems) {
			item, err := v.target(p+SelItems+i*PointerSize, SelectItemSize)
			if err != nil {
				return err
			}
			if err := v.strs(item+ItemName, item+ItemAuthor, item+ItemDescription, item+ItemLabel); err != nil {
				return err
			}
			if err := v.tags(item + ItemTags); err != nil {
				return err
			}
		}
		return v.tags(p + SelTags)
	case Bitfield:
		n := a.u32(BfNumFlags)
		if err := v.need(p, BitfieldSize+n*PointerSize); err != nil {
			return err
		}
		for i := range n {
			flag, err := v.target(p+BfFlags+i*PointerSize, BitfieldFlagSize)
			if err != nil {
				return err
			}
			if err := v.strs(flag+FlagName, flag+FlagAuthor, flag+FlagDescription, flag+FlagLabel); err != nil {
				return err
			}
			fv, ok, err := v.optional(flag+FlagValue, FlagValueHdrSize)
			if err != nil {
				return err
			}
			if ok {
				if err := v.need(fv, FlagValueHdrSize+le.Uint32(v.b[fv+FlagValueCount:])*4); err != nil {
					return err
				}
			}
			if err := v.tags(flag + FlagTags); err != nil {
				return err
			}
		}
		return v.tags(p + BfTags)
	case Struct:
		n := a.u32(StNumFields)
		if err := v.need(p, StructSize+n*PointerSize); err != nil {
			return err
		}
		if _, _, err := v.optional(p+StParent, StructSize); err != nil {
			return err
		}
		if _, err := v.target(p+StDefinition, DefinitionSize); err != nil {
			return err
		}
		for i := range n {
			field, err := v.target(p+StFields+i*PointerSize, StructFieldSize)
			if err != nil {
				return err
			}
			if err := v.strs(field+FieldName, field+FieldAuthor, field+FieldDescription, field+FieldLabel); err != nil {
				return err
			}
			if err := v.valueInfo(field + FieldValueInfo); err != nil {
				return err
			}
		}
		return v.tags(p + StTags)
	}
	return fmt.Errorf("%w: unknown aggregate type %d", ErrCorrupt, a.Type())
}

func (v verifier) valueInfo(p uint32) error {
	vi := ValueInfo{view{b: v.b, off: p}}
	if err := v.tags(p + VITags); err != nil {
		return err
	}
	n := vi.Count()
	val, ok, err := v.optional(p+VIValue, n*vi.Type().Size())
	if err != nil || !ok {
		return err
	}
	for i := range n {
		slot := val + i*vi.Type().Size()
		switch vi.Type() {
		case String, File, Json:
			err = v.str(slot)
		case Bitfield:
			var bv uint32
			if bv, ok, err = v.optional(slot, BfvHdrSize); err == nil && ok {
				err = v.need(bv, BfvHdrSize+le.Uint32(v.b[bv+BfvCount:])*4)
			}
		case Struct:
			var sv uint32
			if sv, ok, err = v.optional(slot, SvHdrSize); err == nil && ok {
				count := le.Uint32(v.b[sv+SvCount:])
				if err = v.need(sv, SvHdrSize+count*ValueInfoSize); err == nil {
					for j := range count {
						if err = v.valueInfo(sv + SvValues + j*ValueInfoSize); err != nil {
							break
						}
					}
				}
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (v verifier) tags(slot uint32) error {
	for steps := 0; ; steps++ {
		if steps > len(v.b)/TagHdrLen {
			return fmt.Errorf("%w: tag chain loops at %d", ErrCorrupt, slot)
		}
		p, ok, err := v.optional(slot, TagHdrLen)
		if err != nil || !ok {
			return err
		}
		if err := v.tag(p); err != nil {
			return err
		}
		slot = p + TagNext
	}
}

func (v verifier) tag(p uint32) error {
	switch TagType(le.Uint32(v.b[p+TagKind:])) {
	case TagExtensions, TagVaultHints:
		if err := v.need(p, ListHdrSize); err != nil {
			return err
		}
		n := le.Uint32(v.b[p+ListCount:])
		if err := v.need(p, ListHdrSize+n*PointerSize); err != nil {
			return err
		}
		for i := range n {
			if err := v.str(p + ListStrings + i*PointerSize); err != nil {
				return err
			}
		}
	case TagUIRange:
		return v.need(p, RangeSize)
	case TagUIRender, TagVersion, TagCallback, TagKey, TagUnits:
		if err := v.need(p, TextSize); err != nil {
			return err
		}
		return v.str(p + TextValue)
	case TagParallel:
		if err := v.need(p, ParallelSize); err != nil {
			return err
		}
		_, err := v.target(p+ParallelField, StructFieldSize)
		return err
	case TagAbstract:
	case TagGeneric:
		if err := v.need(p, GenericSize); err != nil {
			return err
		}
		if err := v.str(p + GenName); err != nil {
			return err
		}
		n := le.Uint32(v.b[p+GenNumValues:])
		if err := v.need(p, GenericSize+n*GenValueSize); err != nil {
			return err
		}
		for i := range n {
			val := p + GenValues + i*GenValueSize
			if Type(le.Uint32(v.b[val+GenValType:])) == String {
				if err := v.str(val + GenValValue); err != nil {
					return err
				}
			}
		}
	default:
		return fmt.Errorf("%w: unknown tag type at %d", ErrCorrupt, p)
	}
	return nil
}
