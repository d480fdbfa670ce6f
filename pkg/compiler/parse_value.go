package compiler

import (
	"encoding/json"
	"path"
	"strings"

	"ddlc/pkg/area"
	"ddlc/pkg/ddl"
)

// parseDefault parses the argument of value(...) for the value info at vi.
// Scalars take a single element, fixed arrays a braced list of exactly
// Count elements.
//
// The elements are written contiguously to a new area after elems. Records
// they point to (bitfield flag sets, struct values) go to a second area
// after that one so they never split the element array. Both are merged into
// elems when done.
func (p *Parser) parseDefault(vi area.Ptr, elems *area.Area, strs *area.StringArea) error {
	typ := ddl.Type(vi.Add(ddl.VIType).Uint32())
	typeHash := vi.Add(ddl.VITypeNameHash).Uint32()
	shape := ddl.ArrayType(vi.Add(ddl.VIArrayType).Uint32())
	want := uint32(1)
	if shape == ddl.Fixed {
		want = vi.Add(ddl.VICount).Uint32()
	}

	payload, err := elems.NewArea()
	if err != nil {
		return err
	}
	var nested *area.Area
	if typ == ddl.Bitfield || typ == ddl.Struct {
		if nested, err = payload.NewArea(); err != nil {
			return err
		}
	}

	open := p.peek()
	list := shape != ddl.Scalar
	if list {
		if _, err := p.expect(LBRACE); err != nil {
			return err
		}
	}
	var n uint32
	for {
		el, err := p.parseElement(typ, typeHash, payload, nested, strs)
		if err != nil {
			return err
		}
		if n == 0 {
			vi.Add(ddl.VIValue).SetRel(el)
		}
		n++
		if !list || p.peek().Type != COMMA {
			break
		}
		p.advance()
	}
	if list {
		if _, err := p.expect(RBRACE); err != nil {
			return err
		}
	}
	if n != want {
		return p.fmtError(ErrCount, open, "expected %d values, got %d", want, n)
	}

	if nested != nil {
		payload.Merge()
	}
	elems.Merge()
	return nil
}

// parseElement writes one default element of type typ to payload.
func (p *Parser) parseElement(typ ddl.Type, typeHash uint32, payload, nested *area.Area, strs *area.StringArea) (area.Ptr, error) {
	switch typ {
	case ddl.String, ddl.File, ddl.Json:
		return p.parseStringElement(typ, payload, strs)
	case ddl.Select:
		return p.parseSelectElement(typeHash, payload)
	case ddl.Bitfield:
		return p.parseBitfieldElement(typeHash, payload, nested)
	case ddl.Struct:
		return p.parseStructElement(typeHash, payload, nested, strs)
	}

	v, at, err := p.evaluate()
	if err != nil {
		return area.Ptr{}, err
	}
	if !v.IsNumber() {
		return area.Ptr{}, p.fmtError(ErrTypeMismatch, at, "%s value expected, got %s", typ, v)
	}
	if !v.Fits(typ) {
		return area.Ptr{}, p.fmtError(ErrOutOfRange, at, "value %s does not fit in %s", v, typ)
	}
	if err := payload.Align(typ.Align()); err != nil {
		return area.Ptr{}, err
	}
	el, err := alloc(payload, typ.Size())
	if err != nil {
		return area.Ptr{}, err
	}
	switch typ {
	case ddl.Float32:
		el.PutFloat32(float32(v.GetFloat()))
	case ddl.Float64:
		el.PutFloat64(v.GetFloat())
	case ddl.Boolean:
		if v.truth() {
			el.PutUint8(1)
		}
	default:
		switch typ.Size() {
		case 1:
			el.PutUint8(uint8(v.GetInt()))
		case 2:
			el.PutUint16(uint16(v.GetInt()))
		case 4:
			el.PutUint32(uint32(v.GetInt()))
		default:
			el.PutUint64(uint64(v.GetInt()))
		}
	}
	return el, nil
}

func (p *Parser) parseStringElement(typ ddl.Type, payload *area.Area, strs *area.StringArea) (area.Ptr, error) {
	v, at, err := p.evaluate()
	if err != nil {
		return area.Ptr{}, err
	}
	if !v.IsString() {
		return area.Ptr{}, p.fmtError(ErrTypeMismatch, at, "%s value expected, got %s", typ, v)
	}
	s := v.Str
	switch typ {
	case ddl.File:
		s = cleanPath(s)
	case ddl.Json:
		if !json.Valid([]byte(s)) {
			return area.Ptr{}, p.fmtError(ErrInvalidDefault, at, "invalid JSON default value")
		}
	}
	if err := payload.Align(4); err != nil {
		return area.Ptr{}, err
	}
	el, err := alloc(payload, ddl.PointerSize, 0)
	if err != nil {
		return area.Ptr{}, err
	}
	return el, putString(el, strs, s)
}

// cleanPath normalises a file default to forward slashes.
func cleanPath(s string) string {
	if s == "" {
		return s
	}
	return path.Clean(strings.ReplaceAll(s, `\`, "/"))
}

func (p *Parser) parseSelectElement(typeHash uint32, payload *area.Area) (area.Ptr, error) {
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return area.Ptr{}, err
	}
	agg, _ := p.def().FindAggregateHash(typeHash)
	sel, _ := agg.Select()
	item, ok := sel.FindItem(name.Lexeme)
	if !ok {
		return area.Ptr{}, p.fmtError(ErrUnknownIdentifier, name, "select %q has no item %q", sel.Name(), name.Lexeme)
	}
	if err := payload.Align(4); err != nil {
		return area.Ptr{}, err
	}
	el, err := alloc(payload, 4)
	if err != nil {
		return area.Ptr{}, err
	}
	el.PutUint32(item.NameHash())
	return el, nil
}

// parseBitfieldElement parses a flag set such as a|b into a record in nested.
func (p *Parser) parseBitfieldElement(typeHash uint32, payload, nested *area.Area) (area.Ptr, error) {
	if err := payload.Align(4); err != nil {
		return area.Ptr{}, err
	}
	el, err := alloc(payload, ddl.PointerSize, 0)
	if err != nil {
		return area.Ptr{}, err
	}
	if err := nested.Align(4); err != nil {
		return area.Ptr{}, err
	}
	rec, err := alloc(nested, ddl.BfvHdrSize)
	if err != nil {
		return area.Ptr{}, err
	}
	var n uint32
	for {
		name, err := p.expect(IDENTIFIER)
		if err != nil {
			return area.Ptr{}, err
		}
		agg, _ := p.def().FindAggregateHash(typeHash)
		bf, _ := agg.Bitfield()
		flag, ok := bf.FindFlag(name.Lexeme)
		if !ok {
			return area.Ptr{}, p.fmtError(ErrUnknownIdentifier, name, "bitfield %q has no flag %q", bf.Name(), name.Lexeme)
		}
		hash := flag.NameHash()
		slot, err := alloc(nested, 4)
		if err != nil {
			return area.Ptr{}, err
		}
		slot.PutUint32(hash)
		n++
		if p.peek().Type != PIPE {
			break
		}
		p.advance()
	}
	rec.Add(ddl.BfvSize).PutUint32(ddl.BfvHdrSize + n*4)
	rec.Add(ddl.BfvCount).PutUint32(n)
	el.SetRel(rec)
	return el, nil
}

// parseStructElement parses { name = value, ... } for a struct-typed field.
// Each assigned field gets a copy of its value info, with its own default,
// in a record in nested.
func (p *Parser) parseStructElement(typeHash uint32, payload, nested *area.Area, strs *area.StringArea) (area.Ptr, error) {
	if err := payload.Align(4); err != nil {
		return area.Ptr{}, err
	}
	el, err := alloc(payload, ddl.PointerSize, 0)
	if err != nil {
		return area.Ptr{}, err
	}
	if _, err := p.expect(LBRACE); err != nil {
		return area.Ptr{}, err
	}
	if err := nested.Align(4); err != nil {
		return area.Ptr{}, err
	}
	rec, err := alloc(nested, ddl.SvHdrSize)
	if err != nil {
		return area.Ptr{}, err
	}
	inner, err := nested.NewArea()
	if err != nil {
		return area.Ptr{}, err
	}

	var assigned []uint32
	for p.peek().Type != RBRACE {
		name, err := p.expect(IDENTIFIER)
		if err != nil {
			return area.Ptr{}, err
		}
		agg, _ := p.def().FindAggregateHash(typeHash)
		st, _ := agg.Struct()
		f, ok := st.FindField(name.Lexeme)
		if !ok {
			return area.Ptr{}, p.fmtError(ErrUnknownIdentifier, name, "struct %q has no field %q", st.Name(), name.Lexeme)
		}
		hash := f.ValueInfo().NameHash()
		for _, h := range assigned {
			if h == hash {
				return area.Ptr{}, p.fmtError(ErrDuplicate, name, "field %q assigned twice", name.Lexeme)
			}
		}
		assigned = append(assigned, hash)
		if at := f.ValueInfo().ArrayType(); at == ddl.Dynamic || at == ddl.Hashmap {
			return area.Ptr{}, p.fmtError(ErrInvalidDefault, name, "%s arrays cannot have a default value", at)
		}
		src := f.ValueInfo().Offset()

		vi, err := alloc(nested, ddl.ValueInfoSize, ddl.VIValue, ddl.VITags)
		if err != nil {
			return area.Ptr{}, err
		}
		var copied [ddl.ValueInfoSize]byte
		copy(copied[:], p.mgr.Bytes()[src:src+ddl.ValueInfoSize])
		vi.PutBytes(copied[:])
		vi.Add(ddl.VIValue).PutUint32(0)
		vi.Add(ddl.VITags).PutUint32(0)

		if _, err := p.expect(ASSIGN); err != nil {
			return area.Ptr{}, err
		}
		if err := p.parseDefault(vi, inner, strs); err != nil {
			return area.Ptr{}, err
		}
		if p.peek().Type != COMMA {
			break
		}
		p.advance()
	}
	if _, err := p.expect(RBRACE); err != nil {
		return area.Ptr{}, err
	}
	n := uint32(len(assigned))
	rec.Add(ddl.SvSize).PutUint32(ddl.SvHdrSize + n*ddl.ValueInfoSize)
	rec.Add(ddl.SvCount).PutUint32(n)
	el.SetRel(rec)
	nested.Merge()
	return el, nil
}
