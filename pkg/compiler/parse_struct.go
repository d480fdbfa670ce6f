package compiler

import (
	"ddlc/pkg/area"
	"ddlc/pkg/ddl"
)

var primitiveTypes = map[TokenType]ddl.Type{
	UINT8:   ddl.Uint8,
	UINT16:  ddl.Uint16,
	UINT32:  ddl.Uint32,
	UINT64:  ddl.Uint64,
	INT8:    ddl.Int8,
	INT16:   ddl.Int16,
	INT32:   ddl.Int32,
	INT64:   ddl.Int64,
	FLOAT32: ddl.Float32,
	FLOAT64: ddl.Float64,
	STRING:  ddl.String,
	BOOLEAN: ddl.Boolean,
	FILE:    ddl.File,
	TUID:    ddl.Tuid,
	JSON:    ddl.Json,
}

// keyTypes are the types a hashmap may be keyed by.
var keyTypes = map[TokenType]ddl.Type{
	UINT8:  ddl.Uint8,
	UINT16: ddl.Uint16,
	UINT32: ddl.Uint32,
	UINT64: ddl.Uint64,
	INT8:   ddl.Int8,
	INT16:  ddl.Int16,
	INT32:  ddl.Int32,
	INT64:  ddl.Int64,
	STRING: ddl.String,
	FILE:   ddl.File,
	TUID:   ddl.Tuid,
}

func (p *Parser) parseStruct() (area.Ptr, error) {
	p.advance()
	ar, err := p.aggregateAreas()
	if err != nil {
		return area.Ptr{}, err
	}
	st, err := p.newAggregate(ar, ddl.Struct, ddl.StructSize, ddl.StParent, ddl.StTags, ddl.StDefinition)
	if err != nil {
		return area.Ptr{}, err
	}
	st.Add(ddl.StDefinition).SetRel(p.header.Start())

	owner := func(d ddl.Definition) Owner {
		return Owner{Kind: OwnerStruct, Aggregate: d.AggregateAt(st.Abs())}
	}
	tags := st.Add(ddl.StTags)
	var seen TagSet
	err = p.parseAggregateInfo(st, ar.strs, &seen, func(tok Token) error {
		switch tok.Type {
		case BASE:
			return p.parseBase(st)
		case RENDER:
			return p.parseTextTag(ddl.TagUIRender, tags, ar.values, ar.strs)
		case VERSION:
			return p.parseTextTag(ddl.TagVersion, tags, ar.values, ar.strs)
		case CALLBACK:
			return p.parseTextTag(ddl.TagCallback, tags, ar.values, ar.strs)
		case KEY:
			return p.parseTextTag(ddl.TagKey, tags, ar.values, ar.strs)
		case TAG:
			return p.parseGenericTag(tags, ar.values, ar.strs, seen, owner)
		}
		return p.invalidInfo(tok)
	})
	if err != nil {
		return area.Ptr{}, err
	}

	if _, err := p.expect(LBRACE); err != nil {
		return area.Ptr{}, err
	}
	for {
		if err := p.parseField(st, ar); err != nil {
			return area.Ptr{}, err
		}
		if p.peek().Type == RBRACE {
			break
		}
	}
	if err := p.closeBody(); err != nil {
		return area.Ptr{}, err
	}
	return st, ar.fold()
}

// parseBase parses base(Name), linking the struct to a previously declared struct.
func (p *Parser) parseBase(st area.Ptr) error {
	p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return err
	}
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return err
	}
	agg, ok := p.def().FindAggregate(name.Lexeme)
	if !ok || agg.Type() != ddl.Struct {
		return p.fmtError(ErrUnknownIdentifier, name, "unknown struct %q", name.Lexeme)
	}
	st.Add(ddl.StParent).SetRelOffset(agg.Offset())
	_, err = p.expect(RPAREN)
	return err
}

func (p *Parser) structDecl(st area.Ptr) ddl.StructDecl {
	s, _ := p.aggregate(st).Struct()
	return s
}

// parseField parses one field declaration. A typedef name in type position
// is expanded by parsing the typedef's own tokens, including its info
// clauses, before the field's.
func (p *Parser) parseField(st area.Ptr, ar aggAreas) error {
	field, err := alloc(ar.members, ddl.StructFieldSize,
		ddl.FieldName, ddl.FieldAuthor, ddl.FieldDescription, ddl.FieldLabel,
		ddl.FieldValueInfo+ddl.VIValue, ddl.FieldValueInfo+ddl.VITags)
	if err != nil {
		return err
	}
	field.Add(ddl.FieldSize).PutUint32(ddl.StructFieldSize)
	vi := field.Add(ddl.FieldValueInfo)
	vi.Add(ddl.VISize).PutUint32(ddl.ValueInfoSize)

	typedefEnd := -1
	if tok := p.peek(); tok.Type == IDENTIFIER {
		if td, ok := p.syms.Typedef(tok.Lexeme); ok {
			resume := p.pos + 1
			p.pos = td.Start
			if err := p.parseFieldType(vi); err != nil {
				return err
			}
			typedefEnd = p.pos
			p.pos = resume
		}
	}
	if typedefEnd < 0 {
		if err := p.parseFieldType(vi); err != nil {
			return err
		}
	}

	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return err
	}
	hash := ddl.Hash(name.Lexeme)
	if _, dup := p.structDecl(st).FindFieldHash(hash); dup {
		return p.fmtError(ErrDuplicate, name, "duplicate field %q in struct %q", name.Lexeme, p.structDecl(st).Name())
	}
	vi.Add(ddl.VINameHash).PutUint32(hash)
	if err := putString(field.Add(ddl.FieldName), ar.strs, name.Lexeme); err != nil {
		return err
	}

	var seen TagSet
	if typedefEnd >= 0 && p.tokens[typedefEnd].Type == COMMA {
		resume := p.pos
		p.pos = typedefEnd + 1
		if err := p.parseFieldInfo(st, field, ar, &seen); err != nil {
			return err
		}
		p.pos = resume
	}
	if p.peek().Type == COMMA {
		p.advance()
		if err := p.parseFieldInfo(st, field, ar, &seen); err != nil {
			return err
		}
	}
	if err := p.checkDefaultRange(field, seen, name); err != nil {
		return err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return err
	}

	if err := appendPointer(ar.header, field); err != nil {
		return err
	}
	increment(st.Add(ddl.StNumFields))
	return nil
}

// parseFieldType parses a type and its optional array or hashmap suffix into vi.
func (p *Parser) parseFieldType(vi area.Ptr) error {
	tok := p.advance()
	typ, ok := primitiveTypes[tok.Type]
	if !ok {
		if tok.Type != IDENTIFIER {
			return p.fmtError(ErrSyntax, tok, "unexpected %s %q, expected a type", tok.Type, tok.Lexeme)
		}
		agg, found := p.def().FindAggregate(tok.Lexeme)
		if !found {
			return p.fmtError(ErrUnknownIdentifier, tok, "unknown type %q", tok.Lexeme)
		}
		typ = agg.Type()
	}
	vi.Add(ddl.VIType).PutUint32(uint32(typ))
	vi.Add(ddl.VITypeNameHash).PutUint32(ddl.Hash(tok.Lexeme))

	switch p.peek().Type {
	case LBRACKET:
		p.advance()
		if p.peek().Type == RBRACKET {
			p.advance()
			vi.Add(ddl.VIArrayType).PutUint32(uint32(ddl.Dynamic))
			return nil
		}
		size, at, err := p.evaluate()
		if err != nil {
			return err
		}
		if !size.IsUint32() {
			return p.fmtError(ErrTypeMismatch, at, "integer expression expected for array size")
		}
		if size.GetInt() == 0 {
			return p.fmtError(ErrOutOfRange, at, "array size is zero")
		}
		vi.Add(ddl.VIArrayType).PutUint32(uint32(ddl.Fixed))
		vi.Add(ddl.VICount).PutUint32(uint32(size.GetInt()))
		_, err = p.expect(RBRACKET)
		return err
	case LBRACE:
		p.advance()
		key := p.advance()
		kt, ok := keyTypes[key.Type]
		if !ok {
			return p.fmtError(ErrInvalidKey, key, "invalid hashmap key type %q", key.Lexeme)
		}
		vi.Add(ddl.VIArrayType).PutUint32(uint32(ddl.Hashmap))
		vi.Add(ddl.VIKeyType).PutUint32(uint32(kt))
		_, err := p.expect(RBRACE)
		return err
	}
	return nil
}

func (p *Parser) parseFieldInfo(st, field area.Ptr, ar aggAreas, seen *TagSet) error {
	vi := field.Add(ddl.FieldValueInfo)
	tags := vi.Add(ddl.VITags)
	typ := ddl.Type(vi.Add(ddl.VIType).Uint32())
	owner := func(d ddl.Definition) Owner {
		return Owner{Kind: OwnerField, Aggregate: d.AggregateAt(st.Abs()), Field: d.StructFieldAt(field.Abs())}
	}
	return p.parseInfoList(seen, func(tok Token) error {
		switch tok.Type {
		case AUTHOR:
			return p.parseText(field.Add(ddl.FieldAuthor), ar.strs)
		case DESCRIPTION:
			return p.parseText(field.Add(ddl.FieldDescription), ar.strs)
		case LABEL:
			return p.parseText(field.Add(ddl.FieldLabel), ar.strs)
		case VALUE:
			switch at := ddl.ArrayType(vi.Add(ddl.VIArrayType).Uint32()); at {
			case ddl.Dynamic, ddl.Hashmap:
				return p.fmtError(ErrInvalidDefault, tok, "%s arrays cannot have a default value", at)
			}
			p.advance()
			if _, err := p.expect(LPAREN); err != nil {
				return err
			}
			if err := p.parseDefault(vi, ar.values, ar.strs); err != nil {
				return err
			}
			_, err := p.expect(RPAREN)
			return err
		case EXTENSIONS, VAULTHINTS:
			if typ != ddl.File {
				return p.fmtError(ErrTypeMismatch, tok, "%s is only valid on file fields", tok.Lexeme)
			}
			kind := ddl.TagExtensions
			if tok.Type == VAULTHINTS {
				kind = ddl.TagVaultHints
			}
			return p.parseStringList(kind, tags, ar.values, ar.strs)
		case RANGE:
			if !typ.IsNumeric() {
				return p.fmtError(ErrTypeMismatch, tok, "range is only valid on numeric fields")
			}
			return p.parseRange(typ, tags, ar.values)
		case RENDER:
			return p.parseTextTag(ddl.TagUIRender, tags, ar.values, ar.strs)
		case UNITS:
			return p.parseTextTag(ddl.TagUnits, tags, ar.values, ar.strs)
		case PARALLEL:
			return p.parseParallel(st, field, ar.values)
		case TAG:
			return p.parseGenericTag(tags, ar.values, ar.strs, *seen, owner)
		}
		return p.invalidInfo(tok)
	})
}

// parseRange parses range(softMin, softMax[, hardMin, hardMax[, step]]).
// Omitted hard bounds equal the soft ones and the step defaults to 1.
func (p *Parser) parseRange(typ ddl.Type, tags area.Ptr, values *area.Area) error {
	start := p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return err
	}
	var bounds [5]Value
	n := 0
	for {
		v, at, err := p.evaluate()
		if err != nil {
			return err
		}
		if n == len(bounds) {
			return p.fmtError(ErrSyntax, at, "too many range arguments")
		}
		if !v.IsNumber() {
			return p.fmtError(ErrTypeMismatch, at, "numeric range bound expected")
		}
		if !v.Fits(typ) {
			return p.fmtError(ErrOutOfRange, at, "range bound %s does not fit in %s", v, typ)
		}
		bounds[n] = v
		n++
		if p.peek().Type != COMMA {
			break
		}
		p.advance()
	}
	if _, err := p.expect(RPAREN); err != nil {
		return err
	}
	switch n {
	case 2:
		bounds[2], bounds[3] = bounds[0], bounds[1]
		bounds[4] = IntOf(1)
	case 4:
		bounds[4] = IntOf(1)
	case 5:
	default:
		return p.fmtError(ErrSyntax, start, "range expects 2, 4 or 5 arguments, got %d", n)
	}
	if less(typ, bounds[1], bounds[0]) || less(typ, bounds[3], bounds[2]) {
		return p.fmtError(ErrOutOfRange, start, "empty range")
	}
	if !less(typ, IntOf(0), bounds[4]) {
		return p.fmtError(ErrOutOfRange, start, "range step must be positive")
	}

	if err := values.Align(8); err != nil {
		return err
	}
	tag, err := alloc(values, ddl.RangeSize, ddl.TagNext)
	if err != nil {
		return err
	}
	tag.Add(ddl.TagSize).PutUint32(ddl.RangeSize)
	tag.Add(ddl.TagKind).PutUint32(uint32(ddl.TagUIRange))
	offsets := [5]uint32{ddl.RangeSoftMin, ddl.RangeSoftMax, ddl.RangeHardMin, ddl.RangeHardMax, ddl.RangeStep}
	for i, off := range offsets {
		slot := tag.Add(off)
		switch {
		case typ <= ddl.Uint64:
			slot.PutUint64(uint64(bounds[i].GetInt()))
		case typ.IsInteger():
			slot.PutInt64(bounds[i].GetInt())
		case typ == ddl.Float32:
			slot.PutFloat64(float64(float32(bounds[i].GetFloat())))
		default:
			slot.PutFloat64(bounds[i].GetFloat())
		}
	}
	pushTag(tags, tag)
	return nil
}

// less orders two range values the way a field of type t stores them.
func less(t ddl.Type, a, b Value) bool {
	switch {
	case t <= ddl.Uint64:
		return uint64(a.GetInt()) < uint64(b.GetInt())
	case t.IsInteger():
		return a.GetInt() < b.GetInt()
	}
	return a.GetFloat() < b.GetFloat()
}

// checkDefaultRange rejects a default value that lies outside the hard
// bounds of the field's range tag.
func (p *Parser) checkDefaultRange(field area.Ptr, seen TagSet, name Token) error {
	if !seen.Contains(RANGE) {
		return nil
	}
	vi := p.def().StructFieldAt(field.Abs()).ValueInfo()
	val, ok := vi.Value()
	if !ok {
		return nil
	}
	tag, _ := vi.Tag(ddl.TagUIRange)
	r, _ := tag.Range()
	t := vi.Type()
	for i := range vi.Count() {
		var out bool
		switch {
		case t <= ddl.Uint64:
			out = val.Uint(i) < r.HardMin.Uint() || val.Uint(i) > r.HardMax.Uint()
		case t.IsInteger():
			out = val.Int(i) < r.HardMin.Int() || val.Int(i) > r.HardMax.Int()
		default:
			out = val.Float(i) < r.HardMin.Float() || val.Float(i) > r.HardMax.Float()
		}
		if out {
			return p.fmtError(ErrOutOfRange, name, "default value of %q is out of range", name.Lexeme)
		}
	}
	return nil
}

// parseParallel parses parallel(name). Both fields must be dynamic arrays.
func (p *Parser) parseParallel(st, field area.Ptr, values *area.Area) error {
	tok := p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return err
	}
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return err
	}
	d := p.def()
	target, ok := p.structDecl(st).FindField(name.Lexeme)
	if !ok {
		return p.fmtError(ErrUnknownIdentifier, name, "unknown field %q", name.Lexeme)
	}
	if target.ValueInfo().ArrayType() != ddl.Dynamic {
		return p.fmtError(ErrNotDynamic, name, "parallel field %q is not a dynamic array", name.Lexeme)
	}
	if own := d.StructFieldAt(field.Abs()); own.ValueInfo().ArrayType() != ddl.Dynamic {
		return p.fmtError(ErrNotDynamic, tok, "field %q is not a dynamic array", own.Name())
	}
	targetOff := target.Offset()

	if err := values.Align(4); err != nil {
		return err
	}
	tag, err := alloc(values, ddl.ParallelSize, ddl.TagNext, ddl.ParallelField)
	if err != nil {
		return err
	}
	tag.Add(ddl.TagSize).PutUint32(ddl.ParallelSize)
	tag.Add(ddl.TagKind).PutUint32(uint32(ddl.TagParallel))
	tag.Add(ddl.ParallelField).SetRelOffset(targetOff)
	pushTag(field.Add(ddl.FieldValueInfo+ddl.VITags), tag)
	_, err = p.expect(RPAREN)
	return err
}

// parseTypedef records where a named type starts so that fields can re-parse
// it. The type and its info clauses are only skimmed here; they are checked
// at every use.
//
//	typedef uint8[4], range(0, 10) Quad;
func (p *Parser) parseTypedef() error {
	p.advance()
	start := p.pos
	tok := p.advance()
	if _, ok := primitiveTypes[tok.Type]; !ok && tok.Type != IDENTIFIER {
		return p.fmtError(ErrSyntax, tok, "unexpected %s %q, expected a type", tok.Type, tok.Lexeme)
	}
	switch p.peek().Type {
	case LBRACKET:
		if err := p.skipBalanced(LBRACKET, RBRACKET); err != nil {
			return err
		}
	case LBRACE:
		if err := p.skipBalanced(LBRACE, RBRACE); err != nil {
			return err
		}
	}
	for p.peek().Type == COMMA {
		p.advance()
		p.advance()
		if p.peek().Type == LPAREN {
			if err := p.skipBalanced(LPAREN, RPAREN); err != nil {
				return err
			}
		}
	}

	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return err
	}
	if td, ok := p.syms.Typedef(name.Lexeme); ok {
		return p.duplicateTypedef(name, td.End)
	}
	if prev, ok := p.syms.Lookup(name.Lexeme); ok {
		return p.duplicate(name, prev)
	}
	end, err := p.expect(SEMICOLON)
	if err != nil {
		return err
	}
	return p.syms.DefineTypedef(Typedef{Start: start, Name: name, End: end})
}

// duplicateTypedef reports a typedef name that an earlier typedef, ending
// at end, already took.
func (p *Parser) duplicateTypedef(tok, end Token) error {
	if end.File != "" {
		return p.fmtError(ErrDuplicate, tok, "duplicate typedef %q, previous typedef ends at %s:%d", tok.Lexeme, end.File, end.Line)
	}
	return p.fmtError(ErrDuplicate, tok, "duplicate typedef %q, previous typedef ends at line %d", tok.Lexeme, end.Line)
}

// skipBalanced consumes tokens from left up to and including its matching right.
func (p *Parser) skipBalanced(left, right TokenType) error {
	first := p.advance()
	depth := 1
	for depth > 0 {
		tok := p.advance()
		switch tok.Type {
		case left:
			depth++
		case right:
			depth--
		case EOF:
			return p.fmtError(ErrSyntax, first, "unterminated %s", left)
		}
	}
	return nil
}
