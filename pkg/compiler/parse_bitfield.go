package compiler

import (
	"ddlc/pkg/area"
	"ddlc/pkg/ddl"
)

func (p *Parser) parseBitfield() (area.Ptr, error) {
	p.advance()
	ar, err := p.aggregateAreas()
	if err != nil {
		return area.Ptr{}, err
	}
	bf, err := p.newAggregate(ar, ddl.Bitfield, ddl.BitfieldSize, ddl.BfTags)
	if err != nil {
		return area.Ptr{}, err
	}
	bf.Add(ddl.BfDefaultFlag).PutInt32(-1)

	owner := func(d ddl.Definition) Owner {
		return Owner{Kind: OwnerBitfield, Aggregate: d.AggregateAt(bf.Abs())}
	}
	var seen TagSet
	err = p.parseAggregateInfo(bf, ar.strs, &seen, func(tok Token) error {
		if tok.Type == TAG {
			return p.parseGenericTag(bf.Add(ddl.BfTags), ar.values, ar.strs, seen, owner)
		}
		return p.invalidInfo(tok)
	})
	if err != nil {
		return area.Ptr{}, err
	}

	if _, err := p.expect(LBRACE); err != nil {
		return area.Ptr{}, err
	}
	var bits uint32
	for {
		if err := p.parseFlag(bf, ar, &bits); err != nil {
			return area.Ptr{}, err
		}
		if p.peek().Type == RBRACE {
			break
		}
	}
	if err := p.closeBody(); err != nil {
		return area.Ptr{}, err
	}

	if def := bf.Add(ddl.BfDefaultFlag); def.Int32() < 0 {
		def.PutInt32(p.firstEmptyFlag(bf))
	}
	return bf, ar.fold()
}

// firstEmptyFlag returns the index of the first flag declared empty, or 0.
func (p *Parser) firstEmptyFlag(bf area.Ptr) int32 {
	decl, _ := p.aggregate(bf).Bitfield()
	for i := range decl.NumFlags() {
		if v, ok := decl.Flag(i).Value(); ok && v.Count() == 0 {
			return int32(i)
		}
	}
	return 0
}

// parseFlag parses one flag. bits counts the flags that occupy a bit so far.
func (p *Parser) parseFlag(bf area.Ptr, ar aggAreas, bits *uint32) error {
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return err
	}
	hash := ddl.Hash(name.Lexeme)
	decl, _ := p.aggregate(bf).Bitfield()
	bfName := decl.Name()
	if _, dup := decl.FindFlagHash(hash); dup {
		return p.fmtError(ErrDuplicate, name, "duplicate flag %q in bitfield %q", name.Lexeme, bfName)
	}

	flag, err := alloc(ar.members, ddl.BitfieldFlagSize,
		ddl.FlagName, ddl.FlagAuthor, ddl.FlagDescription, ddl.FlagLabel, ddl.FlagValue, ddl.FlagTags)
	if err != nil {
		return err
	}
	flag.Add(ddl.FlagSize).PutUint32(ddl.BitfieldFlagSize)
	flag.Add(ddl.FlagNameHash).PutUint32(hash)
	if err := putString(flag.Add(ddl.FlagName), ar.strs, name.Lexeme); err != nil {
		return err
	}
	if err := appendPointer(ar.header, flag); err != nil {
		return err
	}
	count := bf.Add(ddl.BfNumFlags)
	increment(count)
	index := count.Uint32() - 1

	if p.peek().Type == COMMA {
		p.advance()
		owner := func(d ddl.Definition) Owner {
			return Owner{Kind: OwnerFlag, Aggregate: d.AggregateAt(bf.Abs()), Flag: d.BitfieldFlagAt(flag.Abs())}
		}
		var seen TagSet
		err := p.parseInfoList(&seen, func(tok Token) error {
			switch tok.Type {
			case AUTHOR:
				return p.parseText(flag.Add(ddl.FlagAuthor), ar.strs)
			case DESCRIPTION:
				return p.parseText(flag.Add(ddl.FlagDescription), ar.strs)
			case LABEL:
				return p.parseText(flag.Add(ddl.FlagLabel), ar.strs)
			case DEFAULT:
				p.advance()
				def := bf.Add(ddl.BfDefaultFlag)
				if def.Int32() >= 0 {
					return p.fmtError(ErrDuplicate, tok, "duplicate default in bitfield %q", bfName)
				}
				def.PutInt32(int32(index))
				return nil
			case VALUE, EMPTY:
				if seen.Contains(VALUE) && seen.Contains(EMPTY) {
					return p.fmtError(ErrDuplicate, tok, "flag %q cannot have both value and empty", name.Lexeme)
				}
				if tok.Type == EMPTY {
					p.advance()
					return p.flagValue(flag, ar.values, nil)
				}
				return p.parseFlagValue(bf, flag, index, ar.values)
			case TAG:
				return p.parseGenericTag(flag.Add(ddl.FlagTags), ar.values, ar.strs, seen, owner)
			}
			return p.invalidInfo(tok)
		})
		if err != nil {
			return err
		}
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return err
	}

	if _, hasValue := flag.Add(ddl.FlagValue).Target(); hasValue {
		return nil
	}
	if limit := p.opts.BitfieldLimit; limit > 0 && *bits >= uint32(limit) {
		return p.fmtError(ErrFlagLimit, name, "maximum number of flags exceeded in bitfield %q (limit %d)", bfName, limit)
	}
	*bits++
	flag.Add(ddl.FlagBit).PutUint32(*bits)
	return nil
}

// parseFlagValue parses value(a|b|...). Only flags declared earlier in the
// same bitfield may be named.
func (p *Parser) parseFlagValue(bf, flag area.Ptr, self uint32, values *area.Area) error {
	p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return err
	}
	var indices []uint32
	for {
		name, err := p.expect(IDENTIFIER)
		if err != nil {
			return err
		}
		decl, _ := p.aggregate(bf).Bitfield()
		idx, ok := flagIndex(decl, ddl.Hash(name.Lexeme))
		if !ok || idx >= self {
			return p.fmtError(ErrUnknownIdentifier, name, "unknown flag %q in bitfield %q", name.Lexeme, decl.Name())
		}
		indices = append(indices, idx)
		if p.peek().Type != PIPE {
			break
		}
		p.advance()
	}
	if _, err := p.expect(RPAREN); err != nil {
		return err
	}
	return p.flagValue(flag, values, indices)
}

// flagValue stores the list of flag indices a flag is defined as. An empty
// list marks the flag as empty.
func (p *Parser) flagValue(flag area.Ptr, values *area.Area, indices []uint32) error {
	if err := values.Align(4); err != nil {
		return err
	}
	size := ddl.FlagValueHdrSize + uint32(len(indices))*4
	rec, err := alloc(values, size)
	if err != nil {
		return err
	}
	rec.Add(ddl.FlagValueSize).PutUint32(size)
	rec.Add(ddl.FlagValueCount).PutUint32(uint32(len(indices)))
	for i, idx := range indices {
		rec.Add(ddl.FlagValueIndices + uint32(i)*4).PutUint32(idx)
	}
	flag.Add(ddl.FlagValue).SetRel(rec)
	return nil
}

func flagIndex(decl ddl.BitfieldDecl, hash uint32) (uint32, bool) {
	for i := range decl.NumFlags() {
		if decl.Flag(i).NameHash() == hash {
			return i, true
		}
	}
	return 0, false
}
