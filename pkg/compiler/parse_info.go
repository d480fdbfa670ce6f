package compiler

import (
	"ddlc/pkg/area"
	"ddlc/pkg/ddl"
)

// parseInfoList runs clause for each comma separated info entry. Every info
// keyword may appear once per owner, except tag which may repeat.
func (p *Parser) parseInfoList(seen *TagSet, clause func(tok Token) error) error {
	for {
		tok := p.peek()
		if seen.Contains(tok.Type) {
			return p.fmtError(ErrDuplicate, tok, "duplicate info %q", tok.Lexeme)
		}
		if tok.Type != TAG {
			seen.add(tok.Type)
		}
		if err := clause(tok); err != nil {
			return err
		}
		if p.peek().Type != COMMA {
			return nil
		}
		p.advance()
	}
}

func (p *Parser) invalidInfo(tok Token) error {
	return p.fmtError(ErrSyntax, tok, "invalid info %q", tok.Lexeme)
}

// parseText parses `keyword("text")` and stores the text at slot.
func (p *Parser) parseText(slot area.Ptr, strs *area.StringArea) error {
	p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return err
	}
	lit, err := p.expect(STRING_LIT)
	if err != nil {
		return err
	}
	if err := putString(slot, strs, lit.Lexeme); err != nil {
		return err
	}
	_, err = p.expect(RPAREN)
	return err
}

// parseTextTag parses a single-string tag such as render("...") and links it
// into the chain at head.
func (p *Parser) parseTextTag(kind ddl.TagType, head area.Ptr, values *area.Area, strs *area.StringArea) error {
	if err := values.Align(4); err != nil {
		return err
	}
	tag, err := alloc(values, ddl.TextSize, ddl.TagNext, ddl.TextValue)
	if err != nil {
		return err
	}
	tag.Add(ddl.TagSize).PutUint32(ddl.TextSize)
	tag.Add(ddl.TagKind).PutUint32(uint32(kind))
	if err := p.parseText(tag.Add(ddl.TextValue), strs); err != nil {
		return err
	}
	pushTag(head, tag)
	return nil
}

// parseStringList parses `keyword("a", "b", ...)` into an extensions or
// vaulthints tag.
func (p *Parser) parseStringList(kind ddl.TagType, head area.Ptr, values *area.Area, strs *area.StringArea) error {
	p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return err
	}
	if err := values.Align(4); err != nil {
		return err
	}
	tag, err := alloc(values, ddl.ListHdrSize, ddl.TagNext)
	if err != nil {
		return err
	}
	tag.Add(ddl.TagKind).PutUint32(uint32(kind))
	var n uint32
	for {
		lit, err := p.expect(STRING_LIT)
		if err != nil {
			return err
		}
		slot, err := alloc(values, ddl.PointerSize, 0)
		if err != nil {
			return err
		}
		if err := putString(slot, strs, lit.Lexeme); err != nil {
			return err
		}
		n++
		if p.peek().Type != COMMA {
			break
		}
		p.advance()
	}
	tag.Add(ddl.TagSize).PutUint32(ddl.ListHdrSize + n*ddl.PointerSize)
	tag.Add(ddl.ListCount).PutUint32(n)
	if _, err := p.expect(RPAREN); err != nil {
		return err
	}
	pushTag(head, tag)
	return nil
}

// parseGenericTag parses `tag(name, expr, ...)`, links it into the chain at
// head and hands it to the configured validator. The record and its values
// are written to a fresh area after values which is merged back afterwards.
func (p *Parser) parseGenericTag(head area.Ptr, values *area.Area, strs *area.StringArea, seen TagSet, owner func(d ddl.Definition) Owner) error {
	start := p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return err
	}
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return err
	}
	sub, err := values.NewArea()
	if err != nil {
		return err
	}
	if err := sub.Align(8); err != nil {
		return err
	}
	tag, err := alloc(sub, ddl.GenericSize, ddl.TagNext, ddl.GenName)
	if err != nil {
		return err
	}
	tag.Add(ddl.TagKind).PutUint32(uint32(ddl.TagGeneric))
	tag.Add(ddl.GenNameHash).PutUint32(ddl.Hash(name.Lexeme))
	if err := putString(tag.Add(ddl.GenName), strs, name.Lexeme); err != nil {
		return err
	}

	var n uint32
	for p.peek().Type == COMMA {
		p.advance()
		v, _, err := p.evaluate()
		if err != nil {
			return err
		}
		var val area.Ptr
		switch v.Kind {
		case StringValue:
			if val, err = alloc(sub, ddl.GenValueSize, ddl.GenValValue); err != nil {
				return err
			}
			val.Add(ddl.GenValType).PutUint32(uint32(ddl.String))
			if err := putString(val.Add(ddl.GenValValue), strs, v.Str); err != nil {
				return err
			}
		case IntValue:
			if val, err = alloc(sub, ddl.GenValueSize); err != nil {
				return err
			}
			val.Add(ddl.GenValType).PutUint32(uint32(ddl.Int64))
			val.Add(ddl.GenValValue).PutInt64(v.Int)
		default:
			if val, err = alloc(sub, ddl.GenValueSize); err != nil {
				return err
			}
			val.Add(ddl.GenValType).PutUint32(uint32(ddl.Float64))
			val.Add(ddl.GenValValue).PutFloat64(v.Float)
		}
		n++
	}
	tag.Add(ddl.TagSize).PutUint32(ddl.GenericSize + n*ddl.GenValueSize)
	tag.Add(ddl.GenNumValues).PutUint32(n)
	if _, err := p.expect(RPAREN); err != nil {
		return err
	}
	pushTag(head, tag)

	if p.opts.Validator != nil {
		d := p.def()
		g, _ := d.TagAt(tag.Abs()).Generic()
		if err := p.opts.Validator.ValidateTag(d, owner(d), g, seen); err != nil {
			return p.fmtError(ErrTagRejected, start, "%s", err.Error())
		}
	}
	values.Merge()
	return nil
}
