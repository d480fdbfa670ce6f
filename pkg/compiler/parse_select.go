package compiler

import (
	"ddlc/pkg/area"
	"ddlc/pkg/ddl"
)

func (p *Parser) parseSelect() (area.Ptr, error) {
	p.advance()
	ar, err := p.aggregateAreas()
	if err != nil {
		return area.Ptr{}, err
	}
	sel, err := p.newAggregate(ar, ddl.Select, ddl.SelectSize, ddl.SelTags)
	if err != nil {
		return area.Ptr{}, err
	}
	sel.Add(ddl.SelDefaultItem).PutInt32(-1)

	owner := func(d ddl.Definition) Owner {
		return Owner{Kind: OwnerSelect, Aggregate: d.AggregateAt(sel.Abs())}
	}
	var seen TagSet
	err = p.parseAggregateInfo(sel, ar.strs, &seen, func(tok Token) error {
		if tok.Type == TAG {
			return p.parseGenericTag(sel.Add(ddl.SelTags), ar.values, ar.strs, seen, owner)
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
		if err := p.parseItem(sel, ar); err != nil {
			return area.Ptr{}, err
		}
		if p.peek().Type == RBRACE {
			break
		}
	}
	if err := p.closeBody(); err != nil {
		return area.Ptr{}, err
	}

	if def := sel.Add(ddl.SelDefaultItem); def.Int32() < 0 {
		def.PutInt32(0)
	}
	return sel, ar.fold()
}

func (p *Parser) parseItem(sel area.Ptr, ar aggAreas) error {
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return err
	}
	hash := ddl.Hash(name.Lexeme)
	decl, _ := p.aggregate(sel).Select()
	selName := decl.Name()
	if _, dup := decl.FindItemHash(hash); dup {
		return p.fmtError(ErrDuplicate, name, "duplicate item %q in select %q", name.Lexeme, selName)
	}

	item, err := alloc(ar.members, ddl.SelectItemSize,
		ddl.ItemName, ddl.ItemAuthor, ddl.ItemDescription, ddl.ItemLabel, ddl.ItemTags)
	if err != nil {
		return err
	}
	item.Add(ddl.ItemSize).PutUint32(ddl.SelectItemSize)
	item.Add(ddl.ItemNameHash).PutUint32(hash)
	if err := putString(item.Add(ddl.ItemName), ar.strs, name.Lexeme); err != nil {
		return err
	}
	if err := appendPointer(ar.header, item); err != nil {
		return err
	}
	count := sel.Add(ddl.SelNumItems)
	increment(count)
	index := int32(count.Uint32() - 1)

	if p.peek().Type == COMMA {
		p.advance()
		owner := func(d ddl.Definition) Owner {
			return Owner{Kind: OwnerItem, Aggregate: d.AggregateAt(sel.Abs()), Item: d.SelectItemAt(item.Abs())}
		}
		var seen TagSet
		err := p.parseInfoList(&seen, func(tok Token) error {
			switch tok.Type {
			case AUTHOR:
				return p.parseText(item.Add(ddl.ItemAuthor), ar.strs)
			case DESCRIPTION:
				return p.parseText(item.Add(ddl.ItemDescription), ar.strs)
			case LABEL:
				return p.parseText(item.Add(ddl.ItemLabel), ar.strs)
			case DEFAULT:
				p.advance()
				def := sel.Add(ddl.SelDefaultItem)
				if def.Int32() >= 0 {
					return p.fmtError(ErrDuplicate, tok, "duplicate default in select %q", selName)
				}
				def.PutInt32(index)
				return nil
			case TAG:
				return p.parseGenericTag(item.Add(ddl.ItemTags), ar.values, ar.strs, seen, owner)
			}
			return p.invalidInfo(tok)
		})
		if err != nil {
			return err
		}
	}
	_, err = p.expect(SEMICOLON)
	return err
}
