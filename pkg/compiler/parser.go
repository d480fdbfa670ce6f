package compiler

import (
	"ddlc/pkg/area"
	"ddlc/pkg/arena"
	"ddlc/pkg/ddl"
)

// Parser consumes the flat token slice produced by the Lexer and writes the
// declarations straight into a relocatable definition.
//
// Grammar:
//
//	definition = (select | bitfield | struct | typedef)+ EOF
//	select     = "select" IDENTIFIER ("," info)* "{" item+ "}" ";"?
//	item       = IDENTIFIER ("," info)* ";"
//	bitfield   = "bitfield" IDENTIFIER ("," info)* "{" flag+ "}" ";"?
//	flag       = IDENTIFIER ("," info)* ";"
//	struct     = "struct" IDENTIFIER ("," info)* "{" field+ "}" ";"?
//	field      = type IDENTIFIER ("," info)* ";"
//	typedef    = "typedef" type ("," info)* IDENTIFIER ";"
//	type       = (primitive | IDENTIFIER) ("[" expression? "]" | "{" keytype "}")?
//	info       = KEYWORD "(" arguments ")" | "default" | "empty"
//
// Every aggregate gets its own header, member, value and string areas so that
// each can keep growing while later ones are written.
type Parser struct {
	tokens []Token
	pos    int
	src    []byte

	mgr     *area.Manager
	scratch *arena.Linear
	header  *area.Area
	syms    *SymbolTable
	stack   *arena.Stack[Value]
	opts    Options
}

func newParser(tokens []Token, src []byte, mgr *area.Manager, scratch *arena.Linear, opts Options) *Parser {
	return &Parser{
		tokens:  tokens,
		src:     src,
		mgr:     mgr,
		scratch: scratch,
		syms:    NewSymbolTable(scratch),
		stack:   arena.NewStack[Value](scratch),
		opts:    opts,
	}
}

// fmtError builds a diagnostic pointing at tok.
func (p *Parser) fmtError(kind error, tok Token, format string, args ...any) error {
	return newError(kind, p.src, tok, format, args...)
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

// advance consumes and returns the current token. EOF is never consumed.
func (p *Parser) advance() Token {
	tok := p.peek()
	if tok.Type != EOF {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt, otherwise returns an error.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return tok, p.fmtError(ErrSyntax, tok, "unexpected %s %q, expected %s", tok.Type, tok.Lexeme, tt)
	}
	return p.advance(), nil
}

// def returns a view of the definition as written so far. Views are only
// valid until the next allocation.
func (p *Parser) def() ddl.Definition { return ddl.View(p.mgr.Bytes()) }

func (p *Parser) aggregate(at area.Ptr) ddl.Aggregate { return p.def().AggregateAt(at.Abs()) }

// declare reserves the identifier at the cursor as a top-level name.
func (p *Parser) declare() (Token, error) {
	tok, err := p.expect(IDENTIFIER)
	if err != nil {
		return tok, err
	}
	if prev, ok := p.syms.Lookup(tok.Lexeme); ok {
		return tok, p.duplicate(tok, prev)
	}
	return tok, p.syms.Declare(tok)
}

func (p *Parser) duplicate(tok, prev Token) error {
	if prev.Line == 0 {
		return p.fmtError(ErrDuplicate, tok, "duplicate identifier %q, already defined by an earlier compilation", tok.Lexeme)
	}
	if prev.File != "" {
		return p.fmtError(ErrDuplicate, tok, "duplicate identifier %q, first declared at %s:%d", tok.Lexeme, prev.File, prev.Line)
	}
	return p.fmtError(ErrDuplicate, tok, "duplicate identifier %q, first declared at line %d", tok.Lexeme, prev.Line)
}

// alloc appends a zeroed record of size bytes to a and registers the relative
// pointers stored at the given offsets inside it. A slot is registered exactly
// once, when its record is created.
func alloc(a *area.Area, size uint32, rels ...uint32) (area.Ptr, error) {
	r, err := a.Allocate(size)
	if err != nil {
		return area.Ptr{}, err
	}
	for _, off := range rels {
		if err := a.AddRelPointer(r.Add(off)); err != nil {
			return area.Ptr{}, err
		}
	}
	return r, nil
}

// appendPointer grows a by one relative pointer to target. Used for the
// pointer arrays trailing definition, select, bitfield and struct headers.
func appendPointer(a *area.Area, target area.Ptr) error {
	slot, err := alloc(a, ddl.PointerSize, 0)
	if err != nil {
		return err
	}
	slot.SetRel(target)
	return nil
}

// putString interns s and stores a pointer to it at slot.
func putString(slot area.Ptr, strs *area.StringArea, s string) error {
	sp, err := strs.Add(s)
	if err != nil {
		return err
	}
	slot.SetRel(sp)
	return nil
}

// pushTag links tag in front of the chain whose head pointer is at head.
func pushTag(head, tag area.Ptr) {
	tag.Add(ddl.TagNext).CopyRel(head)
	head.SetRel(tag)
}

// aggAreas are the areas one aggregate is written to, in buffer order:
// the aggregate record and its pointer array, member records, tag and
// default payloads, then strings.
type aggAreas struct {
	header  *area.Area
	members *area.Area
	values  *area.Area
	strs    *area.StringArea
}

// aggregateAreas creates the areas for a new aggregate at the end of the buffer.
func (p *Parser) aggregateAreas() (aggAreas, error) {
	var ar aggAreas
	var err error
	if ar.header, err = p.mgr.NewArea(); err != nil {
		return ar, err
	}
	if ar.members, err = p.mgr.NewArea(); err != nil {
		return ar, err
	}
	if ar.values, err = p.mgr.NewArea(); err != nil {
		return ar, err
	}
	sa, err := p.mgr.NewArea()
	if err != nil {
		return ar, err
	}
	ar.strs = area.NewStringArea(sa, p.scratch)
	return ar, nil
}

// fold merges the areas back into header once the aggregate is complete.
func (ar aggAreas) fold() error {
	if err := ar.strs.Area().Align(4); err != nil {
		return err
	}
	for range 3 {
		ar.header.Merge()
	}
	return nil
}

// newAggregate writes the common aggregate header for the declaration whose
// name is at the cursor.
func (p *Parser) newAggregate(ar aggAreas, kind ddl.Type, size uint32, rels ...uint32) (area.Ptr, error) {
	tok, err := p.declare()
	if err != nil {
		return area.Ptr{}, err
	}
	rels = append([]uint32{ddl.AggName, ddl.AggAuthor, ddl.AggDescription, ddl.AggLabel}, rels...)
	agg, err := alloc(ar.header, size, rels...)
	if err != nil {
		return area.Ptr{}, err
	}
	agg.Add(ddl.AggSize).PutUint32(size)
	agg.Add(ddl.AggType).PutUint32(uint32(kind))
	agg.Add(ddl.AggNameHash).PutUint32(ddl.Hash(tok.Lexeme))
	return agg, putString(agg.Add(ddl.AggName), ar.strs, tok.Lexeme)
}

// increment adds one to the counter at p.
func increment(p area.Ptr) { p.PutUint32(p.Uint32() + 1) }

// parseAggregateInfo parses the author, description and label clauses shared
// by every aggregate, delegating anything else to extra.
func (p *Parser) parseAggregateInfo(agg area.Ptr, strs *area.StringArea, seen *TagSet, extra func(tok Token) error) error {
	if p.peek().Type != COMMA {
		return nil
	}
	p.advance()
	return p.parseInfoList(seen, func(tok Token) error {
		switch tok.Type {
		case AUTHOR:
			return p.parseText(agg.Add(ddl.AggAuthor), strs)
		case DESCRIPTION:
			return p.parseText(agg.Add(ddl.AggDescription), strs)
		case LABEL:
			return p.parseText(agg.Add(ddl.AggLabel), strs)
		}
		return extra(tok)
	})
}

// closeBody consumes the closing brace of an aggregate and its optional semicolon.
func (p *Parser) closeBody() error {
	if _, err := p.expect(RBRACE); err != nil {
		return err
	}
	if p.peek().Type == SEMICOLON {
		p.advance()
	}
	return nil
}

// parseDefinition parses every top-level declaration and appends the
// resulting aggregates to the definition header.
func (p *Parser) parseDefinition() error {
	for {
		tok := p.peek()
		var agg area.Ptr
		var err error
		switch tok.Type {
		case SELECT:
			agg, err = p.parseSelect()
		case BITFIELD:
			agg, err = p.parseBitfield()
		case STRUCT:
			agg, err = p.parseStruct()
		case TYPEDEF:
			err = p.parseTypedef()
		default:
			return p.fmtError(ErrSyntax, tok, "unexpected %s %q, expected a select, bitfield, struct or typedef", tok.Type, tok.Lexeme)
		}
		if err != nil {
			return err
		}
		if tok.Type != TYPEDEF {
			if err := appendPointer(p.header, agg); err != nil {
				return err
			}
			increment(p.header.Start().Add(ddl.DefNumAggregates))
		}
		switch p.peek().Type {
		case SELECT, BITFIELD, STRUCT, TYPEDEF:
			continue
		}
		_, err = p.expect(EOF)
		return err
	}
}
