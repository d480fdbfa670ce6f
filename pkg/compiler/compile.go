package compiler

import (
	"errors"

	"ddlc/pkg/area"
	"ddlc/pkg/arena"
	"ddlc/pkg/ddl"
)

// Options controls a compilation.
type Options struct {
	// File names the source in diagnostics until the first line marker.
	File string
	// TwoUsReserved rejects identifiers starting with "__".
	TwoUsReserved bool
	// BitfieldLimit caps the number of bit-occupying flags per bitfield.
	// Zero means no limit.
	BitfieldLimit int
	// Validator, when set, is consulted for every tag(...) clause.
	Validator TagValidator
}

// Compile compiles src into the definition arena def and returns the
// resulting definition. When def already holds a definition the new
// aggregates are appended to it and its names stay reserved.
//
// scratch holds the parser's bookkeeping and is reset on entry. On error
// def is restored to its previous contents.
//
// The returned Definition aliases def's buffer: it is invalidated by the
// next allocation in def.
func Compile(def, scratch *arena.Linear, src []byte, opts Options) (ddl.Definition, error) {
	snap := def.Snapshot()
	d, err := compile(def, scratch, src, opts)
	if err != nil {
		def.Restore(snap)
		return ddl.Definition{}, err
	}
	return d, nil
}

func compile(def, scratch *arena.Linear, src []byte, opts Options) (ddl.Definition, error) {
	scratch.Reset()
	tokens, err := Tokenize(src, opts.TwoUsReserved)
	if err != nil {
		return ddl.Definition{}, err
	}
	for i := range tokens {
		if tokens[i].File == "" {
			tokens[i].File = opts.File
		}
	}

	mgr := area.NewManager(def, scratch)
	p := newParser(tokens, src, mgr, scratch, opts)
	if def.Offset() == 0 {
		err = p.begin()
	} else {
		err = p.resume()
	}
	if err == nil {
		err = p.parseDefinition()
	}
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			return ddl.Definition{}, err
		}
		return ddl.Definition{}, p.resourceError(err)
	}

	p.header.Start().Add(ddl.DefTotalSize).PutUint32(mgr.Size())
	return ddl.FromBytes(mgr.Bytes())
}

// resourceError attaches the current source position to a failure that did
// not come from the grammar, such as an exhausted arena.
func (p *Parser) resourceError(err error) error {
	tok := p.peek()
	return &Error{
		Kind:   err,
		File:   tok.File,
		Line:   tok.Line,
		Lexeme: tok.Lexeme,
		Msg:    err.Error(),
		Source: sourceLine(p.src, tok.Pos),
	}
}

// begin writes the header of a new definition.
func (p *Parser) begin() error {
	hdr, err := p.mgr.NewArea()
	if err != nil {
		return err
	}
	rec, err := alloc(hdr, ddl.DefinitionSize)
	if err != nil {
		return err
	}
	rec.Add(ddl.DefSize).PutUint32(ddl.DefinitionSize)
	rec.Add(ddl.DefOne).PutUint32(ddl.OneMarker)
	p.header = hdr
	return nil
}

// resume reopens a finished definition for appending. The header and its
// aggregate pointer array become the header area, everything after it one
// fixed area, and every pointer already in the blob is registered so that
// growing the header relocates it.
func (p *Parser) resume() error {
	mem := p.mgr.Bytes()
	d, err := ddl.FromBytes(mem)
	if err != nil {
		return err
	}
	slots, err := ddl.Pointers(mem)
	if err != nil {
		return err
	}
	total := d.TotalSize()
	n := d.NumAggregates()
	for i := range n {
		if err := p.syms.Declare(Token{Lexeme: d.Aggregate(i).Name()}); err != nil {
			return err
		}
	}

	p.mgr.Truncate(total)
	hdrSize := uint32(ddl.DefinitionSize) + n*ddl.PointerSize
	if p.header, err = p.mgr.Wrap(0, hdrSize); err != nil {
		return err
	}
	if total > hdrSize {
		if _, err := p.mgr.Wrap(hdrSize, total-hdrSize); err != nil {
			return err
		}
	}
	for _, slot := range slots {
		if err := p.mgr.AddRelPointer(slot); err != nil {
			return err
		}
	}
	return nil
}
