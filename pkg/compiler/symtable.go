package compiler

import (
	"ddlc/pkg/arena"
	"ddlc/pkg/ddl"
)

// Typedef is a named field type. Start indexes the type token in the token
// stream; the type, its array suffix and its info clauses are re-parsed from
// there every time the name is used. End is the terminating semicolon.
type Typedef struct {
	Start int
	Name  Token
	End   Token
}

// SymbolTable tracks the top-level names of one compilation. Aggregates and
// typedefs share a single namespace.
//
// Names are keyed by their 32-bit hash, the same hash the blob stores, so two
// names that collide are reported as duplicates.
type SymbolTable struct {
	used     *arena.Set[Token]
	typedefs *arena.Set[Typedef]
}

func NewSymbolTable(scratch *arena.Linear) *SymbolTable {
	return &SymbolTable{
		used:     arena.NewSet[Token](scratch, 256),
		typedefs: arena.NewSet[Typedef](scratch, 64),
	}
}

// Lookup returns the token that declared name. Names carried over from an
// earlier compilation report line 0.
func (s *SymbolTable) Lookup(name string) (Token, bool) {
	return s.used.Find(ddl.Hash(name))
}

// Declare reserves the name of tok.
func (s *SymbolTable) Declare(tok Token) error {
	return s.used.Insert(ddl.Hash(tok.Lexeme), tok)
}

// DefineTypedef reserves the typedef's name and records where its type starts.
func (s *SymbolTable) DefineTypedef(td Typedef) error {
	if err := s.Declare(td.Name); err != nil {
		return err
	}
	return s.typedefs.Insert(ddl.Hash(td.Name.Lexeme), td)
}

// Typedef returns the typedef called name.
func (s *SymbolTable) Typedef(name string) (Typedef, bool) {
	return s.typedefs.Find(ddl.Hash(name))
}

// Len returns the number of declared names.
func (s *SymbolTable) Len() int { return s.used.Len() }
