package compiler

import (
	"testing"

	"ddlc/pkg/arena"
)

func TestSymbolTable(t *testing.T) {
	s := NewSymbolTable(arena.NewLinear(1 << 16))

	if err := s.Declare(Token{Type: IDENTIFIER, Lexeme: "Point", Line: 3}); err != nil {
		t.Fatalf("Declare failed: %v", err)
	}
	if err := s.DefineTypedef(Typedef{Start: 7, Name: Token{Type: IDENTIFIER, Lexeme: "Quad", Line: 5}}); err != nil {
		t.Fatalf("DefineTypedef failed: %v", err)
	}

	tok, ok := s.Lookup("Point")
	if !ok || tok.Line != 3 {
		t.Errorf("expected Point declared on line 3, got %v %v", tok.Line, ok)
	}
	if _, ok := s.Lookup("Quad"); !ok {
		t.Error("expected typedef names to be reserved")
	}
	if _, ok := s.Typedef("Point"); ok {
		t.Error("expected Point not to be a typedef")
	}
	td, ok := s.Typedef("Quad")
	if !ok || td.Start != 7 {
		t.Errorf("expected Quad to start at token 7, got %d", td.Start)
	}
	if _, ok := s.Lookup("point"); ok {
		t.Error("expected lookups to be case sensitive")
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 names, got %d", s.Len())
	}
}
