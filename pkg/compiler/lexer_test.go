package compiler

import (
	"errors"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:     "Empty",
			input:    "",
			expected: []Token{{Type: EOF, Line: 1}},
		},
		{
			name:  "Punctuation",
			input: "{ } ( ) [ ] . ; , : ? =",
			expected: []Token{
				{Type: LBRACE, Lexeme: "{", Line: 1},
				{Type: RBRACE, Lexeme: "}", Line: 1},
				{Type: LPAREN, Lexeme: "(", Line: 1},
				{Type: RPAREN, Lexeme: ")", Line: 1},
				{Type: LBRACKET, Lexeme: "[", Line: 1},
				{Type: RBRACKET, Lexeme: "]", Line: 1},
				{Type: DOT, Lexeme: ".", Line: 1},
				{Type: SEMICOLON, Lexeme: ";", Line: 1},
				{Type: COMMA, Lexeme: ",", Line: 1},
				{Type: COLON, Lexeme: ":", Line: 1},
				{Type: QUESTION, Lexeme: "?", Line: 1},
				{Type: ASSIGN, Lexeme: "=", Line: 1},
				{Type: EOF, Line: 1},
			},
		},
		{
			name:  "Operators",
			input: "+ - * / % & | ^ ~ ! << >> && || == != < <= > >=",
			expected: []Token{
				{Type: PLUS, Lexeme: "+", Line: 1},
				{Type: MINUS, Lexeme: "-", Line: 1},
				{Type: STAR, Lexeme: "*", Line: 1},
				{Type: SLASH, Lexeme: "/", Line: 1},
				{Type: PERCENT, Lexeme: "%", Line: 1},
				{Type: AND, Lexeme: "&", Line: 1},
				{Type: PIPE, Lexeme: "|", Line: 1},
				{Type: CARET, Lexeme: "^", Line: 1},
				{Type: TILDE, Lexeme: "~", Line: 1},
				{Type: NOT, Lexeme: "!", Line: 1},
				{Type: SHL_OP, Lexeme: "<<", Line: 1},
				{Type: SHR_OP, Lexeme: ">>", Line: 1},
				{Type: AND_LOGICAL, Lexeme: "&&", Line: 1},
				{Type: OR_LOGICAL, Lexeme: "||", Line: 1},
				{Type: EQUALS, Lexeme: "==", Line: 1},
				{Type: NOT_EQ, Lexeme: "!=", Line: 1},
				{Type: LESS, Lexeme: "<", Line: 1},
				{Type: LESS_EQ, Lexeme: "<=", Line: 1},
				{Type: GREATER, Lexeme: ">", Line: 1},
				{Type: GREATER_EQ, Lexeme: ">=", Line: 1},
				{Type: EOF, Line: 1},
			},
		},
		{
			name:  "Keywords and Identifiers",
			input: "struct Point uint8 typedef range tag true pi e _name",
			expected: []Token{
				{Type: STRUCT, Lexeme: "struct", Line: 1},
				{Type: IDENTIFIER, Lexeme: "Point", Line: 1},
				{Type: UINT8, Lexeme: "uint8", Line: 1},
				{Type: TYPEDEF, Lexeme: "typedef", Line: 1},
				{Type: RANGE, Lexeme: "range", Line: 1},
				{Type: TAG, Lexeme: "tag", Line: 1},
				{Type: TRUE, Lexeme: "true", Line: 1},
				{Type: PI, Lexeme: "pi", Line: 1},
				{Type: E, Lexeme: "e", Line: 1},
				{Type: IDENTIFIER, Lexeme: "_name", Line: 1},
				{Type: EOF, Line: 1},
			},
		},
		{
			name:  "Numbers",
			input: "42 0x1F 0b101 017 0 1.5 2e3 7.25e-1",
			expected: []Token{
				{Type: INTEGER, Lexeme: "42", Line: 1},
				{Type: HEX, Lexeme: "0x1F", Line: 1},
				{Type: BINARY, Lexeme: "0b101", Line: 1},
				{Type: OCTAL, Lexeme: "017", Line: 1},
				{Type: INTEGER, Lexeme: "0", Line: 1},
				{Type: REAL, Lexeme: "1.5", Line: 1},
				{Type: REAL, Lexeme: "2e3", Line: 1},
				{Type: REAL, Lexeme: "7.25e-1", Line: 1},
				{Type: EOF, Line: 1},
			},
		},
		{
			name:  "Strings",
			input: `"plain" "tab\there" "quote\"d" "back\\slash"`,
			expected: []Token{
				{Type: STRING_LIT, Lexeme: "plain", Line: 1},
				{Type: STRING_LIT, Lexeme: "tab\there", Line: 1},
				{Type: STRING_LIT, Lexeme: `quote"d`, Line: 1},
				{Type: STRING_LIT, Lexeme: `back\slash`, Line: 1},
				{Type: EOF, Line: 1},
			},
		},
		{
			name:  "Comments and Lines",
			input: "a // line comment\n/* block\ncomment */ b\n\nc",
			expected: []Token{
				{Type: IDENTIFIER, Lexeme: "a", Line: 1},
				{Type: IDENTIFIER, Lexeme: "b", Line: 3},
				{Type: IDENTIFIER, Lexeme: "c", Line: 5},
				{Type: EOF, Line: 5},
			},
		},
		{
			name:  "Line Markers",
			input: "# 10 \"other.ddl\"\nx\n# 3 \"main.ddl\"\ny",
			expected: []Token{
				{Type: IDENTIFIER, Lexeme: "x", File: "other.ddl", Line: 10},
				{Type: IDENTIFIER, Lexeme: "y", File: "main.ddl", Line: 3},
				{Type: EOF, File: "main.ddl", Line: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lex(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %d tokens, got %d: %v", len(tt.expected), len(got), got)
			}
			for i, want := range tt.expected {
				g := got[i]
				if g.Type != want.Type || g.Lexeme != want.Lexeme || g.Line != want.Line || g.File != want.File {
					t.Errorf("token %d: expected %v (file %q), got %v (file %q)", i, want, want.File, g, g.File)
				}
			}
		})
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		reserved bool
		line     int
	}{
		{name: "Unterminated String", input: "a\n\"abc", line: 2},
		{name: "Newline In String", input: "\"ab\ncd\"", line: 1},
		{name: "Bad Escape", input: `"\q"`, line: 1},
		{name: "Empty Hex", input: "0x", line: 1},
		{name: "Bad Octal", input: "\n\n09", line: 3},
		{name: "Trailing Letters", input: "12ab", line: 1},
		{name: "Unterminated Comment", input: "/* never closed", line: 1},
		{name: "Unexpected Character", input: "a @ b", line: 1},
		{name: "Reserved Identifier", input: "struct __hidden", reserved: true, line: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize([]byte(tt.input), tt.reserved)
			if err == nil {
				t.Fatal("expected an error, got nil")
			}
			if !errors.Is(err, ErrLexical) {
				t.Errorf("expected ErrLexical, got %v", err)
			}
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if e.Line != tt.line {
				t.Errorf("expected line %d, got %d", tt.line, e.Line)
			}
		})
	}
}

func TestReservedIdentifiersAllowedByDefault(t *testing.T) {
	toks, err := Tokenize([]byte("__hidden"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Type != IDENTIFIER {
		t.Errorf("expected IDENTIFIER, got %v", toks[0].Type)
	}
}
