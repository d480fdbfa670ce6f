package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Literals
	IDENTIFIER
	INTEGER // decimal
	HEX     // 0x...
	OCTAL   // 0...
	BINARY  // 0b...
	REAL    // 1.5, 1e3
	STRING_LIT

	// Type keywords
	INT8
	UINT8
	INT16
	UINT16
	INT32
	UINT32
	INT64
	UINT64
	FLOAT32
	FLOAT64
	STRING
	BOOLEAN
	FILE
	TUID
	JSON

	// Declarations
	SELECT
	BITFIELD
	STRUCT
	TYPEDEF

	// Info and tag keywords
	AUTHOR
	DESCRIPTION
	LABEL
	VALUE
	DEFAULT
	EXTENSIONS
	VAULTHINTS
	EMPTY
	BASE
	RANGE
	RENDER
	PARALLEL
	VERSION
	CALLBACK
	KEY
	UNITS
	TAG

	// Constants
	TRUE
	FALSE
	PI
	E

	// Delimiters
	LBRACE
	RBRACE
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	DOT
	SEMICOLON
	COMMA
	COLON
	QUESTION
	ASSIGN

	// Operators
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	AND // &
	PIPE
	CARET
	TILDE
	NOT
	SHL_OP
	SHR_OP
	AND_LOGICAL
	OR_LOGICAL
	EQUALS
	NOT_EQ
	LESS
	LESS_EQ
	GREATER
	GREATER_EQ

	numTokenTypes
)

// tokenNames is indexed by TokenType.
var tokenNames = [...]string{
	EOF:         "EOF",
	IDENTIFIER:  "IDENTIFIER",
	INTEGER:     "INTEGER",
	HEX:         "HEX",
	OCTAL:       "OCTAL",
	BINARY:      "BINARY",
	REAL:        "REAL",
	STRING_LIT:  "STRING_LIT",
	INT8:        "INT8",
	UINT8:       "UINT8",
	INT16:       "INT16",
	UINT16:      "UINT16",
	INT32:       "INT32",
	UINT32:      "UINT32",
	INT64:       "INT64",
	UINT64:      "UINT64",
	FLOAT32:     "FLOAT32",
	FLOAT64:     "FLOAT64",
	STRING:      "STRING",
	BOOLEAN:     "BOOLEAN",
	FILE:        "FILE",
	TUID:        "TUID",
	JSON:        "JSON",
	SELECT:      "SELECT",
	BITFIELD:    "BITFIELD",
	STRUCT:      "STRUCT",
	TYPEDEF:     "TYPEDEF",
	AUTHOR:      "AUTHOR",
	DESCRIPTION: "DESCRIPTION",
	LABEL:       "LABEL",
	VALUE:       "VALUE",
	DEFAULT:     "DEFAULT",
	EXTENSIONS:  "EXTENSIONS",
	VAULTHINTS:  "VAULTHINTS",
	EMPTY:       "EMPTY",
	BASE:        "BASE",
	RANGE:       "RANGE",
	RENDER:      "RENDER",
	PARALLEL:    "PARALLEL",
	VERSION:     "VERSION",
	CALLBACK:    "CALLBACK",
	KEY:         "KEY",
	UNITS:       "UNITS",
	TAG:         "TAG",
	TRUE:        "TRUE",
	FALSE:       "FALSE",
	PI:          "PI",
	E:           "E",
	LBRACE:      "LBRACE",
	RBRACE:      "RBRACE",
	LPAREN:      "LPAREN",
	RPAREN:      "RPAREN",
	LBRACKET:    "LBRACKET",
	RBRACKET:    "RBRACKET",
	DOT:         "DOT",
	SEMICOLON:   "SEMICOLON",
	COMMA:       "COMMA",
	COLON:       "COLON",
	QUESTION:    "QUESTION",
	ASSIGN:      "ASSIGN",
	PLUS:        "PLUS",
	MINUS:       "MINUS",
	STAR:        "STAR",
	SLASH:       "SLASH",
	PERCENT:     "PERCENT",
	AND:         "AND",
	PIPE:        "PIPE",
	CARET:       "CARET",
	TILDE:       "TILDE",
	NOT:         "NOT",
	SHL_OP:      "SHL_OP",
	SHR_OP:      "SHR_OP",
	AND_LOGICAL: "AND_LOGICAL",
	OR_LOGICAL:  "OR_LOGICAL",
	EQUALS:      "EQUALS",
	NOT_EQ:      "NOT_EQ",
	LESS:        "LESS",
	LESS_EQ:     "LESS_EQ",
	GREATER:     "GREATER",
	GREATER_EQ:  "GREATER_EQ",
}

// Compile-time check that every TokenType has a name.
var _ = [1]struct{}{}[len(tokenNames)-int(numTokenTypes)]

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // source text; string literals hold the unescaped contents
	File   string // from the last line marker, empty before any
	Line   int    // 1-based source line
	Pos    int    // byte offset of the lexeme in the source
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  line %d", t.Type, t.Lexeme, t.Line)
}
