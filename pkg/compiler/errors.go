package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every *Error wraps exactly one of these.
var (
	ErrLexical           = errors.New("lexical error")
	ErrSyntax            = errors.New("syntax error")
	ErrDuplicate         = errors.New("duplicate identifier")
	ErrUnknownIdentifier = errors.New("unknown identifier")
	ErrTypeMismatch      = errors.New("type mismatch")
	ErrOutOfRange        = errors.New("value out of range")
	ErrCount             = errors.New("wrong number of values")
	ErrInvalidKey        = errors.New("invalid hashmap key")
	ErrNotDynamic        = errors.New("array is not dynamic")
	ErrFlagLimit         = errors.New("too many flags")
	ErrInvalidDefault    = errors.New("invalid default value")
	ErrTagRejected       = errors.New("tag rejected")
	ErrPreprocess        = errors.New("preprocessor error")
)

// Error is a diagnostic tied to a source token.
type Error struct {
	Kind   error
	File   string
	Line   int
	Lexeme string
	Msg    string
	Source string // the offending source line, trimmed
}

func (e *Error) Error() string {
	loc := fmt.Sprintf("line %d", e.Line)
	if e.File != "" {
		loc = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	if e.Source == "" {
		return fmt.Sprintf("%s: %s", loc, e.Msg)
	}
	return fmt.Sprintf("%s: %s\n  |> %s", loc, e.Msg, e.Source)
}

func (e *Error) Unwrap() error { return e.Kind }

// sourceLine returns the trimmed line of src containing byte offset pos.
func sourceLine(src []byte, pos int) string {
	if pos < 0 || pos > len(src) {
		return ""
	}
	start := bytes.LastIndexByte(src[:pos], '\n') + 1
	end := bytes.IndexByte(src[pos:], '\n')
	if end < 0 {
		end = len(src)
	} else {
		end += pos
	}
	return strings.TrimSpace(string(src[start:end]))
}

func newError(kind error, src []byte, tok Token, format string, args ...any) *Error {
	return &Error{
		Kind:   kind,
		File:   tok.File,
		Line:   tok.Line,
		Lexeme: tok.Lexeme,
		Msg:    fmt.Sprintf(format, args...),
		Source: sourceLine(src, tok.Pos),
	}
}
