package compiler

import (
	"strconv"
	"strings"
)

// keywords maps source text to its keyword TokenType.
var keywords = map[string]TokenType{
	"int8":        INT8,
	"uint8":       UINT8,
	"int16":       INT16,
	"uint16":      UINT16,
	"int32":       INT32,
	"uint32":      UINT32,
	"int64":       INT64,
	"uint64":      UINT64,
	"float32":     FLOAT32,
	"float64":     FLOAT64,
	"string":      STRING,
	"boolean":     BOOLEAN,
	"file":        FILE,
	"tuid":        TUID,
	"json":        JSON,
	"select":      SELECT,
	"bitfield":    BITFIELD,
	"struct":      STRUCT,
	"typedef":     TYPEDEF,
	"author":      AUTHOR,
	"description": DESCRIPTION,
	"label":       LABEL,
	"value":       VALUE,
	"default":     DEFAULT,
	"extensions":  EXTENSIONS,
	"vaulthints":  VAULTHINTS,
	"empty":       EMPTY,
	"base":        BASE,
	"range":       RANGE,
	"render":      RENDER,
	"parallel":    PARALLEL,
	"version":     VERSION,
	"callback":    CALLBACK,
	"key":         KEY,
	"units":       UNITS,
	"tag":         TAG,
	"true":        TRUE,
	"false":       FALSE,
	"pi":          PI,
	"e":           E,
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src           []byte
	pos           int // index of the next byte to consume
	line          int // current 1-based source line
	file          string
	lineStart     bool
	twoUsReserved bool
}

func newLexer(src []byte, twoUsReserved bool) *Lexer {
	return &Lexer{src: src, line: 1, lineStart: true, twoUsReserved: twoUsReserved}
}

func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isHex(c byte) bool    { return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F' }

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peek2() byte {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

// advance consumes one byte and returns it.
func (l *Lexer) advance() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.lineStart = true
	}
	return c
}

func (l *Lexer) errorf(start, line int, format string, args ...any) error {
	tok := Token{Lexeme: string(l.src[start:l.pos]), File: l.file, Line: line, Pos: start}
	return newError(ErrLexical, l.src, tok, format, args...)
}

func (l *Lexer) skipLineComment() {
	for l.pos < len(l.src) && l.peek() != '\n' {
		l.advance()
	}
}

// skipBlockComment discards everything up to and including the closing "*/".
// The opening "/*" must already have been consumed.
func (l *Lexer) skipBlockComment(start int) error {
	startLine := l.line
	for l.pos < len(l.src) {
		if l.peek() == '*' && l.peek2() == '/' {
			l.advance()
			l.advance()
			return nil
		}
		l.advance()
	}
	return l.errorf(start, startLine, "unterminated block comment (opened on line %d)", startLine)
}

// lineMarker handles `# N "file"` and `#line N "file"` at the start of a
// line. The line after the marker becomes line N of file.
func (l *Lexer) lineMarker() error {
	start, line := l.pos, l.line
	end := l.pos
	for end < len(l.src) && l.src[end] != '\n' {
		end++
	}
	text := strings.TrimSpace(string(l.src[l.pos+1 : end]))
	text = strings.TrimPrefix(text, "line")
	fields := strings.Fields(text)
	if len(fields) == 0 {
		l.pos = end
		return l.errorf(start, line, "malformed line marker")
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 1 {
		l.pos = end
		return l.errorf(start, line, "malformed line marker")
	}
	if rest := strings.TrimSpace(text[strings.Index(text, fields[0])+len(fields[0]):]); rest != "" {
		if name, err := strconv.Unquote(strings.Fields(rest)[0]); err == nil {
			l.file = name
		}
	}
	l.pos = end
	l.line = n - 1
	return nil
}

// scanIdent collects a full identifier or keyword token.
func (l *Lexer) scanIdent() (Token, error) {
	start, line := l.pos, l.line
	for l.pos < len(l.src) && (isLetter(l.peek()) || isDigit(l.peek())) {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	if kw, ok := keywords[lexeme]; ok {
		return Token{Type: kw, Lexeme: lexeme, File: l.file, Line: line, Pos: start}, nil
	}
	if l.twoUsReserved && strings.HasPrefix(lexeme, "__") {
		return Token{}, l.errorf(start, line, "identifiers starting with two underscores are reserved: %s", lexeme)
	}
	return Token{Type: IDENTIFIER, Lexeme: lexeme, File: l.file, Line: line, Pos: start}, nil
}

// scanNumber collects an integer literal in any radix or a real literal.
func (l *Lexer) scanNumber() (Token, error) {
	start, line := l.pos, l.line
	tt := INTEGER
	switch {
	case l.peek() == '0' && (l.peek2() == 'x' || l.peek2() == 'X'):
		tt = HEX
		l.advance()
		l.advance()
		for isHex(l.peek()) {
			l.advance()
		}
		if l.pos-start == 2 {
			return Token{}, l.errorf(start, line, "malformed hexadecimal literal")
		}
	case l.peek() == '0' && (l.peek2() == 'b' || l.peek2() == 'B'):
		tt = BINARY
		l.advance()
		l.advance()
		for l.peek() == '0' || l.peek() == '1' {
			l.advance()
		}
		if l.pos-start == 2 {
			return Token{}, l.errorf(start, line, "malformed binary literal")
		}
	default:
		for isDigit(l.peek()) {
			l.advance()
		}
		if l.peek() == '.' && isDigit(l.peek2()) {
			tt = REAL
			l.advance()
			for isDigit(l.peek()) {
				l.advance()
			}
		}
		if c := l.peek(); c == 'e' || c == 'E' {
			save := l.pos
			l.advance()
			if l.peek() == '+' || l.peek() == '-' {
				l.advance()
			}
			if !isDigit(l.peek()) {
				l.pos = save
			} else {
				tt = REAL
				for isDigit(l.peek()) {
					l.advance()
				}
			}
		}
		if tt == INTEGER && l.src[start] == '0' && l.pos-start > 1 {
			tt = OCTAL
			for _, c := range l.src[start:l.pos] {
				if c > '7' {
					return Token{}, l.errorf(start, line, "malformed octal literal")
				}
			}
		}
	}
	if isLetter(l.peek()) || isDigit(l.peek()) {
		for isLetter(l.peek()) || isDigit(l.peek()) {
			l.advance()
		}
		return Token{}, l.errorf(start, line, "malformed number %s", l.src[start:l.pos])
	}
	return Token{Type: tt, Lexeme: string(l.src[start:l.pos]), File: l.file, Line: line, Pos: start}, nil
}

// scanString collects a string literal "...". The lexeme holds the
// unescaped contents.
func (l *Lexer) scanString() (Token, error) {
	start, line := l.pos, l.line
	l.advance() // consume opening "
	var val strings.Builder

	for l.pos < len(l.src) {
		c := l.peek()
		if c == '"' {
			break
		}
		if c == '\n' {
			return Token{}, l.errorf(start, line, "unterminated string literal")
		}
		if c == '\\' {
			l.advance()
			next := l.peek()
			switch next {
			case 'n':
				val.WriteByte('\n')
			case 'r':
				val.WriteByte('\r')
			case 't':
				val.WriteByte('\t')
			case '"':
				val.WriteByte('"')
			case '\'':
				val.WriteByte('\'')
			case '\\':
				val.WriteByte('\\')
			default:
				return Token{}, l.errorf(start, line, "unknown escape sequence \\%c", next)
			}
			l.advance()
			continue
		}
		val.WriteByte(c)
		l.advance()
	}

	if l.pos >= len(l.src) {
		return Token{}, l.errorf(start, line, "unterminated string literal")
	}
	l.advance() // consume closing "

	return Token{Type: STRING_LIT, Lexeme: val.String(), File: l.file, Line: line, Pos: start}, nil
}

func (l *Lexer) tok(tt TokenType, start, line int) Token {
	return Token{Type: tt, Lexeme: string(l.src[start:l.pos]), File: l.file, Line: line, Pos: start}
}

// nextToken skips whitespace, comments and line markers and returns the next Token.
func (l *Lexer) nextToken() (Token, error) {
	for {
		c := l.peek()
		switch {
		case l.pos >= len(l.src):
			return Token{Type: EOF, File: l.file, Line: l.line, Pos: l.pos}, nil
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == '\v':
			l.advance()
			continue
		case c == '#' && l.lineStart:
			if err := l.lineMarker(); err != nil {
				return Token{}, err
			}
			continue
		case c == '/' && l.peek2() == '/':
			l.skipLineComment()
			continue
		case c == '/' && l.peek2() == '*':
			start := l.pos
			l.advance()
			l.advance()
			if err := l.skipBlockComment(start); err != nil {
				return Token{}, err
			}
			continue
		}
		break
	}
	l.lineStart = false

	ch := l.peek()
	start, line := l.pos, l.line

	if isLetter(ch) {
		return l.scanIdent()
	}
	if isDigit(ch) {
		return l.scanNumber()
	}
	if ch == '"' {
		return l.scanString()
	}

	l.advance()
	two := func(next byte, tt, single TokenType) Token {
		if l.peek() == next {
			l.advance()
			return l.tok(tt, start, line)
		}
		return l.tok(single, start, line)
	}
	switch ch {
	case '{':
		return l.tok(LBRACE, start, line), nil
	case '}':
		return l.tok(RBRACE, start, line), nil
	case '(':
		return l.tok(LPAREN, start, line), nil
	case ')':
		return l.tok(RPAREN, start, line), nil
	case '[':
		return l.tok(LBRACKET, start, line), nil
	case ']':
		return l.tok(RBRACKET, start, line), nil
	case '.':
		return l.tok(DOT, start, line), nil
	case ';':
		return l.tok(SEMICOLON, start, line), nil
	case ',':
		return l.tok(COMMA, start, line), nil
	case ':':
		return l.tok(COLON, start, line), nil
	case '?':
		return l.tok(QUESTION, start, line), nil
	case '+':
		return l.tok(PLUS, start, line), nil
	case '-':
		return l.tok(MINUS, start, line), nil
	case '*':
		return l.tok(STAR, start, line), nil
	case '/':
		return l.tok(SLASH, start, line), nil
	case '%':
		return l.tok(PERCENT, start, line), nil
	case '^':
		return l.tok(CARET, start, line), nil
	case '~':
		return l.tok(TILDE, start, line), nil
	case '&':
		return two('&', AND_LOGICAL, AND), nil
	case '|':
		return two('|', OR_LOGICAL, PIPE), nil
	case '!':
		return two('=', NOT_EQ, NOT), nil
	case '=':
		return two('=', EQUALS, ASSIGN), nil
	case '<':
		if l.peek() == '<' {
			l.advance()
			return l.tok(SHL_OP, start, line), nil
		}
		return two('=', LESS_EQ, LESS), nil
	case '>':
		if l.peek() == '>' {
			l.advance()
			return l.tok(SHR_OP, start, line), nil
		}
		return two('=', GREATER_EQ, GREATER), nil
	}
	return Token{}, l.errorf(start, line, "unexpected character %q", ch)
}

// Tokenize converts DDL source into a token slice terminated by EOF. When
// twoUsReserved is set, identifiers starting with "__" are rejected.
func Tokenize(src []byte, twoUsReserved bool) ([]Token, error) {
	l := newLexer(src, twoUsReserved)
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}

// Lex is Tokenize for string input without reserved identifiers.
func Lex(src string) ([]Token, error) {
	return Tokenize([]byte(src), false)
}
