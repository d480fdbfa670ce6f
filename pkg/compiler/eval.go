package compiler

import (
	"errors"
	"math"
	"strconv"
)

// Constant expressions are folded while they are parsed. Operands live on
// p.stack; each level of the precedence ladder pops its operands and pushes
// the result.
//
//	expression = logical_or ("?" expression ":" expression)?
//	logical_or = logical_and ("||" logical_and)*
//	logical_and = bitwise_or ("&&" bitwise_or)*
//	bitwise_or = bitwise_xor ("|" bitwise_xor)*
//	bitwise_xor = bitwise_and ("^" bitwise_and)*
//	bitwise_and = equality ("&" equality)*
//	equality   = relational (("==" | "!=") relational)*
//	relational = shift (("<" | "<=" | ">" | ">=") shift)*
//	shift      = additive (("<<" | ">>") additive)*
//	additive   = multiplicative (("+" | "-") multiplicative)*
//	multiplicative = unary (("*" | "/" | "%") unary)*
//	unary      = ("+" | "-" | "~" | "!") unary | terminal
//	terminal   = number | string | true | false | pi | e | Select "." Item | "(" expression ")"

// evaluate parses one expression and returns its value together with the
// token it started at.
func (p *Parser) evaluate() (Value, Token, error) {
	start := p.peek()
	if err := p.parseExpression(); err != nil {
		return Value{}, start, err
	}
	v, _ := p.stack.Pop()
	return v, start, nil
}

// push places v on the operand stack. An invalid value means the operator
// did not accept its operand kinds.
func (p *Parser) push(v Value, at Token) error {
	if !v.Valid {
		return p.fmtError(ErrTypeMismatch, at, "type mismatch in expression at %q", at.Lexeme)
	}
	return p.stack.Push(v)
}

func (p *Parser) pop2() (left, right Value) {
	right, _ = p.stack.Pop()
	left, _ = p.stack.Pop()
	return left, right
}

func (p *Parser) parseExpression() error {
	if err := p.parseLogicalOr(); err != nil {
		return err
	}
	if p.peek().Type != QUESTION {
		return nil
	}
	op := p.advance()
	cond, _ := p.stack.Pop()
	if cond.IsString() {
		return p.fmtError(ErrTypeMismatch, op, "condition of ?: must be numeric")
	}
	if err := p.parseExpression(); err != nil {
		return err
	}
	if _, err := p.expect(COLON); err != nil {
		return err
	}
	if err := p.parseExpression(); err != nil {
		return err
	}
	first, second := p.pop2()
	if cond.truth() {
		return p.push(first, op)
	}
	return p.push(second, op)
}

// binary parses next (op next)* for the operators in ops.
func (p *Parser) binary(next func() error, ops map[TokenType]func(a, b Value) Value) error {
	if err := next(); err != nil {
		return err
	}
	for {
		op := p.peek()
		fn, ok := ops[op.Type]
		if !ok {
			return nil
		}
		p.advance()
		if err := next(); err != nil {
			return err
		}
		left, right := p.pop2()
		if err := p.push(fn(left, right), op); err != nil {
			return err
		}
	}
}

var (
	logicalOrOps  = map[TokenType]func(a, b Value) Value{OR_LOGICAL: Value.LogicalOr}
	logicalAndOps = map[TokenType]func(a, b Value) Value{AND_LOGICAL: Value.LogicalAnd}
	bitOrOps      = map[TokenType]func(a, b Value) Value{PIPE: Value.BitOr}
	bitXorOps     = map[TokenType]func(a, b Value) Value{CARET: Value.BitXor}
	bitAndOps     = map[TokenType]func(a, b Value) Value{AND: Value.BitAnd}
	equalityOps   = map[TokenType]func(a, b Value) Value{EQUALS: Value.Eq, NOT_EQ: Value.Ne}
	relationalOps = map[TokenType]func(a, b Value) Value{
		LESS: Value.Lt, LESS_EQ: Value.Le, GREATER: Value.Gt, GREATER_EQ: Value.Ge,
	}
	shiftOps    = map[TokenType]func(a, b Value) Value{SHL_OP: Value.Shl, SHR_OP: Value.Shr}
	additiveOps = map[TokenType]func(a, b Value) Value{PLUS: Value.Add, MINUS: Value.Sub}
	multOps     = map[TokenType]func(a, b Value) Value{STAR: Value.Mul, SLASH: Value.Div, PERCENT: Value.Mod}
)

func (p *Parser) parseLogicalOr() error  { return p.binary(p.parseLogicalAnd, logicalOrOps) }
func (p *Parser) parseLogicalAnd() error { return p.binary(p.parseBitwiseOr, logicalAndOps) }
func (p *Parser) parseBitwiseOr() error  { return p.binary(p.parseBitwiseXor, bitOrOps) }
func (p *Parser) parseBitwiseXor() error { return p.binary(p.parseBitwiseAnd, bitXorOps) }
func (p *Parser) parseBitwiseAnd() error { return p.binary(p.parseEquality, bitAndOps) }
func (p *Parser) parseEquality() error   { return p.binary(p.parseRelational, equalityOps) }
func (p *Parser) parseRelational() error { return p.binary(p.parseShift, relationalOps) }
func (p *Parser) parseShift() error      { return p.binary(p.parseAdditive, shiftOps) }
func (p *Parser) parseAdditive() error   { return p.binary(p.parseMultiplicative, additiveOps) }
func (p *Parser) parseMultiplicative() error {
	return p.binary(p.parseUnary, multOps)
}

func (p *Parser) parseUnary() error {
	op := p.peek()
	var fn func(Value) Value
	switch op.Type {
	case PLUS:
		fn = func(v Value) Value { return v }
	case MINUS:
		fn = Value.Neg
	case TILDE:
		fn = Value.Complement
	case NOT:
		fn = Value.Not
	default:
		return p.parseTerminal()
	}
	p.advance()
	if err := p.parseUnary(); err != nil {
		return err
	}
	v, _ := p.stack.Pop()
	return p.push(fn(v), op)
}

func (p *Parser) parseTerminal() error {
	tok := p.peek()
	switch tok.Type {
	case INTEGER, HEX, OCTAL, BINARY:
		p.advance()
		n, err := strconv.ParseUint(tok.Lexeme, 0, 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return p.fmtError(ErrOutOfRange, tok, "integer literal %s does not fit in 64 bits", tok.Lexeme)
			}
			return p.fmtError(ErrLexical, tok, "malformed integer literal %s", tok.Lexeme)
		}
		return p.push(IntOf(int64(n)), tok)
	case REAL:
		p.advance()
		f, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return p.fmtError(ErrLexical, tok, "malformed real literal %s", tok.Lexeme)
		}
		return p.push(FloatOf(f), tok)
	case STRING_LIT:
		p.advance()
		return p.push(StringOf(tok.Lexeme), tok)
	case TRUE:
		p.advance()
		return p.push(IntOf(1), tok)
	case FALSE:
		p.advance()
		return p.push(IntOf(0), tok)
	case PI:
		p.advance()
		return p.push(FloatOf(math.Pi), tok)
	case E:
		p.advance()
		return p.push(FloatOf(math.E), tok)
	case IDENTIFIER:
		return p.parseItemReference()
	case LPAREN:
		p.advance()
		if err := p.parseExpression(); err != nil {
			return err
		}
		_, err := p.expect(RPAREN)
		return err
	}
	return p.fmtError(ErrSyntax, tok, "unexpected %s %q, expected a constant expression", tok.Type, tok.Lexeme)
}

// parseItemReference evaluates Select.Item to the item's name hash.
func (p *Parser) parseItemReference() error {
	tok := p.advance()
	agg, ok := p.def().FindAggregate(tok.Lexeme)
	if !ok {
		return p.fmtError(ErrUnknownIdentifier, tok, "unknown identifier %q", tok.Lexeme)
	}
	sel, ok := agg.Select()
	if !ok {
		return p.fmtError(ErrTypeMismatch, tok, "%q is a %s, expected a select", tok.Lexeme, agg.Type())
	}
	if _, err := p.expect(DOT); err != nil {
		return err
	}
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return err
	}
	item, ok := sel.FindItem(name.Lexeme)
	if !ok {
		return p.fmtError(ErrUnknownIdentifier, name, "select %q has no item %q", tok.Lexeme, name.Lexeme)
	}
	return p.push(IntOf(int64(item.NameHash())), tok)
}
