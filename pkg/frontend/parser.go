// Package frontend - Recursive descent parser for the source language
// Design: Predictive parsing, precedence climbing for binary operators,
// first error aborts with the offending token and the expected kind.
package frontend

import (
	"github.com/GriffinCanCode/tinypy/pkg/diag"
)

// DefaultMaxDepth bounds statement and expression nesting.
const DefaultMaxDepth = 200

type Parser struct {
	tokens  []Token
	pos     int
	current Token
	depth   int

	// MaxDepth is the deepest statement/expression nesting accepted before
	// the parser gives up with a resource error.
	MaxDepth int
}

// NewParser takes the complete token sequence. A missing trailing EOF is
// supplied.
func NewParser(tokens []Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != EOF {
		line := 1
		if len(tokens) > 0 {
			line = tokens[len(tokens)-1].Line
		}
		tokens = append(tokens, Token{Type: EOF, Line: line})
	}
	return &Parser{
		tokens:   tokens,
		current:  tokens[0],
		MaxDepth: DefaultMaxDepth,
	}
}

// ParseSource tokenizes and parses source in one step.
func ParseSource(source string) (*Block, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

// Parse returns the program as a Block of top-level statements.
func (p *Parser) Parse() (*Block, error) {
	root := &Block{Line: p.current.Line}

	for !p.check(EOF) {
		if p.check(NEWLINE) {
			p.advance()
			continue
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		root.Stmts = append(root.Stmts, stmt)
	}

	return root, nil
}

func (p *Parser) statement() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	switch p.current.Type {
	case DEF:
		return p.functionDef()
	case IF:
		return p.ifStatement()
	case FOR:
		return p.forLoop()
	case WHILE:
		return p.whileLoop()
	case RETURN:
		return p.returnStatement()
	}

	expr, err := p.expression()
	if err != nil {
		return nil, err
	}

	if p.check(EQUAL) {
		if expr, err = p.assignment(expr); err != nil {
			return nil, err
		}
	}

	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) functionDef() (Node, error) {
	def := p.advance()

	name, err := p.consume(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(LPAREN); err != nil {
		return nil, err
	}

	var params []string
	if !p.check(RPAREN) {
		seen := make(map[string]bool)
		for {
			param, err := p.consume(IDENTIFIER)
			if err != nil {
				return nil, err
			}
			if seen[param.Lexeme] {
				return nil, diag.At(diag.KindSyntax, param.Line, param.Col,
					"duplicate parameter %q in function %q", param.Lexeme, name.Lexeme)
			}
			seen[param.Lexeme] = true
			params = append(params, param.Lexeme)

			if !p.check(COMMA) {
				break
			}
			p.advance()
		}
	}

	if _, err := p.consume(RPAREN); err != nil {
		return nil, err
	}

	body, err := p.block()
	if err != nil {
		return nil, err
	}

	return &FunctionDef{Name: name.Lexeme, Params: params, Body: body, Line: def.Line}, nil
}

func (p *Parser) ifStatement() (Node, error) {
	kw := p.advance()
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &If{Cond: cond, Body: body, Line: kw.Line}, nil
}

func (p *Parser) whileLoop() (Node, error) {
	kw := p.advance()
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &While{Cond: cond, Body: body, Line: kw.Line}, nil
}

func (p *Parser) forLoop() (Node, error) {
	kw := p.advance()
	name, err := p.consume(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(IN); err != nil {
		return nil, err
	}
	iterable, err := p.expression()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &For{Var: name.Lexeme, Iterable: iterable, Body: body, Line: kw.Line}, nil
}

func (p *Parser) returnStatement() (Node, error) {
	kw := p.advance()
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	return &Return{Value: value, Line: kw.Line}, nil
}

func (p *Parser) assignment(target Node) (Node, error) {
	eq := p.current
	v, ok := target.(*Var)
	if !ok {
		return nil, diag.At(diag.KindSyntax, eq.Line, eq.Col, "cannot assign to %s", describe(target))
	}
	p.advance()

	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &Assign{Target: v.Name, Value: value, Line: v.Line}, nil
}

// block parses ': NEWLINE INDENT stmt* DEDENT'.
func (p *Parser) block() (*Block, error) {
	if _, err := p.consume(COLON); err != nil {
		return nil, err
	}
	if _, err := p.consume(NEWLINE); err != nil {
		return nil, err
	}
	indent, err := p.consume(INDENT)
	if err != nil {
		return nil, err
	}

	b := &Block{Line: indent.Line}
	for !p.check(DEDENT) {
		if p.check(EOF) {
			return nil, p.expected(DEDENT)
		}
		if p.check(NEWLINE) {
			p.advance()
			continue
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, stmt)
	}
	p.advance()

	return b, nil
}

func (p *Parser) endOfStatement() error {
	switch p.current.Type {
	case NEWLINE:
		p.advance()
		return nil
	case DEDENT, EOF:
		return nil
	}
	return p.expected(NEWLINE)
}

func (p *Parser) expression() (Node, error) {
	return p.binary(0)
}

// binary implements precedence climbing. Operators of equal precedence
// associate left because the right operand is parsed with prec+1 as floor.
func (p *Parser) binary(minPrec int) (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.primary()
	if err != nil {
		return nil, err
	}

	for {
		op := p.current
		prec := Precedence(op.Type)
		if prec < minPrec {
			break
		}
		p.advance()

		right, err := p.binary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &BinOp{Left: left, Op: op.Type, Right: right, Line: left.Pos()}
	}

	return left, nil
}

// Precedence returns the binding power of a binary operator token, or -1
// for tokens that are not binary operators.
func Precedence(typ TokenType) int {
	switch typ {
	case EQEQ, NE, GT, LT, GTE, LTE:
		return 5
	case OR:
		return 6
	case XOR:
		return 7
	case AND:
		return 8
	case PLUS, MINUS:
		return 10
	case MUL, DIV, MOD:
		return 20
	}
	return -1
}

func (p *Parser) primary() (Node, error) {
	tok := p.current

	switch tok.Type {
	case NUMBER:
		p.advance()
		return &Num{Value: tok.Num, Line: tok.Line}, nil

	case STRING:
		p.advance()
		return &Str{Value: tok.Lexeme, Line: tok.Line}, nil

	case IDENTIFIER:
		p.advance()
		if !p.check(LPAREN) {
			return &Var{Name: tok.Lexeme, Line: tok.Line}, nil
		}
		p.advance()

		var args []Node
		if !p.check(RPAREN) {
			for {
				arg, err := p.expression()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if !p.check(COMMA) {
					break
				}
				p.advance()
			}
		}
		if _, err := p.consume(RPAREN); err != nil {
			return nil, err
		}
		return &FunctionCall{Name: tok.Lexeme, Args: args, Line: tok.Line}, nil

	case LPAREN:
		p.advance()
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	}

	return nil, diag.At(diag.KindSyntax, tok.Line, tok.Col, "expected expression, got %s", tok)
}

func (p *Parser) check(typ TokenType) bool {
	return p.current.Type == typ
}

// advance moves to the next token and returns the previous one. It never
// moves past EOF.
func (p *Parser) advance() Token {
	prev := p.current
	if p.pos < len(p.tokens)-1 {
		p.pos++
		p.current = p.tokens[p.pos]
	}
	return prev
}

func (p *Parser) consume(typ TokenType) (Token, error) {
	if p.check(typ) {
		return p.advance(), nil
	}
	return Token{}, p.expected(typ)
}

func (p *Parser) expected(typ TokenType) error {
	return diag.At(diag.KindSyntax, p.current.Line, p.current.Col, "expected %s, got %s", typ, p.current)
}

func (p *Parser) enter() error {
	p.depth++
	if p.MaxDepth > 0 && p.depth > p.MaxDepth {
		return diag.At(diag.KindResource, p.current.Line, p.current.Col,
			"nesting exceeds maximum depth of %d", p.MaxDepth)
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

func describe(n Node) string {
	switch n.(type) {
	case *Num, *Str:
		return "literal"
	case *FunctionCall:
		return "function call"
	case *BinOp:
		return "expression"
	default:
		return "non-variable"
	}
}
