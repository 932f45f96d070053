// Package frontend - Lexer for the indentation-sensitive source language
// Design: Hand-written scanner, one token per call, indentation stack for blocks
package frontend

import (
	"strconv"

	"github.com/GriffinCanCode/tinypy/pkg/diag"
)

// tabWidth is the number of columns a leading tab counts for.
const tabWidth = 4

type Lexer struct {
	source []rune
	start  int
	pos    int
	line   int
	col    int

	// Indentation stack for significant whitespace, base entry is 0
	indents []int
	pending []Token

	atLineStart   bool
	lineHasTokens bool
	parens        int
}

func NewLexer(source string) *Lexer {
	return &Lexer{
		source:      []rune(source),
		line:        1,
		col:         1,
		indents:     []int{0},
		atLineStart: true,
	}
}

// Tokenize runs a fresh lexer over source and returns every token up to
// and including EOF.
func Tokenize(source string) ([]Token, error) {
	l := NewLexer(source)
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}

// Next returns the next token. Once EOF has been returned every further
// call returns EOF again.
func (l *Lexer) Next() (Token, error) {
	for {
		if len(l.pending) > 0 {
			tok := l.pending[0]
			l.pending = l.pending[1:]
			return tok, nil
		}

		if l.atLineStart && l.parens == 0 {
			again, err := l.handleLineStart()
			if err != nil {
				return Token{}, err
			}
			if again {
				continue
			}
		}

		l.skipWhitespace()

		if l.isAtEnd() {
			return l.finish(), nil
		}

		l.start = l.pos
		col := l.col
		c := l.advance()

		switch c {
		case '\n':
			l.newline()
			if l.parens > 0 {
				continue
			}
			l.atLineStart = true
			if !l.lineHasTokens {
				continue
			}
			l.lineHasTokens = false
			return Token{Type: NEWLINE, Lexeme: "\n", Line: l.line - 1, Col: col}, nil
		case '+':
			return l.makeToken(PLUS, col), nil
		case '-':
			return l.makeToken(MINUS, col), nil
		case '*':
			return l.makeToken(MUL, col), nil
		case '/':
			return l.makeToken(DIV, col), nil
		case '%':
			return l.makeToken(MOD, col), nil
		case '|':
			return l.makeToken(OR, col), nil
		case '&':
			return l.makeToken(AND, col), nil
		case '^':
			return l.makeToken(XOR, col), nil
		case '(':
			l.parens++
			return l.makeToken(LPAREN, col), nil
		case ')':
			if l.parens > 0 {
				l.parens--
			}
			return l.makeToken(RPAREN, col), nil
		case ':':
			return l.makeToken(COLON, col), nil
		case ',':
			return l.makeToken(COMMA, col), nil
		case '=':
			if l.match('=') {
				return l.makeToken(EQEQ, col), nil
			}
			return l.makeToken(EQUAL, col), nil
		case '!':
			if l.match('=') {
				return l.makeToken(NE, col), nil
			}
		case '<':
			if l.match('=') {
				return l.makeToken(LTE, col), nil
			}
			return l.makeToken(LT, col), nil
		case '>':
			if l.match('=') {
				return l.makeToken(GTE, col), nil
			}
			return l.makeToken(GT, col), nil
		case '"':
			return l.str(col)
		}

		if isDigit(c) {
			return l.number(col)
		}

		if isAlpha(c) {
			return l.identifier(col), nil
		}

		return Token{}, diag.At(diag.KindLex, l.line, col, "unexpected character %q", c)
	}
}

// handleLineStart measures the indentation of a new logical line and queues
// INDENT/DEDENT tokens. It reports true when the caller should loop again,
// either because tokens were queued or because a blank line was consumed.
func (l *Lexer) handleLineStart() (bool, error) {
	spaces := 0
	for l.peek() == ' ' || l.peek() == '\t' {
		if l.peek() == '\t' {
			spaces += tabWidth
		} else {
			spaces++
		}
		l.advance()
	}
	for l.peek() == '\r' {
		l.advance()
	}

	if l.isAtEnd() {
		return false, nil
	}

	// Blank and comment-only lines never change indentation
	if l.peek() == '#' {
		l.skipComment()
	}
	if l.peek() == '\n' {
		l.advance()
		l.newline()
		return true, nil
	}
	if l.isAtEnd() {
		return false, nil
	}

	l.atLineStart = false
	current := l.indents[len(l.indents)-1]

	switch {
	case spaces > current:
		l.indents = append(l.indents, spaces)
		l.pending = append(l.pending, Token{Type: INDENT, Line: l.line, Col: 1})
		return true, nil
	case spaces < current:
		for len(l.indents) > 1 && l.indents[len(l.indents)-1] > spaces {
			l.indents = l.indents[:len(l.indents)-1]
			l.pending = append(l.pending, Token{Type: DEDENT, Line: l.line, Col: 1})
		}
		if l.indents[len(l.indents)-1] != spaces {
			return false, diag.At(diag.KindLex, l.line, spaces+1,
				"inconsistent indentation: %d spaces does not match any enclosing block", spaces)
		}
		return true, nil
	}

	return false, nil
}

// finish produces the end-of-input sequence: a pending NEWLINE, one DEDENT
// per open block, then EOF.
func (l *Lexer) finish() Token {
	if l.lineHasTokens {
		l.lineHasTokens = false
		return Token{Type: NEWLINE, Lexeme: "\n", Line: l.line, Col: l.col}
	}
	if len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		return Token{Type: DEDENT, Line: l.line, Col: l.col}
	}
	return Token{Type: EOF, Line: l.line, Col: l.col}
}

// Identifiers and numbers are ASCII only.
func isDigit(c rune) bool { return c >= '0' && c <= '9' }

func isAlpha(c rune) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func (l *Lexer) skipWhitespace() {
	for !l.isAtEnd() {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.advance()
		case '#':
			l.skipComment()
		default:
			return
		}
	}
}

func (l *Lexer) skipComment() {
	for !l.isAtEnd() && l.peek() != '\n' {
		l.advance()
	}
}

func (l *Lexer) number(col int) (Token, error) {
	for isDigit(l.peek()) {
		l.advance()
	}
	text := string(l.source[l.start:l.pos])
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Token{}, diag.At(diag.KindLex, l.line, col, "integer literal %s out of range", text)
	}
	tok := l.makeToken(NUMBER, col)
	tok.Num = n
	return tok, nil
}

func (l *Lexer) identifier(col int) Token {
	for isAlpha(l.peek()) || isDigit(l.peek()) {
		l.advance()
	}

	tok := l.makeToken(IDENTIFIER, col)
	if kw, ok := keywords[tok.Lexeme]; ok {
		tok.Type = kw
	}
	return tok
}

func (l *Lexer) str(col int) (Token, error) {
	for !l.isAtEnd() && l.peek() != '"' && l.peek() != '\n' {
		l.advance()
	}
	if l.peek() != '"' {
		return Token{}, diag.At(diag.KindLex, l.line, col, "unterminated string literal")
	}
	l.advance()

	l.lineHasTokens = true
	return Token{
		Type:   STRING,
		Lexeme: string(l.source[l.start+1 : l.pos-1]),
		Line:   l.line,
		Col:    col,
	}, nil
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return '\x00'
	}
	return l.source[l.pos]
}

func (l *Lexer) advance() rune {
	c := l.source[l.pos]
	l.pos++
	l.col++
	return c
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() || l.source[l.pos] != expected {
		return false
	}
	l.pos++
	l.col++
	return true
}

func (l *Lexer) newline() {
	l.line++
	l.col = 1
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func (l *Lexer) makeToken(typ TokenType, col int) Token {
	l.lineHasTokens = true
	return Token{
		Type:   typ,
		Lexeme: string(l.source[l.start:l.pos]),
		Line:   l.line,
		Col:    col,
	}
}
