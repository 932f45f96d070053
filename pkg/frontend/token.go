// Package frontend - Tokens for the indentation-sensitive source language
package frontend

import "fmt"

type TokenType int

const (
	EOF TokenType = iota
	NEWLINE
	INDENT
	DEDENT

	// Literals
	NUMBER
	STRING
	IDENTIFIER

	// Keywords
	IF
	WHILE
	FOR
	IN
	DEF
	RETURN

	// Operators
	PLUS
	MINUS
	MUL
	DIV
	MOD
	OR  // |
	AND // &
	XOR // ^
	EQEQ
	NE
	GT
	LT
	GTE
	LTE
	EQUAL

	// Delimiters
	LPAREN
	RPAREN
	COLON
	COMMA
)

var tokenNames = [...]string{
	EOF:        "EOF",
	NEWLINE:    "NEWLINE",
	INDENT:     "INDENT",
	DEDENT:     "DEDENT",
	NUMBER:     "NUMBER",
	STRING:     "STRING",
	IDENTIFIER: "IDENTIFIER",
	IF:         "IF",
	WHILE:      "WHILE",
	FOR:        "FOR",
	IN:         "IN",
	DEF:        "DEF",
	RETURN:     "RETURN",
	PLUS:       "PLUS",
	MINUS:      "MINUS",
	MUL:        "MUL",
	DIV:        "DIV",
	MOD:        "MOD",
	OR:         "OR",
	AND:        "AND",
	XOR:        "XOR",
	EQEQ:       "EQEQ",
	NE:         "NE",
	GT:         "GT",
	LT:         "LT",
	GTE:        "GTE",
	LTE:        "LTE",
	EQUAL:      "EQUAL",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	COLON:      "COLON",
	COMMA:      "COMMA",
}

func (t TokenType) String() string {
	if int(t) >= 0 && int(t) < len(tokenNames) && tokenNames[t] != "" {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

var keywords = map[string]TokenType{
	"if":     IF,
	"while":  WHILE,
	"for":    FOR,
	"in":     IN,
	"def":    DEF,
	"return": RETURN,
}

// Token is an immutable lexical unit. Num holds the value of a NUMBER.
type Token struct {
	Type   TokenType
	Lexeme string
	Num    int64
	Line   int
	Col    int
}

func (t Token) String() string {
	switch t.Type {
	case NUMBER, STRING, IDENTIFIER:
		return fmt.Sprintf("%s(%s)", t.Type, t.Lexeme)
	default:
		return t.Type.String()
	}
}
