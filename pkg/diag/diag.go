// Package diag defines the positioned, kinded errors raised by every phase
// of the pipeline and renders them as source snippets.
//
// Design: one error type for all phases. The Kind says what went wrong,
// Line/Col say where. Nothing here is recoverable; callers abort the run.
package diag

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind string

const (
	KindLex                 Kind = "LEX_ERROR"
	KindSyntax              Kind = "SYNTAX_ERROR"
	KindUndefinedVariable   Kind = "UNDEFINED_VARIABLE"
	KindUndefinedFunction   Kind = "UNDEFINED_FUNCTION"
	KindArity               Kind = "ARITY_ERROR"
	KindDivisionByZero      Kind = "DIVISION_BY_ZERO"
	KindUnsupportedOperator Kind = "UNSUPPORTED_OPERATOR"
	KindType                Kind = "TYPE_ERROR"
	KindResource            Kind = "RESOURCE_EXHAUSTED"
)

// Phase returns the pipeline phase that raises errors of this kind.
func (k Kind) Phase() string {
	switch k {
	case KindLex:
		return "lex"
	case KindSyntax:
		return "parse"
	case KindUnsupportedOperator:
		return "lower"
	default:
		return "run"
	}
}

// Sentinels for errors.Is. Matching compares kinds only.
var (
	ErrLex                 = &Error{Kind: KindLex}
	ErrSyntax              = &Error{Kind: KindSyntax}
	ErrUndefinedVariable   = &Error{Kind: KindUndefinedVariable}
	ErrUndefinedFunction   = &Error{Kind: KindUndefinedFunction}
	ErrArity               = &Error{Kind: KindArity}
	ErrDivisionByZero      = &Error{Kind: KindDivisionByZero}
	ErrUnsupportedOperator = &Error{Kind: KindUnsupportedOperator}
	ErrType                = &Error{Kind: KindType}
	ErrResource            = &Error{Kind: KindResource}
)

// Error is a pipeline error. Line and Col are 1-based; zero means unknown.
type Error struct {
	Kind Kind
	Msg  string
	Line int
	Col  int
}

// New creates an error of the given kind at line.
func New(kind Kind, line int, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Line: line}
}

// At creates an error with both line and column.
func At(kind Kind, line, col int, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Line: line, Col: col}
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at line %d: %s", e.Kind, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// LineOf returns the line of the first *Error in err's chain, or 0.
func LineOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Line
	}
	return 0
}
