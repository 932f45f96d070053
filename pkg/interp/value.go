package interp

import (
	"strconv"
	"strings"

	"github.com/GriffinCanCode/tinypy/pkg/frontend"
)

// Value is a runtime value. The set of implementations is closed.
type Value interface {
	value()
	// String returns the form print writes.
	String() string
}

type Int int64

type Str string

type Bool bool

// List is the finite sequence produced by range.
type List []Value

// None is the result of statements and calls that produce nothing.
type None struct{}

// Function is a user definition bound by def.
type Function struct {
	Name   string
	Params []string
	Body   *frontend.Block
}

func (Int) value()       {}
func (Str) value()       {}
func (Bool) value()      {}
func (List) value()      {}
func (None) value()      {}
func (*Function) value() {}

func (v Int) String() string { return strconv.FormatInt(int64(v), 10) }
func (v Str) String() string { return string(v) }

func (v Bool) String() string {
	if v {
		return "True"
	}
	return "False"
}

func (v List) String() string {
	parts := make([]string, len(v))
	for i, e := range v {
		if s, ok := e.(Str); ok {
			parts[i] = "'" + string(s) + "'"
		} else {
			parts[i] = e.String()
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (None) String() string        { return "None" }
func (f *Function) String() string { return "<function " + f.Name + ">" }

// TypeName names the kind of v for error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case Int:
		return "int"
	case Str:
		return "str"
	case Bool:
		return "bool"
	case List:
		return "list"
	case None:
		return "NoneType"
	case *Function:
		return "function"
	default:
		return "unknown"
	}
}

// Truthy reports whether v counts as true in a condition.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case Int:
		return v != 0
	case Str:
		return v != ""
	case Bool:
		return bool(v)
	case List:
		return len(v) > 0
	case None:
		return false
	default:
		return true
	}
}

// Equal compares two values. Values of different kinds are never equal.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Int:
		b, ok := b.(Int)
		return ok && a == b
	case Str:
		b, ok := b.(Str)
		return ok && a == b
	case Bool:
		b, ok := b.(Bool)
		return ok && a == b
	case None:
		_, ok := b.(None)
		return ok
	case List:
		b, ok := b.(List)
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if !Equal(a[i], b[i]) {
				return false
			}
		}
		return true
	case *Function:
		b, ok := b.(*Function)
		return ok && a == b
	}
	return false
}
