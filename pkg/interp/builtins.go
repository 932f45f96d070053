package interp

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/tinypy/pkg/diag"
	"github.com/GriffinCanCode/tinypy/pkg/frontend"
)

// maxRangeLen caps the length of a list built by range.
const maxRangeLen = 1 << 24

type builtin func(r *run, n *frontend.FunctionCall, env *Env) (Value, error)

// builtins are resolved before user definitions and cannot be shadowed.
var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"print": builtinPrint,
		"range": builtinRange,
	}
}

// IsBuiltin reports whether name is intercepted as a built-in call.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

func builtinPrint(r *run, n *frontend.FunctionCall, env *Env) (Value, error) {
	args, err := r.evalArgs(n.Args, env)
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	if _, err := fmt.Fprintln(r.out, strings.Join(parts, " ")); err != nil {
		return nil, fmt.Errorf("print: %w", err)
	}
	return None{}, nil
}

func builtinRange(r *run, n *frontend.FunctionCall, env *Env) (Value, error) {
	if len(n.Args) != 2 {
		return nil, diag.New(diag.KindArity, n.Line, "range expects 2 arguments, got %d", len(n.Args))
	}
	args, err := r.evalArgs(n.Args, env)
	if err != nil {
		return nil, err
	}
	start, ok1 := args[0].(Int)
	end, ok2 := args[1].(Int)
	if !ok1 || !ok2 {
		return nil, diag.New(diag.KindType, n.Line,
			"range arguments must be int, got %s and %s", TypeName(args[0]), TypeName(args[1]))
	}

	if end <= start {
		return List{}, nil
	}
	if end-start > maxRangeLen || end-start < 0 {
		return nil, diag.New(diag.KindResource, n.Line, "range(%d, %d) exceeds %d elements", start, end, maxRangeLen)
	}
	items := make(List, 0, end-start)
	for v := start; v < end; v++ {
		items = append(items, v)
	}
	return items, nil
}
