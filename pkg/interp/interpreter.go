// Package interp implements a tree-walking interpreter over the frontend AST.
//
// Design: the scope chain is passed explicitly into every evaluation call.
// The Interpreter itself only holds configuration, so one value can run any
// number of programs. Only the print built-in produces output, and it goes
// to the injected writer.
package interp

import (
	"io"
	"log/slog"

	"github.com/GriffinCanCode/tinypy/pkg/diag"
	"github.com/GriffinCanCode/tinypy/pkg/frontend"
	"github.com/GriffinCanCode/tinypy/pkg/logger"
)

// DefaultMaxCallDepth bounds the number of active user function calls.
const DefaultMaxCallDepth = 1000

type Interpreter struct {
	out          io.Writer
	maxCallDepth int
	log          *slog.Logger
}

type Option func(*Interpreter)

// WithOutput sets the sink print writes to.
func WithOutput(w io.Writer) Option {
	return func(i *Interpreter) { i.out = w }
}

// WithMaxCallDepth sets the call depth guard. Values <= 0 disable it.
func WithMaxCallDepth(n int) Option {
	return func(i *Interpreter) { i.maxCallDepth = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(i *Interpreter) { i.log = l }
}

func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		out:          io.Discard,
		maxCallDepth: DefaultMaxCallDepth,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.log == nil {
		i.log = logger.With("component", "interp")
	}
	return i
}

// Result is the observable outcome of a run.
type Result struct {
	// Globals is the top-level scope after the run.
	Globals *Env
	// Value is the value of the last top-level expression statement, or the
	// value of a top-level return. None otherwise.
	Value Value
}

// Run evaluates program against a fresh top-level scope.
func (i *Interpreter) Run(program *frontend.Block) (*Result, error) {
	return i.RunIn(program, NewEnv(nil))
}

// RunIn evaluates program against an existing top-level scope, which keeps
// every binding made before a failure.
func (i *Interpreter) RunIn(program *frontend.Block, globals *Env) (*Result, error) {
	r := &run{Interpreter: i, globals: globals}

	o, err := r.exec(program, globals)
	if err != nil {
		i.log.Debug("Run aborted", "kind", diag.KindOf(err), "line", diag.LineOf(err))
		return nil, err
	}

	res := &Result{Globals: globals, Value: None{}}
	if o.sig != sigNone {
		res.Value = o.val
	}
	i.log.Debug("Run complete", "globals", globals.Len(), "returned", o.sig == sigReturn)
	return res, nil
}

// signal tells a statement's caller how control leaves it.
type signal int

const (
	sigNone signal = iota
	sigValue
	sigReturn
)

type outcome struct {
	sig signal
	val Value
}

var noOutcome = outcome{sig: sigNone}

// run is the state of one Run call.
type run struct {
	*Interpreter
	globals *Env
	depth   int
}

func (r *run) exec(n frontend.Node, env *Env) (outcome, error) {
	switch n := n.(type) {
	case *frontend.Block:
		last := noOutcome
		for _, stmt := range n.Stmts {
			o, err := r.exec(stmt, env)
			if err != nil {
				return noOutcome, err
			}
			if o.sig == sigReturn {
				return o, nil
			}
			last = o
		}
		return last, nil

	case *frontend.Assign:
		v, err := r.eval(n.Value, env)
		if err != nil {
			return noOutcome, err
		}
		env.Set(n.Target, v)
		return noOutcome, nil

	case *frontend.If:
		cond, err := r.eval(n.Cond, env)
		if err != nil {
			return noOutcome, err
		}
		if Truthy(cond) {
			return r.body(n.Body, env)
		}
		return noOutcome, nil

	case *frontend.While:
		for {
			cond, err := r.eval(n.Cond, env)
			if err != nil {
				return noOutcome, err
			}
			if !Truthy(cond) {
				return noOutcome, nil
			}
			o, err := r.body(n.Body, env)
			if err != nil || o.sig == sigReturn {
				return o, err
			}
		}

	case *frontend.For:
		iterable, err := r.eval(n.Iterable, env)
		if err != nil {
			return noOutcome, err
		}
		items, err := iterate(iterable, n.Line)
		if err != nil {
			return noOutcome, err
		}
		for _, item := range items {
			env.Set(n.Var, item)
			o, err := r.body(n.Body, env)
			if err != nil || o.sig == sigReturn {
				return o, err
			}
		}
		return noOutcome, nil

	case *frontend.FunctionDef:
		env.Set(n.Name, &Function{Name: n.Name, Params: n.Params, Body: n.Body})
		return noOutcome, nil

	case *frontend.Return:
		v, err := r.eval(n.Value, env)
		if err != nil {
			return noOutcome, err
		}
		return outcome{sig: sigReturn, val: v}, nil
	}

	v, err := r.eval(n, env)
	if err != nil {
		return noOutcome, err
	}
	return outcome{sig: sigValue, val: v}, nil
}

// body runs a nested block, forwarding only a return signal.
func (r *run) body(b *frontend.Block, env *Env) (outcome, error) {
	o, err := r.exec(b, env)
	if err != nil {
		return noOutcome, err
	}
	if o.sig == sigReturn {
		return o, nil
	}
	return noOutcome, nil
}

func (r *run) eval(n frontend.Node, env *Env) (Value, error) {
	switch n := n.(type) {
	case *frontend.Num:
		return Int(n.Value), nil

	case *frontend.Str:
		return Str(n.Value), nil

	case *frontend.Var:
		v, ok := env.Get(n.Name)
		if !ok {
			return nil, diag.New(diag.KindUndefinedVariable, n.Line, "variable %q is not defined", n.Name)
		}
		return v, nil

	case *frontend.BinOp:
		left, err := r.eval(n.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := r.eval(n.Right, env)
		if err != nil {
			return nil, err
		}
		return binaryOp(n.Op, left, right, n.Line)

	case *frontend.FunctionCall:
		return r.call(n, env)

	case nil:
		return nil, diag.New(diag.KindType, 0, "missing expression")
	}

	return nil, diag.New(diag.KindType, n.Pos(), "%T cannot be used as an expression", n)
}

func (r *run) call(n *frontend.FunctionCall, env *Env) (Value, error) {
	if b, ok := builtins[n.Name]; ok {
		return b(r, n, env)
	}

	callee, ok := env.Get(n.Name)
	if !ok {
		return nil, diag.New(diag.KindUndefinedFunction, n.Line, "function %q is not defined", n.Name)
	}
	fn, ok := callee.(*Function)
	if !ok {
		return nil, diag.New(diag.KindType, n.Line, "%q is a %s, not a function", n.Name, TypeName(callee))
	}

	args, err := r.evalArgs(n.Args, env)
	if err != nil {
		return nil, err
	}
	if len(args) != len(fn.Params) {
		return nil, diag.New(diag.KindArity, n.Line,
			"function %q expects %d arguments, got %d", fn.Name, len(fn.Params), len(args))
	}

	if r.maxCallDepth > 0 && r.depth >= r.maxCallDepth {
		return nil, diag.New(diag.KindResource, n.Line,
			"maximum call depth of %d exceeded calling %q", r.maxCallDepth, fn.Name)
	}
	r.depth++
	defer func() { r.depth-- }()

	local := NewEnv(r.globals)
	for i, param := range fn.Params {
		local.Set(param, args[i])
	}

	o, err := r.exec(fn.Body, local)
	if err != nil {
		return nil, err
	}
	if o.sig == sigReturn {
		return o.val, nil
	}
	return None{}, nil
}

func (r *run) evalArgs(nodes []frontend.Node, env *Env) ([]Value, error) {
	args := make([]Value, len(nodes))
	for i, a := range nodes {
		v, err := r.eval(a, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func iterate(v Value, line int) ([]Value, error) {
	switch v := v.(type) {
	case List:
		return v, nil
	case Str:
		items := make([]Value, 0, len(v))
		for _, c := range string(v) {
			items = append(items, Str(string(c)))
		}
		return items, nil
	}
	return nil, diag.New(diag.KindType, line, "%s is not iterable", TypeName(v))
}
