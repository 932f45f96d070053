package interp

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/GriffinCanCode/tinypy/pkg/diag"
	"github.com/GriffinCanCode/tinypy/pkg/frontend"
)

// --- helpers ---------------------------------------------------------------

func runSrc(t *testing.T, src string, opts ...Option) (*Result, string) {
	t.Helper()
	program, err := frontend.ParseSource(src)
	if err != nil {
		t.Fatalf("parse error: %v\nsource:\n%s", err, src)
	}
	var out bytes.Buffer
	res, err := New(append([]Option{WithOutput(&out)}, opts...)...).Run(program)
	if err != nil {
		t.Fatalf("run error: %v\nsource:\n%s", err, src)
	}
	return res, out.String()
}

func runErr(t *testing.T, src string, opts ...Option) error {
	t.Helper()
	program, err := frontend.ParseSource(src)
	if err != nil {
		t.Fatalf("parse error: %v\nsource:\n%s", err, src)
	}
	_, err = New(opts...).Run(program)
	if err == nil {
		t.Fatalf("expected run error, got nil\nsource:\n%s", src)
	}
	return err
}

func wantGlobal(t *testing.T, res *Result, name string, want Value) {
	t.Helper()
	got, ok := res.Globals.Local(name)
	if !ok {
		t.Fatalf("global %q not bound; have %v", name, res.Globals.Names())
	}
	if !Equal(got, want) {
		t.Fatalf("global %q = %v (%s), want %v (%s)", name, got, TypeName(got), want, TypeName(want))
	}
}

// --- programs --------------------------------------------------------------

func TestRunFunctionCallScope(t *testing.T) {
	res, _ := runSrc(t, "def add(a, b):\n    return a + b\nx = add(5, 10)")

	wantGlobal(t, res, "x", Int(15))
	fn, ok := res.Globals.Local("add")
	if !ok {
		t.Fatal("add not bound")
	}
	if _, ok := fn.(*Function); !ok {
		t.Errorf("add is %T, want *Function", fn)
	}

	for _, name := range []string{"a", "b"} {
		if _, ok := res.Globals.Get(name); ok {
			t.Errorf("parameter %q leaked into the top-level scope", name)
		}
	}
	if got := strings.Join(res.Globals.Names(), ","); got != "add,x" {
		t.Errorf("globals = %s, want add,x", got)
	}
}

func TestRunPrintOutput(t *testing.T) {
	src := `
def add(a, b):
    return a + b

x = add(5, 10)

if x > 5:
    print(x)

for i in range(0, 5):
    print(i)
    if i == 2:
        print(i + 100)
print("done", x, x == 15, range(0, 3))
`
	_, out := runSrc(t, src)
	want := "15\n0\n1\n2\n102\n3\n4\ndone 15 True [0, 1, 2]\n"
	if out != want {
		t.Errorf("output:\n%q\nwant:\n%q", out, want)
	}
}

func TestRunArithmetic(t *testing.T) {
	tests := []struct {
		expr string
		want Value
	}{
		{"2 + 3 * 4", Int(14)},
		{"(2 + 3) * 4", Int(20)},
		{"10 - 3 - 2", Int(5)},
		{"7 / 2", Int(3)},
		{"0 - 7 / 2", Int(-3)},
		{"(0 - 7) / 2", Int(-4)},
		{"7 / (0 - 2)", Int(-4)},
		{"(0 - 7) % 3", Int(2)},
		{"7 % (0 - 3)", Int(-2)},
		{"6 & 3", Int(2)},
		{"6 | 3", Int(7)},
		{"6 ^ 3", Int(5)},
		{"3 > 2", Bool(true)},
		{"3 < 2", Bool(false)},
		{"3 >= 3", Bool(true)},
		{"2 <= 1", Bool(false)},
		{"1 != 2", Bool(true)},
		{`"ab" + "cd"`, Str("abcd")},
		{`"a" < "b"`, Bool(true)},
		{`"a" == "a"`, Bool(true)},
		{`1 == "1"`, Bool(false)},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			res, _ := runSrc(t, "v = "+tt.expr)
			wantGlobal(t, res, "v", tt.want)
		})
	}
}

func TestRunRecursion(t *testing.T) {
	src := `
def fact(n):
    if n < 2:
        return 1
    return n * fact(n - 1)
r = fact(10)
`
	res, _ := runSrc(t, src)
	wantGlobal(t, res, "r", Int(3628800))
}

func TestRunReturnStopsLoop(t *testing.T) {
	src := `
def first_over(limit):
    for i in range(0, 100):
        if i * i > limit:
            return i
        print(i)
    return 0 - 1
r = first_over(5)
`
	res, out := runSrc(t, src)
	wantGlobal(t, res, "r", Int(3))
	if out != "0\n1\n2\n" {
		t.Errorf("output = %q", out)
	}
}

func TestRunFunctionWithoutReturn(t *testing.T) {
	res, out := runSrc(t, "def hello(name):\n    print(\"hi\", name)\nr = hello(\"bob\")")
	wantGlobal(t, res, "r", None{})
	if out != "hi bob\n" {
		t.Errorf("output = %q", out)
	}
}

func TestRunWhile(t *testing.T) {
	src := `
n = 0
total = 0
while n < 5:
    total = total + n
    n = n + 1
`
	res, _ := runSrc(t, src)
	wantGlobal(t, res, "n", Int(5))
	wantGlobal(t, res, "total", Int(10))
}

func TestRunForOverString(t *testing.T) {
	_, out := runSrc(t, "for c in \"abc\":\n    print(c)")
	if out != "a\nb\nc\n" {
		t.Errorf("output = %q", out)
	}
}

func TestRunLoopVariableInActiveScope(t *testing.T) {
	res, _ := runSrc(t, "for i in range(3, 6):\n    last = i\n")
	wantGlobal(t, res, "i", Int(5))
	wantGlobal(t, res, "last", Int(5))
}

func TestRunFunctionReadsGlobalsNotCallerLocals(t *testing.T) {
	src := `
scale = 3
def mul(x):
    return x * scale
def outer(y):
    secret = 7
    return mul(y)
r = outer(2)
`
	res, _ := runSrc(t, src)
	wantGlobal(t, res, "r", Int(6))
	if _, ok := res.Globals.Get("secret"); ok {
		t.Error("local of outer leaked into top-level scope")
	}

	err := runErr(t, `
def peek():
    return secret
def outer():
    secret = 1
    return peek()
outer()
`)
	if !errors.Is(err, diag.ErrUndefinedVariable) {
		t.Errorf("callee saw the caller's locals: %v", err)
	}
}

func TestRunAssignInFunctionIsLocal(t *testing.T) {
	src := `
x = 1
def set():
    x = 99
    return x
y = set()
`
	res, _ := runSrc(t, src)
	wantGlobal(t, res, "x", Int(1))
	wantGlobal(t, res, "y", Int(99))
}

func TestRunTopLevelReturnEndsRun(t *testing.T) {
	res, out := runSrc(t, "print(1)\nreturn 42\nprint(2)\n")
	if out != "1\n" {
		t.Errorf("output = %q", out)
	}
	if !Equal(res.Value, Int(42)) {
		t.Errorf("Value = %v", res.Value)
	}
}

func TestRunInKeepsBindings(t *testing.T) {
	ip := New()
	globals := NewEnv(nil)

	for _, src := range []string{"x = 2", "def sq(n):\n    return n * n", "y = sq(x)"} {
		program, err := frontend.ParseSource(src)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := ip.RunIn(program, globals); err != nil {
			t.Fatalf("RunIn(%q): %v", src, err)
		}
	}
	v, _ := globals.Local("y")
	if !Equal(v, Int(4)) {
		t.Errorf("y = %v, want 4", v)
	}
}

func TestRunFailedCallLeavesCallerScope(t *testing.T) {
	program, err := frontend.ParseSource("a = 1\ndef bad(n):\n    q = n\n    return n / 0\nb = bad(a)\n")
	if err != nil {
		t.Fatal(err)
	}
	globals := NewEnv(nil)
	if _, err := New().RunIn(program, globals); !errors.Is(err, diag.ErrDivisionByZero) {
		t.Fatalf("expected division by zero, got %v", err)
	}
	if got := strings.Join(globals.Names(), ","); got != "a,bad" {
		t.Errorf("globals after failure = %s, want a,bad", got)
	}
}

// --- errors ----------------------------------------------------------------

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
		line int
	}{
		{"undefined variable", "x = 1\ny = z + 1", diag.ErrUndefinedVariable, 2},
		{"undefined function", "nope(1)", diag.ErrUndefinedFunction, 1},
		{"user arity", "def f(a):\n    return a\nf(1, 2)", diag.ErrArity, 3},
		{"range arity", "range(5)", diag.ErrArity, 1},
		{"range arity three", "range(0, 5, 1)", diag.ErrArity, 1},
		{"division by zero", "x = 5 / 0", diag.ErrDivisionByZero, 1},
		{"modulo by zero", "x = 5 % 0", diag.ErrDivisionByZero, 1},
		{"type mismatch", "x = 1 + \"a\"", diag.ErrType, 1},
		{"string minus", "x = \"a\" - \"b\"", diag.ErrType, 1},
		{"ordering mixed", "x = 1 < \"a\"", diag.ErrType, 1},
		{"call non-function", "x = 1\nx()", diag.ErrType, 2},
		{"iterate int", "for i in 5:\n    print(i)", diag.ErrType, 1},
		{"range of strings", "range(\"a\", \"b\")", diag.ErrType, 1},
		{"error inside function", "def f():\n    return missing\nf()", diag.ErrUndefinedVariable, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runErr(t, tt.src)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want kind %s", err, diag.KindOf(tt.want))
			}
			if line := diag.LineOf(err); line != tt.line {
				t.Errorf("line = %d, want %d", line, tt.line)
			}
		})
	}
}

func TestRunCallDepthGuard(t *testing.T) {
	err := runErr(t, "def loop(n):\n    return loop(n + 1)\nloop(0)", WithMaxCallDepth(50))
	if !errors.Is(err, diag.ErrResource) {
		t.Fatalf("expected RESOURCE_EXHAUSTED, got %v", err)
	}

	res, _ := runSrc(t, "def down(n):\n    if n == 0:\n        return 0\n    return down(n - 1)\nr = down(40)", WithMaxCallDepth(50))
	wantGlobal(t, res, "r", Int(0))
}

func TestRunUnsupportedOperator(t *testing.T) {
	program := &frontend.Block{Stmts: []frontend.Node{
		&frontend.BinOp{Left: &frontend.Num{Value: 1}, Op: frontend.COLON, Right: &frontend.Num{Value: 2}, Line: 1},
	}}
	_, err := New().Run(program)
	if !errors.Is(err, diag.ErrUnsupportedOperator) {
		t.Fatalf("expected UNSUPPORTED_OPERATOR, got %v", err)
	}
}

func TestRunMissingExpression(t *testing.T) {
	program := &frontend.Block{Stmts: []frontend.Node{&frontend.Assign{Target: "x", Line: 1}}}
	_, err := New().Run(program)
	if !errors.Is(err, diag.ErrType) {
		t.Fatalf("expected TYPE_ERROR, got %v", err)
	}
}

func TestBuiltinsCannotBeShadowed(t *testing.T) {
	_, out := runSrc(t, "def print(x):\n    return 0\nprint(\"still builtin\")")
	if out != "still builtin\n" {
		t.Errorf("output = %q", out)
	}
	if !IsBuiltin("range") || IsBuiltin("add") {
		t.Error("IsBuiltin mismatch")
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{Int(0), false},
		{Int(-1), true},
		{Str(""), false},
		{Str("x"), true},
		{Bool(false), false},
		{Bool(true), true},
		{List{}, false},
		{List{Int(1)}, true},
		{None{}, false},
		{&Function{Name: "f"}, true},
	}
	for _, tt := range tests {
		if got := Truthy(tt.v); got != tt.want {
			t.Errorf("Truthy(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Int(-3), "-3"},
		{Str("hi"), "hi"},
		{Bool(true), "True"},
		{None{}, "None"},
		{List{Int(1), Str("a")}, "[1, 'a']"},
		{&Function{Name: "add"}, "<function add>"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
