package pipeline

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/GriffinCanCode/tinypy/pkg/diag"
	"github.com/GriffinCanCode/tinypy/pkg/frontend"
	"github.com/GriffinCanCode/tinypy/pkg/interp"
)

const program = `
def add(a, b):
    return a + b

x = add(5, 10)
if x > 5:
    print(x)
`

func TestRun(t *testing.T) {
	var out bytes.Buffer
	res, err := Run(program, interp.WithOutput(&out))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.String() != "15\n" {
		t.Errorf("output = %q", out.String())
	}
	x, ok := res.Globals.Local("x")
	if !ok || !interp.Equal(x, interp.Int(15)) {
		t.Errorf("x = %v", x)
	}
}

func TestRunInKeepsScope(t *testing.T) {
	p := New(WithFile("session"))
	globals := interp.NewEnv(nil)
	if _, err := p.RunIn("n = 4", globals); err != nil {
		t.Fatal(err)
	}
	if _, err := p.RunIn("m = n * n\nboom = m / 0", globals); !errors.Is(err, diag.ErrDivisionByZero) {
		t.Fatalf("expected division by zero, got %v", err)
	}
	m, ok := globals.Local("m")
	if !ok || !interp.Equal(m, interp.Int(16)) {
		t.Errorf("m = %v, want 16 kept after the failure", m)
	}
}

func TestTokenize(t *testing.T) {
	tokens, err := Tokenize("x = 1\n")
	if err != nil {
		t.Fatal(err)
	}
	var kinds []string
	for _, tok := range tokens {
		kinds = append(kinds, tok.Type.String())
	}
	if got := strings.Join(kinds, " "); got != "IDENTIFIER EQUAL NUMBER NEWLINE EOF" {
		t.Errorf("tokens = %s", got)
	}
}

func TestParse(t *testing.T) {
	block, err := Parse(program)
	if err != nil {
		t.Fatal(err)
	}
	if len(block.Stmts) != 3 {
		t.Fatalf("got %d statements, want 3", len(block.Stmts))
	}
	if _, ok := block.Stmts[0].(*frontend.FunctionDef); !ok {
		t.Errorf("first statement is %T", block.Stmts[0])
	}
}

func TestLower(t *testing.T) {
	lines, err := Lower("def f():\n    return 1\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) == 0 || lines[0] != "f:" {
		t.Errorf("listing = %q", lines)
	}
}

func TestErrorsPassThrough(t *testing.T) {
	tests := []struct {
		name string
		call func() error
		want error
		line int
	}{
		{"lex", func() error { _, err := Tokenize("x = $"); return err }, diag.ErrLex, 1},
		{"syntax", func() error { _, err := Parse("if x\n    y = 1\n"); return err }, diag.ErrSyntax, 1},
		{"undefined", func() error { _, err := Run("\n\ny = z"); return err }, diag.ErrUndefinedVariable, 3},
		{"arity", func() error { _, err := Run("range(1)"); return err }, diag.ErrArity, 1},
		{"lower after parse error", func() error { _, err := Lower("x = = 1"); return err }, diag.ErrSyntax, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want kind %s", err, diag.KindOf(tt.want))
			}
			if diag.LineOf(err) != tt.line {
				t.Errorf("line = %d, want %d", diag.LineOf(err), tt.line)
			}
		})
	}
}

func TestMaxDepth(t *testing.T) {
	src := "x = " + strings.Repeat("(", 20) + "1" + strings.Repeat(")", 20)

	if _, err := New(WithMaxDepth(10)).Parse(src); !errors.Is(err, diag.ErrResource) {
		t.Fatalf("expected RESOURCE_EXHAUSTED, got %v", err)
	}
	if _, err := New().Parse(src); err != nil {
		t.Fatalf("default depth should accept 20 parentheses: %v", err)
	}
}

func TestInterpreterOptions(t *testing.T) {
	p := New(WithInterpreter(interp.WithMaxCallDepth(5)))
	_, err := p.Run("def r(n):\n    return r(n)\nr(0)")
	if !errors.Is(err, diag.ErrResource) {
		t.Fatalf("expected RESOURCE_EXHAUSTED, got %v", err)
	}
}
