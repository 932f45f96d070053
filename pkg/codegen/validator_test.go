// Package codegen - Tests for listing validator
package codegen

import (
	"errors"
	"strings"
	"testing"

	"github.com/GriffinCanCode/tinypy/pkg/frontend"
)

func listing(s string) []string {
	return strings.Split(strings.Trim(s, "\n"), "\n")
}

func TestValidatorValidCode(t *testing.T) {
	valid := listing(`
add:
    push ebp
    mov ebp, esp
    mov eax, [ebp + 8]
    push eax
    mov eax, [ebp + 12]
    mov ebx, eax
    pop eax
    add eax, ebx
    mov esp, ebp
    pop ebp
    ret
    pop ebp
    ret
main:
    push ebp
    mov ebp, esp
    mov eax, 10
    push eax
    mov eax, 5
    push eax
    call add
    add esp, 8
    mov [g_x], eax
    pop ebp
    ret
.data
g_x: dd 0
`)

	validator := NewValidator()
	if err := validator.Validate(valid); err != nil {
		t.Errorf("valid listing failed validation: %v", err)
	}
	if len(validator.Warnings()) != 0 {
		t.Errorf("unexpected warnings: %v", validator.Warnings())
	}
}

func TestValidatorErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "undefined jump target",
			src:  "f:\n    push ebp\n    je .Lnowhere\n    pop ebp\n    ret",
			want: `undefined target ".Lnowhere"`,
		},
		{
			name: "undefined call target",
			src:  "f:\n    push ebp\n    call missing\n    pop ebp\n    ret",
			want: `undefined target "missing"`,
		},
		{
			name: "duplicate label",
			src:  "f:\n    ret\nf:\n    ret",
			want: `duplicate label "f"`,
		},
		{
			name: "unknown mnemonic",
			src:  "f:\n    frobnicate eax\n    ret",
			want: `unknown mnemonic "frobnicate"`,
		},
		{
			name: "unindented instruction",
			src:  "f:\nret",
			want: "instruction must be indented",
		},
		{
			name: "invalid label",
			src:  "bad label:\n    ret",
			want: "invalid label format",
		},
		{
			name: "unknown data definition",
			src:  ".data\ns: dq 0",
			want: `unknown data definition "dq"`,
		},
		{
			name: "push without pop",
			src:  "f:\n    push ebp\n    push eax\n    pop ebp\n    ret",
			want: "unbalanced stack at ret: depth=1",
		},
		{
			name: "underflow",
			src:  "f:\n    pop eax\n    ret",
			want: "stack underflow detected",
		},
		{
			name: "depth mismatch at label",
			src:  "f:\n    push ebp\n    push eax\n    je .L1\n    pop eax\n.L1:\n    pop ebp\n    ret",
			want: "stack depth 1 at .L1, expected 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(listing(tt.src))
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) || len(verrs) == 0 {
				t.Fatalf("error is %T, want ValidationErrors", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidatorExterns(t *testing.T) {
	src := listing("main:\n    push ebp\n    mov eax, 1\n    push eax\n    call print\n    add esp, 4\n    pop ebp\n    ret")
	if err := Validate(src); err != nil {
		t.Fatalf("print should resolve as an extern: %v", err)
	}

	v := NewValidator()
	delete(v.Externs, "print")
	if err := v.Validate(src); err == nil {
		t.Error("expected an error once print is no longer an extern")
	}
}

func TestValidatorDivisionWarning(t *testing.T) {
	v := NewValidator()
	src := listing("f:\n    push ebp\n    mov ebx, 2\n    idiv ebx\n    pop ebp\n    ret")
	if err := v.Validate(src); err != nil {
		t.Fatalf("warnings must not fail validation: %v", err)
	}
	if len(v.Warnings()) != 1 || !strings.Contains(v.Warnings()[0].Message, "cdq") {
		t.Errorf("warnings = %v", v.Warnings())
	}

	src = listing("f:\n    push ebp\n    cdq\n    idiv ebx\n    pop ebp\n    ret")
	if err := v.Validate(src); err != nil || len(v.Warnings()) != 0 {
		t.Errorf("cdq-prefixed division: err=%v warnings=%v", err, v.Warnings())
	}
}

func TestValidatorWithGeneratedCode(t *testing.T) {
	programs := []string{
		"def f():\n    return 1\n",
		"x = 2 + 3 * 4\nprint(x)\n",
		"def fact(n):\n    if n < 2:\n        return 1\n    return n * fact(n - 1)\nprint(fact(5))\n",
		"n = 0\nwhile n < 10:\n    n = n + 1\n",
		"def g(s):\n    for c in s:\n        print(c)\n    return 0\ng(\"abc\")\n",
		"for i in range(0, 3):\n    for j in range(i, 3):\n        print(i * j % 2)\n",
	}

	for _, src := range programs {
		program, err := frontend.ParseSource(src)
		if err != nil {
			t.Fatalf("parse %q: %v", src, err)
		}
		lines, err := Lower(program)
		if err != nil {
			t.Fatalf("lower %q: %v", src, err)
		}
		if err := Validate(lines); err != nil {
			t.Errorf("generated listing for %q failed validation: %v\n%s", src, err, Format(lines))
		}
	}
}

func TestValidateAndReport(t *testing.T) {
	ok, report := ValidateAndReport(listing("f:\n    push ebp\n    mov eax, 1\n    pop ebp\n    ret"))
	if !ok {
		t.Fatalf("expected success:\n%s", report)
	}
	for _, want := range []string{"Status: PASSED", "Instructions: 4", "Labels: 1"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}

	ok, report = ValidateAndReport(listing("f:\n    jmp nowhere"))
	if ok || !strings.Contains(report, "Status: FAILED") {
		t.Errorf("expected failure report:\n%s", report)
	}
}
