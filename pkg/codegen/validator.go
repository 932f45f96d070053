// Package codegen - Listing validation and consistency checks
package codegen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/tinypy/pkg/logger"
)

// ValidationError represents a listing validation error
type ValidationError struct {
	Line    int
	Message string
	Code    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("line %d: %s\n  %s", e.Line, e.Message, strings.TrimSpace(e.Code))
}

// ValidationErrors is returned when at least one check fails.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("listing validation failed:\n")
	for i := range es {
		sb.WriteString("  " + es[i].Error() + "\n")
	}
	return sb.String()
}

// Validator checks a lowered listing for structural consistency
type Validator struct {
	// Externs are call targets resolved outside the listing.
	Externs map[string]bool

	errors []ValidationError
	warns  []ValidationError
}

// NewValidator creates a validator that knows the built-in and runtime
// helper call targets.
func NewValidator() *Validator {
	return &Validator{
		Externs: map[string]bool{
			"print": true,
			"range": true,
			SeqLen:  true,
			SeqGet:  true,
		},
	}
}

var mnemonics = map[string]bool{
	"mov": true, "movzx": true, "push": true, "pop": true,
	"add": true, "sub": true, "imul": true, "idiv": true, "cdq": true,
	"and": true, "or": true, "xor": true, "cmp": true,
	"sete": true, "setne": true, "setg": true, "setl": true, "setge": true, "setle": true,
	"jmp": true, "je": true, "jne": true, "jg": true, "jl": true, "jge": true, "jle": true,
	"call": true, "ret": true,
}

var directives = map[string]bool{".data": true, ".text": true}

var labelPattern = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)

// line is one parsed listing entry.
type line struct {
	num      int
	raw      string
	label    string
	data     bool
	mnemonic string
	operands []string
}

// Validate runs every check over lines. Warnings are logged, errors returned.
func (v *Validator) Validate(lines []string) error {
	v.errors = v.errors[:0]
	v.warns = v.warns[:0]

	parsed := v.parse(lines)
	v.validateLabels(parsed)
	v.validateStackBalance(parsed)
	v.validateDivision(parsed)

	if len(v.warns) > 0 {
		v.logWarnings()
	}
	if len(v.errors) > 0 {
		return ValidationErrors(append([]ValidationError(nil), v.errors...))
	}
	return nil
}

// Warnings returns the warnings found by the last Validate call.
func (v *Validator) Warnings() []ValidationError {
	return v.warns
}

// parse classifies lines and reports malformed ones.
func (v *Validator) parse(lines []string) []line {
	out := make([]line, 0, len(lines))
	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, ";") {
			continue
		}
		l := line{num: i + 1, raw: raw}

		if raw[0] != ' ' && raw[0] != '\t' {
			name, rest, hasColon := strings.Cut(trimmed, ":")
			switch {
			case !hasColon && directives[trimmed]:
				continue
			case !hasColon:
				v.addError(l.num, "instruction must be indented", raw)
				continue
			case !labelPattern.MatchString(name):
				v.addError(l.num, "invalid label format", raw)
				continue
			}
			l.label = name
			if rest = strings.TrimSpace(rest); rest != "" {
				kind, _, _ := strings.Cut(rest, " ")
				if kind != "db" && kind != "dd" {
					v.addError(l.num, fmt.Sprintf("unknown data definition %q", kind), raw)
				}
				l.data = true
			}
			out = append(out, l)
			continue
		}

		mnemonic, operands, _ := strings.Cut(trimmed, " ")
		if !mnemonics[mnemonic] {
			v.addError(l.num, fmt.Sprintf("unknown mnemonic %q", mnemonic), raw)
			continue
		}
		l.mnemonic = mnemonic
		if operands = strings.TrimSpace(operands); operands != "" {
			for _, op := range strings.Split(operands, ",") {
				l.operands = append(l.operands, strings.TrimSpace(op))
			}
		}
		out = append(out, l)
	}
	return out
}

// validateLabels checks for duplicate labels and undefined jump or call targets
func (v *Validator) validateLabels(lines []line) {
	defined := make(map[string]int)
	for _, l := range lines {
		if l.label == "" {
			continue
		}
		if first, ok := defined[l.label]; ok {
			v.addError(l.num, fmt.Sprintf("duplicate label %q (first defined on line %d)", l.label, first), l.raw)
			continue
		}
		defined[l.label] = l.num
	}

	for _, l := range lines {
		if !isJump(l.mnemonic) && l.mnemonic != "call" {
			continue
		}
		if len(l.operands) != 1 {
			v.addError(l.num, l.mnemonic+" takes exactly one target", l.raw)
			continue
		}
		target := l.operands[0]
		if _, ok := defined[target]; ok {
			continue
		}
		if l.mnemonic == "call" && v.Externs[target] {
			continue
		}
		v.addError(l.num, fmt.Sprintf("undefined target %q", target), l.raw)
	}
}

// validateStackBalance tracks push/pop depth through each section. The depth
// on entry to a local label must agree with every jump that reaches it, and
// every ret must leave the stack as the section found it.
func (v *Validator) validateStackBalance(lines []line) {
	depth, known := 0, false
	at := make(map[string]int)

	join := func(l line, label string) {
		if d, ok := at[label]; ok {
			if d != depth {
				v.addError(l.num, fmt.Sprintf("stack depth %d at %s, expected %d", depth, label, d), l.raw)
			}
			return
		}
		at[label] = depth
	}

	for _, l := range lines {
		switch {
		case l.data:
			continue

		case l.label != "" && !strings.HasPrefix(l.label, "."):
			depth, known = 0, true

		case l.label != "":
			if known {
				join(l, l.label)
			} else if d, ok := at[l.label]; ok {
				depth, known = d, true
			}

		case !known:
			continue

		case isJump(l.mnemonic):
			if len(l.operands) == 1 {
				join(l, l.operands[0])
			}
			if l.mnemonic == "jmp" {
				known = false
			}

		case l.mnemonic == "ret":
			if depth != 0 {
				v.addError(l.num, fmt.Sprintf("unbalanced stack at ret: depth=%d", depth), l.raw)
			}
			known = false

		case l.mnemonic == "push":
			depth++

		case l.mnemonic == "pop":
			depth--
			if depth < 0 {
				v.addError(l.num, "stack underflow detected", l.raw)
				depth = 0
			}

		case l.mnemonic == "add" || l.mnemonic == "sub":
			if len(l.operands) == 2 && l.operands[0] == "esp" {
				n, err := strconv.Atoi(l.operands[1])
				if err != nil || n%4 != 0 {
					v.addWarn(l.num, "stack pointer adjusted by a non-word amount", l.raw)
					continue
				}
				if l.mnemonic == "add" {
					depth -= n / 4
				} else {
					depth += n / 4
				}
				if depth < 0 {
					v.addError(l.num, "stack underflow detected", l.raw)
					depth = 0
				}
			}

		case l.mnemonic == "mov":
			// Restoring esp from the frame pointer drops everything above
			// the saved ebp.
			if len(l.operands) == 2 && l.operands[0] == "esp" && l.operands[1] == "ebp" {
				depth = 1
			}
		}
	}
}

// validateDivision warns when idiv is not preceded by cdq
func (v *Validator) validateDivision(lines []line) {
	for i, l := range lines {
		if l.mnemonic != "idiv" {
			continue
		}
		if i == 0 || lines[i-1].mnemonic != "cdq" {
			v.addWarn(l.num, "division without cdq may cause incorrect results", l.raw)
		}
	}
}

// Helper functions

func isJump(mnemonic string) bool {
	return len(mnemonic) > 1 && mnemonic[0] == 'j'
}

func (v *Validator) addError(line int, msg, code string) {
	v.errors = append(v.errors, ValidationError{Line: line, Message: msg, Code: code})
}

func (v *Validator) addWarn(line int, msg, code string) {
	v.warns = append(v.warns, ValidationError{Line: line, Message: msg, Code: code})
}

func (v *Validator) logWarnings() {
	for _, warn := range v.warns {
		logger.Warn("Listing validation warning", "line", warn.Line, "msg", warn.Message)
	}
}

// Validate checks a listing with a default Validator.
func Validate(lines []string) error {
	return NewValidator().Validate(lines)
}

// ValidateAndReport validates a listing and returns a readable report
func ValidateAndReport(lines []string) (bool, string) {
	validator := NewValidator()
	err := validator.Validate(lines)

	var report strings.Builder
	report.WriteString("=== Listing Validation Report ===\n\n")

	if err != nil {
		report.WriteString(fmt.Sprintf("Status: FAILED\n\nErrors:\n%s\n", err.Error()))
		return false, report.String()
	}

	report.WriteString("Status: PASSED\n\n")

	if len(validator.warns) > 0 {
		report.WriteString("Warnings:\n")
		for _, warn := range validator.warns {
			report.WriteString(fmt.Sprintf("  Line %d: %s\n", warn.Line, warn.Message))
		}
	} else {
		report.WriteString("No warnings.\n")
	}

	instCount, labelCount := 0, 0
	for _, raw := range lines {
		switch {
		case strings.TrimSpace(raw) == "":
		case raw[0] == ' ' || raw[0] == '\t':
			instCount++
		case strings.Contains(raw, ":"):
			labelCount++
		}
	}

	report.WriteString("\nStatistics:\n")
	report.WriteString(fmt.Sprintf("  Total lines: %d\n", len(lines)))
	report.WriteString(fmt.Sprintf("  Instructions: %d\n", instCount))
	report.WriteString(fmt.Sprintf("  Labels: %d\n", labelCount))

	logger.Debug("Listing validation passed", "instructions", instCount, "warnings", len(validator.warns))

	return true, report.String()
}
