package interp

import (
	"github.com/GriffinCanCode/tinypy/pkg/diag"
	"github.com/GriffinCanCode/tinypy/pkg/frontend"
)

func binaryOp(op frontend.TokenType, left, right Value, line int) (Value, error) {
	if frontend.Precedence(op) < 0 {
		return nil, diag.New(diag.KindUnsupportedOperator, line, "unsupported operator %s", op)
	}

	switch op {
	case frontend.EQEQ:
		return Bool(Equal(left, right)), nil
	case frontend.NE:
		return Bool(!Equal(left, right)), nil
	}

	switch l := left.(type) {
	case Int:
		if r, ok := right.(Int); ok {
			return intOp(op, l, r, line)
		}
	case Str:
		if r, ok := right.(Str); ok {
			if v, ok := strOp(op, l, r); ok {
				return v, nil
			}
		}
	}

	return nil, diag.New(diag.KindType, line,
		"unsupported operand types for %s: %s and %s", op, TypeName(left), TypeName(right))
}

func intOp(op frontend.TokenType, a, b Int, line int) (Value, error) {
	switch op {
	case frontend.PLUS:
		return a + b, nil
	case frontend.MINUS:
		return a - b, nil
	case frontend.MUL:
		return a * b, nil
	case frontend.DIV:
		if b == 0 {
			return nil, diag.New(diag.KindDivisionByZero, line, "integer division by zero")
		}
		return floorDiv(a, b), nil
	case frontend.MOD:
		if b == 0 {
			return nil, diag.New(diag.KindDivisionByZero, line, "integer modulo by zero")
		}
		return floorMod(a, b), nil
	case frontend.AND:
		return a & b, nil
	case frontend.OR:
		return a | b, nil
	case frontend.XOR:
		return a ^ b, nil
	case frontend.GT:
		return Bool(a > b), nil
	case frontend.LT:
		return Bool(a < b), nil
	case frontend.GTE:
		return Bool(a >= b), nil
	case frontend.LTE:
		return Bool(a <= b), nil
	}
	return nil, diag.New(diag.KindUnsupportedOperator, line, "unsupported operator %s for int", op)
}

func strOp(op frontend.TokenType, a, b Str) (Value, bool) {
	switch op {
	case frontend.PLUS:
		return a + b, true
	case frontend.GT:
		return Bool(a > b), true
	case frontend.LT:
		return Bool(a < b), true
	case frontend.GTE:
		return Bool(a >= b), true
	case frontend.LTE:
		return Bool(a <= b), true
	}
	return nil, false
}

// floorDiv rounds the quotient toward negative infinity.
func floorDiv(a, b Int) Int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// floorMod returns a remainder with the sign of the divisor.
func floorMod(a, b Int) Int {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}
