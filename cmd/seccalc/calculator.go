package main

import (
	"errors"
	"fmt"
	"math"

	"github.com/nvoronin/seccalc/pkg/users"
)

// Calculator operations. Basic arithmetic is open to every role,
// factorial needs User, the scientific operations need Admin.
const (
	OpAdd       = '+'
	OpSubtract  = '-'
	OpMultiply  = '*'
	OpDivide    = '/'
	OpPower     = '^'
	OpFactorial = '!'
	OpSqrt      = 's'
	OpLog       = 'l'
)

const maxFactorial = 20

var (
	ErrDivideByZero    = errors.New("division by zero")
	ErrUnsupportedOp   = errors.New("unsupported operation")
	ErrNegativeRoot    = errors.New("square root of a negative number")
	ErrNonPositiveLog  = errors.New("logarithm is only defined for positive numbers")
	ErrNegativeFactor  = errors.New("factorial of a negative number is undefined")
	ErrFactorialTooBig = fmt.Errorf("factorial argument is limited to %d", maxFactorial)
)

// RequiredRole returns the minimum role allowed to run the operation.
func RequiredRole(op rune) (users.Role, error) {
	switch op {
	case OpAdd, OpSubtract, OpMultiply, OpDivide:
		return users.Guest, nil
	case OpFactorial:
		return users.User, nil
	case OpPower, OpSqrt, OpLog:
		return users.Admin, nil
	default:
		return users.Guest, ErrUnsupportedOp
	}
}

// IsUnary reports whether the operation takes a single operand.
func IsUnary(op rune) bool {
	return op == OpFactorial || op == OpSqrt || op == OpLog
}

// Calculate evaluates a two-operand operation.
func Calculate(op rune, a, b float64) (float64, error) {
	switch op {
	case OpAdd:
		return a + b, nil
	case OpSubtract:
		return a - b, nil
	case OpMultiply:
		return a * b, nil
	case OpDivide:
		if b == 0 {
			return 0, ErrDivideByZero
		}
		return a / b, nil
	case OpPower:
		return math.Pow(a, b), nil
	default:
		return 0, ErrUnsupportedOp
	}
}

// CalculateUnary evaluates a single-operand operation.
func CalculateUnary(op rune, n float64) (float64, error) {
	switch op {
	case OpFactorial:
		if n < 0 {
			return 0, ErrNegativeFactor
		}
		if n > maxFactorial {
			return 0, ErrFactorialTooBig
		}
		return float64(factorial(int(n))), nil
	case OpSqrt:
		if n < 0 {
			return 0, ErrNegativeRoot
		}
		return math.Sqrt(n), nil
	case OpLog:
		if n <= 0 {
			return 0, ErrNonPositiveLog
		}
		return math.Log(n), nil
	default:
		return 0, ErrUnsupportedOp
	}
}

func factorial(n int) int64 {
	result := int64(1)
	for i := 2; i <= n; i++ {
		result *= int64(i)
	}
	return result
}
