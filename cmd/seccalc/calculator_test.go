package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvoronin/seccalc/pkg/users"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name string
		op   rune
		a, b float64
		want float64
		err  error
	}{
		{"addition", OpAdd, 2, 3, 5, nil},
		{"subtraction", OpSubtract, 2, 3, -1, nil},
		{"multiplication", OpMultiply, 4, 2.5, 10, nil},
		{"division", OpDivide, 9, 3, 3, nil},
		{"division by zero", OpDivide, 9, 0, 0, ErrDivideByZero},
		{"power", OpPower, 2, 10, 1024, nil},
		{"unknown", 'x', 1, 1, 0, ErrUnsupportedOp},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Calculate(tc.op, tc.a, tc.b)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestCalculateUnary(t *testing.T) {
	tests := []struct {
		name string
		op   rune
		n    float64
		want float64
		err  error
	}{
		{"factorial", OpFactorial, 5, 120, nil},
		{"factorial of zero", OpFactorial, 0, 1, nil},
		{"factorial of negative", OpFactorial, -1, 0, ErrNegativeFactor},
		{"factorial too large", OpFactorial, 21, 0, ErrFactorialTooBig},
		{"square root", OpSqrt, 16, 4, nil},
		{"square root of negative", OpSqrt, -4, 0, ErrNegativeRoot},
		{"logarithm", OpLog, math.E, 1, nil},
		{"logarithm of zero", OpLog, 0, 0, ErrNonPositiveLog},
		{"logarithm of negative", OpLog, -1, 0, ErrNonPositiveLog},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CalculateUnary(tc.op, tc.n)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestFactorialLimitFits(t *testing.T) {
	// 20! is the largest factorial that fits in int64
	assert.Equal(t, int64(2432902008176640000), factorial(20))
}

func TestRequiredRole(t *testing.T) {
	for _, op := range []rune{OpAdd, OpSubtract, OpMultiply, OpDivide} {
		role, err := RequiredRole(op)
		require.NoError(t, err)
		assert.Equal(t, users.Guest, role)
	}

	role, err := RequiredRole(OpFactorial)
	require.NoError(t, err)
	assert.Equal(t, users.User, role)

	for _, op := range []rune{OpPower, OpSqrt, OpLog} {
		role, err := RequiredRole(op)
		require.NoError(t, err)
		assert.Equal(t, users.Admin, role)
	}

	_, err = RequiredRole('?')
	assert.ErrorIs(t, err, ErrUnsupportedOp)
}
