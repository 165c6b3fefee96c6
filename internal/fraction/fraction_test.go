package fraction

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewReduces(t *testing.T) {
	f, err := New(4, 8)
	require.NoError(t, err)
	require.Equal(t, uint64(1), f.Num())
	require.Equal(t, uint64(2), f.Den())
}

func TestNewZeroDenominator(t *testing.T) {
	_, err := New(1, 0)
	require.ErrorIs(t, err, ErrDivisionByZero)
}

func TestAddSubRoundTrip(t *testing.T) {
	a, _ := New(1, 3)
	b, _ := New(1, 6)
	sum, err := a.Add(b)
	require.NoError(t, err)
	back, err := sum.Sub(b)
	require.NoError(t, err)
	require.True(t, back.Equal(a))
}

func TestSubNegativeRejected(t *testing.T) {
	a, _ := New(1, 3)
	b, _ := New(1, 2)
	_, err := a.Sub(b)
	require.ErrorIs(t, err, ErrNegativeResult)
}

func TestMulDivIdentity(t *testing.T) {
	a, _ := New(5104, 15)
	b := FromInt(15)
	prod, err := a.Mul(b)
	require.NoError(t, err)
	back, err := prod.Div(b)
	require.NoError(t, err)
	require.True(t, back.Equal(a))
}

func TestCrossMultiplyEquivalence(t *testing.T) {
	// (a/b)*(c/d) observably equals (a*c)/(b*d).
	a, _ := New(3, 7)
	b, _ := New(5, 11)
	lhs, err := a.Mul(b)
	require.NoError(t, err)
	rhs, err := New(3*5, 7*11)
	require.NoError(t, err)
	require.True(t, lhs.Equal(rhs))
}

func TestOrderingTotal(t *testing.T) {
	a, _ := New(1, 2)
	b, _ := New(2, 3)
	require.True(t, a.Less(b))
	require.True(t, b.GreaterThan(a))
	require.False(t, a.Equal(b))
	require.Equal(t, 0, a.Cmp(a))
}

func TestIntegerAndFractionalPart(t *testing.T) {
	f, _ := New(17, 5) // 3 + 2/5
	require.Equal(t, uint64(3), f.IntegerPart())
	frac := f.FractionalPart()
	want, _ := New(2, 5)
	require.True(t, frac.Equal(want))
}

func TestDivByZero(t *testing.T) {
	a := FromInt(5)
	_, err := a.Div(Zero)
	require.ErrorIs(t, err, ErrDivisionByZero)
}

func TestReductionIdempotent(t *testing.T) {
	f, _ := New(100, 200)
	f2, _ := New(f.Num(), f.Den())
	require.Equal(t, f, f2)
}

func TestOverflowDetected(t *testing.T) {
	huge := Fraction{num: 1 << 63, den: 1}
	_, err := huge.Mul(huge)
	require.ErrorIs(t, err, ErrOverflow)
}
