// Package fraction implements exact non-negative rational arithmetic for
// the apportionment and threshold computations that the election statute
// requires to be exact — floating point is never an acceptable substitute
// here, since every comparison determines a legally binding outcome.
package fraction

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrOverflow is returned when an operation's 128-bit intermediate product
// cannot be represented in the 64-bit numerator/denominator this package
// stores. Callers must not silently wrap on overflow.
var ErrOverflow = errors.New("fraction: arithmetic overflow")

// ErrDivisionByZero is returned by Div and by New when denominator is 0.
var ErrDivisionByZero = errors.New("fraction: division by zero")

// ErrNegativeResult is returned by Sub when the result would be negative;
// this package only ever represents non-negative rationals.
var ErrNegativeResult = errors.New("fraction: negative result")

// Fraction is a reduced non-negative rational num/den, den >= 1.
type Fraction struct {
	num uint64
	den uint64
}

// Zero is the additive identity.
var Zero = Fraction{num: 0, den: 1}

// One is the multiplicative identity.
var One = Fraction{num: 1, den: 1}

// New constructs a reduced fraction from num/den. den must be >= 1.
func New(num, den uint64) (Fraction, error) {
	if den == 0 {
		return Fraction{}, ErrDivisionByZero
	}
	return reduce(num, den), nil
}

// FromInt constructs the fraction n/1.
func FromInt(n uint64) Fraction {
	return Fraction{num: n, den: 1}
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func reduce(num, den uint64) Fraction {
	if num == 0 {
		return Fraction{num: 0, den: 1}
	}
	g := gcd(num, den)
	return Fraction{num: num / g, den: den / g}
}

// Num returns the reduced numerator.
func (f Fraction) Num() uint64 { return f.num }

// Den returns the reduced denominator.
func (f Fraction) Den() uint64 { return f.den }

// mul128 returns the full 128-bit product of a*b as (hi, lo).
func mul128(a, b uint64) (hi, lo uint64) {
	return bits.Mul64(a, b)
}

// crossProducts computes a.num*b.den and b.num*a.den as 128-bit values for
// comparison. It cannot fail: comparison never loses precision, only the
// arithmetic operators below can overflow when reducing back into 64
// bits.
func crossProducts(a, b Fraction) (hiL, loL, hiR, loR uint64) {
	hiL, loL = mul128(a.num, b.den)
	hiR, loR = mul128(b.num, a.den)
	return
}

func cmp128(hiA, loA, hiB, loB uint64) int {
	if hiA != hiB {
		if hiA < hiB {
			return -1
		}
		return 1
	}
	if loA != loB {
		if loA < loB {
			return -1
		}
		return 1
	}
	return 0
}

// Cmp returns -1, 0, or 1 as a compares less than, equal to, or greater
// than b. Comparison is by cross-multiplication and is a total order.
func (a Fraction) Cmp(b Fraction) int {
	hiL, loL, hiR, loR := crossProducts(a, b)
	return cmp128(hiL, loL, hiR, loR)
}

// Equal reports whether a and b represent the same rational value.
func (a Fraction) Equal(b Fraction) bool { return a.Cmp(b) == 0 }

// Less reports whether a < b.
func (a Fraction) Less(b Fraction) bool { return a.Cmp(b) < 0 }

// LessOrEqual reports whether a <= b.
func (a Fraction) LessOrEqual(b Fraction) bool { return a.Cmp(b) <= 0 }

// GreaterOrEqual reports whether a >= b.
func (a Fraction) GreaterOrEqual(b Fraction) bool { return a.Cmp(b) >= 0 }

// GreaterThan reports whether a > b.
func (a Fraction) GreaterThan(b Fraction) bool { return a.Cmp(b) > 0 }

// mulReduceOrOverflow computes (an*bn)/(ad*bd) reduced, detecting 64-bit
// overflow on the reduced numerator/denominator after common factors are
// cancelled up front to minimise spurious overflow.
func mulReduceOrOverflow(an, ad, bn, bd uint64) (Fraction, error) {
	// Cancel cross-factors before multiplying to keep intermediate values
	// small whenever possible (an/bd and bn/ad each may share a factor).
	g1 := gcd(an, bd)
	an, bd = an/g1, bd/g1
	g2 := gcd(bn, ad)
	bn, ad = bn/g2, ad/g2

	hiN, loN := mul128(an, bn)
	if hiN != 0 {
		return Fraction{}, fmt.Errorf("%w: numerator %d*%d exceeds 64 bits", ErrOverflow, an, bn)
	}
	hiD, loD := mul128(ad, bd)
	if hiD != 0 {
		return Fraction{}, fmt.Errorf("%w: denominator %d*%d exceeds 64 bits", ErrOverflow, ad, bd)
	}
	return reduce(loN, loD), nil
}

// Add returns a+b.
func (a Fraction) Add(b Fraction) (Fraction, error) {
	// a.num/a.den + b.num/b.den = (a.num*b.den + b.num*a.den) / (a.den*b.den)
	hi1, lo1 := mul128(a.num, b.den)
	hi2, lo2 := mul128(b.num, a.den)
	if hi1 != 0 || hi2 != 0 {
		return Fraction{}, fmt.Errorf("%w: add numerator term exceeds 64 bits", ErrOverflow)
	}
	sum, carry := bits.Add64(lo1, lo2, 0)
	if carry != 0 {
		return Fraction{}, fmt.Errorf("%w: add numerator sum exceeds 64 bits", ErrOverflow)
	}
	hiD, loD := mul128(a.den, b.den)
	if hiD != 0 {
		return Fraction{}, fmt.Errorf("%w: add denominator exceeds 64 bits", ErrOverflow)
	}
	return reduce(sum, loD), nil
}

// Sub returns a-b. The caller must guarantee a >= b; otherwise
// ErrNegativeResult is returned since this package never represents
// negative values.
func (a Fraction) Sub(b Fraction) (Fraction, error) {
	if a.Less(b) {
		return Fraction{}, ErrNegativeResult
	}
	hi1, lo1 := mul128(a.num, b.den)
	hi2, lo2 := mul128(b.num, a.den)
	if hi1 != 0 || hi2 != 0 {
		return Fraction{}, fmt.Errorf("%w: sub numerator term exceeds 64 bits", ErrOverflow)
	}
	diff, borrow := bits.Sub64(lo1, lo2, 0)
	if borrow != 0 {
		// a >= b was already checked via Cmp, so this should not happen.
		return Fraction{}, ErrNegativeResult
	}
	hiD, loD := mul128(a.den, b.den)
	if hiD != 0 {
		return Fraction{}, fmt.Errorf("%w: sub denominator exceeds 64 bits", ErrOverflow)
	}
	return reduce(diff, loD), nil
}

// Mul returns a*b.
func (a Fraction) Mul(b Fraction) (Fraction, error) {
	return mulReduceOrOverflow(a.num, a.den, b.num, b.den)
}

// Div returns a/b. b must be non-zero.
func (a Fraction) Div(b Fraction) (Fraction, error) {
	if b.num == 0 {
		return Fraction{}, ErrDivisionByZero
	}
	return mulReduceOrOverflow(a.num, a.den, b.den, b.num)
}

// IntegerPart returns floor(f) as a uint64.
func (f Fraction) IntegerPart() uint64 {
	return f.num / f.den
}

// FractionalPart returns f - IntegerPart(f), always in [0, 1).
func (f Fraction) FractionalPart() Fraction {
	ip := f.IntegerPart()
	return reduce(f.num-ip*f.den, f.den)
}

// IsZero reports whether f is the zero fraction.
func (f Fraction) IsZero() bool { return f.num == 0 }

// String renders f as "num/den" for debugging and logging.
func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.num, f.den)
}
