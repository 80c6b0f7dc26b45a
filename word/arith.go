package word

import (
	"math/big"
)

// IsNegative reports if the sign bit is set, including negative zero.
func (w Word) IsNegative() bool {
	return w&NEGATIVE_BIT != 0
}

// IsZero reports if the word is either positive or negative zero.
func (w Word) IsZero() bool {
	w &= MASK
	return w == POSITIVE_ZERO || w == NEGATIVE_ZERO
}

func (w Word) IsPositiveZero() bool { return w&MASK == POSITIVE_ZERO }
func (w Word) IsNegativeZero() bool { return w&MASK == NEGATIVE_ZERO }

// Negate returns the ones-complement negation.
func (w Word) Negate() Word {
	return ^w & MASK
}

// Magnitude returns the absolute value as a native number.
func (w Word) Magnitude() uint64 {
	if w.IsNegative() {
		return uint64(w.Negate())
	}
	return uint64(w & MASK)
}

// Int decodes the ones-complement value into a native integer.
// Negative zero decodes as 0.
func (w Word) Int() int64 {
	if w.IsNegative() {
		return -int64(w.Negate())
	}
	return int64(w & MASK)
}

// FromInt encodes a native integer as ones complement. Values outside of
// the representable range are truncated to 36 bits.
func FromInt(v int64) Word {
	if v < 0 {
		return New(uint64(-v)).Negate()
	}
	return New(uint64(v))
}

// Compare compares two words as signed values; -0 and +0 compare equal.
func Compare(a, b Word) int {
	av, bv := a.Int(), b.Int()
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	}
	return 0
}

// AddSimple performs ones-complement addition without flags.
func AddSimple(a, b Word) Word {
	a &= MASK
	b &= MASK
	sum := uint64(a) + uint64(b)
	if sum > uint64(MASK) {
		sum = (sum & uint64(MASK)) + 1
	}
	result := Word(sum)
	if result == NEGATIVE_ZERO && a != b {
		result = POSITIVE_ZERO
	}
	return result
}

// Add performs ones-complement addition, returning carry and overflow the
// way the hardware sets DB18 and DB19.
func Add(a, b Word) (sum Word, carry bool, overflow bool) {
	sum = AddSimple(a, b)
	neg1, neg2, negr := a.IsNegative(), b.IsNegative(), sum.IsNegative()
	if negr {
		carry = neg1 && neg2
	} else {
		carry = neg1 || neg2
	}
	overflow = neg1 == neg2 && neg1 != negr
	return
}

// Sub subtracts b from a (a + -b).
func Sub(a, b Word) (diff Word, carry bool, overflow bool) {
	return Add(a, b.Negate())
}

// Add18 performs 18-bit ones-complement addition.
func Add18(a, b uint64) uint64 {
	a &= 0777777
	b &= 0777777
	sum := a + b
	if sum > 0777777 {
		sum = (sum & 0777777) + 1
	}
	if sum == 0777777 && a != b {
		sum = 0
	}
	return sum
}

// Add12 performs 12-bit ones-complement addition.
func Add12(a, b uint64) uint64 {
	a &= 07777
	b &= 07777
	sum := a + b
	if sum > 07777 {
		sum = (sum & 07777) + 1
	}
	if sum == 07777 && a != b {
		sum = 0
	}
	return sum
}

// Double is a 72-bit value: Double[0] holds the most significant word.
type Double [2]Word

var (
	double_mask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 72), big.NewInt(1))
	double_max  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 71), big.NewInt(1))
)

func (d Double) bits() *big.Int {
	v := new(big.Int).SetUint64(uint64(d[0] & MASK))
	v.Lsh(v, 36)
	return v.Or(v, new(big.Int).SetUint64(uint64(d[1]&MASK)))
}

func doubleFromBits(v *big.Int) Double {
	lo := new(big.Int).And(v, big.NewInt(int64(MASK)))
	hi := new(big.Int).Rsh(v, 36)
	return Double{New(hi.Uint64()), New(lo.Uint64())}
}

// IsNegative reports the sign of the 72-bit value.
func (d Double) IsNegative() bool {
	return d[0].IsNegative()
}

// IsZero reports positive or negative 72-bit zero.
func (d Double) IsZero() bool {
	return (d[0]&MASK == 0 && d[1]&MASK == 0) || (d[0]&MASK == MASK && d[1]&MASK == MASK)
}

// Negate returns the 72-bit ones-complement negation.
func (d Double) Negate() Double {
	return Double{d[0].Negate(), d[1].Negate()}
}

// Big decodes the 72-bit value into a native integer.
func (d Double) Big() *big.Int {
	if d.IsNegative() {
		return new(big.Int).Neg(d.Negate().bits())
	}
	return d.bits()
}

// DoubleFromBig encodes a native integer, reporting overflow if it does
// not fit in 72 bits.
func DoubleFromBig(v *big.Int) (d Double, overflow bool) {
	mag := new(big.Int).Abs(v)
	overflow = mag.Cmp(double_max) > 0
	mag.And(mag, double_mask)
	d = doubleFromBits(mag)
	if v.Sign() < 0 {
		d = d.Negate()
	}
	return
}

// DoubleFromInt sign-extends a native integer into 72 bits.
func DoubleFromInt(v int64) Double {
	d, _ := DoubleFromBig(big.NewInt(v))
	return d
}

// AddDouble performs 72-bit ones-complement addition.
func AddDouble(a, b Double) (sum Double, carry bool, overflow bool) {
	lo := uint64(a[1]&MASK) + uint64(b[1]&MASK)
	mid := lo > uint64(MASK)
	lo &= uint64(MASK)
	hi := uint64(a[0]&MASK) + uint64(b[0]&MASK)
	if mid {
		hi++
	}
	if hi > uint64(MASK) {
		hi &= uint64(MASK)
		lo++
		if lo > uint64(MASK) {
			lo &= uint64(MASK)
			hi++
		}
	}
	sum = Double{Word(hi), Word(lo)}
	if sum[0] == NEGATIVE_ZERO && sum[1] == NEGATIVE_ZERO && a != b {
		sum = Double{}
	}

	neg1, neg2, negr := a.IsNegative(), b.IsNegative(), sum.IsNegative()
	if negr {
		carry = neg1 && neg2
	} else {
		carry = neg1 || neg2
	}
	overflow = neg1 == neg2 && neg1 != negr
	return
}

// CompareDouble compares two 72-bit values as signed numbers.
func CompareDouble(a, b Double) int {
	return a.Big().Cmp(b.Big())
}

// Multiply forms the 72-bit product of two words.
func Multiply(a, b Word) Double {
	p := new(big.Int).Mul(big.NewInt(a.Int()), big.NewInt(b.Int()))
	d, _ := DoubleFromBig(p)
	return d
}

// MultiplySingle forms the product and reports if it does not fit a word.
func MultiplySingle(a, b Word) (product Word, overflow bool) {
	p := new(big.Int).Mul(big.NewInt(a.Int()), big.NewInt(b.Int()))
	if p.CmpAbs(big.NewInt(int64(LARGEST_POSITIVE))) > 0 {
		overflow = true
	}
	mag := new(big.Int).Abs(p)
	mag.And(mag, big.NewInt(int64(LARGEST_POSITIVE)))
	product = Word(mag.Uint64())
	if p.Sign() < 0 {
		product = product.Negate()
	}
	return
}

// Divide divides a 72-bit dividend by a word, returning a one word quotient
// and remainder. The remainder carries the sign of the dividend. ok is false
// when the divisor is zero or the quotient does not fit a word.
func Divide(dividend Double, divisor Word) (quotient Word, remainder Word, ok bool) {
	if divisor.IsZero() {
		return
	}
	q, r := new(big.Int).QuoRem(dividend.Big(), big.NewInt(divisor.Int()), new(big.Int))
	if q.CmpAbs(big.NewInt(int64(LARGEST_POSITIVE))) > 0 {
		return
	}
	quotient = FromInt(q.Int64())
	remainder = FromInt(r.Int64())
	ok = true
	return
}

// Shift returns the 72-bit value shifted algebraically; positive counts
// shift left, negative counts shift right.
func (d Double) Shift(count int) Double {
	v := d.Big()
	if count >= 0 {
		v.Lsh(v, uint(count))
	} else {
		neg := v.Sign() < 0
		v.Abs(v)
		v.Rsh(v, uint(-count))
		if neg {
			v.Neg(v)
		}
	}
	r, _ := DoubleFromBig(v)
	return r
}
