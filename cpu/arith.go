package cpu

import (
	"math/big"

	"github.com/ezrec/em2200/interrupt"
	"github.com/ezrec/em2200/word"
)

// setFlags records the carry and overflow of an addition.
func (ip *Processor) setFlags(carry, overflow bool) {
	ip.DR.Set(DB_CARRY, carry)
	ip.DR.Set(DB_OVERFLOW, overflow)
}

// add forms target = base + fn(operand), setting carry and overflow.
func (ip *Processor) add(iw word.Instruction, base word.Word, target *word.Word, fn func(word.Word) word.Word) (err error) {
	value, err := ip.operand(iw)
	if err != nil {
		return
	}
	sum, carry, overflow := word.Add(base, fn(value))
	*target = sum
	ip.setFlags(carry, overflow)
	return
}

func (ip *Processor) opAA(iw word.Instruction) error {
	return ip.add(iw, *ip.A(iw.A()), ip.A(iw.A()), identity)
}

func (ip *Processor) opANA(iw word.Instruction) error {
	return ip.add(iw, *ip.A(iw.A()), ip.A(iw.A()), negative)
}

func (ip *Processor) opAMA(iw word.Instruction) error {
	return ip.add(iw, *ip.A(iw.A()), ip.A(iw.A()), magnitude)
}

func (ip *Processor) opANMA(iw word.Instruction) error {
	return ip.add(iw, *ip.A(iw.A()), ip.A(iw.A()), negativeMagnitude)
}

func (ip *Processor) opAU(iw word.Instruction) error {
	return ip.add(iw, *ip.A(iw.A()), ip.A(iw.A()+1), identity)
}

func (ip *Processor) opANU(iw word.Instruction) error {
	return ip.add(iw, *ip.A(iw.A()), ip.A(iw.A()+1), negative)
}

func (ip *Processor) opAX(iw word.Instruction) error {
	xr := (*word.Word)(ip.X(iw.A()))
	return ip.add(iw, *xr, xr, identity)
}

func (ip *Processor) opANX(iw word.Instruction) error {
	xr := (*word.Word)(ip.X(iw.A()))
	return ip.add(iw, *xr, xr, negative)
}

// addHalves adds the full word operand to A(a) as two independent 18-bit
// halves.
func (ip *Processor) addHalves(iw word.Instruction, negate bool) (err error) {
	value, err := ip.wordOperand(iw)
	if err != nil {
		return
	}
	h1, h2 := value.H1(), value.H2()
	if negate {
		h1, h2 = ^h1&0777777, ^h2&0777777
	}
	a := ip.A(iw.A())
	*a = word.FromHalves(word.Add18(a.H1(), h1), word.Add18(a.H2(), h2))
	return
}

// addThirds adds the full word operand to A(a) as three independent 12-bit
// thirds.
func (ip *Processor) addThirds(iw word.Instruction, negate bool) (err error) {
	value, err := ip.wordOperand(iw)
	if err != nil {
		return
	}
	t := [3]uint64{value.T1(), value.T2(), value.T3()}
	if negate {
		for n := range t {
			t[n] = ^t[n] & 07777
		}
	}
	a := ip.A(iw.A())
	t[0] = word.Add12(a.T1(), t[0])
	t[1] = word.Add12(a.T2(), t[1])
	t[2] = word.Add12(a.T3(), t[2])
	*a = word.Word(t[0]<<24 | t[1]<<12 | t[2])
	return
}

func (ip *Processor) opAH(iw word.Instruction) error  { return ip.addHalves(iw, false) }
func (ip *Processor) opANH(iw word.Instruction) error { return ip.addHalves(iw, true) }
func (ip *Processor) opAT(iw word.Instruction) error  { return ip.addThirds(iw, false) }
func (ip *Processor) opANT(iw word.Instruction) error { return ip.addThirds(iw, true) }

func (ip *Processor) addDouble(iw word.Instruction, negate bool) (err error) {
	d, err := ip.doubleOperand(iw)
	if err != nil {
		return
	}
	if negate {
		d = d.Negate()
	}
	sum, carry, overflow := word.AddDouble(ip.aPair(iw.A()), d)
	ip.setAPair(iw.A(), sum)
	ip.setFlags(carry, overflow)
	return
}

func (ip *Processor) opDA(iw word.Instruction) error  { return ip.addDouble(iw, false) }
func (ip *Processor) opDAN(iw word.Instruction) error { return ip.addDouble(iw, true) }

// skipOnZero modifies the operand with fn and skips when the stored result
// is zero.
func (ip *Processor) skipOnZero(iw word.Instruction, fn func(word.Word) word.Word) (err error) {
	result, err := ip.modify(iw, fn)
	if err != nil {
		return
	}
	ip.skip = result.IsZero()
	return
}

func addInt(n int64) func(word.Word) word.Word {
	return func(w word.Word) word.Word {
		return word.AddSimple(w, word.FromInt(n))
	}
}

func (ip *Processor) opINC(iw word.Instruction) error  { return ip.skipOnZero(iw, addInt(1)) }
func (ip *Processor) opDEC(iw word.Instruction) error  { return ip.skipOnZero(iw, addInt(-1)) }
func (ip *Processor) opINC2(iw word.Instruction) error { return ip.skipOnZero(iw, addInt(2)) }
func (ip *Processor) opDEC2(iw word.Instruction) error { return ip.skipOnZero(iw, addInt(-2)) }
func (ip *Processor) opENZ(iw word.Instruction) error  { return ip.skipOnZero(iw, addInt(0)) }

// opADD1 adds one in twos complement, without skipping.
func (ip *Processor) opADD1(iw word.Instruction) (err error) {
	_, err = ip.modify(iw, func(w word.Word) word.Word { return (w + 1) & word.MASK })
	return
}

// opSUB1 subtracts one in twos complement, without skipping.
func (ip *Processor) opSUB1(iw word.Instruction) (err error) {
	_, err = ip.modify(iw, func(w word.Word) word.Word { return (w - 1) & word.MASK })
	return
}

func (ip *Processor) opMI(iw word.Instruction) (err error) {
	value, err := ip.operand(iw)
	if err != nil {
		return
	}
	ip.setAPair(iw.A(), word.Multiply(*ip.A(iw.A()), value))
	return
}

func (ip *Processor) opMSI(iw word.Instruction) (err error) {
	value, err := ip.operand(iw)
	if err != nil {
		return
	}
	product, overflow := word.MultiplySingle(*ip.A(iw.A()), value)
	if overflow {
		ip.DR.Set(DB_OVERFLOW, true)
		if ip.DR.Has(DB_ARITHMETIC_EXCEPTION) {
			err = interrupt.NewArithmeticException(interrupt.MULTIPLY_SINGLE_OVERFLOW)
			return
		}
	}
	*ip.A(iw.A()) = product
	return
}

// opMF is a fractional multiply: the product is shifted left one place.
func (ip *Processor) opMF(iw word.Instruction) (err error) {
	value, err := ip.operand(iw)
	if err != nil {
		return
	}
	ip.setAPair(iw.A(), word.Multiply(*ip.A(iw.A()), value).Shift(1))
	return
}

// divideCheck handles a failed division: the destination is cleared, or
// with arithmetic exceptions enabled left unchanged and an interrupt raised.
func (ip *Processor) divideCheck(clear func()) error {
	ip.DR.Set(DB_DIVIDE_CHECK, true)
	if ip.DR.Has(DB_ARITHMETIC_EXCEPTION) {
		return interrupt.NewArithmeticException(interrupt.DIVIDE_CHECK)
	}
	clear()
	return nil
}

func (ip *Processor) divide(iw word.Instruction, dividend word.Double, quotient, remainder *word.Word) (err error) {
	value, err := ip.operand(iw)
	if err != nil {
		return
	}
	q, r, ok := word.Divide(dividend, value)
	if !ok {
		return ip.divideCheck(func() {
			*quotient = 0
			if remainder != nil {
				*remainder = 0
			}
		})
	}
	*quotient = q
	if remainder != nil {
		*remainder = r
	}
	return
}

// opDI divides A(a),A(a+1) by the operand: quotient to A(a), remainder
// to A(a+1).
func (ip *Processor) opDI(iw word.Instruction) error {
	a := iw.A()
	return ip.divide(iw, ip.aPair(a), ip.A(a), ip.A(a+1))
}

// opDSF divides A(a), as the upper word of a 72-bit fraction shifted right
// one place, by the operand: quotient to A(a+1).
func (ip *Processor) opDSF(iw word.Instruction) error {
	a := iw.A()
	v := new(big.Int).Lsh(big.NewInt(ip.A(a).Int()), 35)
	dividend, _ := word.DoubleFromBig(v)
	return ip.divide(iw, dividend, ip.A(a+1), nil)
}

// opDF divides A(a),A(a+1) shifted right one place by the operand:
// quotient to A(a), remainder to A(a+1).
func (ip *Processor) opDF(iw word.Instruction) error {
	a := iw.A()
	return ip.divide(iw, ip.aPair(a).Shift(-1), ip.A(a), ip.A(a+1))
}

// logical forms A(a+1) from A(a) and the operand.
func (ip *Processor) logical(iw word.Instruction, fn func(a, u word.Word) word.Word) (err error) {
	value, err := ip.operand(iw)
	if err != nil {
		return
	}
	*ip.A(iw.A() + 1) = fn(*ip.A(iw.A()), value) & word.MASK
	return
}

func (ip *Processor) opOR(iw word.Instruction) error {
	return ip.logical(iw, func(a, u word.Word) word.Word { return a | u })
}

func (ip *Processor) opXOR(iw word.Instruction) error {
	return ip.logical(iw, func(a, u word.Word) word.Word { return a ^ u })
}

func (ip *Processor) opAND(iw word.Instruction) error {
	return ip.logical(iw, func(a, u word.Word) word.Word { return a & u })
}

// opMLU merges the operand and A(a) under the mask in R2.
func (ip *Processor) opMLU(iw word.Instruction) error {
	mask := *ip.R(2)
	return ip.logical(iw, func(a, u word.Word) word.Word { return (u & mask) | (a &^ mask) })
}
