package cpu

import (
	"math/bits"

	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/interrupt"
	"github.com/ezrec/em2200/word"
)

// Sign categories tested by the a field of the extended mode f=050 tests.
const (
	test_positive      = 001
	test_positive_zero = 002
	test_negative_zero = 004
	test_negative      = 010
)

func category(w word.Word) uint64 {
	switch {
	case w.IsPositiveZero():
		return test_positive_zero
	case w.IsNegativeZero():
		return test_negative_zero
	case w.IsNegative():
		return test_negative
	}
	return test_positive
}

// skipIf evaluates a test of the operand and skips when it holds.
func (ip *Processor) skipIf(iw word.Instruction, test func(u word.Word) bool) (err error) {
	value, err := ip.operand(iw)
	if err != nil {
		return
	}
	ip.skip = test(value)
	return
}

// opTest is the extended mode test family; a selects which sign
// categories of the operand skip.
func (ip *Processor) opTest(iw word.Instruction) error {
	mask := iw.A()
	return ip.skipIf(iw, func(u word.Word) bool { return mask&category(u) != 0 })
}

func (ip *Processor) opTZ(iw word.Instruction) error {
	return ip.skipIf(iw, word.Word.IsZero)
}

func (ip *Processor) opTNZ(iw word.Instruction) error {
	return ip.skipIf(iw, func(u word.Word) bool { return !u.IsZero() })
}

func (ip *Processor) opTP(iw word.Instruction) error {
	return ip.skipIf(iw, func(u word.Word) bool { return !u.IsNegative() })
}

func (ip *Processor) opTN(iw word.Instruction) error {
	return ip.skipIf(iw, word.Word.IsNegative)
}

func (ip *Processor) opTE(iw word.Instruction) error {
	a := *ip.A(iw.A())
	return ip.skipIf(iw, func(u word.Word) bool { return u == a })
}

func (ip *Processor) opTNE(iw word.Instruction) error {
	a := *ip.A(iw.A())
	return ip.skipIf(iw, func(u word.Word) bool { return u != a })
}

func (ip *Processor) opTLE(iw word.Instruction) error {
	a := *ip.A(iw.A())
	return ip.skipIf(iw, func(u word.Word) bool { return word.Compare(u, a) <= 0 })
}

func (ip *Processor) opTG(iw word.Instruction) error {
	a := *ip.A(iw.A())
	return ip.skipIf(iw, func(u word.Word) bool { return word.Compare(u, a) > 0 })
}

func within(lo, u, hi word.Word) bool {
	return word.Compare(lo, u) < 0 && word.Compare(u, hi) <= 0
}

func (ip *Processor) opTW(iw word.Instruction) error {
	lo, hi := *ip.A(iw.A()), *ip.A(iw.A() + 1)
	return ip.skipIf(iw, func(u word.Word) bool { return within(lo, u, hi) })
}

func (ip *Processor) opTNW(iw word.Instruction) error {
	lo, hi := *ip.A(iw.A()), *ip.A(iw.A() + 1)
	return ip.skipIf(iw, func(u word.Word) bool { return !within(lo, u, hi) })
}

func (ip *Processor) opTEP(iw word.Instruction) error {
	a := *ip.A(iw.A())
	return ip.skipIf(iw, func(u word.Word) bool { return bits.OnesCount64(uint64(u&a))%2 == 0 })
}

func (ip *Processor) opTOP(iw word.Instruction) error {
	a := *ip.A(iw.A())
	return ip.skipIf(iw, func(u word.Word) bool { return bits.OnesCount64(uint64(u&a))%2 == 1 })
}

// opTLEM skips when the operand H2 is at most the modifier of X(a), then
// increments X(a).
func (ip *Processor) opTLEM(iw word.Instruction) (err error) {
	value, err := ip.operand(iw)
	if err != nil {
		return
	}
	xr := ip.X(iw.A())
	ip.skip = value.H2() <= xr.XM()
	xr.Increment(ip.wideIndex())
	return
}

// masked evaluates a test of the full word operand and A(a) under the R2
// mask. The j field is part of the function code.
func (ip *Processor) masked(iw word.Instruction, test func(u, a, a1 word.Word) bool) (err error) {
	value, err := ip.wordOperand(iw)
	if err != nil {
		return
	}
	mask := *ip.R(2)
	a, a1 := *ip.A(iw.A())&mask, *ip.A(iw.A()+1)&mask
	ip.skip = test(value&mask, a, a1)
	return
}

func (ip *Processor) opMTE(iw word.Instruction) error {
	return ip.masked(iw, func(u, a, _ word.Word) bool { return u == a })
}

func (ip *Processor) opMTNE(iw word.Instruction) error {
	return ip.masked(iw, func(u, a, _ word.Word) bool { return u != a })
}

func (ip *Processor) opMTLE(iw word.Instruction) error {
	return ip.masked(iw, func(u, a, _ word.Word) bool { return word.Compare(u, a) <= 0 })
}

func (ip *Processor) opMTG(iw word.Instruction) error {
	return ip.masked(iw, func(u, a, _ word.Word) bool { return word.Compare(u, a) > 0 })
}

func (ip *Processor) opMTW(iw word.Instruction) error {
	return ip.masked(iw, func(u, a, a1 word.Word) bool { return within(a, u, a1) })
}

func (ip *Processor) opMTNW(iw word.Instruction) error {
	return ip.masked(iw, func(u, a, a1 word.Word) bool { return !within(a, u, a1) })
}

// opMATL is an unsigned masked compare.
func (ip *Processor) opMATL(iw word.Instruction) error {
	return ip.masked(iw, func(u, a, _ word.Word) bool { return u <= a })
}

// opMATG is an unsigned masked compare.
func (ip *Processor) opMATG(iw word.Instruction) error {
	return ip.masked(iw, func(u, a, _ word.Word) bool { return u > a })
}

func (ip *Processor) opDTE(iw word.Instruction) (err error) {
	d, err := ip.doubleOperand(iw)
	if err != nil {
		return
	}
	ip.skip = word.CompareDouble(d, ip.aPair(iw.A())) == 0
	return
}

// test_and_set_bit is the lock bit of TS, TSS and TCS.
var test_and_set_bit = word.Bit(5)

// testAndSet examines the lock bit of the operand word, and replaces it
// with set when the lock is in the opposite state.
func (ip *Processor) testAndSet(iw word.Instruction, set bool) (changed bool, err error) {
	ref, err := ip.resolve(iw, 1, bank.ACCESS_RW)
	if err != nil {
		return
	}
	w := ref.Get(0)
	locked := w&test_and_set_bit != 0
	if locked == set {
		return
	}
	if set {
		w |= test_and_set_bit
	} else {
		w &^= test_and_set_bit
	}
	ref.Set(0, w)
	changed = true
	return
}

// opTS sets the lock, or raises a test and set interrupt if it was set.
func (ip *Processor) opTS(iw word.Instruction) (err error) {
	changed, err := ip.testAndSet(iw, true)
	if err != nil || changed {
		return
	}
	err = interrupt.NewTestAndSet(ip.PAR.VirtualAddress().Word())
	return
}

// opTSS sets the lock and skips if it was clear.
func (ip *Processor) opTSS(iw word.Instruction) (err error) {
	ip.skip, err = ip.testAndSet(iw, true)
	return
}

// opTCS clears the lock and skips if it was set.
func (ip *Processor) opTCS(iw word.Instruction) (err error) {
	ip.skip, err = ip.testAndSet(iw, false)
	return
}
