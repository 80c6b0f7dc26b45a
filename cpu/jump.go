package cpu

import (
	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/interrupt"
	"github.com/ezrec/em2200/word"
)

// jumpIf transfers control to the jump target when cond holds. The target
// is always formed, so index post-increment happens either way.
func (ip *Processor) jumpIf(iw word.Instruction, cond bool) (err error) {
	target, err := ip.jumpTarget(iw)
	if err != nil {
		return
	}
	if cond {
		ip.jump(target)
	}
	return
}

func (ip *Processor) opJ(iw word.Instruction) error {
	return ip.jumpIf(iw, true)
}

// opJK is the basic mode J; a non-zero a field selects a console key
// jump, which is never taken.
func (ip *Processor) opJK(iw word.Instruction) error {
	return ip.jumpIf(iw, iw.A() == 0)
}

func (ip *Processor) opJZ(iw word.Instruction) error {
	return ip.jumpIf(iw, ip.A(iw.A()).IsZero())
}

func (ip *Processor) opJNZ(iw word.Instruction) error {
	return ip.jumpIf(iw, !ip.A(iw.A()).IsZero())
}

func (ip *Processor) opJP(iw word.Instruction) error {
	return ip.jumpIf(iw, !ip.A(iw.A()).IsNegative())
}

func (ip *Processor) opJN(iw word.Instruction) error {
	return ip.jumpIf(iw, ip.A(iw.A()).IsNegative())
}

func (ip *Processor) opJNB(iw word.Instruction) error {
	return ip.jumpIf(iw, *ip.A(iw.A())&1 == 0)
}

func (ip *Processor) opJB(iw word.Instruction) error {
	return ip.jumpIf(iw, *ip.A(iw.A())&1 != 0)
}

func (ip *Processor) opDJZ(iw word.Instruction) error {
	return ip.jumpIf(iw, ip.aPair(iw.A()).IsZero())
}

func (ip *Processor) opJO(iw word.Instruction) error {
	return ip.jumpIf(iw, ip.DR.Has(DB_OVERFLOW))
}

func (ip *Processor) opJNO(iw word.Instruction) error {
	return ip.jumpIf(iw, !ip.DR.Has(DB_OVERFLOW))
}

func (ip *Processor) opJC(iw word.Instruction) error {
	return ip.jumpIf(iw, ip.DR.Has(DB_CARRY))
}

func (ip *Processor) opJNC(iw word.Instruction) error {
	return ip.jumpIf(iw, !ip.DR.Has(DB_CARRY))
}

// opJDF jumps on divide check, and clears it.
func (ip *Processor) opJDF(iw word.Instruction) (err error) {
	check := ip.DR.Has(DB_DIVIDE_CHECK)
	err = ip.jumpIf(iw, check)
	if err == nil {
		ip.DR.Set(DB_DIVIDE_CHECK, false)
	}
	return
}

// opJNDF jumps on no divide check, and clears it.
func (ip *Processor) opJNDF(iw word.Instruction) (err error) {
	check := ip.DR.Has(DB_DIVIDE_CHECK)
	err = ip.jumpIf(iw, !check)
	if err == nil {
		ip.DR.Set(DB_DIVIDE_CHECK, false)
	}
	return
}

// opJPS jumps if A(a) is positive, then rotates A(a) left one place.
func (ip *Processor) opJPS(iw word.Instruction) (err error) {
	a := ip.A(iw.A())
	err = ip.jumpIf(iw, !a.IsNegative())
	if err == nil {
		*a = a.RotateLeft(1)
	}
	return
}

// opJNS jumps if A(a) is negative, then rotates A(a) left one place.
func (ip *Processor) opJNS(iw word.Instruction) (err error) {
	a := ip.A(iw.A())
	err = ip.jumpIf(iw, a.IsNegative())
	if err == nil {
		*a = a.RotateLeft(1)
	}
	return
}

// opJGD jumps if the GRS register named by j and a is greater than zero,
// and decrements it.
func (ip *Processor) opJGD(iw word.Instruction) (err error) {
	index := iw.J()<<4 | iw.A()
	ref, err := ip.grsReference(index, 1, bank.ACCESS_RW)
	if err != nil {
		return
	}
	value := ref.Get(0)
	err = ip.jumpIf(iw, !value.IsNegative() && !value.IsZero())
	if err == nil {
		ref.Set(0, word.AddSimple(value, word.FromInt(-1)))
	}
	return
}

// opJMGI jumps if the modifier of X(a) is greater than zero, and
// increments X(a).
func (ip *Processor) opJMGI(iw word.Instruction) (err error) {
	xr := ip.X(iw.A())
	wide := ip.wideIndex()
	m := xr.Modifier(wide)
	err = ip.jumpIf(iw, !m.IsNegative() && !m.IsZero())
	if err == nil {
		xr.Increment(wide)
	}
	return
}

// opLMJ saves the return address in the modifier of X(a) and jumps.
func (ip *Processor) opLMJ(iw word.Instruction) (err error) {
	target, err := ip.jumpTarget(iw)
	if err != nil {
		return
	}
	ip.X(iw.A()).SetXM(ip.PAR.PC() + 1)
	ip.jump(target)
	return
}

// opSLJ stores the return address in H2 of the target word and jumps to
// the word after it.
func (ip *Processor) opSLJ(iw word.Instruction) (err error) {
	rel := ip.relativeAddress(iw)
	ref, err := ip.resolve(iw, 1, bank.ACCESS_WRITE)
	if err != nil {
		return
	}
	ref.Set(0, ref.Get(0).SetH2(ip.PAR.PC()+1))
	ip.jump(rel + 1)
	return
}

// opAAIJ allows deferrable interrupts and jumps.
func (ip *Processor) opAAIJ(iw word.Instruction) (err error) {
	err = ip.jumpIf(iw, true)
	if err == nil {
		ip.DR.Set(DB_DEFERRABLE_INTERRUPT, true)
	}
	return
}

// opPAIJ prevents deferrable interrupts and jumps.
func (ip *Processor) opPAIJ(iw word.Instruction) (err error) {
	err = ip.jumpIf(iw, true)
	if err == nil {
		ip.DR.Set(DB_DEFERRABLE_INTERRUPT, false)
	}
	return
}

// opHLTJ jumps and stops the processor.
func (ip *Processor) opHLTJ(iw word.Instruction) (err error) {
	err = ip.jumpIf(iw, true)
	if err == nil {
		ip.stop(STOP_HALT_JUMP, 0)
	}
	return
}

// opHJ is the basic mode halt jump; with a non-zero a field it is a
// console key halt jump, which only jumps.
func (ip *Processor) opHJ(iw word.Instruction) (err error) {
	if iw.A() != 0 {
		return ip.jumpIf(iw, true)
	}
	if ip.DR.Privilege() != 0 {
		err = interrupt.NewInvalidInstruction(interrupt.INVALID_PROCESSOR_PRIVILEGE)
		return
	}
	return ip.opHLTJ(iw)
}
