package cpu

import (
	"github.com/ezrec/em2200/word"
)

func (ip *Processor) shiftSingle(iw word.Instruction, fn func(word.Word, int) word.Word) (err error) {
	count, err := ip.shiftCount(iw)
	if err != nil {
		return
	}
	a := ip.A(iw.A())
	*a = fn(*a, count)
	return
}

func (ip *Processor) shiftDouble(iw word.Instruction, fn func(word.Double, int) word.Double) (err error) {
	count, err := ip.shiftCount(iw)
	if err != nil {
		return
	}
	ip.setAPair(iw.A(), fn(ip.aPair(iw.A()), count))
	return
}

func (ip *Processor) opSSC(iw word.Instruction) error  { return ip.shiftSingle(iw, word.Word.RotateRight) }
func (ip *Processor) opDSC(iw word.Instruction) error  { return ip.shiftDouble(iw, word.Double.RotateRight) }
func (ip *Processor) opSSL(iw word.Instruction) error  { return ip.shiftSingle(iw, word.Word.ShiftRight) }
func (ip *Processor) opDSL(iw word.Instruction) error  { return ip.shiftDouble(iw, word.Double.ShiftRight) }
func (ip *Processor) opSSA(iw word.Instruction) error  { return ip.shiftSingle(iw, word.Word.ShiftAlgebraic) }
func (ip *Processor) opDSA(iw word.Instruction) error  { return ip.shiftDouble(iw, word.Double.ShiftAlgebraic) }
func (ip *Processor) opLSSC(iw word.Instruction) error { return ip.shiftSingle(iw, word.Word.RotateLeft) }
func (ip *Processor) opLDSC(iw word.Instruction) error { return ip.shiftDouble(iw, word.Double.RotateLeft) }
func (ip *Processor) opLSSL(iw word.Instruction) error { return ip.shiftSingle(iw, word.Word.ShiftLeft) }
func (ip *Processor) opLDSL(iw word.Instruction) error { return ip.shiftDouble(iw, word.Double.ShiftLeft) }

// opLSC normalizes the operand into A(a), with the shift count in A(a+1).
func (ip *Processor) opLSC(iw word.Instruction) (err error) {
	value, err := ip.wordOperand(iw)
	if err != nil {
		return
	}
	result, count := value.Normalize()
	*ip.A(iw.A()) = result
	*ip.A(iw.A() + 1) = word.Word(count)
	return
}

// opDLSC normalizes the double operand into A(a),A(a+1), with the shift
// count in A(a+2).
func (ip *Processor) opDLSC(iw word.Instruction) (err error) {
	d, err := ip.doubleOperand(iw)
	if err != nil {
		return
	}
	result, count := d.Normalize()
	ip.setAPair(iw.A(), result)
	*ip.A(iw.A() + 2) = word.Word(count)
	return
}
