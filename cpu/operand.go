package cpu

import (
	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/word"
)

// Partial word designators of the j field.
const (
	J_W   = 000
	J_H2  = 001
	J_H1  = 002
	J_XH2 = 003
	J_XH1 = 004 // Q2 in quarter word mode.
	J_XT3 = 005 // Q4 in quarter word mode.
	J_XT2 = 006 // Q3 in quarter word mode.
	J_XT1 = 007 // Q1 in quarter word mode.
	J_S6  = 010
	J_S5  = 011
	J_S4  = 012
	J_S3  = 013
	J_S2  = 014
	J_S1  = 015
	J_U   = 016
	J_XU  = 017
)

// extractPartial selects the j field designated part of w.
func extractPartial(w word.Word, j uint64, quarter bool) word.Word {
	switch j {
	case J_H2:
		return word.Word(w.H2())
	case J_H1:
		return word.Word(w.H1())
	case J_XH2:
		return w.XH2()
	case J_XH1:
		if quarter {
			return word.Word(w.Q2())
		}
		return w.XH1()
	case J_XT3:
		if quarter {
			return word.Word(w.Q4())
		}
		return w.XT3()
	case J_XT2:
		if quarter {
			return word.Word(w.Q3())
		}
		return w.XT2()
	case J_XT1:
		if quarter {
			return word.Word(w.Q1())
		}
		return w.XT1()
	case J_S6:
		return word.Word(w.S6())
	case J_S5:
		return word.Word(w.S5())
	case J_S4:
		return word.Word(w.S4())
	case J_S3:
		return word.Word(w.S3())
	case J_S2:
		return word.Word(w.S2())
	case J_S1:
		return word.Word(w.S1())
	}
	return w & word.MASK
}

// injectPartial stores value into the j field designated part of w.
func injectPartial(w word.Word, value word.Word, j uint64, quarter bool) word.Word {
	v := uint64(value)
	switch j {
	case J_W:
		return value & word.MASK
	case J_H2, J_XH2:
		return w.SetH2(v)
	case J_H1:
		return w.SetH1(v)
	case J_XH1:
		if quarter {
			return w.SetQ2(v)
		}
		return w.SetH1(v)
	case J_XT3:
		if quarter {
			return w.SetQ4(v)
		}
		return w.SetT3(v)
	case J_XT2:
		if quarter {
			return w.SetQ3(v)
		}
		return w.SetT2(v)
	case J_XT1:
		if quarter {
			return w.SetQ1(v)
		}
		return w.SetT1(v)
	case J_S6:
		return w.SetS6(v)
	case J_S5:
		return w.SetS5(v)
	case J_S4:
		return w.SetS4(v)
	case J_S3:
		return w.SetS3(v)
	case J_S2:
		return w.SetS2(v)
	case J_S1:
		return w.SetS1(v)
	}
	return w
}

func (ip *Processor) quarter() bool {
	return ip.DR.Has(DB_QUARTER_WORD)
}

// immediateOperand is the U or XU operand of j=016 and j=017.
func (ip *Processor) immediateOperand(iw word.Instruction) (value word.Word) {
	signed := iw.J() == J_XU

	if iw.X() == 0 {
		v := iw.HIU()
		if v == 0777777 {
			v = 0
		}
		if signed {
			return word.SignExtend18(v)
		}
		return word.Word(v)
	}

	u := iw.U()
	if u == 0177777 {
		u = 0
	}

	pp := ip.DR.Privilege()
	wide := !ip.DR.Has(DB_BASIC_MODE) &&
		((pp < 2 && ip.DR.Has(DB_EXEC_24BIT_INDEXING)) || (pp > 1 && iw.I() != 0))

	xr := ip.X(iw.X())
	if wide {
		v := add24(u, xr.XM24())
		if signed {
			value = word.SignExtend24(v)
		} else {
			value = word.Word(v)
		}
	} else {
		v := word.Add18(u, xr.XM())
		if signed {
			value = word.SignExtend18(v)
		} else {
			value = word.Word(v)
		}
	}

	ip.incrementIndex(iw)
	return
}

// operand fetches the single word operand of an instruction, honouring
// immediate and partial word designators.
func (ip *Processor) operand(iw word.Instruction) (value word.Word, err error) {
	j := iw.J()
	if j >= J_U && !(ip.DR.Has(DB_BASIC_MODE) && iw.I() != 0) {
		value = ip.immediateOperand(iw)
		return
	}

	if j >= J_U {
		_, err = ip.resolve(iw, 1, bank.ACCESS_READ)
		return
	}

	ref, err := ip.resolve(iw, 1, bank.ACCESS_READ)
	if err != nil {
		return
	}

	value = extractPartial(ref.Get(0), j, ip.quarter())
	return
}

// wordOperand fetches a full word operand, ignoring the j field.
func (ip *Processor) wordOperand(iw word.Instruction) (value word.Word, err error) {
	ref, err := ip.resolve(iw, 1, bank.ACCESS_READ)
	if err != nil {
		return
	}
	value = ref.Get(0)
	return
}

// storeOperand writes value to the j field designated part of the operand.
// Immediate designators make the store a no-op.
func (ip *Processor) storeOperand(iw word.Instruction, value word.Word) (err error) {
	j := iw.J()
	if j >= J_U {
		if ip.DR.Has(DB_BASIC_MODE) && iw.I() != 0 {
			_, err = ip.resolve(iw, 1, bank.ACCESS_WRITE)
		}
		return
	}

	ref, err := ip.resolve(iw, 1, bank.ACCESS_WRITE)
	if err != nil {
		return
	}

	ref.Set(0, injectPartial(ref.Get(0), value, j, ip.quarter()))
	return
}

// storeWord writes a full word operand, ignoring the j field.
func (ip *Processor) storeWord(iw word.Instruction, value word.Word) (err error) {
	ref, err := ip.resolve(iw, 1, bank.ACCESS_WRITE)
	if err != nil {
		return
	}
	ref.Set(0, value)
	return
}

// modify replaces the j field designated part of the operand with the
// result of fn, and returns the part as stored.
func (ip *Processor) modify(iw word.Instruction, fn func(old word.Word) word.Word) (result word.Word, err error) {
	j := iw.J()
	ref, err := ip.resolve(iw, 1, bank.ACCESS_RW)
	if err != nil {
		return
	}

	quarter := ip.quarter()
	old := ref.Get(0)
	stored := injectPartial(old, fn(extractPartial(old, j, quarter)), j, quarter)
	ref.Set(0, stored)
	result = extractPartial(stored, j, quarter)
	return
}

// consecutive maps count words starting at the operand address.
func (ip *Processor) consecutive(iw word.Instruction, count uint64, access bank.Access) (ref reference, err error) {
	ref, err = ip.resolve(iw, count, access)
	return
}

// doubleOperand fetches a two word operand.
func (ip *Processor) doubleOperand(iw word.Instruction) (d word.Double, err error) {
	ref, err := ip.consecutive(iw, 2, bank.ACCESS_READ)
	if err != nil {
		return
	}
	d = word.Double{ref.Get(0), ref.Get(1)}
	return
}

// aPair is A(a) and A(a+1) as a double word.
func (ip *Processor) aPair(a uint64) word.Double {
	return word.Double{*ip.A(a), *ip.A(a + 1)}
}

func (ip *Processor) setAPair(a uint64, d word.Double) {
	*ip.A(a) = d[0] & word.MASK
	*ip.A(a + 1) = d[1] & word.MASK
}
