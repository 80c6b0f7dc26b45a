package cpu

import (
	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/interrupt"
	"github.com/ezrec/em2200/word"
)

// destination is a bank transfer target, resolved through any gate.
type destination struct {
	name   bankName
	offset uint64
	gate   bank.Gate // nil without a gate.
	basic  uint64    // Basic mode base register, offset from B12.
}

func addressingError(reason interrupt.AddressingReason, bn *bankName) error {
	return interrupt.NewAddressingException(reason, bn.Level, bn.BDI)
}

// destination resolves the L,BDI,offset of a CALL or GOTO.
func (ip *Processor) destination(va bank.VirtualAddress, isGoto bool) (dest destination, err error) {
	dest.name, err = ip.findBank(va.LBDI())
	if err != nil {
		return
	}
	dest.offset = va.Offset

	if dest.name.Void() {
		err = addressingError(interrupt.FATAL_ADDRESSING, &dest.name)
		return
	}

	if dest.name.BD.Type() == bank.GATE {
		err = ip.enterGate(&dest, isGoto)
		if err != nil {
			return
		}
	} else if !ip.enterable(dest.name.BD) {
		err = addressingError(interrupt.ENTER_ACCESS_DENIED, &dest.name)
		return
	}

	switch dest.name.BD.Type() {
	case bank.EXTENDED_MODE, bank.BASIC_MODE:
	default:
		err = addressingError(interrupt.INVALID_BANK_TYPE, &dest.name)
	}

	return
}

// enterGate replaces the destination with the target of the gate it names.
func (ip *Processor) enterGate(dest *destination, isGoto bool) (err error) {
	bn := &dest.name
	if !ip.enterable(bn.BD) {
		err = addressingError(interrupt.ENTER_ACCESS_DENIED, bn)
		return
	}

	gbr := bank.NewBaseRegister(bn.BD)
	if dest.offset%bank.GATE_WORDS != 0 || !gbr.Contains(dest.offset, bank.GATE_WORDS) {
		err = addressingError(interrupt.GATE_BANK_BOUNDARY, bn)
		return
	}
	err = ip.attach(&gbr)
	if err != nil {
		err = addressingError(interrupt.FATAL_ADDRESSING, bn)
		return
	}
	words, err := gbr.Storage(dest.offset, bank.GATE_WORDS)
	if err != nil {
		err = addressingError(interrupt.GATE_BANK_BOUNDARY, bn)
		return
	}

	gate := bank.Gate(words)
	perms := bank.Effective(ip.IKR.AccessKey(), gate.Lock(), gate.GAP(), gate.SAP())
	if !perms.Enter || (isGoto && gate.GotoInhibit()) {
		err = addressingError(interrupt.ENTER_ACCESS_DENIED, bn)
		return
	}

	target := gate.Target()
	dest.name, err = ip.findBank(target.LBDI())
	if err != nil {
		return
	}
	if dest.name.Void() {
		err = addressingError(interrupt.FATAL_ADDRESSING, &dest.name)
		return
	}
	if dest.name.BD.Type() == bank.GATE {
		err = addressingError(interrupt.INVALID_BANK_TYPE, &dest.name)
		return
	}

	dest.offset = target.Offset
	dest.gate = gate
	dest.basic = gate.BasicRegister()
	return
}

// enter loads the destination bank and jumps to it.
func (ip *Processor) enter(dest *destination) (err error) {
	br, err := ip.baseRegister(&dest.name, 0)
	if err != nil {
		return
	}

	if gate := dest.gate; gate != nil {
		if !gate.DBInhibit() {
			mask := DesignatorRegister(bank.GATE_DESIGNATOR_MASK)
			ip.DR = (ip.DR &^ mask) | DesignatorRegister(gate.Designator())
		}
		if !gate.KeyInhibit() {
			ip.IKR.SetAccessKey(gate.AccessKey())
		}
		if !gate.LP0Inhibit() {
			*ip.R(0) = gate.LatentParameter0()
		}
		if !gate.LP1Inhibit() {
			*ip.R(1) = gate.LatentParameter1()
		}
	}

	abe := ActiveBaseEntry{Level: dest.name.Level, BDI: dest.name.BDI}
	if dest.name.BD.Type() == bank.BASIC_MODE {
		ip.setBaseRegister(bank.BR_BASIC_LO+int(dest.basic), br, abe)
		ip.DR.Set(DB_BASIC_MODE, true)
	} else {
		ip.setBaseRegister(bank.BR_CODE, br, abe)
		ip.DR.Set(DB_BASIC_MODE, false)
	}

	ip.JumpHistory.Record(word.Word(ip.PAR))
	ip.PAR = ProgramAddressRegister(bank.VirtualAddress{Level: abe.Level, BDI: abe.BDI, Offset: dest.offset}.Word())
	ip.jumped = true
	return
}

// returnFrame is the RCS frame that resumes after the current instruction.
func (ip *Processor) returnFrame() (par, dr, key word.Word) {
	next := ip.PAR
	next.SetPC((next.PC() + 1) & 0777777)
	return word.Word(next), ip.DR.Word(), word.Word(ip.IKR.AccessKey().Value())
}

// callerKey records the caller's mode and access key in X0.
func (ip *Processor) callerKey() {
	var basic uint64
	if ip.DR.Has(DB_BASIC_MODE) {
		basic = 1
	}
	*ip.X(0) = IndexRegister(word.Word(basic<<35 | ip.IKR.AccessKey().Value()))
}

// transfer moves control to another bank, saving a return frame on the
// RCS when call is set.
func (ip *Processor) transfer(iw word.Instruction, call bool) (err error) {
	value, err := ip.wordOperand(iw)
	if err != nil {
		return
	}

	dest, err := ip.destination(bank.NewVirtualAddress(value), !call)
	if err != nil {
		return
	}

	if call {
		err = ip.rcs().Push(ip.returnFrame())
		if err != nil {
			return
		}
	}

	ip.callerKey()
	err = ip.enter(&dest)
	return
}

func (ip *Processor) opCALL(iw word.Instruction) error {
	return ip.transfer(iw, true)
}

func (ip *Processor) opGOTO(iw word.Instruction) error {
	return ip.transfer(iw, false)
}

// opLOCL is a call within the current bank.
func (ip *Processor) opLOCL(iw word.Instruction) (err error) {
	target, err := ip.jumpTarget(iw)
	if err != nil {
		return
	}

	err = ip.rcs().Push(ip.returnFrame())
	if err != nil {
		return
	}

	ip.callerKey()
	ip.jump(target)
	return
}

// opRTN returns to the PAR, DR and access key of the top RCS frame. The
// frame is only released once the return bank has been loaded.
func (ip *Processor) opRTN(iw word.Instruction) (err error) {
	rcs := ip.rcs()
	frame, err := rcs.Peek(RCS_FRAME_WORDS)
	if err != nil {
		return
	}

	par := ProgramAddressRegister(frame[0])
	dr := DesignatorRegister(frame[1])
	key := bank.NewAccessInfo(frame[2].H2())

	bn, err := ip.findBank(par.LBDI())
	if err != nil {
		return
	}
	if bn.Void() {
		err = addressingError(interrupt.FATAL_ADDRESSING, &bn)
		return
	}

	index := bank.BR_CODE
	switch bn.BD.Type() {
	case bank.EXTENDED_MODE:
		if dr.Has(DB_BASIC_MODE) {
			err = addressingError(interrupt.INVALID_BANK_TYPE, &bn)
			return
		}
	case bank.BASIC_MODE:
		if !dr.Has(DB_BASIC_MODE) {
			err = addressingError(interrupt.INVALID_BANK_TYPE, &bn)
			return
		}
		index = ip.basicReturnRegister(&bn)
	default:
		err = addressingError(interrupt.INVALID_BANK_TYPE, &bn)
		return
	}

	br, err := ip.baseRegister(&bn, 0)
	if err != nil {
		return
	}

	err = rcs.Sell(0)
	if err != nil {
		return
	}

	ip.setBaseRegister(index, br, ActiveBaseEntry{Level: bn.Level, BDI: bn.BDI})
	ip.JumpHistory.Record(word.Word(ip.PAR))
	ip.DR = dr
	ip.IKR.SetAccessKey(key)
	ip.PAR = par
	ip.jumped = true
	return
}

// basicReturnRegister is the basic mode base register already holding the
// bank, or B12.
func (ip *Processor) basicReturnRegister(bn *bankName) int {
	for index := bank.BR_BASIC_LO; index < bank.BR_BASIC_LO+4; index++ {
		abe := ip.ABT[index]
		if abe.Level == bn.Level && abe.BDI == bn.BDI {
			return index
		}
	}
	return bank.BR_BASIC_LO
}
