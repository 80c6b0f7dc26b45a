package cpu

import (
	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/interrupt"
	"github.com/ezrec/em2200/word"
)

// loadedBank is a base register and active base entry ready to be loaded.
type loadedBank struct {
	br  bank.BaseRegister
	abe ActiveBaseEntry
}

// lookupBank resolves an L,BDI,offset bank name to the base register it
// loads. Queue and queue repository banks cannot be based.
func (ip *Processor) lookupBank(name word.Word) (lb loadedBank, err error) {
	va := bank.NewVirtualAddress(name)
	bn, err := ip.findBank(va.LBDI())
	if err != nil {
		return
	}

	if !bn.Void() {
		switch bn.BD.Type() {
		case bank.QUEUE, bank.QUEUE_REPOSITORY:
			err = interrupt.NewAddressingException(interrupt.INVALID_BANK_TYPE, bn.Level, bn.BDI)
			return
		}
	}

	lb.br, err = ip.baseRegister(&bn, va.Offset)
	if err != nil {
		return
	}

	lb.abe = ActiveBaseEntry{Level: bn.Level, BDI: bn.BDI, Offset: va.Offset}
	return
}

// loadBank loads B(index) from an L,BDI,offset bank name.
func (ip *Processor) loadBank(index int, name word.Word) (err error) {
	lb, err := ip.lookupBank(name)
	if err != nil {
		return
	}

	ip.setBaseRegister(index, lb.br, lb.abe)
	return
}

// opLBU loads user base register B(a) from the bank named by the operand.
func (ip *Processor) opLBU(iw word.Instruction) (err error) {
	index := int(iw.A())
	if index == bank.BR_CODE {
		err = interrupt.NewInvalidInstruction(interrupt.INVALID_BASE_REGISTER)
		return
	}

	value, err := ip.wordOperand(iw)
	if err != nil {
		return
	}

	err = ip.loadBank(index, value)
	return
}

// opLBE loads executive base register B(a+16) from the bank named by the
// operand.
func (ip *Processor) opLBE(iw word.Instruction) (err error) {
	value, err := ip.wordOperand(iw)
	if err != nil {
		return
	}

	err = ip.loadBank(bank.BR_BDT_LEVEL+int(iw.A()), value)
	return
}

// loadDirect loads B(index) from the four word base register image at
// the operand.
func (ip *Processor) loadDirect(iw word.Instruction, index int) (err error) {
	ref, err := ip.consecutive(iw, 4, bank.ACCESS_READ)
	if err != nil {
		return
	}

	image := make([]word.Word, 4)
	for n := range image {
		image[n] = ref.Get(n)
	}

	br := bank.DecodeBaseRegister(image)
	err = ip.attach(&br)
	if err != nil {
		err = interrupt.NewAddressingException(interrupt.FATAL_ADDRESSING, 0, 0)
		return
	}

	ip.setBaseRegister(index, br, ActiveBaseEntry{})
	return
}

func (ip *Processor) opLBUD(iw word.Instruction) (err error) {
	index := int(iw.A())
	if index == bank.BR_CODE {
		err = interrupt.NewInvalidInstruction(interrupt.INVALID_BASE_REGISTER)
		return
	}
	return ip.loadDirect(iw, index)
}

func (ip *Processor) opLBED(iw word.Instruction) error {
	return ip.loadDirect(iw, bank.BR_BDT_LEVEL+int(iw.A()))
}

// opSBU stores the bank name loaded into B(a); B0 names the bank of PAR.
func (ip *Processor) opSBU(iw word.Instruction) error {
	index := int(iw.A())

	value := ip.ABT[index].Word()
	if index == bank.BR_CODE {
		value = word.FromHalves(ip.PAR.LBDI(), 0)
	}

	return ip.storeWord(iw, value)
}

// storeDirect stores the four word image of B(index) at the operand.
func (ip *Processor) storeDirect(iw word.Instruction, index int) (err error) {
	ref, err := ip.consecutive(iw, 4, bank.ACCESS_WRITE)
	if err != nil {
		return
	}

	image := ip.BR[index].Words()
	for n, value := range image {
		ref.Set(n, value)
	}
	return
}

func (ip *Processor) opSBUD(iw word.Instruction) error {
	return ip.storeDirect(iw, int(iw.A()))
}

func (ip *Processor) opSBED(iw word.Instruction) error {
	return ip.storeDirect(iw, bank.BR_BDT_LEVEL+int(iw.A()))
}

// opLAE loads B1..B15 from the fifteen bank names at the operand. No base
// register changes unless every name resolves.
func (ip *Processor) opLAE(iw word.Instruction) (err error) {
	count := uint64(len(ip.ABT) - 1)

	ref, err := ip.consecutive(iw, count, bank.ACCESS_READ)
	if err != nil {
		return
	}

	names := make([]word.Word, count)
	for n := range names {
		names[n] = ref.Get(n)
	}

	loaded := make([]loadedBank, count)
	for n, name := range names {
		loaded[n], err = ip.lookupBank(name)
		if err != nil {
			return
		}
	}

	for n, lb := range loaded {
		ip.setBaseRegister(n+1, lb.br, lb.abe)
	}
	return
}

// TVA option bits, in X(a+1).
const (
	tva_enter         = word.Word(0_000400_000000)
	tva_read          = word.Word(0_000200_000000)
	tva_write         = word.Word(0_000100_000000)
	tva_alternate_key = word.Word(0_004000_000000)
)

// opTVA skips when the virtual address in X(a) names a word the options in
// X(a+1) (A4 for X15) may access.
func (ip *Processor) opTVA(iw word.Instruction) (err error) {
	a := iw.A()
	va := bank.NewVirtualAddress(ip.X(a).Word())

	var options word.Word
	if a == 15 {
		options = *ip.A(4)
	} else {
		options = ip.X(a + 1).Word()
	}

	key := ip.IKR.AccessKey()
	if options&tva_alternate_key != 0 {
		key = bank.NewAccessInfo(options.H2())
	}

	bn, fault := ip.findBank(va.LBDI())
	if fault != nil || bn.Void() {
		return
	}

	br := bank.NewBaseRegister(bn.BD)
	if !br.Contains(va.Offset, 1) {
		return
	}

	perms := bank.Effective(key, bn.BD.Lock(), bn.BD.GAP(), bn.BD.SAP())
	switch {
	case options&tva_enter != 0 && !perms.Enter:
	case options&tva_read != 0 && !perms.Read:
	case options&tva_write != 0 && !perms.Write:
	default:
		ip.skip = true
	}
	return
}
