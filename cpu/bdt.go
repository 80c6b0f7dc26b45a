package cpu

import (
	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/interrupt"
)

// bankName is a resolved bank descriptor and the L,BDI it was found at.
type bankName struct {
	Level uint64
	BDI   uint64
	BD    bank.Descriptor
}

// Void reports a name that selects no bank.
func (bn *bankName) Void() bool {
	return bn.BD == nil || bn.BD.Void()
}

// descriptor finds the bank descriptor for level, bdi through the BDT
// base registers.
func (ip *Processor) descriptor(level, bdi uint64) (bd bank.Descriptor, err error) {
	table := &ip.BR[bank.BR_BDT_LEVEL+int(level&07)]
	rel := bdi * bank.DESCRIPTOR_WORDS
	if table.Void || !table.Contains(rel, bank.DESCRIPTOR_WORDS) {
		err = interrupt.NewAddressingException(interrupt.FATAL_ADDRESSING, level, bdi)
		return
	}

	words, err := table.Storage(rel, bank.DESCRIPTOR_WORDS)
	if err != nil {
		err = interrupt.NewAddressingException(interrupt.FATAL_ADDRESSING, level, bdi)
		return
	}

	bd = bank.Descriptor(words)
	return
}

// findBank resolves an L,BDI to a bank descriptor, following one level of
// indirection. A zero L,BDI names the void bank.
func (ip *Processor) findBank(lbdi uint64) (bn bankName, err error) {
	va := bank.FromLBDI(lbdi, 0)
	bn.Level, bn.BDI = va.Level, va.BDI
	if lbdi == 0 {
		return
	}
	if va.IsInterruptReserved() {
		err = interrupt.NewAddressingException(interrupt.FATAL_ADDRESSING, bn.Level, bn.BDI)
		return
	}

	bn.BD, err = ip.descriptor(bn.Level, bn.BDI)
	if err != nil {
		return
	}

	if bn.BD.Type() != bank.INDIRECT {
		if bn.BD.GeneralFault() {
			err = interrupt.NewAddressingException(interrupt.GBIT_SET_SOURCE, bn.Level, bn.BDI)
		}
		return
	}

	if bn.BD.GeneralFault() {
		err = interrupt.NewAddressingException(interrupt.GBIT_SET_INDIRECT, bn.Level, bn.BDI)
		return
	}

	target := bank.FromLBDI(bn.BD.Target(), 0)
	if target.IsInterruptReserved() {
		err = interrupt.NewAddressingException(interrupt.FATAL_ADDRESSING, target.Level, target.BDI)
		return
	}

	bn.Level, bn.BDI = target.Level, target.BDI
	bn.BD, err = ip.descriptor(bn.Level, bn.BDI)
	if err != nil {
		return
	}

	switch {
	case bn.BD.Type() == bank.INDIRECT:
		err = interrupt.NewAddressingException(interrupt.INVALID_BANK_TYPE, bn.Level, bn.BDI)
	case bn.BD.GeneralFault():
		err = interrupt.NewAddressingException(interrupt.GBIT_SET_SOURCE, bn.Level, bn.BDI)
	}

	return
}

// baseRegister loads a base register from a resolved bank, describing the
// bank from offset onwards.
func (ip *Processor) baseRegister(bn *bankName, offset uint64) (br bank.BaseRegister, err error) {
	if bn.Void() {
		br = bank.VoidBaseRegister()
		return
	}

	br = bank.NewBaseRegisterSubset(bn.BD, offset)
	err = ip.attach(&br)
	if err != nil {
		err = interrupt.NewAddressingException(interrupt.FATAL_ADDRESSING, bn.Level, bn.BDI)
	}
	return
}

// setBaseRegister replaces B(index), and the active base table entry for
// B1..B15.
func (ip *Processor) setBaseRegister(index int, br bank.BaseRegister, abe ActiveBaseEntry) {
	ip.BR[index] = br
	if index > 0 && index < len(ip.ABT) {
		ip.ABT[index] = abe
	}
}

// enterable reports if the access key may enter the bank.
func (ip *Processor) enterable(bd bank.Descriptor) bool {
	return bank.Effective(ip.IKR.AccessKey(), bd.Lock(), bd.GAP(), bd.SAP()).Enter
}
