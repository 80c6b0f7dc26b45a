package cpu

import (
	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/interrupt"
	"github.com/ezrec/em2200/word"
)

// rcs is the return control stack: B25, with the stack pointer in EX0.
func (ip *Processor) rcs() *Stack {
	return &Stack{
		Base:      &ip.BR[bank.BR_RCS],
		Index:     (*IndexRegister)(&ip.GRS[EX0]),
		Frame:     RCS_FRAME_WORDS,
		Overflow:  interrupt.RCS_OVERFLOW,
		Underflow: interrupt.RCS_UNDERFLOW,
	}
}

// ics is the interrupt control stack: B26, with the stack pointer and
// frame size in EX1.
func (ip *Processor) ics() *Stack {
	return &Stack{
		Base:      &ip.BR[bank.BR_ICS],
		Index:     (*IndexRegister)(&ip.GRS[EX0+1]),
		Overflow:  interrupt.GENERIC_STACK_OVERFLOW,
		Underflow: interrupt.GENERIC_STACK_UNDERFLOW,
	}
}

// takeInterrupt saves the interrupted state and enters the handler named
// by the level 0 vector of the interrupt class. Any failure to do so stops
// the processor.
func (ip *Processor) takeInterrupt(mi *interrupt.MachineInterrupt) {
	class := uint64(mi.Class)

	ip.mutex.Lock()
	ip.lastInterrupt = mi
	ip.mutex.Unlock()

	ip.logf("interrupt: %v at %v", mi, ip.PAR)

	if ip.Development {
		ip.stop(STOP_DEBUG, STOP_DETAIL_INTERRUPT|class)
		return
	}

	hardware := mi.Class == interrupt.HARDWARE_CHECK
	if hardware && ip.DR.Has(DB_FAULT_HANDLING) {
		ip.stop(STOP_HANDLER_HARDWARE_FAILURE, class)
		return
	}

	ip.IKR.SetShortStatus(mi.ShortStatus)
	ip.IKR.SetInterruptClass(class)

	if ip.BR[bank.BR_RCS].Void {
		ip.stop(STOP_RCS_BASE_REGISTER_INVALID, class)
		return
	}
	err := ip.rcs().Push(word.Word(ip.PAR), ip.DR.Word(), word.Word(ip.IKR.AccessKey().Value()))
	if err != nil {
		ip.stop(STOP_RCS_OVERFLOW, class)
		return
	}

	if !ip.BR[bank.BR_ICS].Void {
		err = ip.ics().Push(
			word.Word(ip.PAR),
			ip.DR.Word(),
			word.Word(ip.IKR),
			ip.QuantumTimer,
			mi.Status0,
			mi.Status1,
		)
		if err != nil {
			ip.stop(STOP_ICS_OVERFLOW, class)
			return
		}
	}

	vectors := &ip.BR[bank.BR_BDT_LEVEL]
	if !vectors.Contains(class, 1) {
		ip.stop(STOP_L0_BASE_REGISTER_INVALID, class)
		return
	}
	words, err := vectors.Storage(class, 1)
	if err != nil {
		ip.stop(STOP_L0_BASE_REGISTER_INVALID, class)
		return
	}

	va := bank.NewVirtualAddress(words[0])
	if va.IsInterruptReserved() {
		ip.stop(STOP_HANDLER_INVALID_LEVEL_BDI, class)
		return
	}
	bd, err := ip.descriptor(va.Level, va.BDI)
	if err != nil {
		ip.stop(STOP_HANDLER_INVALID_LEVEL_BDI, class)
		return
	}
	if bd.Type() != bank.EXTENDED_MODE {
		ip.stop(STOP_HANDLER_INVALID_BANK_TYPE, class)
		return
	}

	br := bank.NewBaseRegister(bd)
	err = ip.attach(&br)
	if err != nil {
		ip.stop(STOP_HANDLER_INVALID_LEVEL_BDI, class)
		return
	}
	if !br.Contains(va.Offset, 1) {
		ip.stop(STOP_HANDLER_OFFSET_OUT_OF_RANGE, class)
		return
	}

	dr := DB_EXEC_REGISTER_SET | DB_ARITHMETIC_EXCEPTION
	if hardware || ip.DR.Has(DB_FAULT_HANDLING) {
		dr |= DB_FAULT_HANDLING
	}

	ip.JumpHistory.Record(word.Word(ip.PAR))

	ip.BR[bank.BR_CODE] = br
	ip.DR = dr
	ip.IKR.SetAccessKey(bank.AccessInfo{})
	ip.PAR = ProgramAddressRegister(va.Word())
	ip.resuming = false
}
