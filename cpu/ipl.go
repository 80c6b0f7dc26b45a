package cpu

import (
	"errors"

	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/storage"
	"github.com/ezrec/em2200/word"
)

// InitialState is the register image a processor is loaded with at IPL.
type InitialState struct {
	BaseRegisters map[int]bank.BaseRegister // By base register index.
	Banks         map[int]ActiveBaseEntry   // Names of the banks in B1..B15.
	PAR           bank.VirtualAddress
	DR            DesignatorRegister
	Key           bank.AccessInfo
	GRS           map[uint64]word.Word
}

// IPL clears the processor, loads an initial state and starts it.
func (ip *Processor) IPL(state *InitialState) (err error) {
	ip.Clear()

	for index, br := range state.BaseRegisters {
		if index < 0 || index >= bank.BASE_REGISTER_COUNT {
			err = errors.Join(ErrStateInvalid, ErrBaseRegister{Index: index, Err: ErrStateInvalid})
			return
		}
		err = ip.attach(&br)
		if err != nil {
			err = errors.Join(ErrStateInvalid, ErrBaseRegister{Index: index, Err: err})
			return
		}
		ip.BR[index] = br
	}

	for index, abe := range state.Banks {
		if index < 1 || index >= len(ip.ABT) {
			err = errors.Join(ErrStateInvalid, ErrBaseRegister{Index: index, Err: ErrStateInvalid})
			return
		}
		ip.ABT[index] = abe
	}

	for index, value := range state.GRS {
		if index >= GRS_SIZE {
			err = ErrStateInvalid
			return
		}
		ip.GRS[index] = value & word.MASK
	}

	ip.PAR = ProgramAddressRegister(state.PAR.Word())
	ip.DR = state.DR
	ip.IKR.SetAccessKey(state.Key)

	ip.logf("ipl at %v, dr %v", ip.PAR, ip.DR)

	ip.Start()

	return
}

// mainStorage finds the storage processor holding an absolute address.
func (ip *Processor) mainStorage(upi uint64) (msp *storage.MSP, err error) {
	if ip.Storage == nil {
		err = ErrStorageMissing
		return
	}
	msp, err = ip.Storage.MainStorage(upi)
	return
}

// attach binds a base register to the segment its address names.
func (ip *Processor) attach(br *bank.BaseRegister) (err error) {
	br.Segment = nil
	if br.Void {
		return
	}

	msp, err := ip.mainStorage(br.Address.UPI)
	if err != nil {
		return
	}

	br.Segment, err = msp.Segment(br.Address.Segment)
	return
}
