package cpu

import (
	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/interrupt"
	"github.com/ezrec/em2200/word"
)

// opNOP forms its operand address only for the indexing and indirection
// side effects.
func (ip *Processor) opNOP(iw word.Instruction) (err error) {
	_, err = ip.jumpTarget(iw)
	return
}

// genericStack is the stack named by the b and x fields of BUY and SELL.
func (ip *Processor) genericStack(iw word.Instruction) *Stack {
	return &Stack{
		Base:      &ip.BR[iw.B()],
		Index:     ip.X(iw.X()),
		Wide:      ip.wideIndex(),
		Overflow:  interrupt.GENERIC_STACK_OVERFLOW,
		Underflow: interrupt.GENERIC_STACK_UNDERFLOW,
	}
}

// opBUY allocates a frame of XI+d words on the generic stack.
func (ip *Processor) opBUY(iw word.Instruction) (err error) {
	_, err = ip.genericStack(iw).Buy(iw.D())
	return
}

// opSELL releases a frame of XI+d words from the generic stack.
func (ip *Processor) opSELL(iw word.Instruction) error {
	return ip.genericStack(iw).Sell(iw.D())
}

// userContext is the GRS locations of the user register context, in the
// order ACEL and DCEL move them.
func userContext() (locations []uint64) {
	for n := range uint64(grs_user_count) {
		locations = append(locations, grs_user_lo+n)
	}
	for n := range uint64(grs_r_count) {
		locations = append(locations, R0+n)
	}
	return
}

// opACEL loads the user register context from storage.
func (ip *Processor) opACEL(iw word.Instruction) (err error) {
	ref, err := ip.consecutive(iw, USER_CONTEXT_WORDS, bank.ACCESS_READ)
	if err != nil {
		return
	}
	for n, location := range userContext() {
		ip.GRS[location] = ref.Get(n)
	}
	return
}

// opDCEL stores the user register context to storage.
func (ip *Processor) opDCEL(iw word.Instruction) (err error) {
	ref, err := ip.consecutive(iw, USER_CONTEXT_WORDS, bank.ACCESS_WRITE)
	if err != nil {
		return
	}
	for n, location := range userContext() {
		ref.Set(n, ip.GRS[location])
	}
	return
}

func (ip *Processor) opSPID(iw word.Instruction) error {
	return ip.storeWord(iw, word.New(ip.UPI))
}

// opLD replaces the designator register.
func (ip *Processor) opLD(iw word.Instruction) (err error) {
	value, err := ip.wordOperand(iw)
	if err != nil {
		return
	}
	ip.DR = DesignatorRegister(value & word.MASK)
	return
}

func (ip *Processor) opSD(iw word.Instruction) error {
	return ip.storeWord(iw, ip.DR.Word())
}

// opLUD replaces the user designator bits.
func (ip *Processor) opLUD(iw word.Instruction) (err error) {
	value, err := ip.wordOperand(iw)
	if err != nil {
		return
	}
	ip.DR = (ip.DR &^ db_user_mask) | (DesignatorRegister(value) & db_user_mask)
	return
}

func (ip *Processor) opSUD(iw word.Instruction) error {
	return ip.storeWord(iw, (ip.DR & db_user_mask).Word())
}

// opSGNL raises a signal interrupt carrying the operand.
func (ip *Processor) opSGNL(iw word.Instruction) (err error) {
	value, err := ip.wordOperand(iw)
	if err != nil {
		return
	}
	err = interrupt.NewSignal(uint64(value)&077, value)
	return
}

// opIAR stops the processor for auto recovery, with the U operand as the
// stop detail.
func (ip *Processor) opIAR(iw word.Instruction) error {
	ip.stop(STOP_INITIATE_AUTO_RECOVERY, uint64(ip.immediateOperand(iw)))
	return nil
}

// opHALT stops the processor with the U operand as the stop detail.
func (ip *Processor) opHALT(iw word.Instruction) error {
	ip.stop(STOP_DEBUG, uint64(ip.immediateOperand(iw)))
	return nil
}
