package cpu

import (
	"iter"

	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/word"
)

// Breakpoint compare conditions.
const (
	BREAK_FETCH = 1 << iota
	BREAK_READ
	BREAK_WRITE
)

// Breakpoint is the breakpoint register. A processor reference to Address
// of a kind selected by Compare either stops the processor (Halt) or
// raises a breakpoint interrupt before the next instruction.
type Breakpoint struct {
	Address bank.AbsoluteAddress
	Compare int
	Halt    bool

	matched bool
}

func (ip *Processor) checkBreakpoint(kind int, aa bank.AbsoluteAddress) {
	bp := &ip.Breakpoint
	if bp.Compare&kind == 0 {
		return
	}
	if aa.Segment != bp.Address.Segment || aa.Offset != bp.Address.Offset {
		return
	}
	bp.matched = true
}

const (
	JUMP_HISTORY_SIZE      = 128
	JUMP_HISTORY_THRESHOLD = 120
)

// JumpHistory is a ring of the addresses of the most recent jumps.
type JumpHistory struct {
	Entries       [JUMP_HISTORY_SIZE]word.Word
	Next          int
	Count         int
	FullInterrupt bool // Raise JumpHistoryFull when the threshold is reached.

	thresholdReached bool
}

// Record adds a jump source address.
func (jh *JumpHistory) Record(from word.Word) {
	jh.Entries[jh.Next] = from
	jh.Next = (jh.Next + 1) % JUMP_HISTORY_SIZE
	if jh.Count < JUMP_HISTORY_SIZE {
		jh.Count++
	}
	if jh.Count == JUMP_HISTORY_THRESHOLD {
		jh.thresholdReached = true
	}
}

// All iterates the recorded addresses, oldest first.
func (jh *JumpHistory) All() iter.Seq2[int, word.Word] {
	return func(yield func(int, word.Word) bool) {
		start := (jh.Next - jh.Count + JUMP_HISTORY_SIZE) % JUMP_HISTORY_SIZE
		for n := range jh.Count {
			if !yield(n, jh.Entries[(start+n)%JUMP_HISTORY_SIZE]) {
				return
			}
		}
	}
}

// Clear empties the history.
func (jh *JumpHistory) Clear() {
	full := jh.FullInterrupt
	*jh = JumpHistory{FullInterrupt: full}
}
