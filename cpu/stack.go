package cpu

import (
	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/interrupt"
	"github.com/ezrec/em2200/word"
)

const (
	RCS_FRAME_WORDS = 3 // PAR, DR and access key.
	ICS_FRAME_WORDS = 6 // PAR, DR, IKR, quantum timer, ISW0 and ISW1.
)

// Stack is a stack of words in a bank. The base register describes the
// bank; the index register holds the stack pointer in its modifier and the
// frame size in its increment. The stack grows toward the lower limit.
type Stack struct {
	Base  *bank.BaseRegister
	Index *IndexRegister
	Wide  bool   // 24-bit modifier and 12-bit increment.
	Frame uint64 // Fixed frame size; the increment is used when zero.

	Overflow  interrupt.StackReason
	Underflow interrupt.StackReason
}

func (s *Stack) pointer() uint64 {
	if s.Wide {
		return s.Index.XM24()
	}
	return s.Index.XM()
}

func (s *Stack) frame() uint64 {
	if s.Frame != 0 {
		return s.Frame
	}
	if s.Wide {
		return s.Index.XI12()
	}
	return s.Index.XI()
}

func (s *Stack) setPointer(value uint64) {
	if s.Wide {
		s.Index.SetXM24(value)
	} else {
		s.Index.SetXM(value)
	}
}

// Buy allocates frame+extra words. The stack pointer is left unchanged on
// overflow.
func (s *Stack) Buy(extra uint64) (top uint64, err error) {
	if s.Base.Void {
		err = interrupt.NewStackFault(s.Overflow)
		return
	}
	size := s.frame() + extra
	sp := s.pointer()
	if size > sp || sp-size < s.Base.Lower {
		err = interrupt.NewStackFault(s.Overflow)
		return
	}
	top = sp - size
	s.setPointer(top)
	return
}

// Sell releases frame+extra words. The stack pointer is left unchanged on
// underflow.
func (s *Stack) Sell(extra uint64) (err error) {
	if s.Base.Void {
		err = interrupt.NewStackFault(s.Underflow)
		return
	}
	top := s.pointer() + s.frame() + extra
	if top > s.Base.Upper+1 {
		err = interrupt.NewStackFault(s.Underflow)
		return
	}
	s.setPointer(top)
	return
}

// Push buys a frame and writes values into it, top of stack first.
func (s *Stack) Push(values ...word.Word) (err error) {
	if uint64(len(values)) > s.frame() {
		err = interrupt.NewStackFault(s.Overflow)
		return
	}
	top, err := s.Buy(0)
	if err != nil {
		return
	}
	words, err := s.storage(top, uint64(len(values)))
	if err != nil {
		s.setPointer(top + s.frame())
		return
	}
	copy(words, values)
	return
}

// Pop reads count words from the top frame and sells it.
func (s *Stack) Pop(count uint64) (values []word.Word, err error) {
	values, err = s.Peek(count)
	if err != nil {
		return
	}
	err = s.Sell(0)
	return
}

// Peek reads count words from the top frame.
func (s *Stack) Peek(count uint64) (values []word.Word, err error) {
	if s.Empty() {
		err = interrupt.NewStackFault(s.Underflow)
		return
	}
	words, err := s.storage(s.pointer(), count)
	if err != nil {
		return
	}
	values = append(values, words...)
	return
}

// Empty reports if no frame is on the stack.
func (s *Stack) Empty() bool {
	return s.Base.Void || s.pointer()+s.frame() > s.Base.Upper+1
}

// Full reports if another frame would overflow the stack.
func (s *Stack) Full() bool {
	return s.Base.Void || s.frame() > s.pointer() || s.pointer()-s.frame() < s.Base.Lower
}

// Reset empties the stack.
func (s *Stack) Reset() {
	s.setPointer(s.Base.Upper + 1)
}

func (s *Stack) storage(rel uint64, count uint64) (words []word.Word, err error) {
	words, err = s.Base.Storage(rel, count)
	if err != nil {
		err = interrupt.NewStackFault(s.Overflow)
	}
	return
}
