package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/interrupt"
	"github.com/ezrec/em2200/storage"
	"github.com/ezrec/em2200/word"
)

// newStack is a stack of words 0100..0117 with two word frames, empty.
func newStack() (s *Stack, words []word.Word) {
	seg := &storage.Segment{Words: make([]word.Word, 020)}
	br := &bank.BaseRegister{
		Lower:   0100,
		Upper:   0117,
		Segment: seg,
	}
	xr := IndexRegister(word.FromHalves(2, 0120))
	s = &Stack{
		Base:      br,
		Index:     &xr,
		Overflow:  interrupt.RCS_OVERFLOW,
		Underflow: interrupt.RCS_UNDERFLOW,
	}
	return s, seg.Words
}

func TestStack_Push(t *testing.T) {
	assert := assert.New(t)

	s, words := newStack()
	assert.True(s.Empty())
	assert.False(s.Full())

	require.NoError(t, s.Push(0123, 0456))
	assert.False(s.Empty())
	assert.Equal(uint64(0116), s.Index.XM())
	assert.Equal(word.Word(0123), words[016])
	assert.Equal(word.Word(0456), words[017])

	assert.ErrorIs(s.Push(1, 2, 3), interrupt.NewStackFault(interrupt.RCS_OVERFLOW))
	assert.Equal(uint64(0116), s.Index.XM())
}

func TestStack_Pop(t *testing.T) {
	assert := assert.New(t)

	s, _ := newStack()
	require.NoError(t, s.Push(0123, 0456))
	require.NoError(t, s.Push(0777))

	values, err := s.Pop(2)
	assert.NoError(err)
	assert.Equal([]word.Word{0777, 0}, values)

	values, err = s.Pop(2)
	assert.NoError(err)
	assert.Equal([]word.Word{0123, 0456}, values)
	assert.True(s.Empty())

	_, err = s.Pop(2)
	var mi *interrupt.MachineInterrupt
	require.ErrorAs(t, err, &mi)
	assert.Equal(interrupt.RCS_GENERIC_STACK_UNDERFLOW_OVERFLOW, mi.Class)
	assert.ErrorIs(err, interrupt.RCS_UNDERFLOW)
}

func TestStack_Peek(t *testing.T) {
	assert := assert.New(t)

	s, _ := newStack()
	require.NoError(t, s.Push(0123, 0456))

	values, err := s.Peek(1)
	assert.NoError(err)
	assert.Equal([]word.Word{0123}, values)
	assert.False(s.Empty())
}

func TestStack_Full(t *testing.T) {
	assert := assert.New(t)

	s, _ := newStack()
	for range 8 {
		assert.False(s.Full())
		require.NoError(t, s.Push(1))
	}
	assert.True(s.Full())
	assert.ErrorIs(s.Push(1), interrupt.RCS_OVERFLOW)
	assert.Equal(uint64(0100), s.Index.XM())

	s.Reset()
	assert.True(s.Empty())
	assert.Equal(uint64(0120), s.Index.XM())
}

func TestStack_BuySell(t *testing.T) {
	assert := assert.New(t)

	s, _ := newStack()
	top, err := s.Buy(3)
	assert.NoError(err)
	assert.Equal(uint64(0113), top)

	assert.ErrorIs(s.Sell(4), interrupt.RCS_UNDERFLOW)
	assert.Equal(uint64(0113), s.Index.XM())

	assert.NoError(s.Sell(3))
	assert.True(s.Empty())

	_, err = s.Buy(017)
	assert.ErrorIs(err, interrupt.RCS_OVERFLOW)
}

func TestStack_Frame(t *testing.T) {
	assert := assert.New(t)

	s, _ := newStack()
	s.Frame = 4

	top, err := s.Buy(0)
	assert.NoError(err)
	assert.Equal(uint64(0114), top)
}

func TestStack_Wide(t *testing.T) {
	assert := assert.New(t)

	s, _ := newStack()
	s.Wide = true
	s.Index.SetXI12(1)
	s.Index.SetXM24(0120)

	require.NoError(t, s.Push(7))
	assert.Equal(uint64(0117), s.Index.XM24())
}

func TestStack_Void(t *testing.T) {
	assert := assert.New(t)

	s, _ := newStack()
	s.Base = &bank.BaseRegister{Void: true}
	assert.True(s.Empty())
	assert.True(s.Full())
	assert.ErrorIs(s.Push(1), interrupt.RCS_OVERFLOW)
	assert.ErrorIs(s.Sell(0), interrupt.RCS_UNDERFLOW)
}
