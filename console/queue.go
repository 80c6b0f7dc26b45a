package console

import (
	"fmt"
)

// Queue is an in-memory console. Operator input is queued with Send and
// consumed in order by ReadReply and Poll; everything displayed is kept in
// Output.
type Queue struct {
	Capacity int // Input lines held; unlimited when zero.

	Input  []string
	Output []string
}

// Send queues a line of operator input.
func (cq *Queue) Send(text string) (err error) {
	if cq.Capacity > 0 && len(cq.Input) >= cq.Capacity {
		err = ErrConsoleFull
		return
	}
	cq.Input = append(cq.Input, text)
	return
}

func (cq *Queue) receive() (text string, ok bool) {
	if len(cq.Input) == 0 {
		return
	}
	text, cq.Input = cq.Input[0], cq.Input[1:]
	return text, true
}

func (cq *Queue) display(prefix string, text string) {
	cq.Output = append(cq.Output, fmt.Sprintf("%s: %s", prefix, text))
}

// Status records a status message.
func (cq *Queue) Status(text string) (err error) {
	cq.display(STATUS_PREFIX, text)
	return
}

// Message records a message.
func (cq *Queue) Message(text string) (err error) {
	cq.display(MESSAGE_PREFIX, text)
	return
}

// ReadReply records the message and takes the next queued input.
func (cq *Queue) ReadReply(text string, limit int) (reply string, err error) {
	cq.display(REPLY_PREFIX, text)

	reply, ok := cq.receive()
	if !ok {
		err = ErrReplyMissing
		return
	}
	reply = reply[:min(len(reply), limit)]
	return
}

// Poll takes the next queued input, if any.
func (cq *Queue) Poll() (text string, ok bool, err error) {
	text, ok = cq.receive()
	return
}

// Reset discards the queued input.
func (cq *Queue) Reset() (err error) {
	cq.Input = nil
	return
}
