// Package console provides operator consoles for the SYSC console
// subfunctions of an instruction processor: a line console over a pair of
// byte streams (Line), and an in-memory FIFO console (Queue).
package console

import (
	"github.com/ezrec/em2200/cpu"
)

var (
	_ cpu.Console = (*Line)(nil)
	_ cpu.Console = (*Queue)(nil)
)

// Prefixes of the kinds of console output.
var (
	STATUS_PREFIX  = f("status")
	MESSAGE_PREFIX = f("message")
	REPLY_PREFIX   = f("reply")
)
