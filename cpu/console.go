package cpu

// Console is the operator console reached through the SYSC console
// subfunctions.
type Console interface {
	// Status displays a status message.
	Status(text string) error
	// Message displays a read-only message.
	Message(text string) error
	// ReadReply displays a message and waits for a reply of at most max
	// characters.
	ReadReply(text string, max int) (reply string, err error)
	// Poll returns unsolicited operator input, if any is waiting.
	Poll() (text string, ok bool, err error)
	// Reset discards pending input and outstanding replies.
	Reset() error
}
