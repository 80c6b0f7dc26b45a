package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Line is a console over a line oriented byte stream pair. Output is
// written one line per message; input is read a line at a time by a
// background reader so that Poll never blocks.
type Line struct {
	Input  io.Reader
	Output io.Writer

	once  sync.Once
	mutex sync.Mutex
	lines chan string
	err   error
}

// start runs the input reader on first use.
func (lc *Line) start() {
	lc.once.Do(func() {
		lc.lines = make(chan string, 16)
		if lc.Input == nil {
			lc.err = ErrInputClosed
			close(lc.lines)
			return
		}
		go func() {
			defer close(lc.lines)
			scanner := bufio.NewScanner(lc.Input)
			for scanner.Scan() {
				lc.lines <- strings.TrimRight(scanner.Text(), "\r")
			}
			lc.mutex.Lock()
			lc.err = scanner.Err()
			if lc.err == nil {
				lc.err = ErrInputClosed
			}
			lc.mutex.Unlock()
		}()
	})
}

func (lc *Line) inputErr() error {
	lc.mutex.Lock()
	defer lc.mutex.Unlock()
	return lc.err
}

func (lc *Line) write(prefix string, text string) (err error) {
	if lc.Output == nil {
		return
	}
	_, err = fmt.Fprintf(lc.Output, "%s: %s\n", prefix, text)
	return
}

// Status writes a status line.
func (lc *Line) Status(text string) error {
	return lc.write(STATUS_PREFIX, text)
}

// Message writes a message line.
func (lc *Line) Message(text string) error {
	return lc.write(MESSAGE_PREFIX, text)
}

// ReadReply writes the message, then waits for the next input line.
func (lc *Line) ReadReply(text string, limit int) (reply string, err error) {
	lc.start()

	err = lc.write(REPLY_PREFIX, text)
	if err != nil {
		return
	}

	reply, ok := <-lc.lines
	if !ok {
		err = lc.inputErr()
		return
	}
	reply = reply[:min(len(reply), limit)]
	return
}

// Poll returns a waiting input line. End of input is not an error.
func (lc *Line) Poll() (text string, ok bool, err error) {
	lc.start()

	select {
	case text, ok = <-lc.lines:
		if !ok {
			err = lc.inputErr()
			if errors.Is(err, ErrInputClosed) {
				err = nil
			}
		}
	default:
	}
	return
}

// Reset discards the input lines already read.
func (lc *Line) Reset() (err error) {
	lc.start()

	for {
		select {
		case _, ok := <-lc.lines:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
