package cpu

import (
	"errors"

	"github.com/ezrec/em2200/bank"
	"github.com/ezrec/em2200/interrupt"
	"github.com/ezrec/em2200/storage"
	"github.com/ezrec/em2200/word"
)

// SYSC subfunctions, in S1 of the packet header.
const (
	SYSC_CREATE  = 020
	SYSC_DELETE  = 021
	SYSC_RESIZE  = 022
	SYSC_CNSTAT  = 030
	SYSC_CNREAD  = 031
	SYSC_CNRDREP = 032
	SYSC_CNPOLL  = 033
	SYSC_CNRESET = 034
)

// SYSC status codes, in S2 of the packet header.
const (
	SYSC_OK      = 0
	SYSC_BADUPI  = 1
	SYSC_BADSEG  = 2
	SYSC_INVADDR = 3
	SYSC_INVSIZE = 4
	SYSC_NACCESS = 5
)

// Packet sizes.
//
//	word 0: subfunction (S1), status (S2), MSP UPI (S3)
//	word 1: segment index
//	word 2: size, or the buffer offset of a console subfunction
//	word 3: console character count (H2), reply limit (H1)
const (
	SYSC_STORAGE_PACKET_WORDS = 3
	SYSC_CONSOLE_PACKET_WORDS = 4
)

// opSYSC performs the system call described by the packet at the operand.
// Request failures are reported in the packet status; only an unknown
// subfunction interrupts.
func (ip *Processor) opSYSC(iw word.Instruction) (err error) {
	rel := ip.relativeAddress(iw)
	ref, err := ip.locate(iw, rel, 1, bank.ACCESS_READ)
	if err != nil {
		return
	}

	var count uint64
	sub := ref.Get(0).S1()
	switch sub {
	case SYSC_CREATE, SYSC_DELETE, SYSC_RESIZE:
		count = SYSC_STORAGE_PACKET_WORDS
	case SYSC_CNSTAT, SYSC_CNREAD, SYSC_CNRDREP, SYSC_CNPOLL, SYSC_CNRESET:
		count = SYSC_CONSOLE_PACKET_WORDS
	default:
		err = interrupt.NewInvalidInstruction(interrupt.UNDEFINED_FUNCTION_CODE)
		return
	}

	packet, err := ip.locate(iw, rel, count, bank.ACCESS_RW)
	if err != nil {
		return
	}
	ip.incrementIndex(iw)

	var status uint64
	if count == SYSC_STORAGE_PACKET_WORDS {
		status = ip.syscStorage(sub, packet)
	} else {
		status = ip.syscConsole(sub, packet)
	}

	ip.logf("sysc %03o: status %o", sub, status)
	packet.Set(0, packet.Get(0).SetS2(status))
	return
}

// syscStorage runs a segment subfunction against the MSP of the packet.
func (ip *Processor) syscStorage(sub uint64, packet reference) (status uint64) {
	header := packet.Get(0)
	msp, err := ip.mainStorage(header.S3())
	if err != nil {
		return SYSC_BADUPI
	}

	segment := packet.Get(1).W()
	size := packet.Get(2).W()

	switch sub {
	case SYSC_CREATE:
		if size == 0 || size > storage.MAX_SEGMENT_SIZE {
			return SYSC_INVSIZE
		}
		segment, err = msp.Create(size)
		if err == nil {
			packet.Set(1, word.New(segment))
		}
	case SYSC_DELETE:
		err = msp.Delete(segment)
	case SYSC_RESIZE:
		if size == 0 || size > storage.MAX_SEGMENT_SIZE {
			return SYSC_INVSIZE
		}
		err = msp.Resize(segment, size)
	}

	return syscStatus(err)
}

func syscStatus(err error) uint64 {
	switch {
	case err == nil:
		return SYSC_OK
	case errors.Is(err, storage.ErrSegmentMissing), errors.Is(err, storage.ErrSegmentFixed):
		return SYSC_BADSEG
	case errors.Is(err, storage.ErrSegmentSize), errors.Is(err, storage.ErrCapacity):
		return SYSC_INVSIZE
	case errors.Is(err, ErrStorageMissing):
		return SYSC_BADUPI
	}
	return SYSC_NACCESS
}

// consoleBuffer maps the ASCII buffer of a console packet, big enough for
// chars characters.
func (ip *Processor) consoleBuffer(packet reference, chars uint64) (words []word.Word, status uint64) {
	msp, err := ip.mainStorage(packet.Get(0).S3())
	if err != nil {
		return nil, SYSC_BADUPI
	}
	seg, err := msp.Segment(packet.Get(1).W())
	if err != nil {
		return nil, SYSC_BADSEG
	}

	offset := packet.Get(2).W()
	count := (chars + 3) / 4
	if offset+count > seg.Len() || offset+count < offset {
		return nil, SYSC_INVADDR
	}

	return seg.Words[offset : offset+count], SYSC_OK
}

// syscConsole runs a console subfunction.
func (ip *Processor) syscConsole(sub uint64, packet reference) (status uint64) {
	if ip.Console == nil {
		ip.logf("console: %v", ErrConsoleMissing)
		return SYSC_NACCESS
	}

	counts := packet.Get(3)
	chars := counts.H2()
	limit := counts.H1()

	var err error
	switch sub {
	case SYSC_CNSTAT, SYSC_CNREAD, SYSC_CNRDREP:
		words, bad := ip.consoleBuffer(packet, max(chars, limit))
		if bad != SYSC_OK {
			return bad
		}
		text := word.FromASCII(words, int(chars))
		switch sub {
		case SYSC_CNSTAT:
			err = ip.Console.Status(text)
		case SYSC_CNREAD:
			err = ip.Console.Message(text)
		case SYSC_CNRDREP:
			var reply string
			reply, err = ip.Console.ReadReply(text, int(limit))
			if err == nil {
				reply = reply[:min(len(reply), int(limit))]
				copy(words, word.ASCII(reply))
				packet.Set(3, counts.SetH2(uint64(len(reply))))
			}
		}
	case SYSC_CNPOLL:
		var text string
		var ok bool
		text, ok, err = ip.Console.Poll()
		if err != nil || !ok {
			packet.Set(3, counts.SetH2(0))
			break
		}
		text = text[:min(len(text), int(limit))]
		words, bad := ip.consoleBuffer(packet, uint64(len(text)))
		if bad != SYSC_OK {
			return bad
		}
		copy(words, word.ASCII(text))
		packet.Set(3, counts.SetH2(uint64(len(text))))
	case SYSC_CNRESET:
		err = ip.Console.Reset()
	}

	if err != nil {
		ip.logf("console: %v", err)
		return SYSC_NACCESS
	}
	return SYSC_OK
}
