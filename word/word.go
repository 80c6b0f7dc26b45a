// Package word models the 36-bit word of the 2200 architecture.
//
// Bits are numbered the way the hardware documentation numbers them: bit 0
// is the most significant bit (2^35) and bit 35 the least significant. A
// Word carries ones-complement signed semantics; the all-ones value is
// negative zero and is distinct from positive zero.
package word

import (
	"fmt"
)

// Word is a 36-bit value held in the low bits of a uint64.
type Word uint64

const (
	MASK          = Word(0_777777_777777) // All 36 bits.
	NEGATIVE_BIT  = Word(0_400000_000000) // Sign bit (bit 0).
	POSITIVE_ZERO = Word(0)
	NEGATIVE_ZERO = MASK

	MASK_H1 = Word(0_777777_000000)
	MASK_H2 = Word(0_000000_777777)
	MASK_T1 = Word(0_777700_000000)
	MASK_T2 = Word(0_000077_770000)
	MASK_T3 = Word(0_000000_007777)
	MASK_Q1 = Word(0_777000_000000)
	MASK_Q2 = Word(0_000777_000000)
	MASK_Q3 = Word(0_000000_777000)
	MASK_Q4 = Word(0_000000_000777)
	MASK_S1 = Word(0_770000_000000)
	MASK_S2 = Word(0_007700_000000)
	MASK_S3 = Word(0_000077_000000)
	MASK_S4 = Word(0_000000_770000)
	MASK_S5 = Word(0_000000_007700)
	MASK_S6 = Word(0_000000_000077)

	LARGEST_POSITIVE = Word(0_377777_777777)
)

// Bit returns the mask of hardware bit n, where bit 0 is the MSB.
func Bit(n int) Word {
	return Word(1) << (35 - n)
}

// New masks a native value into a Word.
func New(v uint64) Word {
	return Word(v) & MASK
}

// W returns the full word as a native value.
func (w Word) W() uint64 { return uint64(w & MASK) }

func (w Word) H1() uint64 { return uint64(w>>18) & 0777777 }
func (w Word) H2() uint64 { return uint64(w) & 0777777 }
func (w Word) T1() uint64 { return uint64(w>>24) & 07777 }
func (w Word) T2() uint64 { return uint64(w>>12) & 07777 }
func (w Word) T3() uint64 { return uint64(w) & 07777 }
func (w Word) Q1() uint64 { return uint64(w>>27) & 0777 }
func (w Word) Q2() uint64 { return uint64(w>>18) & 0777 }
func (w Word) Q3() uint64 { return uint64(w>>9) & 0777 }
func (w Word) Q4() uint64 { return uint64(w) & 0777 }
func (w Word) S1() uint64 { return uint64(w>>30) & 077 }
func (w Word) S2() uint64 { return uint64(w>>24) & 077 }
func (w Word) S3() uint64 { return uint64(w>>18) & 077 }
func (w Word) S4() uint64 { return uint64(w>>12) & 077 }
func (w Word) S5() uint64 { return uint64(w>>6) & 077 }
func (w Word) S6() uint64 { return uint64(w) & 077 }

// XH1 is H1 sign-extended to 36 bits.
func (w Word) XH1() Word { return SignExtend18(w.H1()) }

// XH2 is H2 sign-extended to 36 bits.
func (w Word) XH2() Word { return SignExtend18(w.H2()) }

// XT1 is T1 sign-extended to 36 bits.
func (w Word) XT1() Word { return SignExtend12(w.T1()) }

// XT2 is T2 sign-extended to 36 bits.
func (w Word) XT2() Word { return SignExtend12(w.T2()) }

// XT3 is T3 sign-extended to 36 bits.
func (w Word) XT3() Word { return SignExtend12(w.T3()) }

func (w Word) set(mask Word, shift int, v uint64) Word {
	return (w &^ mask) | ((Word(v) << shift) & mask)
}

func (w Word) SetH1(v uint64) Word { return w.set(MASK_H1, 18, v) }
func (w Word) SetH2(v uint64) Word { return w.set(MASK_H2, 0, v) }
func (w Word) SetT1(v uint64) Word { return w.set(MASK_T1, 24, v) }
func (w Word) SetT2(v uint64) Word { return w.set(MASK_T2, 12, v) }
func (w Word) SetT3(v uint64) Word { return w.set(MASK_T3, 0, v) }
func (w Word) SetQ1(v uint64) Word { return w.set(MASK_Q1, 27, v) }
func (w Word) SetQ2(v uint64) Word { return w.set(MASK_Q2, 18, v) }
func (w Word) SetQ3(v uint64) Word { return w.set(MASK_Q3, 9, v) }
func (w Word) SetQ4(v uint64) Word { return w.set(MASK_Q4, 0, v) }
func (w Word) SetS1(v uint64) Word { return w.set(MASK_S1, 30, v) }
func (w Word) SetS2(v uint64) Word { return w.set(MASK_S2, 24, v) }
func (w Word) SetS3(v uint64) Word { return w.set(MASK_S3, 18, v) }
func (w Word) SetS4(v uint64) Word { return w.set(MASK_S4, 12, v) }
func (w Word) SetS5(v uint64) Word { return w.set(MASK_S5, 6, v) }
func (w Word) SetS6(v uint64) Word { return w.set(MASK_S6, 0, v) }

// FromHalves builds a word from two 18-bit halves.
func FromHalves(h1, h2 uint64) Word {
	return Word(0).SetH1(h1).SetH2(h2)
}

// FromQuarters builds a word from four 9-bit quarters.
func FromQuarters(q1, q2, q3, q4 uint64) Word {
	return Word(0).SetQ1(q1).SetQ2(q2).SetQ3(q3).SetQ4(q4)
}

// FromSixths builds a word from six 6-bit sixths.
func FromSixths(s1, s2, s3, s4, s5, s6 uint64) Word {
	return Word(0).SetS1(s1).SetS2(s2).SetS3(s3).SetS4(s4).SetS5(s5).SetS6(s6)
}

// SignExtend12 extends a 12-bit ones-complement value to 36 bits.
func SignExtend12(v uint64) Word {
	v &= 07777
	if v&04000 != 0 {
		return Word(v) | 0_777777_770000
	}
	return Word(v)
}

// SignExtend18 extends an 18-bit ones-complement value to 36 bits.
func SignExtend18(v uint64) Word {
	v &= 0777777
	if v&0400000 != 0 {
		return Word(v) | MASK_H1
	}
	return Word(v)
}

// SignExtend24 extends a 24-bit ones-complement value to 36 bits.
func SignExtend24(v uint64) Word {
	v &= 077777777
	if v&040000000 != 0 {
		return Word(v) | MASK_T1
	}
	return Word(v)
}

// String renders the word in octal, as the hardware documentation does.
func (w Word) String() string {
	return fmt.Sprintf("%012o", uint64(w&MASK))
}

// ASCII packs up to four characters per word in quarter-word form.
func ASCII(text string) (words []Word) {
	for n := 0; n < len(text); n += 4 {
		var w Word
		for c := range 4 {
			ch := uint64(' ')
			if n+c < len(text) {
				ch = uint64(text[n+c])
			}
			w |= Word(ch&0777) << (27 - 9*c)
		}
		words = append(words, w)
	}
	return
}

// FromASCII unpacks quarter-word ASCII, stopping after count characters.
func FromASCII(words []Word, count int) string {
	buf := make([]byte, 0, len(words)*4)
	for _, w := range words {
		for c := range 4 {
			if len(buf) == count {
				return string(buf)
			}
			buf = append(buf, byte((w>>(27-9*c))&0377))
		}
	}
	return string(buf)
}
