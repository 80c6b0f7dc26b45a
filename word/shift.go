package word

// Shift counts are taken from the low 7 bits of the operand address.
const SHIFT_COUNT_MASK = 0177

// halves returns the native high and low words.
func (d Double) halves() (hi, lo uint64) {
	return uint64(d[0] & MASK), uint64(d[1] & MASK)
}

// RotateRight is a single circular right shift.
func (w Word) RotateRight(count int) Word {
	count %= 36
	v := uint64(w & MASK)
	return New((v >> count) | (v << (36 - count)))
}

// RotateLeft is a single circular left shift.
func (w Word) RotateLeft(count int) Word {
	return w.RotateRight(36 - count%36)
}

// ShiftRight is a single logical right shift.
func (w Word) ShiftRight(count int) Word {
	if count >= 36 {
		return 0
	}
	return New(uint64(w&MASK) >> count)
}

// ShiftLeft is a single logical left shift.
func (w Word) ShiftLeft(count int) Word {
	if count >= 36 {
		return 0
	}
	return New(uint64(w&MASK) << count)
}

// ShiftAlgebraic is a single algebraic right shift, filling with the sign.
func (w Word) ShiftAlgebraic(count int) Word {
	neg := w.IsNegative()
	if count >= 36 {
		if neg {
			return NEGATIVE_ZERO
		}
		return POSITIVE_ZERO
	}
	v := uint64(w&MASK) >> count
	if neg {
		v |= uint64(MASK) << (36 - count)
	}
	return New(v)
}

// RotateRight is a double circular right shift.
func (d Double) RotateRight(count int) Double {
	count %= 72
	if count >= 36 {
		d = Double{d[1], d[0]}
		count -= 36
	}
	if count == 0 {
		return d
	}
	hi, lo := d.halves()
	nhi := (hi >> count) | (lo << (36 - count))
	nlo := (lo >> count) | (hi << (36 - count))
	return Double{New(nhi), New(nlo)}
}

// RotateLeft is a double circular left shift.
func (d Double) RotateLeft(count int) Double {
	return d.RotateRight(72 - count%72)
}

// ShiftRight is a double logical right shift.
func (d Double) ShiftRight(count int) Double {
	if count >= 72 {
		return Double{}
	}
	if count >= 36 {
		return Double{0, d[0].ShiftRight(count - 36)}
	}
	if count == 0 {
		return d
	}
	hi, lo := d.halves()
	return Double{New(hi >> count), New((lo >> count) | (hi << (36 - count)))}
}

// ShiftLeft is a double logical left shift.
func (d Double) ShiftLeft(count int) Double {
	if count >= 72 {
		return Double{}
	}
	if count >= 36 {
		return Double{d[1].ShiftLeft(count - 36), 0}
	}
	if count == 0 {
		return d
	}
	hi, lo := d.halves()
	return Double{New((hi << count) | (lo >> (36 - count))), New(lo << count)}
}

// ShiftAlgebraic is a double algebraic right shift.
func (d Double) ShiftAlgebraic(count int) Double {
	neg := d.IsNegative()
	if count >= 72 {
		if neg {
			return Double{NEGATIVE_ZERO, NEGATIVE_ZERO}
		}
		return Double{}
	}
	r := d.ShiftRight(count)
	if neg && count > 0 {
		fill := Double{NEGATIVE_ZERO, NEGATIVE_ZERO}.ShiftLeft(72 - count)
		r = Double{r[0] | fill[0], r[1] | fill[1]}
	}
	return r
}

// Normalize rotates the word left until bit 0 differs from bit 1,
// returning the rotated word and the count. Words of all zeros or all
// ones are returned unchanged with a count of 35.
func (w Word) Normalize() (result Word, count int) {
	w &= MASK
	if w == POSITIVE_ZERO || w == NEGATIVE_ZERO {
		return w, 35
	}
	for ((w >> 35) & 1) == ((w >> 34) & 1) {
		w = w.RotateLeft(1)
		count++
	}
	return w, count
}

// Normalize is the 72-bit form of Word.Normalize; the count for all zeros
// or all ones is 71.
func (d Double) Normalize() (result Double, count int) {
	if d.IsZero() {
		return Double{d[0] & MASK, d[1] & MASK}, 71
	}
	for ((d[0] >> 35) & 1) == ((d[0] >> 34) & 1) {
		d = d.RotateLeft(1)
		count++
	}
	return d, count
}
