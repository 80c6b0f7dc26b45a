package word

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWord_Shift(t *testing.T) {
	assert := assert.New(t)

	w := Word(0_400000_000001)
	assert.Equal(Word(0_600000_000000), w.RotateRight(1))
	assert.Equal(Word(0_000000_000003), w.RotateLeft(1))
	assert.Equal(w, w.RotateRight(36))
	assert.Equal(Word(0_200000_000000), w.ShiftRight(1))
	assert.Equal(Word(0_000000_000002), w.ShiftLeft(1))
	assert.Equal(Word(0_600000_000000), w.ShiftAlgebraic(1))
	assert.Equal(NEGATIVE_ZERO, w.ShiftAlgebraic(40))
	assert.Equal(POSITIVE_ZERO, Word(0_377777_777777).ShiftAlgebraic(36))
	assert.Equal(POSITIVE_ZERO, w.ShiftRight(36))
}

func TestDouble_Shift(t *testing.T) {
	assert := assert.New(t)

	d := Double{0_000000_000001, 0_400000_000000}
	assert.Equal(Double{0, 0_600000_000000}, d.ShiftRight(1))
	assert.Equal(Double{0_000000_000003, 0}, d.ShiftLeft(1))
	assert.Equal(Double{0, 0_600000_000000}, d.RotateRight(1))
	assert.Equal(Double{0_400000_000000, 0}, Double{0, 1}.RotateRight(1))
	assert.Equal(Double{0_400000_000000, 0_000000_000001}, d.RotateRight(36))
	assert.Equal(d, d.RotateLeft(72))
	assert.Equal(Double{0, 0_000000_000001}, d.ShiftRight(36))

	neg := Double{NEGATIVE_BIT, 0}
	assert.Equal(Double{0_600000_000000, 0}, neg.ShiftAlgebraic(1))
	assert.Equal(Double{NEGATIVE_ZERO, 0_400000_000000}, neg.ShiftAlgebraic(36))
	assert.Equal(Double{NEGATIVE_ZERO, NEGATIVE_ZERO}, neg.ShiftAlgebraic(72))
}

func TestWord_Normalize(t *testing.T) {
	assert := assert.New(t)

	r, count := Word(1).Normalize()
	assert.Equal(34, count)
	assert.Equal(Word(0_200000_000000), r)

	r, count = POSITIVE_ZERO.Normalize()
	assert.Equal(35, count)
	assert.Equal(POSITIVE_ZERO, r)

	r, count = Word(0_777777_777776).Normalize()
	assert.Equal(34, count)
	assert.Equal(Word(0_577777_777777), r)

	dr, dcount := Double{0, 1}.Normalize()
	assert.Equal(70, dcount)
	assert.Equal(Double{0_200000_000000, 0}, dr)
}
