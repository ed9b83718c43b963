package packfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leb128(n uint) []byte {
	var out []byte
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if n == 0 {
			break
		}
	}
	return out
}

func TestPatchDeltaCopyThenInsert(t *testing.T) {
	src := []byte("hello")
	target := []byte("hello, world!")

	var delta []byte
	delta = append(delta, leb128(uint(len(src)))...)
	delta = append(delta, leb128(uint(len(target)))...)

	// copy all of src (offset 0, size 5), then insert ", world!" (8 bytes).
	delta = append(delta, 0x91, 0x00, 0x05)
	insert := []byte(", world!")
	delta = append(delta, byte(len(insert)))
	delta = append(delta, insert...)

	out, err := PatchDelta(src, delta)
	require.NoError(t, err)
	assert.Equal(t, target, out)
}

func TestPatchDeltaShortDelta(t *testing.T) {
	_, err := PatchDelta([]byte("abc"), []byte{1})
	assert.Equal(t, ErrInvalidDelta, err)
}

func TestPatchDeltaEmptySrc(t *testing.T) {
	_, err := PatchDelta(nil, []byte{0, 0, 0, 0})
	assert.Equal(t, ErrInvalidDelta, err)
}

func TestPatchDeltaBadSrcSize(t *testing.T) {
	src := []byte("hello")

	var delta []byte
	delta = append(delta, leb128(999)...)
	delta = append(delta, leb128(5)...)
	delta = append(delta, 0)

	_, err := PatchDelta(src, delta)
	assert.Equal(t, ErrInvalidDelta, err)
}

func TestDecodeOffsetAndSize(t *testing.T) {
	offset, rest, err := decodeOffset(0x0f, []byte{0x01, 0x02, 0x03, 0x04, 0xAA})
	require.NoError(t, err)
	assert.Equal(t, uint(0x04030201), offset)
	assert.Equal(t, []byte{0xAA}, rest)

	sz, rest, err := decodeSize(0x70, []byte{0x01, 0x00, 0x00, 0xBB})
	require.NoError(t, err)
	assert.Equal(t, uint(1), sz)
	assert.Equal(t, []byte{0xBB}, rest)

	sz, _, err = decodeSize(0x00, []byte{0xCC})
	require.NoError(t, err)
	assert.Equal(t, uint(maxCopySize), sz)
}

func TestIsCopyFromSrcAndDelta(t *testing.T) {
	assert.True(t, isCopyFromSrc(0x80))
	assert.False(t, isCopyFromSrc(0x05))

	assert.True(t, isCopyFromDelta(0x05))
	assert.False(t, isCopyFromDelta(0x80))
	assert.False(t, isCopyFromDelta(0x00))
}

func TestSumOverflows(t *testing.T) {
	assert.True(t, sumOverflows(^uint(0), 1))
	assert.False(t, sumOverflows(1, 1))
}
