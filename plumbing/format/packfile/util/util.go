// Package util implements the small bit-packed integer encodings used
// throughout the packfile format: the object header's type+size byte and
// the delta format's LEB128 size fields.
package util

import (
	"errors"
	"io"

	"github.com/pygit-core/pygit/plumbing"
)

const (
	firstLengthBits = uint8(4)
	maskPayload     = 0x7f
	maskContinue    = 0x80
	maskType        = uint8(112)
)

// VariableLengthSize decodes a packfile object header's size field: the
// low 4 bits of first plus, if the continuation bit is set, successive
// 7-bit groups read from reader.
func VariableLengthSize(first byte, reader io.ByteReader) (uint64, error) {
	size := uint64(first & 0x0F)

	if first&maskContinue != 0 {
		shift := uint(4)

		if reader == nil {
			return 0, errors.New("reader is nil")
		}

		for {
			b, err := reader.ReadByte()
			if err != nil {
				return 0, err
			}

			size |= uint64(b&0x7F) << shift

			if b&maskContinue == 0 {
				break
			}

			shift += 7
		}
	}
	return size, nil
}

// ObjectType extracts the object type bits from a packfile object header's
// first byte.
func ObjectType(b byte) plumbing.ObjectType {
	return plumbing.ObjectType((b & maskType) >> firstLengthBits)
}

// DecodeLEB128 decodes a delta-format variable width integer at the start
// of input, returning the value and the remaining bytes.
func DecodeLEB128(input []byte) (uint, []byte) {
	if len(input) == 0 {
		return 0, input
	}

	var num, sz uint
	var b byte
	for {
		b = input[sz]
		num |= (uint(b) & maskPayload) << (sz * 7)
		sz++

		if uint(b)&maskContinue == 0 || sz == uint(len(input)) {
			break
		}
	}

	return num, input[sz:]
}

// DecodeLEB128FromReader is DecodeLEB128 reading from an io.ByteReader
// instead of a byte slice.
func DecodeLEB128FromReader(input io.ByteReader) (uint, error) {
	var num, sz uint
	for {
		b, err := input.ReadByte()
		if err != nil {
			return 0, err
		}

		num |= (uint(b) & maskPayload) << (sz * 7)
		sz++

		if uint(b)&maskContinue == 0 {
			break
		}
	}

	return num, nil
}
