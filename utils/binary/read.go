package binary

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
)

// Read reads the binary representation of data from r, using BigEndian
// order. See https://golang.org/pkg/encoding/binary/#Read
func Read(r io.Reader, data ...interface{}) error {
	for _, v := range data {
		if err := binary.Read(r, binary.BigEndian, v); err != nil {
			return err
		}
	}

	return nil
}

// ReadUint32 reads a BigEndian uint32 from r.
func ReadUint32(r io.Reader) (uint32, error) {
	var v uint32
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, err
	}

	return v, nil
}

// ReadUint16 reads a BigEndian uint16 from r.
func ReadUint16(r io.Reader) (uint16, error) {
	var v uint16
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, err
	}

	return v, nil
}

// ReadUntil reads from r until the delim byte is found, returning the bytes
// read excluding the delimiter.
func ReadUntil(r io.Reader, delim byte) ([]byte, error) {
	if bufr, ok := r.(*bufio.Reader); ok {
		return ReadUntilFromBufioReader(bufr, delim)
	}

	var buf bytes.Buffer
	p := make([]byte, 1)
	for {
		if _, err := io.ReadFull(r, p); err != nil {
			if err == io.ErrUnexpectedEOF {
				err = io.EOF
			}
			return buf.Bytes(), err
		}

		if p[0] == delim {
			return buf.Bytes(), nil
		}

		buf.WriteByte(p[0])
	}
}

// ReadUntilFromBufioReader reads from r until the delim byte is found,
// returning the bytes read excluding the delimiter.
func ReadUntilFromBufioReader(r *bufio.Reader, delim byte) ([]byte, error) {
	b, err := r.ReadBytes(delim)
	if err == nil {
		return b[:len(b)-1], nil
	}

	return b, err
}

// ReadVariableWidthInt reads the variable width integer encoding used for
// OFS-delta base offsets: the low 7 bits of each byte carry data, most
// significant group first, the high bit signals continuation, and each
// continuation byte adds 1 to the value read so far before shifting it.
func ReadVariableWidthInt(r io.Reader) (int64, error) {
	var (
		b     byte
		err   error
		n     int64
		more  = true
		shift uint
	)

	p := make([]byte, 1)
	for more {
		if _, err = io.ReadFull(r, p); err != nil {
			return 0, err
		}
		b = p[0]

		if shift == 0 {
			n = int64(b & 0x7f)
		} else {
			n = ((n + 1) << 7) | int64(b&0x7f)
		}

		shift += 7
		more = b&0x80 != 0
	}

	return n, nil
}

// sniffLen is the number of leading bytes IsBinary inspects.
const sniffLen = 8000

// IsBinary reports whether r holds a NUL byte within its first sniffLen
// bytes.
func IsBinary(r io.Reader) (bool, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}
	return bytes.IndexByte(buf[:n], 0) >= 0, nil
}
