package packfile

import (
	"bufio"
	"errors"
	"hash"
	"hash/crc32"
	"io"
)

// ErrSeekNotSupported is returned by scannerReader.Seek when the
// underlying reader isn't an io.Seeker and the requested seek isn't a
// no-op relative seek.
var ErrSeekNotSupported = errors.New("scanner reader does not support seeking")

// scannerReader wraps a reader, tracking the absolute byte offset read so
// far and writing every byte actually delivered through Read/ReadByte
// (not whatever the internal buffer happens to have prefetched) into a
// CRC32 accumulator that can be reset between object entries.
type scannerReader struct {
	reader io.Reader
	seeker io.Seeker

	rbuf *bufio.Reader
	crc  hash.Hash32

	offset int64
}

func newScannerReader(r io.Reader) *scannerReader {
	sr := &scannerReader{
		rbuf: bufio.NewReader(nil),
	}
	sr.Reset(r)
	return sr
}

// Reset rewires the scannerReader onto a new underlying reader, zeroing
// its offset and CRC accumulator.
func (r *scannerReader) Reset(reader io.Reader) {
	r.reader = reader
	r.rbuf.Reset(reader)
	if s, ok := reader.(io.Seeker); ok {
		r.seeker = s
	} else {
		r.seeker = nil
	}
	r.offset = 0
	r.crc = nil
}

// ResetCRC starts a fresh checksum accumulator for the next object entry.
func (r *scannerReader) ResetCRC() {
	r.crc = crc32.NewIEEE()
}

// CRC32 returns the checksum accumulated since the last ResetCRC.
func (r *scannerReader) CRC32() uint32 {
	if r.crc == nil {
		return 0
	}
	return r.crc.Sum32()
}

func (r *scannerReader) Read(p []byte) (int, error) {
	n, err := r.rbuf.Read(p)
	r.offset += int64(n)
	if n > 0 && r.crc != nil {
		r.crc.Write(p[:n])
	}
	return n, err
}

func (r *scannerReader) ReadByte() (byte, error) {
	b, err := r.rbuf.ReadByte()
	if err == nil {
		r.offset++
		if r.crc != nil {
			r.crc.Write([]byte{b})
		}
	}
	return b, err
}

// Offset returns the current absolute byte offset into the original
// stream.
func (r *scannerReader) Offset() int64 {
	return r.offset
}

// Seek repositions the reader. Only absolute seeks (io.SeekStart) against
// a genuine io.Seeker are supported, plus a no-op io.SeekCurrent query.
func (r *scannerReader) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekCurrent && offset == 0 {
		return r.offset, nil
	}

	if r.seeker == nil {
		return 0, ErrSeekNotSupported
	}

	n, err := r.seeker.Seek(offset, whence)
	if err != nil {
		return 0, err
	}

	r.rbuf.Reset(r.reader)
	r.offset = n
	return n, nil
}
