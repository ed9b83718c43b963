package packfile

import (
	"hash/crc32"
	"io"
)

// crc32Writer tees writes through to an underlying writer while
// accumulating their CRC32, used to compute an object entry's checksum
// as it is written to the pack.
type crc32Writer struct {
	w   io.Writer
	crc uint32
}

func newCRC32Writer(w io.Writer) *crc32Writer {
	return &crc32Writer{w: w}
}

func (w *crc32Writer) Write(p []byte) (int, error) {
	w.crc = crc32.Update(w.crc, crc32.IEEETable, p)
	return w.w.Write(p)
}

func (w *crc32Writer) Sum32() uint32 {
	return w.crc
}
