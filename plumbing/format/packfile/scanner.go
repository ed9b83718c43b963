package packfile

import (
	"io"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/format/packfile/util"
	gogitbinary "github.com/pygit-core/pygit/utils/binary"
	gogitsync "github.com/pygit-core/pygit/utils/sync"
)

// Scanner reads the sequential, low-level structure of a packfile: its
// header, and each object entry's header and zlib-compressed content, in
// the order the objects appear on disk.
type Scanner struct {
	r *scannerReader

	version    uint32
	objects    uint32
	readCount  uint32
	lastOffset int64
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: newScannerReader(r)}
}

// Header reads and validates the "PACK" signature, version, and object
// count from the start of the stream.
func (s *Scanner) Header() (version, objects uint32, err error) {
	sig := make([]byte, 4)
	if _, err := io.ReadFull(s.r, sig); err != nil {
		return 0, 0, err
	}
	if string(sig) != string(signature) {
		return 0, 0, ErrBadSignature
	}

	if err := gogitbinary.Read(s.r, &s.version); err != nil {
		return 0, 0, err
	}
	if !Version(s.version).Supported() {
		return 0, 0, ErrUnsupportedVersion
	}

	if err := gogitbinary.Read(s.r, &s.objects); err != nil {
		return 0, 0, err
	}
	if s.objects == 0 {
		return 0, 0, ErrEmptyPackfile
	}

	return s.version, s.objects, nil
}

// NextObjectHeader reads the next object entry's header: its type, size,
// offset, and (for delta entries) base reference, without consuming the
// entry's compressed content.
func (s *Scanner) NextObjectHeader() (*ObjectHeader, error) {
	if s.readCount >= s.objects {
		return nil, io.EOF
	}

	s.r.ResetCRC()
	offset := s.r.Offset()

	first, err := s.r.ReadByte()
	if err != nil {
		return nil, err
	}

	t := util.ObjectType(first)
	if !t.Valid() {
		return nil, ErrInvalidObject
	}

	size, err := util.VariableLengthSize(first, s.r)
	if err != nil {
		return nil, err
	}

	oh := &ObjectHeader{
		Type:   t,
		Offset: offset,
		Size:   int64(size),
	}

	switch t {
	case plumbing.OFSDeltaObject:
		rel, err := gogitbinary.ReadVariableWidthInt(s.r)
		if err != nil {
			return nil, err
		}
		oh.OffsetReference = offset - rel
	case plumbing.REFDeltaObject:
		if _, err := io.ReadFull(s.r, oh.Reference[:]); err != nil {
			return nil, err
		}
	}

	s.lastOffset = offset
	s.readCount++

	return oh, nil
}

// NextObject inflates the current entry's zlib-compressed content into w,
// returning the number of decompressed bytes written and the CRC32 of the
// entry's on-disk bytes (header plus compressed payload).
func (s *Scanner) NextObject(w io.Writer) (size int64, crc uint32, err error) {
	zr, err := gogitsync.GetZlibReader(s.r)
	if err != nil {
		return 0, 0, err
	}
	defer gogitsync.PutZlibReader(zr)

	n, err := io.Copy(w, zr)
	if err != nil {
		return 0, 0, err
	}

	return n, s.r.CRC32(), nil
}

// SeekFromStart repositions the scanner to read the object entry at the
// given absolute offset from the start of the packfile.
func (s *Scanner) SeekFromStart(offset int64) error {
	_, err := s.r.Seek(offset, io.SeekStart)
	return err
}

// Checksum reads and returns the trailing 20-byte packfile checksum. It
// must be called only after every object entry has been consumed.
func (s *Scanner) Checksum() (plumbing.Hash, error) {
	var h plumbing.Hash
	if _, err := h.ReadFrom(s.r); err != nil {
		return plumbing.ZeroHash, err
	}
	return h, nil
}
