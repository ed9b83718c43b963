package packfile

import (
	"compress/zlib"
	"crypto/sha1"
	"io"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/storer"
	"github.com/pygit-core/pygit/utils/binary"
)

// Encoder writes the objects named by a hash set, in full (never as
// deltas), into a packfile.
type Encoder struct {
	storage storer.EncodedObjectStorer
	w       *offsetWriter
	zw      *zlib.Writer
	hasher  plumbing.Hasher

	// Entries records, for each object written, its hash, offset, and
	// CRC32 so a caller can build a matching .idx via idxfile.Writer.
	Entries []EncoderEntry
}

// EncoderEntry describes one object this Encoder wrote to the packfile.
type EncoderEntry struct {
	Hash   plumbing.Hash
	Offset int64
	Crc32  uint32
}

// NewEncoder returns an Encoder writing to w, reading object content from
// s.
func NewEncoder(w io.Writer, s storer.EncodedObjectStorer) *Encoder {
	h := plumbing.Hasher{Hash: sha1.New()}
	mw := io.MultiWriter(w, h)
	ow := newOffsetWriter(mw)
	return &Encoder{
		storage: s,
		w:       ow,
		zw:      zlib.NewWriter(mw),
		hasher:  h,
	}
}

// Encode writes a packfile containing the objects named by hashes, in
// the order given, and returns its trailing checksum.
func (e *Encoder) Encode(hashes []plumbing.Hash) (plumbing.Hash, error) {
	if err := e.head(len(hashes)); err != nil {
		return plumbing.ZeroHash, err
	}

	for _, h := range hashes {
		obj, err := e.storage.EncodedObject(plumbing.AnyObject, h)
		if err != nil {
			return plumbing.ZeroHash, err
		}

		if err := e.entry(h, obj); err != nil {
			return plumbing.ZeroHash, err
		}
	}

	return e.footer()
}

func (e *Encoder) head(numEntries int) error {
	return binary.Write(
		e.w,
		signature,
		uint32(VersionSupported),
		uint32(numEntries),
	)
}

func (e *Encoder) entry(h plumbing.Hash, obj plumbing.EncodedObject) error {
	offset := e.w.Offset()
	crcw := newCRC32Writer(e.w)

	if err := e.entryHead(crcw, obj.Type(), obj.Size()); err != nil {
		return err
	}

	e.zw.Reset(crcw)
	r, err := obj.Reader()
	if err != nil {
		return err
	}
	defer r.Close()

	if _, err := io.Copy(e.zw, r); err != nil {
		return err
	}
	if err := e.zw.Close(); err != nil {
		return err
	}

	e.Entries = append(e.Entries, EncoderEntry{
		Hash:   h,
		Offset: offset,
		Crc32:  crcw.Sum32(),
	})

	return nil
}

func (e *Encoder) entryHead(w io.Writer, typ plumbing.ObjectType, size int64) error {
	t := int64(typ)
	var header []byte
	c := (t << firstLengthBits) | (size & maskFirstLength)
	size >>= firstLengthBits
	for size != 0 {
		header = append(header, byte(c)|maskContinue)
		c = size & int64(maskLength)
		size >>= lengthBits
	}

	header = append(header, byte(c))
	_, err := w.Write(header)
	return err
}

func (e *Encoder) footer() (plumbing.Hash, error) {
	h := e.hasher.Sum()
	return h, binary.Write(e.w, h)
}

type offsetWriter struct {
	w      io.Writer
	offset int64
}

func newOffsetWriter(w io.Writer) *offsetWriter {
	return &offsetWriter{w: w}
}

func (ow *offsetWriter) Write(p []byte) (int, error) {
	n, err := ow.w.Write(p)
	ow.offset += int64(n)
	return n, err
}

func (ow *offsetWriter) Offset() int64 {
	return ow.offset
}
