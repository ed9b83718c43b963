package plumbing

import (
	"crypto"
	"encoding/hex"
	"io"
	"sort"
	"strconv"

	"github.com/pygit-core/pygit/plumbing/hash"
)

// Hash is a SHA-1 object digest: 20 raw bytes, computed over
// "<type> <size>\0" || raw_content.
type Hash [20]byte

// ZeroHash is the zero-valued Hash, used as a sentinel for "no object" /
// "no parent".
var ZeroHash Hash

// NewHash parses a hexadecimal string into a Hash. Invalid input (wrong
// length, non-hex characters) results in the zero Hash; callers that need
// to distinguish a malformed string from an all-zero hash should use
// FromHex instead.
func NewHash(s string) Hash {
	h, _ := FromHex(s)
	return h
}

// FromHex parses a 40-character hex string into a Hash, returning false if
// s is not a well-formed hash.
func FromHex(s string) (Hash, bool) {
	var h Hash
	if len(s) != hash.SHA1HexSize {
		return h, false
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return h, false
	}

	copy(h[:], b)
	return h, true
}

// IsHash reports whether s is a well-formed 40-character hex digest.
func IsHash(s string) bool {
	if len(s) != hash.SHA1HexSize {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// String returns the lowercase hexadecimal representation of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Compare compares h's bytes against b, as bytes.Compare would.
func (h Hash) Compare(b []byte) int {
	var other Hash
	copy(other[:], b)
	for i := range h {
		if h[i] != other[i] {
			if h[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// HasPrefix reports whether h's hex representation starts with the given
// (already lowercase) hex prefix.
func (h Hash) HasPrefix(hexPrefix string) bool {
	full := h.String()
	return len(hexPrefix) <= len(full) && full[:len(hexPrefix)] == hexPrefix
}

// ReadFrom reads the raw 20 bytes of a Hash from r, implementing
// io.ReaderFrom so binary decoders can read a hash inline with the rest
// of a fixed-width record (a tree entry, an index entry, a pack idx
// entry) without an intermediate buffer.
func (h *Hash) ReadFrom(r io.Reader) (int64, error) {
	n, err := io.ReadFull(r, h[:])
	return int64(n), err
}

// WriteTo writes the raw 20 bytes of h to w, implementing io.WriterTo.
func (h Hash) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(h[:])
	return int64(n), err
}

// HashesSort sorts a slice of Hashes in increasing order.
func HashesSort(a []Hash) {
	sort.Sort(HashSlice(a))
}

// HashSlice attaches the methods of sort.Interface to []Hash, sorting in
// increasing order.
type HashSlice []Hash

func (p HashSlice) Len() int           { return len(p) }
func (p HashSlice) Less(i, j int) bool { return p[i].Compare(p[j][:]) < 0 }
func (p HashSlice) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }

// Hasher wraps the object-database hash function, pre-seeded with the
// "<type> <size>\0" framing header so callers only need to write the raw
// content.
type Hasher struct {
	hash.Hash
}

// NewHasher returns a Hasher ready to accumulate the raw content of an
// object of the given type and size.
func NewHasher(t ObjectType, size int64) Hasher {
	h := Hasher{Hash: hash.New(crypto.SHA1)}
	h.Write(t.Bytes())
	h.Write([]byte(" "))
	h.Write([]byte(strconv.FormatInt(size, 10)))
	h.Write([]byte{0})
	return h
}

// Sum returns the computed Hash.
func (h Hasher) Sum() (out Hash) {
	copy(out[:], h.Hash.Sum(nil))
	return
}
