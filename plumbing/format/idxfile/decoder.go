package idxfile

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pygit-core/pygit/utils/binary"
)

// Decoder reads a MemoryIndex from an idx stream.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Decode reads a whole idx file into idx.
func (d *Decoder) Decode(idx *MemoryIndex) error {
	if err := d.decodeHeader(idx); err != nil {
		return err
	}
	if err := d.decodeFanout(idx); err != nil {
		return err
	}

	count := int(idx.Fanout[fanout-1])

	if err := d.decodeNames(idx, count); err != nil {
		return err
	}
	if err := d.decodeCRC32(idx, count); err != nil {
		return err
	}

	off64Count, err := d.decodeOffset32(idx, count)
	if err != nil {
		return err
	}
	if err := d.decodeOffset64(idx, off64Count); err != nil {
		return err
	}

	return d.decodeChecksums(idx)
}

func (d *Decoder) decodeHeader(idx *MemoryIndex) error {
	var header [4]byte
	if _, err := io.ReadFull(d.r, header[:]); err != nil {
		return err
	}
	if !bytes.Equal(header[:], idxHeader) {
		return ErrMalformedIdxFile
	}

	version, err := binary.ReadUint32(d.r)
	if err != nil {
		return err
	}
	if version != VersionSupported {
		return ErrUnsupportedVersion
	}
	idx.Version = version
	return nil
}

func (d *Decoder) decodeFanout(idx *MemoryIndex) error {
	for i := range idx.FanoutMapping {
		idx.FanoutMapping[i] = noMapping
	}

	last := uint32(0)
	bucket := -1
	for i := 0; i < fanout; i++ {
		v, err := binary.ReadUint32(d.r)
		if err != nil {
			return err
		}
		idx.Fanout[i] = v

		if v != last {
			bucket++
			idx.FanoutMapping[i] = bucket
		}
		last = v
	}

	return nil
}

func (d *Decoder) decodeNames(idx *MemoryIndex, count int) error {
	for i := 0; i < fanout; i++ {
		b := idx.FanoutMapping[i]
		if b == noMapping {
			continue
		}

		lo := 0
		if i > 0 {
			lo = int(idx.Fanout[i-1])
		}
		hi := int(idx.Fanout[i])
		n := hi - lo

		buf := make([]byte, n*20)
		if _, err := io.ReadFull(d.r, buf); err != nil {
			return err
		}

		idx.Names = append(idx.Names, buf)
	}
	return nil
}

func (d *Decoder) decodeCRC32(idx *MemoryIndex, count int) error {
	for i := 0; i < fanout; i++ {
		b := idx.FanoutMapping[i]
		if b == noMapping {
			continue
		}

		lo := 0
		if i > 0 {
			lo = int(idx.Fanout[i-1])
		}
		hi := int(idx.Fanout[i])
		n := hi - lo

		buf := make([]byte, n*4)
		if _, err := io.ReadFull(d.r, buf); err != nil {
			return err
		}
		idx.CRC32 = append(idx.CRC32, buf)
	}
	return nil
}

func (d *Decoder) decodeOffset32(idx *MemoryIndex, count int) (int, error) {
	maxLarge := 0
	for i := 0; i < fanout; i++ {
		b := idx.FanoutMapping[i]
		if b == noMapping {
			continue
		}

		lo := 0
		if i > 0 {
			lo = int(idx.Fanout[i-1])
		}
		hi := int(idx.Fanout[i])
		n := hi - lo

		buf := make([]byte, n*4)
		if _, err := io.ReadFull(d.r, buf); err != nil {
			return 0, err
		}
		idx.Offset32 = append(idx.Offset32, buf)

		for k := 0; k < n; k++ {
			v := beUint32(buf[k*4 : k*4+4])
			if v&0x80000000 != 0 {
				idx := int(v&^0x80000000) + 1
				if idx > maxLarge {
					maxLarge = idx
				}
			}
		}
	}
	return maxLarge, nil
}

func (d *Decoder) decodeOffset64(idx *MemoryIndex, count int) error {
	if count == 0 {
		return nil
	}
	buf := make([]byte, count*8)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return err
	}
	idx.Offset64 = buf
	return nil
}

func (d *Decoder) decodeChecksums(idx *MemoryIndex) error {
	if _, err := idx.PackfileChecksum.ReadFrom(d.r); err != nil {
		return err
	}
	if _, err := idx.IdxChecksum.ReadFrom(d.r); err != nil {
		return err
	}
	return nil
}
