package packfile

import (
	"bytes"
	"io"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/storer"
)

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithStorage makes the parser save every resolved object into s as it is
// decoded, in addition to returning them from Parse.
func WithStorage(s storer.EncodedObjectStorer) ParserOption {
	return func(p *Parser) { p.storage = s }
}

// Parser decodes a packfile into its constituent objects, resolving OFS
// and REF delta entries against either other objects in the same pack or
// (for thin packs) objects already present in storage.
type Parser struct {
	scanner *Scanner
	storage storer.EncodedObjectStorer

	// Objects holds every object entry decoded by the last call to Parse,
	// with Hash, Offset, and Crc32 populated — enough to build a matching
	// .idx via idxfile.Writer.
	Objects []*ObjectHeader
}

// NewParser returns a Parser reading the packfile from r.
func NewParser(r io.Reader, opts ...ParserOption) *Parser {
	p := &Parser{scanner: NewScanner(r)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse decodes every object in the packfile, resolving deltas, and
// returns the packfile's trailing checksum.
func (p *Parser) Parse() (plumbing.Hash, error) {
	_, count, err := p.scanner.Header()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	headers := make([]*ObjectHeader, 0, count)
	byOffset := make(map[int64]*ObjectHeader, count)

	for i := uint32(0); i < count; i++ {
		oh, err := p.scanner.NextObjectHeader()
		if err != nil {
			return plumbing.ZeroHash, err
		}

		buf := &bytes.Buffer{}
		_, crc, err := p.scanner.NextObject(buf)
		if err != nil {
			return plumbing.ZeroHash, err
		}

		oh.Crc32 = crc
		oh.content = buf.Bytes()

		headers = append(headers, oh)
		byOffset[oh.Offset] = oh
	}

	checksum, err := p.scanner.Checksum()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	resolved := make(map[int64]plumbing.EncodedObject, count)
	byHash := make(map[plumbing.Hash]*ObjectHeader, count)

	var resolve func(oh *ObjectHeader) (plumbing.EncodedObject, error)
	resolve = func(oh *ObjectHeader) (plumbing.EncodedObject, error) {
		if obj, ok := resolved[oh.Offset]; ok {
			return obj, nil
		}

		obj := plumbing.NewMemoryObject()

		switch oh.Type {
		case plumbing.CommitObject, plumbing.TreeObject, plumbing.BlobObject, plumbing.TagObject:
			obj.SetType(oh.Type)
			obj.SetSize(oh.Size)
			w, err := obj.Writer()
			if err != nil {
				return nil, err
			}
			if _, err := w.Write(oh.content); err != nil {
				w.Close()
				return nil, err
			}
			if err := w.Close(); err != nil {
				return nil, err
			}

		case plumbing.OFSDeltaObject:
			base, ok := byOffset[oh.OffsetReference]
			if !ok {
				return nil, ErrInvalidObject
			}
			baseObj, err := resolve(base)
			if err != nil {
				return nil, err
			}
			obj.SetType(baseObj.Type())
			if err := ApplyDelta(obj, baseObj, bytes.NewBuffer(oh.content)); err != nil {
				return nil, err
			}

		case plumbing.REFDeltaObject:
			var baseObj plumbing.EncodedObject
			if base, ok := byHash[oh.Reference]; ok {
				var err error
				baseObj, err = resolve(base)
				if err != nil {
					return nil, err
				}
			} else if p.storage != nil {
				var err error
				baseObj, err = p.storage.EncodedObject(plumbing.AnyObject, oh.Reference)
				if err != nil {
					return nil, ErrReferenceDeltaNotFound
				}
			} else {
				return nil, ErrReferenceDeltaNotFound
			}

			obj.SetType(baseObj.Type())
			if err := ApplyDelta(obj, baseObj, bytes.NewBuffer(oh.content)); err != nil {
				return nil, err
			}

		default:
			return nil, ErrInvalidObject
		}

		oh.Hash = obj.Hash()
		resolved[oh.Offset] = obj
		byHash[obj.Hash()] = oh

		if p.storage != nil {
			if _, err := p.storage.SetEncodedObject(obj); err != nil {
				return nil, err
			}
		}

		return obj, nil
	}

	// A REF-delta may reference an object defined later in the pack by
	// hash, so index every non-delta object's hash before resolving any
	// deltas.
	for _, oh := range headers {
		if oh.Type == plumbing.OFSDeltaObject || oh.Type == plumbing.REFDeltaObject {
			continue
		}
		if _, err := resolve(oh); err != nil {
			return plumbing.ZeroHash, err
		}
	}

	for _, oh := range headers {
		if _, err := resolve(oh); err != nil {
			return plumbing.ZeroHash, err
		}
	}

	p.Objects = headers

	return checksum, nil
}
