package dotgit

import (
	"fmt"

	"github.com/go-git/go-billy/v5"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/format/idxfile"
	"github.com/pygit-core/pygit/plumbing/format/objfile"
	"github.com/pygit-core/pygit/plumbing/format/packfile"
)

// ObjectWriter writes a single loose object to a temp file, then renames
// it into objects/<hh>/<38 remaining hex chars> by the hash computed from
// its content, once Close is called — so a concurrent reader never
// observes a partially-written object file.
type ObjectWriter struct {
	*objfile.Writer
	fs billy.Filesystem
	f  billy.File
}

func newObjectWriter(fs billy.Filesystem) (*ObjectWriter, error) {
	f, err := fs.TempFile(fs.Join(objectsPath, packPath), "tmp_obj_")
	if err != nil {
		return nil, err
	}

	return &ObjectWriter{
		Writer: objfile.NewWriter(f),
		fs:     fs,
		f:      f,
	}, nil
}

// Close flushes the zlib stream and atomically renames the temp file into
// its final content-addressed path.
func (w *ObjectWriter) Close() error {
	if err := w.Writer.Close(); err != nil {
		return err
	}
	if err := w.f.Close(); err != nil {
		return err
	}
	return w.save()
}

func (w *ObjectWriter) save() error {
	hash := w.Hash().String()
	dir := w.fs.Join(objectsPath, hash[0:2])
	if err := w.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return w.fs.Rename(w.f.Name(), w.fs.Join(dir, hash[2:40]))
}

// PackWriter buffers an incoming packfile to a temp file, then (on Close)
// parses it to recover per-object offset/hash/CRC32, builds the matching
// .idx, and renames both pack and idx into objects/pack under their
// shared pack-<checksum> basename.
type PackWriter struct {
	fs billy.Filesystem
	f  billy.File

	Checksum plumbing.Hash
}

func newPackWriter(fs billy.Filesystem) (*PackWriter, error) {
	f, err := fs.TempFile(fs.Join(objectsPath, packPath), "tmp_pack_")
	if err != nil {
		return nil, err
	}

	return &PackWriter{fs: fs, f: f}, nil
}

func (w *PackWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

// Close parses the buffered pack (as a self-contained pack: no thin-pack
// bases resolved externally), builds its index, and renames both files
// into place.
func (w *PackWriter) Close() error {
	if err := w.f.Close(); err != nil {
		return err
	}

	fr, err := w.fs.Open(w.f.Name())
	if err != nil {
		return err
	}
	defer fr.Close()

	p := packfile.NewParser(fr)
	checksum, err := p.Parse()
	if err != nil {
		return err
	}
	w.Checksum = checksum

	iw := &idxfile.Writer{}
	for _, oh := range p.Objects {
		iw.Add(oh.Hash, oh.Offset, oh.Crc32)
	}

	idx, err := iw.CreateIndex(checksum)
	if err != nil {
		return err
	}

	base := w.fs.Join(objectsPath, packPath, fmt.Sprintf("pack-%s", checksum))

	idxFile, err := w.fs.Create(base + idxExt)
	if err != nil {
		return err
	}

	enc := idxfile.NewEncoder(idxFile)
	if _, err := enc.Encode(idx); err != nil {
		idxFile.Close()
		return err
	}
	if err := idxFile.Close(); err != nil {
		return err
	}

	return w.fs.Rename(w.f.Name(), base+packExt)
}
