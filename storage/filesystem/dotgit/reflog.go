package dotgit

import (
	"os"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/format/reflog"
)

const logsPath = "logs"

// AppendReflog appends entry to name's log under logs/, creating the
// log file (and any missing parent directories) on the first entry
// recorded against name. The file is opened O_APPEND so concurrent
// writers never interleave within a line, and locked for the duration
// of the write the same way SetRef locks the reference file it
// accompanies.
func (d *DotGit) AppendReflog(name plumbing.ReferenceName, entry reflog.Entry) error {
	logPath := d.fs.Join(logsPath, name.String())

	if err := d.fs.MkdirAll(d.fs.Join(logPath, ".."), 0o755); err != nil {
		return err
	}

	f, err := d.fs.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Lock(); err != nil {
		return err
	}

	return reflog.NewEncoder(f).Encode(entry)
}

// Reflog returns every entry logged against name, oldest first. A name
// with no log yet returns an empty slice, not an error.
func (d *DotGit) Reflog(name plumbing.ReferenceName) ([]reflog.Entry, error) {
	f, err := d.fs.Open(d.fs.Join(logsPath, name.String()))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	return reflog.All(f)
}
