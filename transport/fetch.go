package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/pygit-core/pygit/config"
	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/format/packfile"
	"github.com/pygit-core/pygit/plumbing/format/reflog"
	"github.com/pygit-core/pygit/plumbing/object"
	"github.com/pygit-core/pygit/storage"
)

// FetchResult records, for one fetch call, which local references were
// created or moved and to what.
type FetchResult struct {
	Updated map[plumbing.ReferenceName]plumbing.Hash
}

// Fetch resolves refspecs against everything t advertises, pulls in every
// object the matched refs need that dst does not already have, and
// updates dst's references to match. Transports implementing PackFetcher
// (smart HTTP) negotiate one packfile for the whole set; all others copy
// objects one at a time by walking the commit/tree graph, per spec's
// "local/dumb transports copy object-by-object" rule.
func Fetch(ctx context.Context, dst storage.Storer, t Transport, refspecs []config.RefSpec) (*FetchResult, error) {
	// autoHTTP defers picking smart vs. dumb until first use; resolve it
	// now so the PackFetcher type-assertion below sees the real
	// transport instead of always matching autoHTTP's own placeholder.
	if r, ok := t.(interface {
		resolve(context.Context) (Transport, error)
	}); ok {
		resolved, err := r.resolve(ctx)
		if err != nil {
			return nil, err
		}
		t = resolved
	}

	ads, err := t.ListRefs(ctx)
	if err != nil {
		return nil, err
	}

	type match struct {
		local plumbing.ReferenceName
		hash  plumbing.Hash
	}
	var matches []match
	for _, ad := range ads {
		if ad.Target != "" {
			continue // HEAD's symbolic form carries no object of its own
		}
		for _, rs := range refspecs {
			if rs.Match(ad.Name) {
				matches = append(matches, match{local: rs.Dst(ad.Name), hash: ad.Hash})
				break
			}
		}
	}

	if len(matches) == 0 {
		return &FetchResult{Updated: map[plumbing.ReferenceName]plumbing.Hash{}}, nil
	}

	wants := make([]plumbing.Hash, 0, len(matches))
	for _, m := range matches {
		wants = append(wants, m.hash)
	}

	haves, err := localHaves(dst)
	if err != nil {
		return nil, err
	}

	if pf, ok := t.(PackFetcher); ok {
		if err := fetchViaPack(ctx, dst, pf, wants, haves); err != nil {
			return nil, err
		}
	} else {
		if err := fetchObjectByObject(ctx, dst, t, wants); err != nil {
			return nil, err
		}
	}

	who := fetchIdent(dst)

	result := &FetchResult{Updated: make(map[plumbing.ReferenceName]plumbing.Hash, len(matches))}
	for _, m := range matches {
		var old plumbing.Hash
		if ref, err := dst.Reference(m.local); err == nil {
			old = ref.Hash()
		}

		if err := dst.SetReference(plumbing.NewHashReference(m.local, m.hash)); err != nil {
			return nil, fmt.Errorf("transport: updating %s: %w", m.local, err)
		}
		if err := dst.AppendReflog(m.local, reflog.Entry{
			Old:     old,
			New:     m.hash,
			Who:     who,
			Message: fmt.Sprintf("fetch: storing %s", m.local),
		}); err != nil {
			return nil, fmt.Errorf("transport: logging %s: %w", m.local, err)
		}
		result.Updated[m.local] = m.hash
	}

	return result, nil
}

// fetchIdent resolves the identity a fetch's reflog entries are recorded
// under, falling back to a generic identity when dst carries no
// user.name/user.email (mirroring Repository.defaultIdentity, but
// transport has no *Repository to call it on).
func fetchIdent(dst storage.Storer) reflog.Ident {
	ident := reflog.Ident{Name: "pygit", Email: "pygit@localhost", When: time.Now()}
	cfg, err := dst.Config()
	if err != nil {
		return ident
	}
	if cfg.User.Name != "" {
		ident.Name = cfg.User.Name
	}
	if cfg.User.Email != "" {
		ident.Email = cfg.User.Email
	}
	return ident
}

func localHaves(dst storage.Storer) ([]plumbing.Hash, error) {
	iter, err := dst.IterReferences()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var haves []plumbing.Hash
	err = iter.ForEach(func(r *plumbing.Reference) error {
		if r.Type() == plumbing.HashReference {
			haves = append(haves, r.Hash())
		}
		return nil
	})
	return haves, err
}

func fetchViaPack(ctx context.Context, dst storage.Storer, pf PackFetcher, wants, haves []plumbing.Hash) error {
	stream, err := pf.FetchPack(ctx, wants, haves)
	if err != nil {
		return err
	}
	defer stream.Close()

	return packfile.UpdateObjectStorage(dst, readerAdapter{stream.Reader})
}

// readerAdapter narrows PackStream's minimal Read-only interface to
// io.Reader for packfile.UpdateObjectStorage, which only ever calls Read.
type readerAdapter struct {
	r interface{ Read([]byte) (int, error) }
}

func (a readerAdapter) Read(p []byte) (int, error) { return a.r.Read(p) }

// fetchObjectByObject walks the graph reachable from wants, fetching each
// commit/tree/tag/blob the destination is missing one request at a time —
// the only mode local and dumb-HTTP transports support.
func fetchObjectByObject(ctx context.Context, dst storage.Storer, t Transport, wants []plumbing.Hash) error {
	queue := append([]plumbing.Hash{}, wants...)
	seen := make(map[plumbing.Hash]bool)

	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]

		if seen[h] || h.IsZero() {
			continue
		}
		seen[h] = true

		if dst.HasEncodedObject(h) == nil {
			// already have it; still need to expand its references if
			// it's a commit/tree/tag, since they may reach new objects.
			more, err := expand(dst, h)
			if err != nil {
				return err
			}
			queue = append(queue, more...)
			continue
		}

		typ, content, err := t.GetObject(ctx, h)
		if err != nil {
			return fmt.Errorf("transport: fetching %s: %w", h, err)
		}

		obj := dst.NewEncodedObject()
		obj.SetType(typ)
		obj.SetSize(int64(len(content)))
		w, err := obj.Writer()
		if err != nil {
			return err
		}
		if _, err := w.Write(content); err != nil {
			w.Close()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		if _, err := dst.SetEncodedObject(obj); err != nil {
			return err
		}

		more, err := expand(dst, h)
		if err != nil {
			return err
		}
		queue = append(queue, more...)
	}

	return nil
}

// expand returns the hashes a just-stored commit/tree/tag object points
// to directly; blobs point nowhere.
func expand(s storage.Storer, h plumbing.Hash) ([]plumbing.Hash, error) {
	if c, err := object.GetCommit(s, h); err == nil {
		more := append([]plumbing.Hash{c.TreeHash}, c.ParentHashes...)
		return more, nil
	}
	if tr, err := object.GetTree(s, h); err == nil {
		more := make([]plumbing.Hash, 0, len(tr.Entries))
		for _, e := range tr.Entries {
			more = append(more, e.Hash)
		}
		return more, nil
	}
	if tg, err := object.GetTag(s, h); err == nil {
		return []plumbing.Hash{tg.Target}, nil
	}
	return nil, nil
}
