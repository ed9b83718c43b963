package transport

import (
	"context"
	"fmt"
	"io"

	"github.com/pygit-core/pygit/config"
	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/object"
	"github.com/pygit-core/pygit/plumbing/revlist"
	"github.com/pygit-core/pygit/plumbing/storer"
	"github.com/pygit-core/pygit/storage"
)

// Push updates refs on t to match src, for every refspec whose source
// side resolves locally. Only the local transport implements Pusher —
// pushing over the smart protocol (receive-pack) is not implemented by
// this core, so pushing to a network remote returns an error here rather
// than silently doing nothing.
func Push(ctx context.Context, src storage.Storer, t Transport, refspecs []config.RefSpec) error {
	pusher, ok := t.(Pusher)
	if !ok {
		return fmt.Errorf("%w: this transport does not support push (receive-pack is not implemented)", errNotImplemented)
	}

	local, ok := t.(*Local)
	if !ok {
		// Defensive: today Local is the only Pusher, but push still needs
		// the destination's object storer to copy missing objects into,
		// which only a same-process Local transport exposes.
		return fmt.Errorf("%w: push requires a local destination", errNotImplemented)
	}

	iter, err := src.IterReferences()
	if err != nil {
		return err
	}
	defer iter.Close()

	var toPush []struct {
		name plumbing.ReferenceName
		hash plumbing.Hash
		spec config.RefSpec
	}
	err = iter.ForEach(func(r *plumbing.Reference) error {
		if r.Type() != plumbing.HashReference {
			return nil
		}
		for _, rs := range refspecs {
			if rs.Match(r.Name()) {
				toPush = append(toPush, struct {
					name plumbing.ReferenceName
					hash plumbing.Hash
					spec config.RefSpec
				}{rs.Dst(r.Name()), r.Hash(), rs})
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, p := range toPush {
		if err := copyReachable(src, local.st, p.hash); err != nil {
			return err
		}
		if err := pusher.Push(ctx, p.name, p.hash, p.spec.IsForceUpdate()); err != nil {
			return err
		}
	}

	return nil
}

// copyReachable copies every object reachable from h, that dst is
// missing, from src into dst.
func copyReachable(src storage.Storer, dst storer.EncodedObjectStorer, h plumbing.Hash) error {
	c, err := object.GetCommit(src, h)
	if err != nil {
		return err
	}

	hashes, err := revlist.Objects(src, []*object.Commit{c}, nil)
	if err != nil {
		return err
	}

	for _, oh := range hashes {
		if dst.HasEncodedObject(oh) == nil {
			continue
		}

		obj, err := src.EncodedObject(plumbing.AnyObject, oh)
		if err != nil {
			return err
		}

		r, err := obj.Reader()
		if err != nil {
			return err
		}

		newObj := dst.NewEncodedObject()
		newObj.SetType(obj.Type())
		newObj.SetSize(obj.Size())
		w, err := newObj.Writer()
		if err != nil {
			r.Close()
			return err
		}
		if _, err := io.Copy(w, r); err != nil {
			w.Close()
			r.Close()
			return err
		}
		w.Close()
		r.Close()

		if _, err := dst.SetEncodedObject(newObj); err != nil {
			return err
		}
	}

	return nil
}
