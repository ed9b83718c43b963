package transport

import (
	"context"
	"fmt"
	"io"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/object"
	"github.com/pygit-core/pygit/plumbing/storer"
	"github.com/pygit-core/pygit/pygerr"
)

// Local is the transport used for same-machine clones and pushes: it
// reads and writes another repository's storer directly, with no framing
// or network round trip. It never implements PackFetcher — like the dumb
// transports, the caller walks and copies objects one at a time — but it
// is the only transport that implements Pusher, since pushing over the
// smart protocol (receive-pack) is out of scope for this core.
type Local struct {
	st storer.EncodedObjectStorer
	rs storer.ReferenceStorer
}

var _ Transport = (*Local)(nil)
var _ Pusher = (*Local)(nil)

// NewLocal wraps an already-open repository storer as a transport.
func NewLocal(st storer.EncodedObjectStorer, rs storer.ReferenceStorer) *Local {
	return &Local{st: st, rs: rs}
}

func (l *Local) ListRefs(ctx context.Context) ([]RefAd, error) {
	var ads []RefAd

	if head, err := l.rs.Reference(plumbing.HEAD); err == nil {
		if head.Type() == plumbing.SymbolicReference {
			ads = append(ads, RefAd{Name: plumbing.HEAD, Target: head.Target()})
		} else {
			ads = append(ads, RefAd{Name: plumbing.HEAD, Hash: head.Hash()})
		}
	}

	iter, err := l.rs.IterReferences()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	err = iter.ForEach(func(r *plumbing.Reference) error {
		if r.Type() != plumbing.HashReference {
			return nil
		}
		ads = append(ads, RefAd{Name: r.Name(), Hash: r.Hash()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ads, nil
}

func (l *Local) HasObject(ctx context.Context, h plumbing.Hash) (bool, error) {
	return l.st.HasEncodedObject(h) == nil, nil
}

func (l *Local) GetObject(ctx context.Context, h plumbing.Hash) (plumbing.ObjectType, []byte, error) {
	obj, err := l.st.EncodedObject(plumbing.AnyObject, h)
	if err != nil {
		return plumbing.InvalidObject, nil, err
	}

	r, err := obj.Reader()
	if err != nil {
		return plumbing.InvalidObject, nil, err
	}
	defer r.Close()

	buf := make([]byte, obj.Size())
	if _, err := io.ReadFull(r, buf); err != nil {
		return plumbing.InvalidObject, nil, err
	}

	return obj.Type(), buf, nil
}

// Push writes refName to h in the local repository this transport was
// constructed against. It copies no objects: h and what it reaches must
// already be in the destination (transport.Push copies them before
// calling it). A non-fast-forward update (the remote ref
// already points somewhere h does not descend from) is rejected unless
// force is set, matching `git push`'s default safety check.
func (l *Local) Push(ctx context.Context, refName plumbing.ReferenceName, h plumbing.Hash, force bool) error {
	old, err := l.rs.Reference(refName)
	hasOld := err == nil

	if hasOld && old.Type() == plumbing.HashReference && !force {
		newCommit, err := object.GetCommit(l.st, h)
		if err == nil {
			oldCommit, err := object.GetCommit(l.st, old.Hash())
			if err == nil {
				ancestor, err := oldCommit.IsAncestor(newCommit)
				if err != nil {
					return err
				}
				if !ancestor {
					return fmt.Errorf("%w: non-fast-forward update of %s", pygerr.ErrRefUpdateRejected, refName)
				}
			}
		}
	}

	ref := plumbing.NewHashReference(refName, h)
	if hasOld {
		return l.rs.CheckAndSetReference(ref, old)
	}
	return l.rs.SetReference(ref)
}
