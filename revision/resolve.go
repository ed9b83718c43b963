package revision

import (
	"fmt"
	"strings"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/object"
	"github.com/pygit-core/pygit/plumbing/storer"
)

// Repository is the minimal view of a repository's object/reference
// graph Resolve needs: enough to walk refs, peel tags, walk commit
// ancestry, and read a reference's reflog without depending on the
// concrete storage package.
type Repository interface {
	storer.EncodedObjectStorer
	storer.ReferenceStorer
	storer.ReflogStorer
}

// Resolve parses rev and walks r's object graph to the single object hash
// it names. HEAD, full 40-hex hashes, ref names (resolved via dwim-style
// refs/{,heads/,tags/,remotes/}<name> lookup), ~N, ^N, ^{type}, and the
// @{n} and @{-n} selectors (read from the reflog) are supported.
// Abbreviated hashes are not resolved: a name shorter than 40 hex digits
// is looked up only as a reference. @{upstream} and rev:path return an
// error naming the unsupported form.
func Resolve(r Repository, rev string) (plumbing.Hash, error) {
	steps, err := Parse(rev)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if len(steps) == 0 {
		return plumbing.ZeroHash, fmt.Errorf("revision: empty expression")
	}

	base, ok := steps[0].(Ref)
	if !ok {
		return plumbing.ZeroHash, fmt.Errorf("revision: expression must start with a ref or object name")
	}

	h, refName, err := resolveRef(r, string(base))
	if err != nil {
		return plumbing.ZeroHash, err
	}

	for _, step := range steps[1:] {
		h, err = applyStep(r, h, refName, step)
		if err != nil {
			return plumbing.ZeroHash, err
		}
	}

	return h, nil
}

// resolveRef resolves name to a hash, also returning the reference name
// it matched (empty when name was a literal hash), so later @{...} steps
// can read that reference's own reflog rather than HEAD's.
func resolveRef(r Repository, name string) (plumbing.Hash, plumbing.ReferenceName, error) {
	if name == "" {
		name = "HEAD"
	}

	if plumbing.IsHash(name) {
		return plumbing.NewHash(name), "", nil
	}

	candidates := []plumbing.ReferenceName{
		plumbing.ReferenceName(name),
		plumbing.NewBranchReferenceName(name),
		plumbing.NewTagReferenceName(name),
		plumbing.ReferenceName("refs/remotes/" + name),
	}

	for _, n := range candidates {
		ref, err := storer.ResolveReference(r, n)
		if err == nil {
			return ref.Hash(), n, nil
		}
		if err != plumbing.ErrReferenceNotFound {
			return plumbing.ZeroHash, "", err
		}
	}

	return plumbing.ZeroHash, "", fmt.Errorf("revision: reference not found: %q", name)
}

func applyStep(r Repository, h plumbing.Hash, refName plumbing.ReferenceName, step Revisioner) (plumbing.Hash, error) {
	switch s := step.(type) {
	case TildePath:
		return walkFirstParent(r, h, s.Depth)

	case CaretPath:
		c, err := peelToCommit(r, h)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		if s.Depth == 0 {
			return c.Hash, nil
		}
		if s.Depth > len(c.ParentHashes) {
			return plumbing.ZeroHash, fmt.Errorf("revision: %s has no parent %d", h, s.Depth)
		}
		return c.ParentHashes[s.Depth-1], nil

	case CaretType:
		return peelToType(r, h, s.Type)

	case Colon:
		return plumbing.ZeroHash, fmt.Errorf("revision: colon path resolution is not supported by this core")

	case AtUpstream:
		return plumbing.ZeroHash, fmt.Errorf("revision: @{upstream} requires branch tracking config, not yet supported")

	case AtReflog:
		name := refName
		if name == "" {
			name = plumbing.HEAD
		}
		return resolveAtReflog(r, name, s.N)

	case AtCheckout:
		return resolveAtCheckout(r, s.N)

	default:
		return plumbing.ZeroHash, fmt.Errorf("revision: unsupported step %T", step)
	}
}

// resolveAtReflog resolves name@{n}: the value name had n log entries
// ago, where n=0 is its current value. Each reflog entry's Old is the
// value immediately before that entry's New, so walking back one entry
// per step reconstructs the history without needing a separate "log of
// values" representation.
func resolveAtReflog(r Repository, name plumbing.ReferenceName, n int) (plumbing.Hash, error) {
	entries, err := r.Reflog(name)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if len(entries) == 0 {
		return plumbing.ZeroHash, fmt.Errorf("revision: %s has no reflog", name)
	}

	if n == 0 {
		return entries[len(entries)-1].New, nil
	}

	idx := len(entries) - n
	if idx < 0 {
		return plumbing.ZeroHash, fmt.Errorf("revision: %s@{%d} does not exist, only %d reflog entries", name, n, len(entries))
	}
	if idx == len(entries) {
		return entries[len(entries)-1].New, nil
	}
	return entries[idx].Old, nil
}

// resolveAtCheckout resolves @{-n}: the tip of the nth branch checked out
// before the current one, read off HEAD's own reflog (every checkout
// that moves HEAD records a "checkout: moving from X to Y" entry there,
// regardless of which branch was checked out at the time).
func resolveAtCheckout(r Repository, n int) (plumbing.Hash, error) {
	if n <= 0 {
		return plumbing.ZeroHash, fmt.Errorf("revision: @{-%d} is not a valid checkout selector", n)
	}

	entries, err := r.Reflog(plumbing.HEAD)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	matched := 0
	for i := len(entries) - 1; i >= 0; i-- {
		if !strings.HasPrefix(entries[i].Message, "checkout: moving from") {
			continue
		}
		matched++
		if matched == n {
			return entries[i].Old, nil
		}
	}

	return plumbing.ZeroHash, fmt.Errorf("revision: @{-%d} does not exist, only %d prior checkouts in the reflog", n, matched)
}

func walkFirstParent(r Repository, h plumbing.Hash, depth int) (plumbing.Hash, error) {
	for i := 0; i < depth; i++ {
		c, err := peelToCommit(r, h)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		if len(c.ParentHashes) == 0 {
			return plumbing.ZeroHash, fmt.Errorf("revision: %s has no parent", h)
		}
		h = c.ParentHashes[0]
	}
	return h, nil
}

// peelToCommit dereferences annotated tags until it reaches a commit.
func peelToCommit(r Repository, h plumbing.Hash) (*object.Commit, error) {
	for {
		obj, err := r.EncodedObject(plumbing.AnyObject, h)
		if err != nil {
			return nil, err
		}

		switch obj.Type() {
		case plumbing.CommitObject:
			return object.GetCommit(r, h)
		case plumbing.TagObject:
			tag, err := object.GetTag(r, h)
			if err != nil {
				return nil, err
			}
			h = tag.Target
		default:
			return nil, fmt.Errorf("revision: %s is a %s, not a commit", h, obj.Type())
		}
	}
}

func peelToType(r Repository, h plumbing.Hash, typ string) (plumbing.Hash, error) {
	if typ == "" {
		// rev^{} peels tags only, stopping at the first non-tag object.
		for {
			obj, err := r.EncodedObject(plumbing.AnyObject, h)
			if err != nil {
				return plumbing.ZeroHash, err
			}
			if obj.Type() != plumbing.TagObject {
				return h, nil
			}
			tag, err := object.GetTag(r, h)
			if err != nil {
				return plumbing.ZeroHash, err
			}
			h = tag.Target
		}
	}

	want, err := plumbing.ParseObjectType(typ)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	for {
		obj, err := r.EncodedObject(plumbing.AnyObject, h)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		if obj.Type() == want {
			return h, nil
		}
		if obj.Type() != plumbing.TagObject {
			return plumbing.ZeroHash, fmt.Errorf("revision: %s cannot be peeled to %s", h, typ)
		}
		tag, err := object.GetTag(r, h)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		h = tag.Target
	}
}
