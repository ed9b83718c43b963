// Package revlist computes the set of objects reachable from a list of
// commits, optionally excluding everything reachable from another list —
// the same complementary-set computation `git rev-list` and upload-pack's
// object enumeration both perform.
package revlist

import (
	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/filemode"
	"github.com/pygit-core/pygit/plumbing/object"
	"github.com/pygit-core/pygit/plumbing/storer"
)

// Objects returns every hash reachable from commits (commit, tree, and
// blob objects alike), minus every hash reachable from ignore. All
// commits must be readable through s.
func Objects(s storer.EncodedObjectStorer, commits []*object.Commit, ignore []plumbing.Hash) ([]plumbing.Hash, error) {
	seen := make(map[plumbing.Hash]bool)
	for _, h := range ignore {
		c, err := object.GetCommit(s, h)
		if err != nil {
			seen[h] = true
			continue
		}
		err = markReachable(s, c, seen, func(h plumbing.Hash) error {
			seen[h] = true
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	result := make(map[plumbing.Hash]bool)
	for _, c := range commits {
		err := markReachable(s, c, seen, func(h plumbing.Hash) error {
			if !seen[h] {
				result[h] = true
				seen[h] = true
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	out := make([]plumbing.Hash, 0, len(result))
	for h := range result {
		out = append(out, h)
	}
	return out, nil
}

// markReachable walks a commit's first-parent-agnostic ancestry (every
// parent, not just the first) together with every tree and blob its
// history touches, invoking cb once per newly discovered hash. The full
// ancestry is always walked (so history shared with an ignored commit is
// still traversed, matching git's own rev-list); a commit already in seen
// just has its callback and tree walk skipped, since its contents are
// already known reachable.
func markReachable(s storer.EncodedObjectStorer, start *object.Commit, seen map[plumbing.Hash]bool, cb func(plumbing.Hash) error) error {
	queue := []*object.Commit{start}
	visited := map[plumbing.Hash]bool{}

	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]

		if visited[c.Hash] {
			continue
		}
		visited[c.Hash] = true

		if !seen[c.Hash] {
			if err := cb(c.Hash); err != nil {
				return err
			}

			tree, err := c.Tree()
			if err != nil {
				return err
			}
			if err := walkTree(s, tree, seen, cb); err != nil {
				return err
			}
		}

		err := c.Parents().ForEach(func(p *object.Commit) error {
			if !visited[p.Hash] {
				queue = append(queue, p)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func walkTree(s storer.EncodedObjectStorer, t *object.Tree, seen map[plumbing.Hash]bool, cb func(plumbing.Hash) error) error {
	if seen[t.Hash] {
		return nil
	}
	if err := cb(t.Hash); err != nil {
		return err
	}

	for _, e := range t.Entries {
		if seen[e.Hash] {
			continue
		}
		if e.Mode == filemode.Dir {
			sub, err := object.GetTree(s, e.Hash)
			if err != nil {
				return err
			}
			if err := walkTree(s, sub, seen, cb); err != nil {
				return err
			}
			continue
		}
		if err := cb(e.Hash); err != nil {
			return err
		}
	}

	return nil
}

func hashSet(hashes []plumbing.Hash) map[plumbing.Hash]bool {
	m := make(map[plumbing.Hash]bool, len(hashes))
	for _, h := range hashes {
		m[h] = true
	}
	return m
}
