package object

import (
	"io"

	"github.com/emirpasic/gods/lists/arraylist"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/storer"
)

type commitPreIterator struct {
	seen  map[plumbing.Hash]bool
	stack []CommitIter
	start *Commit
}

// NewCommitPreorderIter returns a CommitIter walking the commit history
// starting at c, depth first in pre-order: a commit is yielded before the
// parents first reached through it, but in a history with merges a commit
// can come after a parent already reached along an earlier path. Each
// commit is visited at most once.
// Ignore excludes hashes (and everything reachable only through them)
// from the walk, the way a shallow/ignore boundary does for `rev-list`.
func NewCommitPreorderIter(c *Commit, ignore []plumbing.Hash) CommitIter {
	seen := make(map[plumbing.Hash]bool, len(ignore))
	for _, h := range ignore {
		seen[h] = true
	}

	return &commitPreIterator{
		seen:  seen,
		stack: make([]CommitIter, 0),
		start: c,
	}
}

func (w *commitPreIterator) Next() (*Commit, error) {
	var c *Commit
	for {
		if w.start != nil {
			c = w.start
			w.start = nil
		} else {
			current := len(w.stack) - 1
			if current < 0 {
				return nil, io.EOF
			}

			var err error
			c, err = w.stack[current].Next()
			if err == io.EOF {
				w.stack = w.stack[:current]
				continue
			}
			if err != nil {
				return nil, err
			}
		}

		if w.seen[c.Hash] {
			continue
		}
		w.seen[c.Hash] = true

		if c.NumParents() > 0 {
			w.stack = append(w.stack, filteredParentIter(c, w.seen))
		}

		return c, nil
	}
}

func filteredParentIter(c *Commit, seen map[plumbing.Hash]bool) CommitIter {
	var hashes []plumbing.Hash
	for _, h := range c.ParentHashes {
		if !seen[h] {
			hashes = append(hashes, h)
		}
	}

	return NewCommitIter(c.s, storer.NewEncodedObjectLookupIter(c.s, plumbing.CommitObject, hashes))
}

func (w *commitPreIterator) ForEach(cb func(*Commit) error) error {
	for {
		c, err := w.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := cb(c); err != nil {
			if err == storer.ErrStop {
				return nil
			}
			return err
		}
	}
}

func (w *commitPreIterator) Close() {}

// NewCommitFirstParentIter returns a CommitIter that walks only the
// first-parent chain starting at c, the way `log --first-parent` does.
func NewCommitFirstParentIter(c *Commit) CommitIter {
	return &commitFirstParentIterator{next: c}
}

type commitFirstParentIterator struct {
	next *Commit
}

func (w *commitFirstParentIterator) Next() (*Commit, error) {
	if w.next == nil {
		return nil, io.EOF
	}

	cur := w.next
	if cur.NumParents() == 0 {
		w.next = nil
		return cur, nil
	}

	parent, err := cur.Parent(0)
	if err != nil {
		return nil, err
	}
	w.next = parent
	return cur, nil
}

func (w *commitFirstParentIterator) ForEach(cb func(*Commit) error) error {
	for {
		c, err := w.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := cb(c); err != nil {
			if err == storer.ErrStop {
				return nil
			}
			return err
		}
	}
}

func (w *commitFirstParentIterator) Close() {}

// NewCommitTopoIter returns a CommitIter that performs a deterministic
// topological walk starting at c: a commit is only yielded once every
// commit that has it as a parent has already been yielded, and commits at
// the same topological depth break ties by commit hash, using an
// emirpasic/gods sorted list so repeated walks over the same graph
// produce identical output order.
func NewCommitTopoIter(c *Commit) (CommitIter, error) {
	inDegree := make(map[plumbing.Hash]int)
	nodes := make(map[plumbing.Hash]*Commit)

	queue := []*Commit{c}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if _, ok := nodes[cur.Hash]; ok {
			continue
		}
		nodes[cur.Hash] = cur
		if _, ok := inDegree[cur.Hash]; !ok {
			inDegree[cur.Hash] = 0
		}

		err := cur.Parents().ForEach(func(p *Commit) error {
			inDegree[p.Hash]++
			queue = append(queue, p)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	ready := arraylist.New()
	for h, n := range inDegree {
		if n == 0 {
			ready.Add(h)
		}
	}

	return &commitTopoIterator{nodes: nodes, inDegree: inDegree, ready: ready}, nil
}

type commitTopoIterator struct {
	nodes    map[plumbing.Hash]*Commit
	inDegree map[plumbing.Hash]int
	ready    *arraylist.List
}

func (w *commitTopoIterator) Next() (*Commit, error) {
	if w.ready.Empty() {
		return nil, io.EOF
	}

	sortHashList(w.ready)

	v, _ := w.ready.Get(0)
	w.ready.Remove(0)
	h := v.(plumbing.Hash)
	c := w.nodes[h]

	err := c.Parents().ForEach(func(p *Commit) error {
		w.inDegree[p.Hash]--
		if w.inDegree[p.Hash] == 0 {
			w.ready.Add(p.Hash)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

func sortHashList(l *arraylist.List) {
	l.Sort(func(a, b interface{}) int {
		return a.(plumbing.Hash).Compare(b.(plumbing.Hash)[:])
	})
}

func (w *commitTopoIterator) ForEach(cb func(*Commit) error) error {
	for {
		c, err := w.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := cb(c); err != nil {
			if err == storer.ErrStop {
				return nil
			}
			return err
		}
	}
}

func (w *commitTopoIterator) Close() {}
