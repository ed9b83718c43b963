package object

import (
	"github.com/emirpasic/gods/sets/treeset"

	"github.com/pygit-core/pygit/plumbing"
)

// hashComparator orders plumbing.Hash values lexicographically by their
// hex form, giving the treesets below a deterministic iteration order
// independent of map iteration order.
func hashComparator(a, b interface{}) int {
	ah, bh := a.(plumbing.Hash), b.(plumbing.Hash)
	switch {
	case ah == bh:
		return 0
	case ah.String() < bh.String():
		return -1
	default:
		return 1
	}
}

// ancestorsOf returns every commit reachable from c (including c itself),
// indexed by hash, via a two-queue style BFS: each commit is expanded at
// most once regardless of how many paths reach it.
func ancestorsOf(c *Commit) (map[plumbing.Hash]*Commit, error) {
	seen := map[plumbing.Hash]*Commit{c.Hash: c}
	queue := []*Commit{c}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		err := cur.Parents().ForEach(func(p *Commit) error {
			if _, ok := seen[p.Hash]; ok {
				return nil
			}
			seen[p.Hash] = p
			queue = append(queue, p)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return seen, nil
}

// IsAncestor reports whether c is reachable from other by following
// parent links — that is, whether c is an ancestor of (or equal to)
// other.
func (c *Commit) IsAncestor(other *Commit) (bool, error) {
	ancestors, err := ancestorsOf(other)
	if err != nil {
		return false, err
	}

	_, ok := ancestors[c.Hash]
	return ok, nil
}

// MergeBase returns the best common ancestors of c and other: the commits
// reachable from both that are not themselves reachable from any other
// common ancestor. A history with no common ancestor (disjoint roots)
// returns an empty, nil-error result. Cross-merges can legitimately
// produce more than one result.
func (c *Commit) MergeBase(other *Commit) ([]*Commit, error) {
	aAncestors, err := ancestorsOf(c)
	if err != nil {
		return nil, err
	}
	bAncestors, err := ancestorsOf(other)
	if err != nil {
		return nil, err
	}

	var common []*Commit
	for h, commit := range aAncestors {
		if _, ok := bAncestors[h]; ok {
			common = append(common, commit)
		}
	}

	return Independents(common)
}

// Independents filters commits down to those not reachable from any other
// commit in the list: the minimal elements of the reachability partial
// order. Repeated commits are deduplicated. The result is produced by
// walking a hash-ordered treeset rather than a plain map, so repeated
// calls over the same input return commits in the same order.
func Independents(commits []*Commit) ([]*Commit, error) {
	dedup := make(map[plumbing.Hash]*Commit, len(commits))
	order := treeset.NewWith(hashComparator)
	for _, c := range commits {
		if _, ok := dedup[c.Hash]; !ok {
			dedup[c.Hash] = c
			order.Add(c.Hash)
		}
	}

	reachableFromOthers := make(map[plumbing.Hash]bool)
	for _, v := range order.Values() {
		h := v.(plumbing.Hash)
		if reachableFromOthers[h] {
			continue
		}

		ancestors, err := ancestorsOf(dedup[h])
		if err != nil {
			return nil, err
		}

		for other, oh := range dedup {
			if other == h {
				continue
			}
			if _, ok := ancestors[oh.Hash]; ok {
				reachableFromOthers[other] = true
			}
		}
	}

	var result []*Commit
	for _, v := range order.Values() {
		h := v.(plumbing.Hash)
		if !reachableFromOthers[h] {
			result = append(result, dedup[h])
		}
	}

	return result, nil
}
