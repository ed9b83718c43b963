package packfile

import "github.com/pygit-core/pygit/plumbing/cache"

// PackfileOption configures a Packfile returned by NewPackfile.
type PackfileOption func(*Packfile)

// WithCache sets the delta-base cache a Packfile uses, letting callers
// share one cache across several Packfile instances instead of each
// allocating its own LRU.
func WithCache(c cache.Object) PackfileOption {
	return func(p *Packfile) {
		p.deltaBaseCache = c
	}
}
