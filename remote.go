package pygit

import (
	"context"

	"github.com/pygit-core/pygit/config"
	"github.com/pygit-core/pygit/storage"
	"github.com/pygit-core/pygit/transport"
)

// Remote is a configured reference to another repository, reached
// through whichever transport.Transport its URL's scheme resolves to.
type Remote struct {
	c *config.RemoteConfig
	s storage.Storer
}

// Config returns the remote's on-disk configuration.
func (r *Remote) Config() *config.RemoteConfig { return r.c }

func (r *Remote) open() (transport.Transport, error) {
	ep, err := transport.NewEndpoint(r.c.URL)
	if err != nil {
		return nil, err
	}
	return transport.Open(ep, nil, r.s)
}

// Fetch pulls every ref o's RefSpecs match (defaulting to this remote's
// configured Fetch refspecs) into the repository this remote belongs to.
func (r *Remote) Fetch(ctx context.Context, o *FetchOptions) (*transport.FetchResult, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	refspecs := o.RefSpecs
	if len(refspecs) == 0 {
		for _, s := range r.c.Fetch {
			refspecs = append(refspecs, config.RefSpec(s))
		}
	}
	if len(refspecs) == 0 {
		refspecs = []config.RefSpec{defaultFetchRefSpec(r.c.Name)}
	}

	t, err := r.open()
	if err != nil {
		return nil, err
	}

	return transport.Fetch(ctx, r.s, t, refspecs)
}

// Push pushes every ref o's RefSpecs match to this remote. Only the local
// transport implements push, and transport.Open builds no local
// transport from a URL, so Push returns an error for every remote:
// receive-pack over the network is not implemented by this core (see
// transport.Push).
func (r *Remote) Push(ctx context.Context, o *PushOptions) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if len(o.RefSpecs) == 0 {
		return ErrInvalidRefSpec
	}

	t, err := r.open()
	if err != nil {
		return err
	}

	return transport.Push(ctx, r.s, t, o.RefSpecs)
}

func defaultFetchRefSpec(remote string) config.RefSpec {
	return config.RefSpec("+refs/heads/*:refs/remotes/" + remote + "/*")
}
