package transport

import (
	"context"
	"fmt"

	"github.com/pygit-core/pygit/config"
	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/storage"
)

// CloneOptions configures Clone. RemoteName defaults to "origin"; an
// empty URL is an error.
type CloneOptions struct {
	URL        string
	RemoteName string
	Auth       AuthMethod
}

// Clone fetches every branch of opts.URL into refs/remotes/<remote>/ in
// dst (which must already have been through Init), records the remote,
// creates the local branch matching the remote's default branch, and
// points HEAD at it.
// Checking out the working tree from the fetched commit is the caller's
// responsibility: this core's object/ref layer has no working-tree
// concept of its own.
func Clone(ctx context.Context, dst storage.Storer, opts CloneOptions) (*FetchResult, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("transport: clone requires a URL")
	}
	remote := opts.RemoteName
	if remote == "" {
		remote = "origin"
	}

	ep, err := NewEndpoint(opts.URL)
	if err != nil {
		return nil, err
	}
	t, err := Open(ep, opts.Auth, dst)
	if err != nil {
		return nil, err
	}

	ads, err := t.ListRefs(ctx)
	if err != nil {
		return nil, err
	}

	var headTarget plumbing.ReferenceName
	var headHash plumbing.Hash
	for _, ad := range ads {
		if ad.Name != plumbing.HEAD {
			continue
		}
		if ad.Target != "" {
			headTarget = ad.Target
		} else {
			headHash = ad.Hash
		}
	}
	if headTarget == "" {
		// Dumb/local transports without a symbolic HEAD still advertise a
		// HEAD hash; match it against the branch refs to find its name.
		for _, ad := range ads {
			if ad.Name != plumbing.HEAD && ad.Hash == headHash && ad.Name.IsBranch() {
				headTarget = ad.Name
				break
			}
		}
	}

	fetchRefSpec := config.RefSpec(fmt.Sprintf("+refs/heads/*:refs/remotes/%s/*", remote))
	result, err := Fetch(ctx, dst, t, []config.RefSpec{fetchRefSpec})
	if err != nil {
		return nil, err
	}

	cfg, err := dst.Config()
	if err != nil {
		return nil, err
	}
	cfg.Remotes[remote] = &config.RemoteConfig{
		Name:  remote,
		URL:   opts.URL,
		Fetch: []string{fetchRefSpec.String()},
	}
	if err := dst.SetConfig(cfg); err != nil {
		return nil, err
	}

	if headTarget != "" {
		local := plumbing.NewRemoteReferenceName(remote, headTarget.Short())
		if h, ok := result.Updated[local]; ok {
			localBranch := plumbing.NewBranchReferenceName(headTarget.Short())
			if err := dst.SetReference(plumbing.NewHashReference(localBranch, h)); err != nil {
				return nil, err
			}
			if err := dst.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, localBranch)); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

// Open picks the transport implementation matching ep's protocol. The
// storer argument is not used, and a "file" endpoint returns an error: a
// local transport is built with NewLocal around a storer the caller has
// already opened, so Clone and Remote cannot reach a local path URL.
func Open(ep *Endpoint, auth AuthMethod, _ storage.Storer) (Transport, error) {
	switch ep.Protocol {
	case "http", "https":
		return NewSmartOrDumbHTTP(ep, auth), nil
	case "file":
		return nil, fmt.Errorf("transport: file:// endpoints must be opened by the caller via NewLocal against an already-open storer")
	default:
		return nil, fmt.Errorf("transport: unsupported protocol %q", ep.Protocol)
	}
}
