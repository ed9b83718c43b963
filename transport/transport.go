// Package transport implements the abstract sync transports a repository
// fetches from and pushes to: an in-process local transport, Git's "dumb"
// HTTP protocol (one object per request), and a minimal smart HTTP
// upload-pack client that negotiates a packfile.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/pygerr"
)

// ErrRepositoryNotFound is returned when a remote endpoint does not host a
// Git repository (or access to it was denied).
var ErrRepositoryNotFound = fmt.Errorf("%w: repository not found", pygerr.ErrTransportError)

// ErrEmptyRemoteRepository is returned when listing refs succeeds but the
// remote has no references at all (an unborn repository).
var ErrEmptyRemoteRepository = fmt.Errorf("%w: remote repository is empty", pygerr.ErrTransportError)

// ErrTimeout is returned when a transport operation's context deadline
// expires before the operation completes; any sockets it held are
// released before it returns.
var ErrTimeout = fmt.Errorf("%w: timed out", pygerr.ErrTransportError)

// ErrAuthenticationRequired is returned when the remote demands
// credentials this transport was not given.
var ErrAuthenticationRequired = fmt.Errorf("%w: authentication required", pygerr.ErrTransportError)

// AuthMethod decorates an outgoing request with credentials. The only
// implementation this core ships is BasicAuth: interactive credential
// prompting is out of scope.
type AuthMethod interface {
	Name() string
	setAuth(ep *Endpoint) // unexported: only endpoints in this package apply it
}

// BasicAuth is HTTP basic authentication, the one credential form dumb and
// smart HTTP transports support here.
type BasicAuth struct {
	Username, Password string
}

func (a *BasicAuth) Name() string { return "basic-auth" }

func (a *BasicAuth) setAuth(ep *Endpoint) {
	ep.User = a.Username
	ep.Password = a.Password
}

// Endpoint describes a remote location: a URL broken into the fields each
// transport implementation needs. SSH and the "user@host:path" SCP-like
// form are not supported — this core never shells out to or speaks to an
// SSH server.
type Endpoint struct {
	Protocol string // "file", "http", "https"
	User     string
	Password string
	Host     string
	Port     int
	Path     string
}

// NewEndpoint parses a remote URL. Bare local paths (no scheme) are
// treated as Protocol "file".
func NewEndpoint(s string) (*Endpoint, error) {
	if isLocalPath(s) {
		return &Endpoint{Protocol: "file", Path: s}, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("transport: invalid endpoint %q: %w", s, err)
	}

	switch u.Scheme {
	case "http", "https":
		ep := &Endpoint{Protocol: u.Scheme, Host: u.Hostname(), Path: u.Path}
		if u.User != nil {
			ep.User = u.User.Username()
			ep.Password, _ = u.User.Password()
		}
		if p := u.Port(); p != "" {
			ep.Port, err = strconv.Atoi(p)
			if err != nil {
				return nil, fmt.Errorf("transport: invalid port in %q: %w", s, err)
			}
		}
		return ep, nil
	case "file":
		return &Endpoint{Protocol: "file", Path: u.Path}, nil
	case "ssh", "git":
		return nil, fmt.Errorf("transport: %s:// is not supported", u.Scheme)
	default:
		return nil, fmt.Errorf("transport: unsupported scheme %q", u.Scheme)
	}
}

func isLocalPath(s string) bool {
	if strings.Contains(s, "://") {
		return false
	}
	// "user@host:path" SCP-like syntax has no "://" either, so it is
	// treated as a local path too: SSH shorthand is not recognized.
	return true
}

// String renders the endpoint back to a URL-ish form, for diagnostics and
// as a base to join request paths onto.
func (e *Endpoint) String() string {
	if e.Protocol == "file" {
		return e.Path
	}

	host := e.Host
	if e.Port != 0 {
		host = fmt.Sprintf("%s:%d", host, e.Port)
	}
	return fmt.Sprintf("%s://%s%s", e.Protocol, host, e.Path)
}

// RefAd is one (name, hash) pair advertised by a remote, or a symbolic
// target when Target is non-empty (used for HEAD).
type RefAd struct {
	Name   plumbing.ReferenceName
	Hash   plumbing.Hash
	Target plumbing.ReferenceName
}

// Transport is the capability surface every remote speaks: listing refs
// and reading objects. FetchPack is optional — only smart transports
// implement it; callers type-assert for it (see PackFetcher).
type Transport interface {
	// ListRefs returns every reference the remote advertises, including a
	// synthesized HEAD entry when the remote reports one.
	ListRefs(ctx context.Context) ([]RefAd, error)
	// HasObject reports whether the remote holds the given object.
	HasObject(ctx context.Context, h plumbing.Hash) (bool, error)
	// GetObject returns the raw (type, content) of a single object. Used
	// by transports that can only serve objects one at a time.
	GetObject(ctx context.Context, h plumbing.Hash) (plumbing.ObjectType, []byte, error)
}

// PackFetcher is implemented by transports that can negotiate and return a
// whole packfile in one round trip (the smart protocol). Local and dumb
// transports do not implement it; fetch falls back to GetObject walking.
type PackFetcher interface {
	FetchPack(ctx context.Context, wants, haves []plumbing.Hash) (PackStream, error)
}

// PackStream is a packfile byte stream paired with the cleanup the caller
// must run once done reading it.
type PackStream struct {
	Reader interface {
		Read([]byte) (int, error)
	}
	Close func() error
}

// Pusher is implemented only by the local transport: pushing over the
// smart protocol (receive-pack) is not implemented by this core, so
// network transports never satisfy this interface.
type Pusher interface {
	Push(ctx context.Context, refName plumbing.ReferenceName, h plumbing.Hash, force bool) error
}

var errNotImplemented = errors.New("transport: not implemented")
