package transport

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/format/objfile"
	"github.com/pygit-core/pygit/pygerr"
)

// DumbHTTP implements Git's dumb HTTP protocol: every ref and object is a
// plain GET, with no service negotiation and no packfile. Fetch callers
// walk the object graph and request one object at a time.
type DumbHTTP struct {
	ep     *Endpoint
	auth   AuthMethod
	client *http.Client
}

var _ Transport = (*DumbHTTP)(nil)

// NewDumbHTTP returns a dumb-HTTP transport against ep.
func NewDumbHTTP(ep *Endpoint, auth AuthMethod) *DumbHTTP {
	return &DumbHTTP{ep: ep, auth: auth, client: http.DefaultClient}
}

func (t *DumbHTTP) join(elem ...string) (string, error) {
	return url.JoinPath(t.ep.String(), elem...)
}

func (t *DumbHTTP) get(ctx context.Context, elem ...string) (*http.Response, error) {
	u, err := t.join(elem...)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "pygit/1.0")
	if t.auth != nil {
		t.auth.setAuth(t.ep)
	}
	if t.ep.User != "" {
		req.SetBasicAuth(t.ep.User, t.ep.Password)
	}

	res, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %s", pygerr.ErrTransportError, err)
	}

	switch res.StatusCode {
	case http.StatusOK:
		return res, nil
	case http.StatusNotFound:
		res.Body.Close()
		return nil, ErrRepositoryNotFound
	case http.StatusUnauthorized:
		res.Body.Close()
		return nil, ErrAuthenticationRequired
	default:
		res.Body.Close()
		return nil, fmt.Errorf("%w: unexpected status %d", pygerr.ErrTransportError, res.StatusCode)
	}
}

// ListRefs fetches HEAD and info/refs (falling back to packed-refs), per
// spec: no smart service query string, just the literal files a bare dumb
// server exposes.
func (t *DumbHTTP) ListRefs(ctx context.Context) ([]RefAd, error) {
	var ads []RefAd

	if res, err := t.get(ctx, "HEAD"); err == nil {
		line, err := readFirstLine(res.Body)
		res.Body.Close()
		if err != nil {
			return nil, err
		}
		if target, ok := strings.CutPrefix(line, "ref: "); ok {
			ads = append(ads, RefAd{Name: plumbing.HEAD, Target: plumbing.ReferenceName(strings.TrimSpace(target))})
		} else if h := plumbing.NewHash(strings.TrimSpace(line)); !h.IsZero() {
			ads = append(ads, RefAd{Name: plumbing.HEAD, Hash: h})
		}
	} else if err != ErrRepositoryNotFound {
		return nil, err
	}

	refs, err := t.listRefsFile(ctx, "info", "refs")
	if err == ErrRepositoryNotFound {
		refs, err = t.listPackedRefs(ctx)
	}
	if err != nil {
		return nil, err
	}

	return append(ads, refs...), nil
}

func (t *DumbHTTP) listRefsFile(ctx context.Context, elem ...string) ([]RefAd, error) {
	res, err := t.get(ctx, elem...)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var ads []RefAd
	sc := bufio.NewScanner(res.Body)
	for sc.Scan() {
		fields := strings.SplitN(sc.Text(), "\t", 2)
		if len(fields) != 2 {
			continue
		}
		h := plumbing.NewHash(fields[0])
		if h.IsZero() {
			continue
		}
		ads = append(ads, RefAd{Name: plumbing.ReferenceName(fields[1]), Hash: h})
	}
	return ads, sc.Err()
}

func (t *DumbHTTP) listPackedRefs(ctx context.Context) ([]RefAd, error) {
	res, err := t.get(ctx, "packed-refs")
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var ads []RefAd
	sc := bufio.NewScanner(res.Body)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "^") {
			continue
		}
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			continue
		}
		h := plumbing.NewHash(fields[0])
		if h.IsZero() {
			continue
		}
		ads = append(ads, RefAd{Name: plumbing.ReferenceName(fields[1]), Hash: h})
	}
	return ads, sc.Err()
}

func (t *DumbHTTP) objectPath(h plumbing.Hash) (string, string) {
	s := h.String()
	return s[:2], s[2:]
}

func (t *DumbHTTP) HasObject(ctx context.Context, h plumbing.Hash) (bool, error) {
	aa, bb := t.objectPath(h)
	res, err := t.get(ctx, "objects", aa, bb)
	if err == ErrRepositoryNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	res.Body.Close()
	return true, nil
}

func (t *DumbHTTP) GetObject(ctx context.Context, h plumbing.Hash) (plumbing.ObjectType, []byte, error) {
	aa, bb := t.objectPath(h)
	res, err := t.get(ctx, "objects", aa, bb)
	if err != nil {
		return plumbing.InvalidObject, nil, err
	}
	defer res.Body.Close()

	r, err := objfile.NewReader(res.Body)
	if err != nil {
		return plumbing.InvalidObject, nil, err
	}
	defer r.Close()

	typ, size, err := r.Header()
	if err != nil {
		return plumbing.InvalidObject, nil, err
	}

	var buf bytes.Buffer
	buf.Grow(int(size))
	if _, err := io.Copy(&buf, r); err != nil {
		return plumbing.InvalidObject, nil, err
	}

	return typ, buf.Bytes(), nil
}

func readFirstLine(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return sc.Text(), nil
}
