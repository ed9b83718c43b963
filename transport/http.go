package transport

import (
	"context"

	"github.com/pygit-core/pygit/plumbing"
)

// autoHTTP probes a remote once and then delegates every call to whichever
// of SmartHTTP or DumbHTTP it advertises, matching real Git clients'
// "try smart, fall back to dumb" discovery.
type autoHTTP struct {
	ep   *Endpoint
	auth AuthMethod

	resolved Transport
}

var _ Transport = (*autoHTTP)(nil)

// NewSmartOrDumbHTTP returns an HTTP transport that resolves to the smart
// or dumb protocol on first use, based on whether the server answers the
// smart service discovery request.
func NewSmartOrDumbHTTP(ep *Endpoint, auth AuthMethod) Transport {
	return &autoHTTP{ep: ep, auth: auth}
}

func (t *autoHTTP) resolve(ctx context.Context) (Transport, error) {
	if t.resolved != nil {
		return t.resolved, nil
	}

	smart := NewSmartHTTP(t.ep, t.auth)
	if _, err := smart.ListRefs(ctx); err == nil {
		t.resolved = smart
		return t.resolved, nil
	}

	t.resolved = NewDumbHTTP(t.ep, t.auth)
	return t.resolved, nil
}

func (t *autoHTTP) ListRefs(ctx context.Context) ([]RefAd, error) {
	r, err := t.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return r.ListRefs(ctx)
}

func (t *autoHTTP) HasObject(ctx context.Context, h plumbing.Hash) (bool, error) {
	r, err := t.resolve(ctx)
	if err != nil {
		return false, err
	}
	return r.HasObject(ctx, h)
}

func (t *autoHTTP) GetObject(ctx context.Context, h plumbing.Hash) (plumbing.ObjectType, []byte, error) {
	r, err := t.resolve(ctx)
	if err != nil {
		return plumbing.InvalidObject, nil, err
	}
	return r.GetObject(ctx, h)
}
