package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	ctxio "github.com/jbenet/go-context/io"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/format/pktline"
	"github.com/pygit-core/pygit/pygerr"
)

// uploadPackService is the service name smart HTTP fetch negotiates;
// receive-pack (push) is not implemented by this client, per the Non-goal
// on server-side push support.
const uploadPackService = "git-upload-pack"

// SmartHTTP speaks the smart HTTP protocol's fetch half: a capability-free
// subset of git-upload-pack good enough to list refs and negotiate a
// packfile. It reads the ref advertisement GET and then issues a single
// want/have POST round trip — no multi_ack, no shallow/deepen, no
// sideband demultiplexing, matching this core's single-pass negotiation
// model.
type SmartHTTP struct {
	ep     *Endpoint
	auth   AuthMethod
	client *http.Client
}

var _ Transport = (*SmartHTTP)(nil)
var _ PackFetcher = (*SmartHTTP)(nil)

// NewSmartHTTP returns a smart-HTTP transport against ep.
func NewSmartHTTP(ep *Endpoint, auth AuthMethod) *SmartHTTP {
	return &SmartHTTP{ep: ep, auth: auth, client: http.DefaultClient}
}

func (t *SmartHTTP) newRequest(ctx context.Context, method, u string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
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
	return req, nil
}

func (t *SmartHTTP) do(ctx context.Context, req *http.Request) (*http.Response, error) {
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

// ListRefs performs the GET info/refs?service=git-upload-pack ref
// advertisement, the discovery step of every smart-HTTP operation.
func (t *SmartHTTP) ListRefs(ctx context.Context) ([]RefAd, error) {
	u, err := url.JoinPath(t.ep.String(), "info/refs")
	if err != nil {
		return nil, err
	}
	u += "?service=" + uploadPackService

	req, err := t.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", fmt.Sprintf("application/x-%s-advertisement", uploadPackService))

	res, err := t.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body := ctxio.NewReader(ctx, res.Body)
	r := pktline.NewReader(body)

	_, first, err := r.ReadPacket()
	if err != nil {
		return nil, fmt.Errorf("%w: reading service announcement: %s", pygerr.ErrTransportError, err)
	}
	if !strings.HasPrefix(string(first), "# service=") {
		return nil, fmt.Errorf("%w: unexpected service announcement %q", pygerr.ErrTransportError, first)
	}
	if _, _, err := r.ReadPacket(); err != nil && err != io.EOF {
		// the flush-pkt terminating the service announcement line
		return nil, err
	}

	var ads []RefAd
	for i := 0; ; i++ {
		l, p, err := r.ReadPacket()
		if l == pktline.Flush {
			break
		}
		if err != nil {
			return nil, err
		}

		line := strings.TrimRight(string(p), "\n")
		if i == 0 {
			// first line may carry a NUL-separated capability list; this
			// client advertises and requires none, so it is discarded.
			if idx := strings.IndexByte(line, 0); idx >= 0 {
				line = line[:idx]
			}
		}

		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			continue
		}
		h := plumbing.NewHash(fields[0])
		name := plumbing.ReferenceName(fields[1])
		if name == "HEAD" {
			ads = append(ads, RefAd{Name: plumbing.HEAD, Hash: h})
			continue
		}
		if h.IsZero() {
			return nil, ErrEmptyRemoteRepository
		}
		ads = append(ads, RefAd{Name: name, Hash: h})
	}

	if len(ads) == 0 {
		return nil, ErrEmptyRemoteRepository
	}
	return ads, nil
}

func (t *SmartHTTP) HasObject(ctx context.Context, h plumbing.Hash) (bool, error) {
	return false, fmt.Errorf("%w: smart http cannot query individual objects", errNotImplemented)
}

func (t *SmartHTTP) GetObject(ctx context.Context, h plumbing.Hash) (plumbing.ObjectType, []byte, error) {
	return plumbing.InvalidObject, nil, fmt.Errorf("%w: smart http only serves whole packs", errNotImplemented)
}

// FetchPack negotiates and returns a packfile covering wants, minus
// everything reachable from haves. No multi_ack: a single want/have
// listing is sent, terminated by "done", and the server either NAKs (no
// common history) or ACKs the first matching have before streaming the
// pack.
func (t *SmartHTTP) FetchPack(ctx context.Context, wants, haves []plumbing.Hash) (PackStream, error) {
	var body bytes.Buffer
	w := pktline.NewWriter(&body)

	for _, h := range wants {
		if _, err := w.WritePacketString("want " + h.String() + "\n"); err != nil {
			return PackStream{}, err
		}
	}
	if err := w.WriteFlush(); err != nil {
		return PackStream{}, err
	}
	for _, h := range haves {
		if _, err := w.WritePacketString("have " + h.String() + "\n"); err != nil {
			return PackStream{}, err
		}
	}
	if _, err := w.WritePacketString("done\n"); err != nil {
		return PackStream{}, err
	}

	u, err := url.JoinPath(t.ep.String(), uploadPackService)
	if err != nil {
		return PackStream{}, err
	}

	req, err := t.newRequest(ctx, http.MethodPost, u, &body)
	if err != nil {
		return PackStream{}, err
	}
	req.Header.Set("Content-Type", fmt.Sprintf("application/x-%s-request", uploadPackService))
	req.Header.Set("Accept", fmt.Sprintf("application/x-%s-result", uploadPackService))

	res, err := t.do(ctx, req)
	if err != nil {
		return PackStream{}, err
	}

	rc := ctxio.NewReader(ctx, res.Body)
	pr := pktline.NewReader(rc)
	_, ackLine, err := pr.ReadPacket()
	if err != nil {
		res.Body.Close()
		return PackStream{}, fmt.Errorf("%w: reading ACK/NAK: %s", pygerr.ErrTransportError, err)
	}
	line := strings.TrimSpace(string(ackLine))
	if line != "NAK" && !strings.HasPrefix(line, "ACK") {
		res.Body.Close()
		return PackStream{}, fmt.Errorf("%w: unexpected negotiation response %q", pygerr.ErrTransportError, line)
	}

	return PackStream{Reader: pr, Close: res.Body.Close}, nil
}
