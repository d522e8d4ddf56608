// Package nethttp implements transport.Interface on top of a shared
// *http.Client.
package nethttp

import (
	"context"
	"net/http"
	"time"

	"github.com/LorenzoLeonardo/oauth2-http-client/pkg/transport"
)

// Transport performs exchanges with Client. The client is the transport
// handle: it is shared, never copied, and its connection pool, TLS settings
// and timeout are the caller's to configure.
//
// A client whose transport negotiates compression (the net/http default)
// adds Accept-Encoding: gzip to requests that carry none and hands back the
// decompressed body without its Content-Encoding and Content-Length headers.
// Callers supplying such a client accept that rewrite; NewClient and the nil
// default do not compress.
type Transport struct {
	// Client to use for HTTP requests. Nil indicates that a client built by
	// NewClient with no timeout should be used.
	Client *http.Client
}

var _ transport.Interface = (*Transport)(nil)

var defaultClient = NewClient(0)

// NewClient returns an *http.Client with the given timeout whose transport
// is a copy of http.DefaultTransport with compression disabled, so response
// bodies and headers arrive as the peer sent them.
func NewClient(timeout time.Duration) *http.Client {
	rt := http.DefaultTransport.(*http.Transport).Clone()
	rt.DisableCompression = true
	return &http.Client{Transport: rt, Timeout: timeout}
}

// New returns a Transport using client.
func New(client *http.Client) *Transport {
	return &Transport{Client: client}
}

func (t *Transport) client() *http.Client {
	if t.Client == nil {
		return defaultClient
	}
	return t.Client
}

// Perform sends req and reads the whole response. Redirects follow the
// client's policy.
func (t *Transport) Perform(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	hr, err := req.HTTP(ctx)
	if err != nil {
		return nil, transport.Wrap(req, err)
	}

	resp, err := t.client().Do(hr)
	if err != nil {
		return nil, transport.Wrap(req, err)
	}

	r, err := transport.ResponseFromHTTP(resp)
	if err != nil {
		return nil, transport.Wrap(req, err)
	}
	return r, nil
}
