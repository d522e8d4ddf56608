// Package oauth2http bridges a transport.Interface into golang.org/x/oauth2.
//
// The oauth2 package reaches the network through an *http.Client found in the
// request context under oauth2.HTTPClient. Client implements http.RoundTripper
// over any transport.Interface so that engine requests for device
// authorization, token polling, refresh and client credentials all travel
// through the caller's transport:
//
//	c := oauth2http.New(nethttp.New(&http.Client{Timeout: 30 * time.Second}))
//	da, err := cfg.DeviceAuth(c.Context(ctx))
//
// The adapter adds nothing of its own: no retries, caching, timeouts, locks or
// logging. Errors from the transport are returned as they are.
package oauth2http

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/LorenzoLeonardo/oauth2-http-client/pkg/transport"
	"github.com/LorenzoLeonardo/oauth2-http-client/pkg/transport/nethttp"
)

// Client adapts a transport.Interface to the call shapes the OAuth engine
// uses. A Client is stateless apart from the shared transport handle and may
// be used from any number of goroutines.
type Client struct {
	iface transport.Interface
}

var _ http.RoundTripper = (*Client)(nil)

// New creates a Client over iface. A nil iface selects a nethttp transport
// with its default, non-compressing client.
func New(iface transport.Interface) *Client {
	if iface == nil {
		iface = nethttp.New(nil)
	}
	return &Client{iface: iface}
}

// Interface returns the transport the client dispatches to.
func (c *Client) Interface() transport.Interface {
	return c.iface
}

// Call performs req on the held transport. A response is returned unchanged
// whatever its status; a transport failure is returned unchanged as the error.
func (c *Client) Call(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	// Copy the handle so the exchange does not depend on c afterwards.
	iface := c.iface
	resp, err := iface.Perform(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// RoundTrip implements http.RoundTripper. The request body is read and closed
// before the exchange starts.
func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	r, err := transport.FromHTTPRequest(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.Call(req.Context(), r)
	if err != nil {
		return nil, err
	}
	return resp.HTTP(req), nil
}

// HTTPClient returns an *http.Client that sends every request through c.
// Redirects are not followed by the returned client; the transport applies
// its own policy.
func (c *Client) HTTPClient() *http.Client {
	return &http.Client{
		Transport: c,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Context returns a copy of ctx that makes golang.org/x/oauth2 use c for its
// HTTP exchanges.
func (c *Client) Context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient())
}
