// Package h2c provides a transport that speaks HTTP/2 over cleartext TCP with
// prior knowledge, for authorization servers running behind an h2c-only
// sidecar or on a loopback interface.
package h2c

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"

	"golang.org/x/net/http2"

	"github.com/LorenzoLeonardo/oauth2-http-client/pkg/transport"
	"github.com/LorenzoLeonardo/oauth2-http-client/pkg/transport/nethttp"
)

// NewRoundTripper returns an http2.Transport that dials plain TCP. The TLS
// config http2 hands to the dialer is ignored, so https:// URLs are sent in
// cleartext as well; use nethttp for TLS endpoints. Compression is disabled
// so response bodies and headers arrive as the peer sent them.
func NewRoundTripper() *http2.Transport {
	return &http2.Transport{
		AllowHTTP:          true,
		DisableCompression: true,
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}
}

// NewClient wraps NewRoundTripper in an *http.Client.
func NewClient() *http.Client {
	return &http.Client{Transport: NewRoundTripper()}
}

// New returns a transport performing every exchange over h2c. A nil client
// selects NewClient.
func New(client *http.Client) transport.Interface {
	if client == nil {
		client = NewClient()
	}
	return nethttp.New(client)
}
