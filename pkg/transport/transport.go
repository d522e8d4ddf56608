// Package transport defines the contract a pluggable HTTP backend must satisfy
// to carry OAuth 2.0 exchanges, along with the request and response values
// that cross that boundary.
package transport

import (
	"context"
	"net/http"
)

// Request is a fully resolved HTTP request built by the OAuth engine.
// Transports and the adapter only read it.
type Request struct {
	Method string
	// URL is absolute and already resolved.
	URL string
	// Header keys are sent exactly as given; lookups are case-insensitive.
	Header http.Header
	Body   []byte
}

// Response is an HTTP response assembled once by a transport from what the
// peer sent.
type Response struct {
	StatusCode int
	Status     string
	Proto      string
	Header     http.Header
	Body       []byte
	// Trailer holds trailer fields sent after the body, nil when there were
	// none.
	Trailer http.Header
}

// Interface performs one HTTP exchange. Implementations must be safe for
// concurrent use and cheap to copy: the adapter holds a shared handle, never
// an exclusive one.
//
// Input is not validated. A bad URL or unsupported method is reported by the
// underlying network call as an error. Any non-2xx status is still a
// successful exchange.
type Interface interface {
	Perform(ctx context.Context, req *Request) (*Response, error)
}

// Func adapts an ordinary function to Interface.
type Func func(ctx context.Context, req *Request) (*Response, error)

// Perform calls f(ctx, req).
func (f Func) Perform(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware decorates an Interface.
type Middleware func(next Interface) Interface

// Chain wraps iface with mws. The first middleware is the outermost one and
// sees the request first.
func Chain(iface Interface, mws ...Middleware) Interface {
	for i := len(mws) - 1; i >= 0; i-- {
		iface = mws[i](iface)
	}
	return iface
}

// NewRequest creates a request with an empty header set.
func NewRequest(method, url string, body []byte) *Request {
	return &Request{
		Method: method,
		URL:    url,
		Header: make(http.Header),
		Body:   body,
	}
}

// Clone returns a deep copy of r.
func (r *Request) Clone() *Request {
	c := &Request{
		Method: r.Method,
		URL:    r.URL,
		Header: r.Header.Clone(),
	}
	if r.Body != nil {
		c.Body = append([]byte(nil), r.Body...)
	}
	return c
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
