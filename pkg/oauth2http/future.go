package oauth2http

import (
	"context"

	"github.com/LorenzoLeonardo/oauth2-http-client/pkg/transport"
)

// Future is the pending result of one exchange started with Go.
type Future struct {
	done chan struct{}
	resp *transport.Response
	err  error
}

// Go starts req on its own goroutine and returns immediately. To abandon the
// exchange, cancel ctx; what happens to a half-sent request is up to the
// transport.
func (c *Client) Go(ctx context.Context, req *transport.Request) *Future {
	f := &Future{done: make(chan struct{})}
	iface := c.iface
	go func() {
		defer close(f.done)
		resp, err := iface.Perform(ctx, req)
		if err != nil {
			f.err = err
			return
		}
		f.resp = resp
	}()
	return f
}

// Done is closed once the exchange has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the exchange has finished and returns its outcome.
func (f *Future) Wait() (*transport.Response, error) {
	<-f.done
	return f.resp, f.err
}
