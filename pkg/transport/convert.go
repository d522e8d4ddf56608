package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"strconv"
)

// HTTP builds an outbound *http.Request carrying r. Header keys are copied
// verbatim so non-canonical names reach the wire unchanged. A Host header, if
// present, becomes the request's Host since net/http ignores it in Header.
func (r *Request) HTTP(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, err
	}
	for name, values := range r.Header {
		if textproto.CanonicalMIMEHeaderKey(name) == "Host" {
			if len(values) > 0 {
				req.Host = values[0]
			}
			continue
		}
		req.Header[name] = append([]string(nil), values...)
	}
	req.ContentLength = int64(len(r.Body))
	return req, nil
}

// FromHTTPRequest reads req into a Request. The body is consumed and closed.
func FromHTTPRequest(req *http.Request) (*Request, error) {
	if req.URL == nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, fmt.Errorf("request has no URL")
	}
	r := &Request{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
	}
	if r.Method == "" {
		r.Method = http.MethodGet
	}
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	if req.Host != "" && req.Host != req.URL.Host {
		r.Header.Set("Host", req.Host)
	}
	if req.Body != nil && req.Body != http.NoBody {
		defer req.Body.Close()
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		r.Body = b
	}
	return r, nil
}

// ResponseFromHTTP reads resp in full into a Response and closes its body.
// Trailers announced by the peer are kept apart from Header in Trailer.
func ResponseFromHTTP(resp *http.Response) (*Response, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	header := resp.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Proto:      resp.Proto,
		Header:     header,
		Body:       body,
		// Trailer values are only final once the body has hit EOF.
		Trailer: resp.Trailer.Clone(),
	}, nil
}

// HTTP converts r into an *http.Response answering req, as returned by an
// http.RoundTripper.
func (r *Response) HTTP(req *http.Request) *http.Response {
	proto := r.Proto
	if proto == "" {
		proto = "HTTP/1.1"
	}
	major, minor, ok := http.ParseHTTPVersion(proto)
	if !ok {
		major, minor = 1, 1
	}
	status := r.Status
	if status == "" {
		status = strconv.Itoa(r.StatusCode) + " " + http.StatusText(r.StatusCode)
	}
	header := r.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		Status:        status,
		StatusCode:    r.StatusCode,
		Proto:         proto,
		ProtoMajor:    major,
		ProtoMinor:    minor,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(r.Body)),
		ContentLength: int64(len(r.Body)),
		Trailer:       r.Trailer.Clone(),
		Request:       req,
	}
}
