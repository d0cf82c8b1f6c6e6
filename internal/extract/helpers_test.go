package extract

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"sitegrab/internal/logger"
)

// recordedRequest is what the test transport saw for one request.
type recordedRequest struct {
	Method string
	Host   string
	Path   string
	Form   url.Values
	Header http.Header
}

// rewriteTransport sends every request to a test server while keeping the
// original Host, so handlers can route on production hostnames.
type rewriteTransport struct {
	target *url.URL
	base   http.RoundTripper

	mu       sync.Mutex
	requests []recordedRequest
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := recordedRequest{
		Method: req.Method,
		Host:   req.URL.Host,
		Path:   req.URL.Path,
		Header: req.Header.Clone(),
	}

	out := req.Clone(req.Context())
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		rec.Form, _ = url.ParseQuery(string(body))
		out.Body = io.NopCloser(bytes.NewReader(body))
	}

	t.mu.Lock()
	t.requests = append(t.requests, rec)
	t.mu.Unlock()

	out.URL.Scheme = t.target.Scheme
	out.URL.Host = t.target.Host
	out.Host = req.URL.Host
	return t.base.RoundTrip(out)
}

func (t *rewriteTransport) recorded() []recordedRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]recordedRequest(nil), t.requests...)
}

func (t *rewriteTransport) count(host, path string) int {
	n := 0
	for _, r := range t.recorded() {
		if r.Host == host && r.Path == path {
			n++
		}
	}
	return n
}

// newTestOptions starts a TLS server for handler and returns options whose
// client routes every host to it.
func newTestOptions(t *testing.T, handler http.Handler) (Options, *rewriteTransport) {
	t.Helper()
	srv := httptest.NewTLSServer(handler)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parsing server URL: %v", err)
	}
	client := srv.Client()
	rt := &rewriteTransport{target: target, base: client.Transport}
	client.Transport = rt

	return Options{Client: client, Logger: logger.Discard()}, rt
}
