// Package httputil provides a security-hardened HTTP client, the request
// helpers shared by the extractors and input sanitization utilities.
package httputil

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultUserAgent is sent when the caller does not supply one.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/121.0"

const (
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptJSON = "application/json, text/javascript, */*; q=0.01"

	maxPageSize = 5 * 1024 * 1024
	maxJSONSize = 10 * 1024 * 1024
)

// ErrTooLarge is returned when a response body exceeds its size limit.
var ErrTooLarge = errors.New("response too large")

// StatusError is returned for non-200 responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// NewClient creates a hardened HTTP client with secure defaults.
// A zero timeout selects 30 seconds.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			DisableCompression:  false,
			MaxIdleConnsPerHost: 5,
		},
	}
}

// Get performs a GET request with browser-like headers and returns the
// open response. The caller closes the body.
func Get(ctx context.Context, client *http.Client, rawURL string, headers http.Header) (*http.Response, error) {
	req, err := newRequest(ctx, http.MethodGet, rawURL, nil, headers, acceptHTML)
	if err != nil {
		return nil, err
	}
	return client.Do(req)
}

// GetPage fetches an HTML or script resource and returns its body.
func GetPage(ctx context.Context, client *http.Client, rawURL string, headers http.Header) (string, error) {
	body, err := fetch(ctx, client, http.MethodGet, rawURL, nil, headers, acceptHTML, maxPageSize)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetJSON performs a GET request with a JSON accept header.
func GetJSON(ctx context.Context, client *http.Client, rawURL string, headers http.Header) ([]byte, error) {
	return fetch(ctx, client, http.MethodGet, rawURL, nil, headers, acceptJSON, maxJSONSize)
}

// PostForm sends form as an urlencoded POST body and returns the JSON response.
func PostForm(ctx context.Context, client *http.Client, rawURL string, form url.Values, headers http.Header) ([]byte, error) {
	h := headers.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	return fetch(ctx, client, http.MethodPost, rawURL, strings.NewReader(form.Encode()), h, acceptJSON, maxJSONSize)
}

func fetch(ctx context.Context, client *http.Client, method, rawURL string, body io.Reader, headers http.Header, accept string, limit int64) ([]byte, error) {
	req, err := newRequest(ctx, method, rawURL, body, headers, accept)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	data, err := ReadLimited(resp.Body, limit)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	return data, nil
}

// ReadLimited reads all of r, failing with ErrTooLarge once more than limit
// bytes arrive.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

func newRequest(ctx context.Context, method, rawURL string, body io.Reader, headers http.Header, accept string) (*http.Request, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, vs := range headers {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}
