// Package httputil provides hardened HTTP clients and input sanitization utilities.
package httputil

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"
)

// UserAgent is sent on every request to the streaming site and its CDNs.
const UserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/121.0"

// NewClient creates a hardened HTTP client with secure defaults for remote hosts.
func NewClient() *http.Client {
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: newTransport(),
	}
}

// NewStreamClient is NewClient without an overall deadline, for bodies that
// take longer than any fixed timeout to arrive (video files). Callers bound
// it with a context.
func NewStreamClient() *http.Client {
	return &http.Client{Transport: newTransport()}
}

// NewLocalClient talks to the companion service. It applies no timeout: a
// hung service hangs the caller until its context is cancelled.
func NewLocalClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               nil,
			MaxIdleConns:        2,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: 2,
		},
	}
}

func newTransport() *http.Transport {
	return &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		Proxy:               http.ProxyFromEnvironment,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        10,
		IdleConnTimeout:     30 * time.Second,
		DisableCompression:  false,
		MaxIdleConnsPerHost: 5,
	}
}

// NewRequest builds a request carrying standard browser-like headers.
func NewRequest(ctx context.Context, method, url string) (*http.Request, error) {
	if err := ValidateURL(url); err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	return req, nil
}

// Get performs a GET request with standard browser-like headers.
func Get(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := NewRequest(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	return client.Do(req)
}
