package redirector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"soapmirror/internal/httputil"
)

// maxPlayerResponse caps the GetPlayer body; answers are a URL or a short token.
const maxPlayerResponse = 64 * 1024

// Client talks to the companion mirror service.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the mirror service at base (e.g. "http://localhost:8918").
// A nil httpClient selects httputil.NewLocalClient.
func NewClient(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = httputil.NewLocalClient()
	}
	return &Client{base: strings.TrimRight(base, "/"), http: httpClient}
}

// Base returns the service base URL without a trailing slash.
func (c *Client) Base() string { return c.base }

// Ping issues GET /ping and returns the status code. The body is discarded.
func (c *Client) Ping(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/ping", nil)
	if err != nil {
		return 0, fmt.Errorf("creating ping request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// GetPlayer issues POST /GetPlayer with {"page": page} and returns the raw text body.
// The status code is not inspected: classification works on the text alone.
func (c *Client) GetPlayer(ctx context.Context, page string) (string, error) {
	body, err := json.Marshal(struct {
		Page string `json:"page"`
	}{Page: page})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/GetPlayer", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating GetPlayer request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting player: %w", err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(io.LimitReader(resp.Body, maxPlayerResponse))
	if err != nil {
		return "", fmt.Errorf("reading player response: %w", err)
	}
	return string(text), nil
}

// Alive reports whether a ping status means the service is up: 2xx or 304.
func Alive(status int) bool {
	return (status >= 200 && status < 300) || status == http.StatusNotModified
}
