package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"soapmirror/internal/httputil"
)

// FromHTML finds the video source in an already rendered player page.
// Relative sources are resolved against base.
func FromHTML(r io.Reader, base string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	var src string
	for _, sel := range []string{VideoSelector + "[src]", "video[src]", "video source[src]"} {
		src = strings.TrimSpace(doc.Find(sel).First().AttrOr("src", ""))
		if src != "" {
			break
		}
	}
	if src == "" || strings.HasPrefix(src, "blob:") {
		return "", ErrNoVideo
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return src, nil
	}
	ref, err := url.Parse(src)
	if err != nil {
		return "", fmt.Errorf("parsing video source %q: %w", src, err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}

// Static fetches the page over plain HTTP and reads the video source from
// the markup. It only works where the page embeds the video server-side.
type Static struct {
	client *http.Client
}

// NewStatic creates a Static extractor. A nil client selects httputil.NewClient.
func NewStatic(client *http.Client) *Static {
	if client == nil {
		client = httputil.NewClient()
	}
	return &Static{client: client}
}

// Extract implements Extractor.
func (s *Static) Extract(ctx context.Context, pageURL string) (string, error) {
	resp, err := httputil.Get(ctx, s.client, pageURL)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, pageURL)
	}
	return FromHTML(io.LimitReader(resp.Body, 10*1024*1024), pageURL)
}
