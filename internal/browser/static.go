package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"soapmirror/internal/httputil"
	"soapmirror/internal/redirector"
)

// StaticPage is a redirector.Page backed by a plain HTTP fetch. It never
// changes anything; TakeOver does nothing and Navigate only records where the
// page would have gone.
type StaticPage struct {
	url    *url.URL
	client *http.Client

	mu     sync.Mutex
	doc    *goquery.Document
	target string
}

var _ redirector.Page = (*StaticPage)(nil)

// NewStaticPage creates a page for rawURL. A nil client selects httputil.NewClient.
func NewStaticPage(rawURL string, client *http.Client) (*StaticPage, error) {
	if err := httputil.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page URL: %w", err)
	}
	if client == nil {
		client = httputil.NewClient()
	}
	return &StaticPage{url: u, client: client}, nil
}

// Location implements redirector.Page.
func (p *StaticPage) Location(context.Context) (redirector.Location, error) {
	path := p.url.EscapedPath()
	if path == "" {
		path = "/"
	}
	return redirector.Location{Host: p.url.Host, Path: path}, nil
}

// HasElement implements redirector.Page. The document is fetched once.
func (p *StaticPage) HasElement(ctx context.Context, id string) (bool, error) {
	doc, err := p.document(ctx)
	if err != nil {
		return false, err
	}
	found := false
	doc.Find("[id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, _ := s.Attr("id"); v == id {
			found = true
		}
		return !found
	})
	return found, nil
}

// TakeOver implements redirector.Page.
func (p *StaticPage) TakeOver(context.Context) error { return nil }

// Navigate implements redirector.Page.
func (p *StaticPage) Navigate(_ context.Context, target string) error {
	p.mu.Lock()
	p.target = target
	p.mu.Unlock()
	return nil
}

// Target returns the URL passed to Navigate, if any.
func (p *StaticPage) Target() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target
}

func (p *StaticPage) document(ctx context.Context) (*goquery.Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.doc != nil {
		return p.doc, nil
	}

	resp, err := httputil.Get(ctx, p.client, p.url.String())
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching page: unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	p.doc = doc
	return doc, nil
}
