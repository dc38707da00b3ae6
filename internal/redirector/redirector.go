// Package redirector sends a streaming-site video page to a locally resolved
// playable URL.
//
// A Redirector checks the page belongs to the site, pings the companion
// mirror service, confirms the page is a video page, takes the page over and
// asks the service for the video. It then navigates the page there, or shows
// a toast when anything fails. Every failure is terminal for the attempt.
package redirector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// User-facing toast texts.
const (
	MsgServiceUnreachable = "Failed to connect to local mirror server, please ensure it is running!"
	MsgResolutionFailed   = "Failed to fetch video for this movie, please try again later."
)

var (
	// ErrServiceUnreachable means the ping failed or returned a non-success status.
	ErrServiceUnreachable = errors.New("mirror service unreachable")
	// ErrResolutionFailed means GetPlayer answered with nothing usable.
	ErrResolutionFailed = errors.New("video resolution failed")
)

// Location is the page's current host and path.
type Location struct {
	Host string
	Path string
}

// Page is the browser page being redirected.
type Page interface {
	// Location returns the page's current location.
	Location(ctx context.Context) (Location, error)

	// HasElement reports whether an element with the given id exists.
	HasElement(ctx context.Context, id string) (bool, error)

	// TakeOver replaces the page body with a loading indicator on a dark
	// full-screen background. It is not reversible.
	TakeOver(ctx context.Context) error

	// Navigate performs a full page navigation to url.
	Navigate(ctx context.Context, url string) error
}

// Result describes how a Run ended when it did not fail.
type Result int

const (
	// Skipped: the host is not one of the site's hosts.
	Skipped Result = iota
	// NotEligible: the host matched but the page has no video marker.
	NotEligible
	// Redirected: the page was sent to the resolved URL.
	Redirected
)

func (r Result) String() string {
	switch r {
	case Skipped:
		return "skipped"
	case NotEligible:
		return "not eligible"
	case Redirected:
		return "redirected"
	default:
		return "unknown"
	}
}

// Options configures a Redirector.
type Options struct {
	SiteHosts []string // Substrings identifying the site's hosts (case-sensitive)
	SiteBase  string   // Prefix joined with the page path, e.g. "https://soap2day.mx"
	MarkerID  string   // Element id present only on video pages
}

// Redirector runs the redirect flow for one page lifetime.
type Redirector struct {
	opts   Options
	client *Client
	toast  *Toaster
	logger *slog.Logger
}

// New creates a Redirector. The toaster should be dedicated to the page so
// its first-toast delay follows the page lifetime.
func New(opts Options, client *Client, toast *Toaster, logger *slog.Logger) *Redirector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redirector{opts: opts, client: client, toast: toast, logger: logger}
}

// Matches reports whether host contains one of the site's host substrings.
func (r *Redirector) Matches(host string) bool {
	for _, h := range r.opts.SiteHosts {
		if h != "" && strings.Contains(host, h) {
			return true
		}
	}
	return false
}

// Run performs one redirect attempt on page. Failures that the user is told
// about are returned wrapped in ErrServiceUnreachable or ErrResolutionFailed;
// other errors come from the page itself.
func (r *Redirector) Run(ctx context.Context, page Page) (Result, error) {
	loc, err := page.Location(ctx)
	if err != nil {
		return Skipped, fmt.Errorf("reading page location: %w", err)
	}
	if !r.Matches(loc.Host) {
		return Skipped, nil
	}

	status, err := r.client.Ping(ctx)
	if err != nil {
		r.logger.Error("failed to connect to mirror server", "url", r.client.Base(), "error", err)
		r.notify(ctx, MsgServiceUnreachable)
		return Skipped, fmt.Errorf("%w: %w", ErrServiceUnreachable, err)
	}
	if !Alive(status) {
		r.notify(ctx, MsgServiceUnreachable)
		return Skipped, fmt.Errorf("%w: ping status %d", ErrServiceUnreachable, status)
	}

	present, err := page.HasElement(ctx, r.opts.MarkerID)
	if err != nil {
		return Skipped, fmt.Errorf("checking for #%s: %w", r.opts.MarkerID, err)
	}
	if !present {
		r.logger.Debug("no video marker on page", "host", loc.Host, "path", loc.Path)
		return NotEligible, nil
	}

	if err := page.TakeOver(ctx); err != nil {
		return NotEligible, fmt.Errorf("taking over page: %w", err)
	}

	source := r.opts.SiteBase + loc.Path
	answer, err := r.client.GetPlayer(ctx, source)
	if err != nil {
		// Reported like an unusable answer so the page is not left on "Loading...".
		r.logger.Error("GetPlayer failed", "page", source, "error", err)
		r.notify(ctx, MsgResolutionFailed)
		return NotEligible, fmt.Errorf("%w: %w", ErrResolutionFailed, err)
	}

	target, ok := ResolveTarget(r.client.Base(), answer)
	if !ok {
		r.notify(ctx, MsgResolutionFailed)
		return NotEligible, fmt.Errorf("%w: unrecognised answer %q", ErrResolutionFailed, truncate(answer, 80))
	}

	r.logger.Info("redirecting", "page", source, "target", target)
	if err := page.Navigate(ctx, target); err != nil {
		return NotEligible, fmt.Errorf("navigating to %s: %w", target, err)
	}
	return Redirected, nil
}

func (r *Redirector) notify(ctx context.Context, text string) {
	if r.toast == nil {
		return
	}
	if err := r.toast.Notify(ctx, text); err != nil {
		r.logger.Warn("showing toast failed", "text", text, "error", err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
