// Package browser drives a Chrome tab through chromedp and exposes it as a
// redirector.Page, with a Toastify-based notifier rendered inside the page.
package browser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chromedp/chromedp"
)

// Options configures how Chrome is reached.
type Options struct {
	Headless bool   // Run a local Chrome without a window
	CDPURL   string // Attach to an already running Chrome instead of launching one
}

// Browser owns a chromedp allocator and a browser context.
type Browser struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewAllocator returns a chromedp allocator context for opts. Chrome itself
// starts lazily, with the first tab opened on the context.
func NewAllocator(opts Options) (context.Context, context.CancelFunc) {
	if opts.CDPURL != "" {
		slog.Info("connecting to Chrome", "url", opts.CDPURL)
		return chromedp.NewRemoteAllocator(context.Background(), opts.CDPURL)
	}
	slog.Debug("using local Chrome", "headless", opts.Headless)
	return chromedp.NewExecAllocator(context.Background(), execOptions(opts.Headless)...)
}

// Start launches (or connects to) Chrome and opens the first tab.
func Start(opts Options) (*Browser, error) {
	allocCtx, allocCancel := NewAllocator(opts)

	ctx, cancel := chromedp.NewContext(allocCtx)
	// starts the browser
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("starting Chrome: %w", err)
	}
	return &Browser{allocCtx: allocCtx, allocCancel: allocCancel, ctx: ctx, cancel: cancel}, nil
}

// Tab returns the browser's first tab.
func (b *Browser) Tab() *Tab { return &Tab{ctx: b.ctx} }

// Done is closed when the browser goes away.
func (b *Browser) Done() <-chan struct{} { return b.ctx.Done() }

// Close shuts the tab and the browser down.
func (b *Browser) Close() {
	b.cancel()
	b.allocCancel()
}

func execOptions(headless bool) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
		chromedp.WindowSize(1366, 768),
	}
	if headless {
		opts = append(opts, chromedp.Headless)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	return opts
}
