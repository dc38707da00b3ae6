package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Selectors on the site's player page.
const (
	PlayButtonSelector = ".btn-success"
	VideoSelector      = ".jw-video"
)

// Chrome opens the page in a headless browser tab, presses the play button
// and reads the video element's src once the player is ready.
type Chrome struct {
	alloc   context.Context
	timeout time.Duration
}

// NewChrome creates a Chrome extractor using the chromedp allocator context
// alloc (see chromedp.NewExecAllocator / NewRemoteAllocator). Each Extract
// runs in its own tab bounded by timeout.
func NewChrome(alloc context.Context, timeout time.Duration) *Chrome {
	return &Chrome{alloc: alloc, timeout: timeout}
}

// Extract implements Extractor.
func (c *Chrome) Extract(ctx context.Context, pageURL string) (string, error) {
	tabCtx, cancel := chromedp.NewContext(c.alloc)
	defer cancel()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.timeout)
	defer cancelTimeout()

	// the tab lives under the allocator, not the request
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var src string
	var ok bool
	if err := chromedp.Run(tabCtx, playerTasks(pageURL, &src, &ok)); err != nil {
		return "", fmt.Errorf("extracting video from %s: %w", pageURL, err)
	}
	if !ok || src == "" {
		return "", fmt.Errorf("%w on %s", ErrNoVideo, pageURL)
	}
	return src, nil
}

func playerTasks(pageURL string, src *string, ok *bool) chromedp.Tasks {
	return chromedp.Tasks{
		chromedp.Navigate(pageURL),
		chromedp.WaitEnabled(PlayButtonSelector),
		chromedp.Click(PlayButtonSelector),
		chromedp.WaitReady(VideoSelector, chromedp.ByQuery),
		chromedp.AttributeValue(VideoSelector, "src", src, ok, chromedp.ByQuery),
	}
}
