// Package extract resolves a streaming-site page into the URL of its video file.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoVideo means the page did not expose a video source.
var ErrNoVideo = errors.New("no video source found")

// Extractor resolves a site page URL into a direct video URL.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) (string, error)
}

// Chain tries each extractor in order and returns the first URL found.
type Chain []Extractor

// Extract implements Extractor.
func (c Chain) Extract(ctx context.Context, pageURL string) (string, error) {
	var errs []string
	for _, e := range c {
		u, err := e.Extract(ctx, pageURL)
		if err == nil && u != "" {
			return u, nil
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	if len(errs) == 0 {
		return "", ErrNoVideo
	}
	return "", fmt.Errorf("%w: %s", ErrNoVideo, strings.Join(errs, "; "))
}
