// Package notifications tells the user about finished downloads via ntfy.
// When no topic is configured the service is a no-op.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const userAgent = "soapmirror/1"

// Service is the notification surface used by the download manager.
type Service interface {
	NotifyDownloadCompleted(ctx context.Context, title, path string) error
	NotifyDownloadFailed(ctx context.Context, title string, err error) error
}

// NewService returns an ntfy-backed service publishing to topic (a full
// ntfy topic URL), or a noop service when topic is empty.
func NewService(topic string, client *http.Client) Service {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return noopService{}
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ntfyService{endpoint: topic, client: client}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyDownloadCompleted(ctx context.Context, title, path string) error {
	return n.send(ctx, payload{
		title:   "soapmirror - Download complete",
		message: fmt.Sprintf("Ready to watch: %s\nFile: %s", strings.TrimSpace(title), path),
		tags:    []string{"soapmirror", "download", "completed"},
	})
}

func (n *ntfyService) NotifyDownloadFailed(ctx context.Context, title string, err error) error {
	msg := fmt.Sprintf("Download failed: %s", strings.TrimSpace(title))
	if err != nil {
		msg += "\n" + err.Error()
	}
	return n.send(ctx, payload{
		title:    "soapmirror - Download failed",
		message:  msg,
		tags:     []string{"soapmirror", "download", "error"},
		priority: "high",
	})
}

func (n *ntfyService) send(ctx context.Context, p payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(p.message))
	if err != nil {
		return fmt.Errorf("ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if p.title != "" {
		req.Header.Set("Title", p.title)
	}
	if len(p.tags) > 0 {
		req.Header.Set("Tags", strings.Join(p.tags, ","))
	}
	if p.priority != "" {
		req.Header.Set("Priority", p.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("ntfy send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy send: unexpected status %s", resp.Status)
	}
	return nil
}

type noopService struct{}

func (noopService) NotifyDownloadCompleted(context.Context, string, string) error { return nil }
func (noopService) NotifyDownloadFailed(context.Context, string, error) error     { return nil }
