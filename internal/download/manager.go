// Package download fetches videos into the local media library.
// Downloads run in the background; a request that triggers one gets the
// library path back immediately so the player can stream the remote source
// until the file lands.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"soapmirror/internal/httputil"
	"soapmirror/internal/media"
)

const userAgent = httputil.UserAgent

// ErrHTMLBody means the server answered with a web page instead of a video.
var ErrHTMLBody = errors.New("download returned an HTML page")

// Indexer records finished downloads.
type Indexer interface {
	Add(ctx context.Context, origin, path string) error
}

// Notifier is told when a download finishes.
type Notifier interface {
	NotifyDownloadCompleted(ctx context.Context, title, path string) error
	NotifyDownloadFailed(ctx context.Context, title string, err error) error
}

// Manager runs downloads and tracks their progress.
type Manager struct {
	lib      Library
	client   *http.Client
	index    Indexer
	notifier Notifier
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	jobs map[string]*job // keyed by final library path
}

type job struct {
	plan      Plan
	id        string
	url       string
	origins   []string
	startedAt time.Time

	bytes atomic.Int64
	total atomic.Int64

	mu    sync.Mutex
	state media.DownloadState
	err   error
}

// Options configures a Manager. Only Library is required.
type Options struct {
	Library  Library
	Client   *http.Client
	Index    Indexer
	Notifier Notifier
	Logger   *slog.Logger
}

// NewManager creates a download manager.
func NewManager(opts Options) *Manager {
	if opts.Client == nil {
		opts.Client = httputil.NewStreamClient()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		lib:      opts.Library,
		client:   opts.Client,
		index:    opts.Index,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		ctx:      ctx,
		cancel:   cancel,
		jobs:     make(map[string]*job),
	}
}

// Start begins downloading dlURL for the site page origin and returns the
// library path the video will have. Nothing new is started when the file
// already exists or is being downloaded; origin is then indexed as another
// name for that file once it is complete. A partial file that no running job
// owns is left over from an earlier server and is discarded.
func (m *Manager) Start(ctx context.Context, dlURL, origin string) (string, error) {
	if err := httputil.ValidateURL(dlURL); err != nil {
		return "", fmt.Errorf("invalid download URL: %w", err)
	}
	plan, err := NewPlan(dlURL)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// origin is indexed when the running job finishes
	if j, ok := m.jobs[plan.Path]; ok && j.join(origin) {
		m.logger.Info("download already in progress", "path", plan.Path)
		return plan.Path, nil
	}

	if m.lib.Exists(plan.Path) {
		m.logger.Info("ignoring download (already exists)", "path", plan.Path)
		if origin != "" && m.index != nil {
			if err := m.index.Add(ctx, origin, plan.Path); err != nil {
				m.logger.Warn("indexing alias failed", "origin", origin, "error", err)
			}
		}
		return plan.Path, nil
	}

	if m.lib.Exists(plan.Partial) {
		partial, err := m.lib.Resolve(plan.Partial)
		if err != nil {
			return "", err
		}
		m.logger.Warn("removing stale partial download", "path", plan.Partial)
		if err := os.Remove(partial); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("removing stale partial: %w", err)
		}
	}

	j := &job{
		plan:      plan,
		id:        uuid.NewString(),
		url:       dlURL,
		startedAt: time.Now(),
		state:     media.DownloadRunning,
	}
	j.addOrigin(origin)
	m.jobs[plan.Path] = j

	m.logger.Info("starting download", "title", plan.Title, "type", plan.Type, "path", plan.Path, "id", j.id)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(j)
	}()

	return plan.Path, nil
}

// RemoteURL returns the source URL of a download that has not finished yet.
func (m *Manager) RemoteURL(libPath string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[Normalize(libPath)]
	if !ok || j.current() != media.DownloadRunning {
		return "", false
	}
	return j.url, true
}

// Snapshot returns the state of every download started by this manager,
// oldest first.
func (m *Manager) Snapshot() []media.Download {
	m.mu.Lock()
	out := make([]media.Download, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j.snapshot())
	}
	m.mu.Unlock()

	sort.Slice(out, func(a, b int) bool { return out[a].StartedAt.Before(out[b].StartedAt) })
	return out
}

// Shutdown cancels running downloads and waits for them to clean up.
func (m *Manager) Shutdown() {
	m.cancel()
	m.wg.Wait()
}

// Wait blocks until every started download has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) run(j *job) {
	err := m.fetch(j)
	if err == nil {
		err = m.finish(j)
	}

	j.mu.Lock()
	origins := append([]string(nil), j.origins...)
	if err != nil {
		j.state = media.DownloadFailed
		j.err = err
	} else {
		j.state = media.DownloadDone
	}
	j.mu.Unlock()

	ctx := context.WithoutCancel(m.ctx)
	if err != nil {
		m.logger.Error("download failed", "title", j.plan.Title, "path", j.plan.Path, "error", err)
		if m.notifier != nil {
			_ = m.notifier.NotifyDownloadFailed(ctx, j.plan.Title, err)
		}
		return
	}

	if m.index != nil {
		for _, origin := range origins {
			if err := m.index.Add(ctx, origin, j.plan.Path); err != nil {
				m.logger.Error("indexing download failed", "origin", origin, "error", err)
			}
		}
	}
	m.logger.Info("download completed", "title", j.plan.Title, "path", j.plan.Path,
		"elapsed", time.Since(j.startedAt).Round(time.Second))
	if m.notifier != nil {
		_ = m.notifier.NotifyDownloadCompleted(ctx, j.plan.Title, j.plan.Path)
	}
}

// fetch writes the video to its partial file, removing it on failure.
func (m *Manager) fetch(j *job) (err error) {
	partial, err := m.lib.Resolve(j.plan.Partial)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(partial), 0o755); err != nil {
		return fmt.Errorf("creating library dir: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(partial)
		}
	}()

	if j.plan.HLS {
		return remux(m.ctx, j.url, partial, j.plan.Title, io.Discard)
	}

	j.total.Store(m.contentLength(j.url))

	resp, err := httputil.Get(m.ctx, m.client, j.url)
	if err != nil {
		return fmt.Errorf("requesting video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, j.url)
	}
	if j.total.Load() <= 0 && resp.ContentLength > 0 {
		j.total.Store(resp.ContentLength)
	}

	out, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("creating %s: %w", partial, err)
	}

	pw := newProgressWriter(out, j, m.logger)
	_, copyErr := io.Copy(pw, resp.Body)
	closeErr := out.Close()
	if copyErr != nil {
		return fmt.Errorf("writing video: %w", copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing %s: %w", partial, closeErr)
	}

	if looksLikeHTML(pw.head()) {
		return ErrHTMLBody
	}
	return nil
}

// finish moves the partial file to its final name.
func (m *Manager) finish(j *job) error {
	partial, err := m.lib.Resolve(j.plan.Partial)
	if err != nil {
		return err
	}
	final, err := m.lib.Resolve(j.plan.Path)
	if err != nil {
		return err
	}
	if err := os.Rename(partial, final); err != nil {
		os.Remove(partial)
		return fmt.Errorf("renaming %s: %w", partial, err)
	}
	return nil
}

// contentLength asks for the size up front; 0 when the server won't say.
func (m *Manager) contentLength(url string) int64 {
	req, err := httputil.NewRequest(m.ctx, http.MethodHead, url)
	if err != nil {
		return 0
	}
	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Debug("HEAD failed", "url", url, "error", err)
		return 0
	}
	resp.Body.Close()

	n, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func looksLikeHTML(head []byte) bool {
	s := strings.ToLower(strings.TrimSpace(string(head)))
	return strings.HasPrefix(s, "<html") || strings.HasPrefix(s, "<!doctype html")
}

// join adds origin to a running job. It reports false once the job has
// finished, when its origins have already been indexed.
func (j *job) join(origin string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != media.DownloadRunning {
		return false
	}
	j.addOrigin(origin)
	return true
}

// addOrigin records another page served by this download. j.mu must be held.
func (j *job) addOrigin(origin string) {
	if origin != "" && !slices.Contains(j.origins, origin) {
		j.origins = append(j.origins, origin)
	}
}

func (j *job) current() media.DownloadState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *job) snapshot() media.Download {
	j.mu.Lock()
	defer j.mu.Unlock()
	d := media.Download{
		ID:        j.id,
		Title:     j.plan.Title,
		Type:      j.plan.Type,
		Path:      j.plan.Path,
		URL:       j.url,
		Origins:   slices.Clone(j.origins),
		Bytes:     j.bytes.Load(),
		Total:     j.total.Load(),
		State:     j.state,
		StartedAt: j.startedAt,
	}
	if j.err != nil {
		d.Error = j.err.Error()
	}
	return d
}
