// Package mirror is the companion HTTP service the redirector talks to. It
// resolves site pages to videos, downloads them into the local library and
// serves a player for them with resumable playback positions.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"soapmirror/internal/download"
	"soapmirror/internal/extract"
	"soapmirror/internal/media"
)

// Index is the persistent store the server reads and updates.
type Index interface {
	Lookup(ctx context.Context, origin string) (string, bool, error)
	Position(ctx context.Context, path string) (float64, error)
	SetPosition(ctx context.Context, path string, seconds float64) error
}

// Downloader starts and tracks library downloads.
type Downloader interface {
	Start(ctx context.Context, dlURL, origin string) (string, error)
	RemoteURL(libPath string) (string, bool)
	Snapshot() []media.Download
}

// Options configures a Server.
type Options struct {
	Addr      string
	SiteBase  string
	Library   download.Library
	Index     Index
	Downloads Downloader
	Extractor extract.Extractor
	Logger    *slog.Logger
}

// Server is the mirror HTTP service.
type Server struct {
	opts   Options
	logger *slog.Logger
	server *http.Server
}

// New creates a Server. Nothing listens until Run.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{opts: opts, logger: opts.Logger}
	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		// no WriteTimeout: video responses stream for as long as playback lasts
	}
	return s
}

// Handler returns the routing handler with CORS applied to every route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ping", methods(s.handlePing, http.MethodGet, http.MethodHead))
	mux.Handle("/GetPlayer", methods(s.handleGetPlayer, http.MethodPost))
	mux.Handle("/GetVideo", methods(s.handleGetVideo, http.MethodGet))
	mux.Handle("/GetVideoPlayer", methods(s.handleGetVideoPlayer, http.MethodPost))
	mux.Handle("/CachedVideo", methods(s.handleCachedVideo, http.MethodGet, http.MethodHead, http.MethodPost))
	mux.Handle("/SetCurrentTime", methods(s.handleSetCurrentTime, http.MethodPost))
	mux.Handle("/downloads", methods(s.handleDownloads, http.MethodGet))
	mux.Handle("/media/", methods(
		http.StripPrefix("/media/", http.FileServer(http.Dir(s.opts.Library.Root))).ServeHTTP,
		http.MethodGet, http.MethodHead))
	return cors(mux)
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("mirror listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mirror server listening", "address", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("mirror server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("mirror shutdown", "error", err)
	}
	s.logger.Info("mirror server stopped")
	return nil
}
