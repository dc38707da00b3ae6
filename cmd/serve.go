package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"soapmirror/internal/browser"
	"soapmirror/internal/config"
	"soapmirror/internal/download"
	"soapmirror/internal/extract"
	"soapmirror/internal/index"
	"soapmirror/internal/mirror"
	"soapmirror/internal/notifications"
)

const lockFile = "soapmirror.lock"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mirror server",
	Args:  cobra.NoArgs,
	RunE:  serveRun,
}

func serveRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	logger := slog.Default()

	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	lock := flock.New(filepath.Join(dataDir, lockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another soapmirror server is already running")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release lock", "error", err)
		}
	}()

	mediaDir, err := cfg.ExpandMediaDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		return fmt.Errorf("creating media dir: %w", err)
	}
	lib := download.Library{Root: mediaDir}

	store, err := index.Open(ctx, dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	// files from earlier versions lived next to the binary's working directory
	if cwd, err := os.Getwd(); err == nil {
		entries, positions, err := store.ImportLegacy(ctx, cwd, lib)
		if err != nil {
			logger.Warn("importing legacy index failed", "dir", cwd, "error", err)
		} else if entries+positions > 0 {
			logger.Info("imported legacy index", "entries", entries, "positions", positions)
		}
	}

	stopPrune, err := schedulePrune(ctx, store, lib, cfg.PruneSchedule, logger)
	if err != nil {
		return err
	}
	defer stopPrune()

	mgr := download.NewManager(download.Options{
		Library:  lib,
		Index:    store,
		Notifier: notifications.NewService(cfg.NtfyTopic, nil),
		Logger:   logger.With("component", "download"),
	})
	defer mgr.Shutdown()

	allocCtx, allocCancel := browser.NewAllocator(browser.Options{Headless: cfg.Headless, CDPURL: cfg.CDPURL})
	defer allocCancel()

	srv := mirror.New(mirror.Options{
		Addr:      cfg.Listen,
		SiteBase:  cfg.SiteBase,
		Library:   lib,
		Index:     store,
		Downloads: mgr,
		Extractor: extract.Chain{
			extract.NewStatic(nil),
			extract.NewChrome(allocCtx, cfg.ExtractTimeout()),
		},
		Logger: logger.With("component", "mirror"),
	})

	logger.Info("starting mirror", "listen", cfg.Listen, "media_dir", mediaDir, "data_dir", dataDir)
	return srv.Run(ctx)
}

// schedulePrune drops index entries whose files were deleted, once now and
// then on schedule. An empty schedule only prunes at startup.
func schedulePrune(ctx context.Context, store *index.Store, lib download.Library, schedule string, logger *slog.Logger) (func(), error) {
	prune := func() {
		removed, err := store.Prune(ctx, lib.Exists)
		if err != nil {
			logger.Warn("pruning index failed", "error", err)
			return
		}
		for _, e := range removed {
			logger.Info("removed stale index entry", "origin", e.Origin, "path", e.Path)
		}
	}
	prune()

	if schedule == "" {
		return func() {}, nil
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, prune); err != nil {
		return nil, fmt.Errorf("scheduling prune: %w", err)
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}
