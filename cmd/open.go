package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"soapmirror/internal/browser"
	"soapmirror/internal/redirector"
)

var openCmd = &cobra.Command{
	Use:   "open <url>",
	Short: "Open a site page in Chrome and send it to the mirror",
	Long: `Open launches Chrome on the page and runs the redirect: if the page is a
video page and the mirror server is up, the tab is sent to the mirror's
player. Problems are shown as a banner inside the page.`,
	Args: cobra.ExactArgs(1),
	RunE: openRun,
}

func openRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	logger := slog.Default()

	// a window is the point of this command unless asked otherwise
	headless := false
	if cmd.Flags().Changed("headless") {
		headless = flagHeadless
	}

	b, err := browser.Start(browser.Options{Headless: headless, CDPURL: cfg.CDPURL})
	if err != nil {
		return err
	}
	defer b.Close()

	tab := b.Tab()
	if err := tab.Open(ctx, args[0]); err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	if err := tab.Setup(ctx); err != nil {
		return fmt.Errorf("preparing page: %w", err)
	}

	r := newRedirector(browser.NewToast(tab), logger)
	res, err := r.Run(ctx, tab)
	switch {
	case errors.Is(err, redirector.ErrServiceUnreachable), errors.Is(err, redirector.ErrResolutionFailed):
		// already shown in the page
		logger.Error("redirect failed", "error", err)
	case err != nil:
		return err
	default:
		logger.Info("redirect finished", "result", res.String())
	}

	if headless {
		return nil
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Press Ctrl-C to close the browser.")
	select {
	case <-ctx.Done():
	case <-b.Done():
	}
	return nil
}

// newRedirector builds a redirector from the loaded configuration, showing
// messages through n.
func newRedirector(n redirector.Notifier, logger *slog.Logger) *redirector.Redirector {
	toaster := redirector.NewToaster(n, nil, cfg.NotifyDelay(), logger)
	return redirector.New(redirector.Options{
		SiteHosts: cfg.SiteHosts,
		SiteBase:  cfg.SiteBase,
		MarkerID:  cfg.MarkerID,
	}, redirector.NewClient(cfg.MirrorURL, nil), toaster, logger)
}
