package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"soapmirror/internal/browser"
	"soapmirror/internal/redirector"
	"soapmirror/internal/ui"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <url>",
	Short: "Dry-run the redirect for a page and print where it would go",
	Args:  cobra.ExactArgs(1),
	RunE:  resolveRun,
}

func resolveRun(cmd *cobra.Command, args []string) error {
	page, err := browser.NewStaticPage(args[0], nil)
	if err != nil {
		return err
	}

	banner := redirector.NotifierFunc(func(_ context.Context, text string) error {
		_, err := fmt.Fprintln(cmd.ErrOrStderr(), ui.Banner(text))
		return err
	})

	res, err := newRedirector(banner, slog.Default()).Run(cmd.Context(), page)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch res {
	case redirector.Skipped:
		fmt.Fprintln(out, "Not a site page; nothing to do.")
	case redirector.NotEligible:
		fmt.Fprintln(out, "No video on this page.")
	case redirector.Redirected:
		fmt.Fprintln(out, page.Target())
	}
	return nil
}
