package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"soapmirror/internal/httputil"
	"soapmirror/internal/ui"
)

var flagOnce bool

var downloadsCmd = &cobra.Command{
	Use:   "downloads",
	Short: "Watch the mirror server's downloads",
	Args:  cobra.NoArgs,
	RunE:  downloadsRun,
}

func init() {
	downloadsCmd.Flags().BoolVar(&flagOnce, "once", false, "Print the current downloads and exit")
}

func downloadsRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	fetch := ui.DownloadsFetcher(httputil.NewLocalClient(), cfg.MirrorURL)

	if flagOnce || !ui.IsTerminal(os.Stdout) {
		items, err := fetch(ctx)
		if err != nil {
			return err
		}
		ui.PrintDownloads(cmd.OutOrStdout(), items)
		return nil
	}
	return ui.RunMonitor(ctx, fetch)
}
