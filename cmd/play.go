package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"soapmirror/internal/download"
	"soapmirror/internal/player"
)

var flagStart string

var playCmd = &cobra.Command{
	Use:   "play <path>",
	Short: "Play a library video locally, resuming where it was left",
	Example: `  soapmirror play media/m/The.Film.2020.1080p.mp4
  soapmirror play t/Show.Name/S01E02.mp4 --start 12:30`,
	Args: cobra.ExactArgs(1),
	RunE: playRun,
}

func init() {
	playCmd.Flags().StringVar(&flagStart, "start", "", "Start position (H:MM:SS, M:SS or seconds) instead of the saved one")
}

func playRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	start := -1.0
	if flagStart != "" {
		var err error
		if start, err = player.ParsePosition(flagStart); err != nil {
			return err
		}
	}

	mediaDir, err := cfg.ExpandMediaDir()
	if err != nil {
		return err
	}
	lib := download.Library{Root: mediaDir}
	libPath := download.Normalize(args[0])
	if !lib.Exists(libPath) {
		return fmt.Errorf("%s is not in the library", libPath)
	}
	file, err := lib.Resolve(libPath)
	if err != nil {
		return err
	}

	p := player.New(cfg.Player)
	if !p.Available() {
		return fmt.Errorf("%s not found in PATH", p.Name())
	}

	store, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	pos, err := player.Resume(ctx, p, store, libPath, file, download.TitleOf(libPath), start)
	if err != nil {
		return err
	}
	if pos > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Stopped at", player.FormatPosition(pos))
	}
	return nil
}
