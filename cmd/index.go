package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"soapmirror/internal/config"
	"soapmirror/internal/download"
	"soapmirror/internal/index"
	"soapmirror/internal/media"
	"soapmirror/internal/ui"
)

var indexCmd = &cobra.Command{
	Use:   "index [movies|tv]",
	Short: "List pages the mirror has videos for",
	Args:  cobra.MaximumNArgs(1),
	RunE:  indexRun,
}

var indexRmCmd = &cobra.Command{
	Use:   "rm [origin]",
	Short: "Forget a page (pick one with fzf when no origin is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  indexRmRun,
}

var indexPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Forget pages whose video file is gone",
	Args:  cobra.NoArgs,
	RunE:  indexPruneRun,
}

func init() {
	indexCmd.AddCommand(indexRmCmd)
	indexCmd.AddCommand(indexPruneCmd)
}

func openIndex(ctx context.Context) (*index.Store, error) {
	dataDir, err := config.DataDir()
	if err != nil {
		return nil, err
	}
	return index.Open(ctx, dataDir)
}

func indexRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		entries = filterByType(entries, parseMediaTypeArg(args))
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No index entries found.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", e.AddedAt.Local().Format("2006-01-02 15:04"), e.Path, e.Origin)
	}
	return nil
}

func indexRmRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	var origin string
	if len(args) == 1 {
		origin = args[0]
	} else {
		entries, err := store.List(ctx)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No index entries found.")
			return nil
		}
		items := make([]string, len(entries))
		for i, e := range entries {
			items[i] = download.TitleOf(e.Path) + "  " + e.Origin
		}
		idx, err := ui.Select(ctx, "Forget", items)
		if err != nil {
			return err
		}
		origin = entries[idx].Origin

		sure, err := ui.Confirm(ctx, "Forget "+download.TitleOf(entries[idx].Path)+"?")
		if err != nil {
			return err
		}
		if !sure {
			return nil
		}
	}

	if err := store.Remove(ctx, origin); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Removed", origin)
	return nil
}

func indexPruneRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	mediaDir, err := cfg.ExpandMediaDir()
	if err != nil {
		return err
	}
	removed, err := store.Prune(ctx, download.Library{Root: mediaDir}.Exists)
	if err != nil {
		return err
	}
	for _, e := range removed {
		fmt.Fprintln(cmd.OutOrStdout(), "Removed", e.Origin, e.Path)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d entries pruned.\n", len(removed))
	return nil
}

func parseMediaTypeArg(args []string) media.MediaType {
	if len(args) == 0 {
		return media.Movie // Default
	}
	switch strings.ToLower(args[0]) {
	case "tv", "shows", "series":
		return media.TV
	default:
		return media.Movie
	}
}

func filterByType(entries []media.IndexEntry, t media.MediaType) []media.IndexEntry {
	prefix := download.LibraryPrefix + t.Dir() + "/"
	var out []media.IndexEntry
	for _, e := range entries {
		if strings.HasPrefix(download.Normalize(e.Path), prefix) {
			out = append(out, e)
		}
	}
	return out
}
