// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"soapmirror/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagListen    string
	flagMirrorURL string
	flagMediaDir  string
	flagPlayer    string
	flagCDPURL    string
	flagNtfyTopic string
	flagHeadless  bool
	flagDebug     bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "soapmirror",
	Short: "Watch streaming-site videos from a local mirror",
	Long: `soapmirror keeps a local mirror of the videos you watch on the site.
Opening a video page sends it to the mirror server, which downloads the video
and serves it back with a resumable player.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagListen, "listen", "", "Address the mirror server listens on (default :8918)")
	rootCmd.PersistentFlags().StringVar(&flagMirrorURL, "mirror-url", "", "Base URL clients use to reach the mirror server")
	rootCmd.PersistentFlags().StringVar(&flagMediaDir, "media-dir", "", "Directory the media library lives in")
	rootCmd.PersistentFlags().StringVar(&flagPlayer, "player", "", "Media player: mpv | vlc | iina | celluloid")
	rootCmd.PersistentFlags().StringVar(&flagCDPURL, "cdp-url", "", "Attach to a running Chrome at this DevTools URL")
	rootCmd.PersistentFlags().StringVar(&flagNtfyTopic, "ntfy-topic", "", "ntfy topic URL for download notifications")
	rootCmd.PersistentFlags().BoolVar(&flagHeadless, "headless", true, "Run Chrome without a window")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(downloadsCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagListen != "" {
		cfg.Listen = flagListen
	}
	if flagMirrorURL != "" {
		cfg.MirrorURL = flagMirrorURL
	}
	if flagMediaDir != "" {
		cfg.MediaDir = flagMediaDir
	}
	if flagPlayer != "" {
		cfg.Player = flagPlayer
	}
	if flagCDPURL != "" {
		cfg.CDPURL = flagCDPURL
	}
	if flagNtfyTopic != "" {
		cfg.NtfyTopic = flagNtfyTopic
	}
	if cmd.Flags().Changed("headless") {
		cfg.Headless = flagHeadless
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "soapmirror", Version)
	},
}
