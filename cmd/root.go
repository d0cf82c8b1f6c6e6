// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"sitegrab/internal/config"
	"sitegrab/internal/extract"
	"sitegrab/internal/httputil"
	"sitegrab/internal/logger"
)

// Version is set at build time via ldflags.
var Version = "dev"

// configDownloadDir is the value of a bare --download flag.
const configDownloadDir = "download_dir"

// Global flags
var (
	flagDownload string
	flagPlayer   string
	flagJSON     bool
	flagSelect   bool
	flagLimit    int
	flagDebug    bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sitegrab [url]",
	Short: "Resolve media pages to playable streams from the terminal",
	Long: `sitegrab resolves pages from ThisVid, CozyTV and the Cisco Live on-demand
library into media descriptors, then prints them, plays them with mpv/vlc or
downloads them with ffmpeg.`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: loadConfig,
	RunE:              extractRun,
	SilenceUsage:      true,
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDownload, "download", "d", "", "Download to path instead of playing (bare -d: download_dir)")
	rootCmd.PersistentFlags().Lookup("download").NoOptDefVal = configDownloadDir
	rootCmd.PersistentFlags().StringVar(&flagPlayer, "player", "", "Media player: mpv | vlc | iina | celluloid")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Output descriptors as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagSelect, "select", "s", false, "Pick one playlist entry with fzf")
	rootCmd.PersistentFlags().IntVarP(&flagLimit, "limit", "n", 0, "Stop a playlist after N entries (0: all)")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(extractorsCmd)
	rootCmd.AddCommand(keystreamCmd)
	rootCmd.AddCommand(descrambleCmd)
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
	if flagPlayer != "" {
		cfg.Player = flagPlayer
	}
	if flagDebug {
		cfg.Debug = true
	}
	if flagLimit < 0 {
		return fmt.Errorf("--limit cannot be negative")
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Debug, "")
	slog.Debug("config loaded", "player", cfg.Player, "page_size", cfg.PageSize, "search_rate", cfg.SearchRate)

	return nil
}

// newRegistry builds the extractor registry from the loaded configuration.
func newRegistry() *extract.Registry {
	return extract.NewRegistry(extractOptions(cfg))
}

func extractOptions(c *config.Config) extract.Options {
	return extract.Options{
		Client:       httputil.NewClient(c.RequestTimeout()),
		Logger:       slog.Default(),
		UserAgent:    c.UserAgent,
		MaxRedirects: c.MaxRedirects,
		CiscoLive: extract.CiscoLiveOptions{
			ProfileID:  c.CiscoLive.ProfileID,
			WidgetID:   c.CiscoLive.WidgetID,
			TokensURL:  c.CiscoLive.TokensURL,
			PageSize:   c.PageSize,
			SearchRate: c.SearchRate,
		},
	}
}
