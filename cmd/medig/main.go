// Command medig generates render-ready Instagram posts from medical news:
// structured zh-TW copy plus a square illustration composite and a
// comparison-table image.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/JerryShih01/MEDIG-8/internal/config"
)

var (
	// Global flags
	configPath string
	apiKey     string
	verbose    bool
	timeout    time.Duration

	// Loaded in PersistentPreRunE
	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "medig",
	Short: "MEDIG-8 - medical news Instagram post generator",
	Long: `MEDIG-8 turns recent medical news into render-ready Instagram posts.

It searches for candidate items with Gemini search grounding, writes
structured Traditional Chinese post copy for one selected item, draws a
pastel illustration, and renders two 1080x1080 PNG artifacts: a cover-fit
illustration composite and a comparison-table image.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if apiKey != "" {
			cfg.Gemini.APIKey = apiKey
		}
		if timeout > 0 {
			cfg.Gemini.Timeout = timeout.String()
		}

		zapCfg := zap.NewProductionConfig()
		if verbose || cfg.Logging.Level == "debug" {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "medig.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (overrides config and GEMINI_API_KEY)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "per-call backend timeout (e.g. 90s)")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(renderTableCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// parseDateRange parses the --from/--to flags shared by search and generate.
func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date %q (want YYYY-MM-DD)", fromStr)
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date %q (want YYYY-MM-DD)", toStr)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", toStr, fromStr)
	}
	return from, to, nil
}
