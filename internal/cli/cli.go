// Package cli wires the voicedrop commands: single-file analysis, batch
// processing, directory watching, and fixture synthesis.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/clearpath/voicedrop-go/pkg/engine"
	"github.com/clearpath/voicedrop-go/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "voicedrop",
	Short: "Voicemail drop timing analysis",
	Long: `voicedrop analyzes voicemail greeting recordings and decides the exact
moment a compliance message can start playing: after the beep, after the
greeting trails off, or at a conservative fallback point.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetVersionInfo())
	},
}

func setupLogger() *slog.Logger {
	logFormat := os.Getenv("VOICEDROP_LOG_FORMAT")
	logLevel := os.Getenv("VOICEDROP_LOG_LEVEL")

	opts := &slog.HandlerOptions{}
	switch logLevel {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	var handler slog.Handler
	if logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// loadEngineConfig resolves the engine tuning from the --config flag, or
// the defaults when no file is given.
func loadEngineConfig(cmd *cobra.Command) (engine.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg := engine.DefaultConfig()
	if path != "" {
		var err error
		cfg, err = engine.LoadConfig(path)
		if err != nil {
			return engine.Config{}, err
		}
	}
	if mode, _ := cmd.Flags().GetString("mode"); mode != "" {
		cfg.FusionMode = engine.FusionMode(mode)
		if err := cfg.Validate(); err != nil {
			return engine.Config{}, err
		}
	}
	return cfg, nil
}

func init() {
	rootCmd.AddCommand(versionCmd, analyzeCmd, batchCmd, watchCmd, synthCmd, pluginCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
