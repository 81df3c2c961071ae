package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clearpath/voicedrop-go/pkg/audio/wav"
	"github.com/clearpath/voicedrop-go/pkg/batch"
	"github.com/clearpath/voicedrop-go/pkg/engine"
	"github.com/clearpath/voicedrop-go/pkg/version"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file.wav]",
	Short: "Decide the drop point for a single recording",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		analyzerName, _ := cmd.Flags().GetString("analyzer")
		transcript, _ := cmd.Flags().GetString("transcript")
		normalize, _ := cmd.Flags().GetBool("normalize")

		logger := setupLogger()
		logger.Info("analyzing recording",
			slog.String("service", "voicedrop"),
			slog.String("version", version.Version),
			slog.String("file", path))

		cfg, err := loadEngineConfig(cmd)
		if err != nil {
			return err
		}
		analyzer, err := buildAnalyzer(analyzerName, logger)
		if err != nil {
			return err
		}

		clip, err := wav.ReadFile(path)
		if err != nil {
			return err
		}
		if normalize {
			clip.Normalize(0.9)
		}
		if transcript == "" {
			transcript = batch.SidecarTranscript(path)
		}

		eng, err := engine.New(cfg, engine.WithAnalyzer(analyzer), engine.WithLogger(logger))
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		decision, err := eng.Process(ctx, engine.Input{
			Samples:    clip.Samples,
			SampleRate: clip.SampleRate,
			Transcript: transcript,
		})
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(decision)
	},
}

func init() {
	analyzeCmd.Flags().String("config", "", "Path to engine tuning YAML")
	analyzeCmd.Flags().String("mode", "", "Fusion mode override (priority, weighted)")
	analyzeCmd.Flags().String("analyzer", "keyword", "Phrase analyzer (keyword, openai, none)")
	analyzeCmd.Flags().String("transcript", "", "Greeting transcript (default: sidecar .txt)")
	analyzeCmd.Flags().Bool("normalize", false, "Peak-normalize audio before analysis")
}
