package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clearpath/voicedrop-go/pkg/batch"
	"github.com/clearpath/voicedrop-go/pkg/engine"
	"github.com/clearpath/voicedrop-go/pkg/report"
	"github.com/clearpath/voicedrop-go/pkg/version"
)

var batchCmd = &cobra.Command{
	Use:   "batch [directory]",
	Short: "Process every WAV file in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		analyzerName, _ := cmd.Flags().GetString("analyzer")
		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		logger := setupLogger()
		logger.Info("starting batch",
			slog.String("service", "voicedrop"),
			slog.String("version", version.Version),
			slog.String("directory", dir))

		cfg, err := loadEngineConfig(cmd)
		if err != nil {
			return err
		}
		analyzer, err := buildAnalyzer(analyzerName, logger)
		if err != nil {
			return err
		}
		reporter, err := buildReporter(format)
		if err != nil {
			return err
		}

		paths, err := batch.ListWAVs(dir)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no WAV files in %s", dir)
		}

		eng, err := engine.New(cfg, engine.WithAnalyzer(analyzer), engine.WithLogger(logger))
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		runner := batch.NewRunner(eng, batch.WithConcurrency(concurrency), batch.WithLogger(logger))
		results, err := runner.Run(ctx, paths)
		if err != nil {
			return err
		}

		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			if err := report.WriteJSON(f, report.NewDocument(results)); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			logger.Info("results written", slog.String("path", outPath))
		}

		return reporter.Write(os.Stdout, results)
	},
}

func init() {
	batchCmd.Flags().String("config", "", "Path to engine tuning YAML")
	batchCmd.Flags().String("mode", "", "Fusion mode override (priority, weighted)")
	batchCmd.Flags().String("analyzer", "keyword", "Phrase analyzer (keyword, openai, none)")
	batchCmd.Flags().String("format", "table", "Output format (table, json)")
	batchCmd.Flags().String("out", "", "Also write a JSON results document to this path")
	batchCmd.Flags().Int("concurrency", batch.DefaultConcurrency, "Files processed in parallel")
}
