package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/clearpath/voicedrop-go/pkg/audio/wav"
	"github.com/clearpath/voicedrop-go/pkg/batch"
	"github.com/clearpath/voicedrop-go/pkg/engine"
	"github.com/clearpath/voicedrop-go/pkg/version"
)

// settleDelay is how long a new file must stay unmodified before it is
// analyzed, so half-written uploads are not decoded mid-transfer.
const settleDelay = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and analyze recordings as they arrive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		analyzerName, _ := cmd.Flags().GetString("analyzer")

		logger := setupLogger()
		logger.Info("watching directory",
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
		eng, err := engine.New(cfg, engine.WithAnalyzer(analyzer), engine.WithLogger(logger))
		if err != nil {
			return err
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		defer watcher.Close()
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		// pending maps paths to their last write time; a file is analyzed
		// once it has settled.
		pending := make(map[string]time.Time)
		ticker := time.NewTicker(settleDelay / 2)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Info("watch stopped")
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				if !strings.EqualFold(filepath.Ext(event.Name), ".wav") {
					continue
				}
				pending[event.Name] = time.Now()

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Error("watch error", slog.String("error", err.Error()))

			case now := <-ticker.C:
				for path, last := range pending {
					if now.Sub(last) < settleDelay {
						continue
					}
					delete(pending, path)
					analyzeWatched(ctx, eng, path, logger)
				}
			}
		}
	},
}

func analyzeWatched(ctx context.Context, eng *engine.Engine, path string, logger *slog.Logger) {
	clip, err := wav.ReadFile(path)
	if err != nil {
		logger.Error("file skipped", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	decision, err := eng.Process(ctx, engine.Input{
		Samples:    clip.Samples,
		SampleRate: clip.SampleRate,
		Transcript: batch.SidecarTranscript(path),
	})
	if err != nil {
		logger.Error("file failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	out, _ := json.Marshal(struct {
		File string `json:"file"`
		engine.Decision
	}{File: filepath.Base(path), Decision: decision})
	fmt.Println(string(out))
}

func init() {
	watchCmd.Flags().String("config", "", "Path to engine tuning YAML")
	watchCmd.Flags().String("mode", "", "Fusion mode override (priority, weighted)")
	watchCmd.Flags().String("analyzer", "keyword", "Phrase analyzer (keyword, openai, none)")
}
