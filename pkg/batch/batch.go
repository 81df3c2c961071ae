// Package batch runs the drop engine over many recordings with bounded
// parallelism. Files are isolated from each other: one corrupt recording
// yields one failed result, never an aborted batch.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clearpath/voicedrop-go/pkg/audio/wav"
	"github.com/clearpath/voicedrop-go/pkg/engine"
)

// DefaultConcurrency bounds parallel decoding and analysis per batch.
const DefaultConcurrency = 4

// FileResult is the outcome for a single recording. Exactly one of
// Decision and Err is meaningful.
type FileResult struct {
	Path     string
	Decision engine.Decision
	Err      error
	Elapsed  time.Duration
}

// Runner processes batches of WAV files through a shared engine.
type Runner struct {
	eng         *engine.Engine
	concurrency int
	logger      *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency bounds the number of files processed in parallel.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a Runner around an engine.
func NewRunner(eng *engine.Engine, opts ...Option) *Runner {
	r := &Runner{eng: eng, concurrency: DefaultConcurrency, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes every path and returns one result per input, in input
// order. Per-file failures are recorded in their result; the returned
// error is non-nil only when the context is cancelled before the batch
// completes.
func (r *Runner) Run(ctx context.Context, paths []string) ([]FileResult, error) {
	results := make([]FileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.processOne(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	return results, nil
}

func (r *Runner) processOne(ctx context.Context, path string) FileResult {
	start := time.Now()
	res := FileResult{Path: path}

	clip, err := wav.ReadFile(path)
	if err != nil {
		res.Err = err
		res.Elapsed = time.Since(start)
		r.logger.Error("file skipped", slog.String("path", path), slog.String("error", err.Error()))
		return res
	}

	decision, err := r.eng.Process(ctx, engine.Input{
		Samples:    clip.Samples,
		SampleRate: clip.SampleRate,
		Transcript: SidecarTranscript(path),
	})
	res.Elapsed = time.Since(start)
	if err != nil {
		res.Err = err
		r.logger.Error("file failed", slog.String("path", path), slog.String("error", err.Error()))
		return res
	}

	res.Decision = decision
	r.logger.Info("file decided",
		slog.String("path", path),
		slog.Float64("drop_s", decision.DropAt),
		slog.String("reason", string(decision.Reason)))
	return res
}

// SidecarTranscript loads the transcript next to a recording, if one
// exists: greeting.wav pairs with greeting.txt. Missing sidecars are normal
// and leave phrase analysis to work from an empty transcript.
func SidecarTranscript(wavPath string) string {
	txt := strings.TrimSuffix(wavPath, filepath.Ext(wavPath)) + ".txt"
	data, err := os.ReadFile(txt)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// ListWAVs returns the WAV files directly inside dir, sorted by name.
func ListWAVs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".wav") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
