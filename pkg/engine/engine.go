// Package engine decides when a callback system may start playing its
// compliance message into a voicemail greeting. Audio is streamed frame by
// frame through independent signal detectors (tone, energy) while an
// optional phrase analyzer runs once off the frame loop; a fusion policy
// combines whatever signals arrive into exactly one Decision per file.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/clearpath/voicedrop-go/pkg/audio"
	"github.com/clearpath/voicedrop-go/pkg/detect"
	"github.com/clearpath/voicedrop-go/pkg/detect/beep"
	"github.com/clearpath/voicedrop-go/pkg/detect/phrase"
	"github.com/clearpath/voicedrop-go/pkg/detect/silence"
)

const (
	// maxErrorStreak is how many consecutive recoverable detector errors
	// escalate to a file-level failure. A single bad frame never aborts a
	// file; a run of them indicates corrupted input.
	maxErrorStreak = 3

	// fallbackConfidence is assigned to timeout fallback decisions, low
	// enough to fail the default compliance threshold.
	fallbackConfidence = 0.25
)

// Input is one audio file's worth of work: a decoded mono buffer plus
// optional greeting metadata for phrase analysis.
type Input struct {
	Samples    []float64
	SampleRate int
	Transcript string
}

// processing state machine, per file
type state int

const (
	stateWarmup state = iota
	stateListening
	stateTriggered
)

// Engine processes files one at a time. A single Engine is safe for
// concurrent use across files: all per-file state lives in Process, and
// the only shared resource is the phrase analyzer, which must itself be
// concurrency-safe.
type Engine struct {
	cfg      Config
	analyzer phrase.Analyzer
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithAnalyzer attaches a phrase analyzer. Without one the engine runs on
// signal detectors alone.
func WithAnalyzer(a phrase.Analyzer) Option {
	return func(e *Engine) { e.analyzer = a }
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine with the given tuning. The configuration is
// validated here so every later Process call works from a known-good value.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// phraseOutcome carries the one-shot analyzer result across the goroutine
// boundary.
type phraseOutcome struct {
	res phrase.Result
	err error
}

// Process runs the full pipeline over one file and returns its Decision.
// Input errors (empty buffer, bad sample rate) and fatal detector streaks
// fail the file; an unavailable phrase analyzer never does. If ctx is
// cancelled mid-stream the file is abandoned with an error, not reported
// as a Decision.
func (e *Engine) Process(ctx context.Context, in Input) (Decision, error) {
	if len(in.Samples) == 0 {
		return Decision{}, fmt.Errorf("engine: empty audio buffer")
	}
	if in.SampleRate <= 0 {
		return Decision{}, fmt.Errorf("engine: invalid sample rate %d", in.SampleRate)
	}

	stream, err := audio.NewStreamer(in.Samples, in.SampleRate, e.cfg.FrameDuration())
	if err != nil {
		return Decision{}, fmt.Errorf("engine: %w", err)
	}
	duration := stream.Duration()

	beepDet, err := beep.New(beep.Config{
		TargetHz:     e.cfg.BeepTargetHz,
		ToleranceHz:  e.cfg.BeepToleranceHz,
		MinAmplitude: e.cfg.BeepMinAmplitude,
		MinDuration:  e.cfg.BeepMinDuration(),
	})
	if err != nil {
		return Decision{}, err
	}
	silenceDet, err := silence.New(silence.Config{
		Warmup:      e.cfg.SilenceWarmup(),
		MinSilence:  e.cfg.SilenceThreshold(),
		EnergyFloor: e.cfg.SilenceEnergyFloor,
	})
	if err != nil {
		return Decision{}, err
	}

	// Dispatch the phrase analysis once per file, off the frame loop. Its
	// result is merged only if it lands before a terminal decision.
	var phraseCh chan phraseOutcome
	if e.analyzer != nil {
		phraseCh = make(chan phraseOutcome, 1)
		pctx, pcancel := context.WithTimeout(ctx, e.cfg.PhraseTimeout())
		defer pcancel()
		go func() {
			res, aerr := e.analyzer.Analyze(pctx, phrase.Request{
				Transcript: in.Transcript,
				Duration:   duration,
			})
			phraseCh <- phraseOutcome{res: res, err: aerr}
		}()
	}

	var sig signals
	degraded := false
	phraseDone := phraseCh == nil
	streaks := make(map[detect.Kind]int)

	st := stateWarmup
	if e.cfg.SilenceWarmup() <= 0 {
		st = stateListening
	}

	var decided *candidate

	for i := 0; i < stream.NumFrames() && decided == nil; i++ {
		if ctx.Err() != nil {
			return Decision{}, fmt.Errorf("engine: file abandoned at %v: %w",
				stream.FrameAt(i).Start, ctx.Err())
		}
		frame := stream.FrameAt(i)

		if st == stateWarmup && frame.Start >= e.cfg.SilenceWarmup() {
			st = stateListening
		}

		if err := e.step(beepDet, frame, &sig.beep, streaks, sig); err != nil {
			return Decision{}, err
		}
		if err := e.step(silenceDet, frame, &sig.silence, streaks, sig); err != nil {
			return Decision{}, err
		}

		if !phraseDone {
			select {
			case out := <-phraseCh:
				phraseDone = true
				e.mergePhrase(out, &sig, &degraded)
			default:
			}
		}

		// Detector events raised during warm-up are held, not dropped:
		// fusion sees them on the LISTENING transition and the bounds
		// clamp any early trigger up to the minimum greeting length.
		if st == stateListening {
			if cand := e.cfg.fuse(sig); cand != nil {
				decided = cand
				st = stateTriggered
				break
			}
		}

		if frame.End() >= e.cfg.MaxGreeting() {
			e.logger.Warn("max greeting length reached, forcing fallback",
				slog.Float64("max_s", e.cfg.MaxGreetingLengthS))
			return e.fallback(e.cfg.MaxGreeting(), sig, degraded), nil
		}
	}

	// End of stream with no trigger: the phrase analysis is no longer
	// racing the frame loop, so wait out the in-flight call before
	// falling back. The call is already bounded by its own timeout.
	if decided == nil && !phraseDone {
		select {
		case out := <-phraseCh:
			e.mergePhrase(out, &sig, &degraded)
		case <-time.After(e.cfg.PhraseTimeout()):
			degraded = true
		case <-ctx.Done():
			return Decision{}, fmt.Errorf("engine: file abandoned at end of stream: %w", ctx.Err())
		}
	}
	if decided == nil {
		decided = e.cfg.fuse(sig)
	}
	if decided == nil {
		return e.fallback(duration, sig, degraded), nil
	}
	return e.finalize(decided, sig, duration, degraded), nil
}

// step advances one detector by one frame, tracking consecutive
// recoverable errors and capturing the detector's first event.
func (e *Engine) step(d detect.Detector, frame audio.Frame, slot **detect.Event, streaks map[detect.Kind]int, sig signals) error {
	ev, err := d.ProcessFrame(frame)
	if err != nil {
		if !detect.IsRecoverable(err) {
			return fmt.Errorf("engine: %s detector failed at %v (signals so far: %v): %w",
				d.Kind(), frame.Start, sig.methods(), err)
		}
		streaks[d.Kind()]++
		if streaks[d.Kind()] >= maxErrorStreak {
			return fmt.Errorf("engine: %s detector failed %d consecutive frames ending at %v (signals so far: %v): %w",
				d.Kind(), streaks[d.Kind()], frame.Start, sig.methods(), detect.ErrFatal)
		}
		e.logger.Debug("detector frame skipped",
			slog.String("detector", d.Kind().String()),
			slog.String("error", err.Error()))
		return nil
	}
	streaks[d.Kind()] = 0
	if ev != nil && *slot == nil {
		*slot = ev
		e.logger.Info("detector fired",
			slog.String("detector", ev.Kind.String()),
			slog.Float64("trigger_s", ev.TriggerAt.Seconds()),
			slog.String("reason", ev.Reason))
	}
	return nil
}

// mergePhrase folds the analyzer outcome into the signal set. Unavailable
// is degraded mode, logged and otherwise ignored.
func (e *Engine) mergePhrase(out phraseOutcome, sig *signals, degraded *bool) {
	if out.err != nil {
		*degraded = true
		e.logger.Warn("phrase analysis unavailable, continuing signal-only",
			slog.String("error", out.err.Error()))
		return
	}
	res := out.res
	sig.phrase = &res
	if res.GreetingEnds {
		e.logger.Info("phrase analyzer fired",
			slog.Float64("estimated_end_s", res.EstimatedEnd.Seconds()),
			slog.Float64("confidence", res.Confidence))
	}
}

// finalize applies the safety buffer and the absolute bounds to a fused
// candidate. A trigger is clamped into the audio and then into
// [MinGreeting, MaxGreeting]; the minimum wins over everything else.
func (e *Engine) finalize(c *candidate, sig signals, duration time.Duration, degraded bool) Decision {
	drop := c.triggerAt + c.buffer
	if drop > duration {
		drop = duration
	}
	if drop > e.cfg.MaxGreeting() {
		drop = e.cfg.MaxGreeting()
	}
	if drop < e.cfg.MinGreeting() {
		drop = e.cfg.MinGreeting()
	}

	return Decision{
		DropAt:     roundSeconds(drop),
		Reason:     c.reason,
		Methods:    sig.methods(),
		Confidence: round2(c.confidence),
		Compliant:  true,
		Details:    newDetails(sig, degraded),
	}
}

// fallback produces the low-confidence decision used when no detector
// fired: at end of file, or forced at the maximum greeting length.
func (e *Engine) fallback(at time.Duration, sig signals, degraded bool) Decision {
	drop := at
	if drop > e.cfg.MaxGreeting() {
		drop = e.cfg.MaxGreeting()
	}
	if drop < e.cfg.MinGreeting() {
		drop = e.cfg.MinGreeting()
	}

	return Decision{
		DropAt:     roundSeconds(drop),
		Reason:     ReasonTimeout,
		Methods:    []string{},
		Confidence: fallbackConfidence,
		Compliant:  fallbackConfidence >= e.cfg.ComplianceConfidence,
		Details:    newDetails(sig, degraded),
	}
}

// newDetails collects per-method evidence, or nil when there is none.
func newDetails(sig signals, degraded bool) *Details {
	d := &Details{Degraded: degraded}
	any := degraded
	if sig.beep != nil {
		d.BeepConfidence = round2(sig.beep.Confidence)
		any = true
	}
	if sig.silence != nil {
		d.SilenceConfidence = round2(sig.silence.Confidence)
		any = true
	}
	if sig.phrase != nil {
		d.PhraseConfidence = round2(sig.phrase.Confidence)
		d.MatchedPhrases = sig.phrase.MatchedPhrases
		any = true
	}
	if !any {
		return nil
	}
	return d
}

func roundSeconds(d time.Duration) float64 { return round2(d.Seconds()) }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
