package engine

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/clearpath/voicedrop-go/pkg/detect"
	"github.com/clearpath/voicedrop-go/pkg/detect/phrase"
	phrasefake "github.com/clearpath/voicedrop-go/pkg/detect/phrase/fake"
)

const sampleRate = 16000

// segment generators for synthetic greetings

func silenceBuf(dur time.Duration) []float64 {
	return make([]float64, int(float64(sampleRate)*dur.Seconds()))
}

func toneBuf(freq, amplitude float64, dur time.Duration) []float64 {
	n := int(float64(sampleRate) * dur.Seconds())
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return samples
}

// speechBuf approximates voiced audio: a low tone loud enough to stay above
// the silence floor but outside the beep band.
func speechBuf(dur time.Duration) []float64 {
	return toneBuf(200, 0.4, dur)
}

func concat(bufs ...[]float64) []float64 {
	var out []float64
	for _, b := range bufs {
		out = append(out, b...)
	}
	return out
}

func mustEngine(t *testing.T, cfg Config, opts ...Option) *Engine {
	t.Helper()
	e, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func process(t *testing.T, e *Engine, samples []float64) Decision {
	t.Helper()
	d, err := e.Process(context.Background(), Input{Samples: samples, SampleRate: sampleRate})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	return d
}

// Scenario A: silence then an 800Hz beep at 3.0s.
func TestBeepScenario(t *testing.T) {
	e := mustEngine(t, DefaultConfig())

	buf := concat(silenceBuf(3*time.Second), toneBuf(800, 0.8, 300*time.Millisecond),
		silenceBuf(1700*time.Millisecond))
	d := process(t, e, buf)

	if d.Reason != ReasonBeep {
		t.Fatalf("reason = %s, want %s", d.Reason, ReasonBeep)
	}
	// Tone sustained from 3.0s for beep_min_duration 0.15s, plus the
	// 0.1s post-beep buffer, with one frame of quantization slack.
	if d.DropAt < 3.25 || d.DropAt > 3.25+0.03 {
		t.Errorf("drop at %.2fs, want ~3.25s", d.DropAt)
	}
	if !d.Compliant {
		t.Error("beep decision should be compliant")
	}
	if len(d.Methods) == 0 || d.Methods[0] != "beep" {
		t.Errorf("methods = %v, want beep first", d.Methods)
	}
}

// Scenario B: speech for 2s then silence, no tone.
func TestSilenceScenario(t *testing.T) {
	e := mustEngine(t, DefaultConfig())

	buf := concat(speechBuf(2*time.Second), silenceBuf(4*time.Second))
	d := process(t, e, buf)

	if d.Reason != ReasonSilence {
		t.Fatalf("reason = %s, want %s", d.Reason, ReasonSilence)
	}
	// Silence accumulates from the 2.0s warm-up boundary, crosses the
	// 1.5s threshold at 3.5s, plus the 0.5s post-silence buffer.
	if d.DropAt < 4.0 || d.DropAt > 4.0+0.03 {
		t.Errorf("drop at %.2fs, want ~4.0s", d.DropAt)
	}
	if !d.Compliant {
		t.Error("silence decision should be compliant")
	}
}

// Scenario C: a 1s silent file, shorter than the minimum greeting length.
func TestShortFileFallsBackAtMinimum(t *testing.T) {
	e := mustEngine(t, DefaultConfig())

	d := process(t, e, silenceBuf(time.Second))

	if d.Reason != ReasonTimeout {
		t.Fatalf("reason = %s, want %s", d.Reason, ReasonTimeout)
	}
	if d.DropAt != 2.0 {
		t.Errorf("drop at %.2fs, want the 2.0s minimum greeting length", d.DropAt)
	}
	if d.Compliant {
		t.Error("low-confidence fallback must not be compliant")
	}
	if len(d.Methods) != 0 {
		t.Errorf("methods = %v, want empty for fallback", d.Methods)
	}
}

// Scenario D: phrase analyzer unreachable, no beep, energy never drops.
func TestUnreachableAnalyzerStillDecides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxGreetingLengthS = 4.0
	analyzer := phrasefake.NewUnavailable()
	e := mustEngine(t, cfg, WithAnalyzer(analyzer))

	d, err := e.Process(context.Background(), Input{
		Samples:    speechBuf(6 * time.Second),
		SampleRate: sampleRate,
		Transcript: "hello this greeting never ends",
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if d.Reason != ReasonTimeout {
		t.Fatalf("reason = %s, want %s", d.Reason, ReasonTimeout)
	}
	if d.DropAt != 4.0 {
		t.Errorf("drop at %.2fs, want forced fallback at the 4.0s maximum", d.DropAt)
	}
	if d.Details == nil || !d.Details.Degraded {
		t.Error("decision should be marked degraded when the analyzer is unavailable")
	}
}

func TestPhraseDecidesWhenSignalsSilent(t *testing.T) {
	analyzer := phrasefake.NewWithResult(phrase.Result{
		GreetingEnds:   true,
		EstimatedEnd:   4 * time.Second,
		Confidence:     0.85,
		MatchedPhrases: []string{"leave a message"},
	})
	e := mustEngine(t, DefaultConfig(), WithAnalyzer(analyzer))

	// Loud throughout, so neither signal detector fires within the file.
	d, err := e.Process(context.Background(), Input{
		Samples:    speechBuf(5 * time.Second),
		SampleRate: sampleRate,
		Transcript: "please leave a message",
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if d.Reason != ReasonPhrase {
		t.Fatalf("reason = %s, want %s", d.Reason, ReasonPhrase)
	}
	// Estimated end 4.0s + 0.5s phrase buffer.
	if d.DropAt != 4.5 {
		t.Errorf("drop at %.2fs, want 4.5s", d.DropAt)
	}
	if d.Details == nil || len(d.Details.MatchedPhrases) != 1 {
		t.Errorf("details = %+v, want matched phrases recorded", d.Details)
	}
}

func TestBeepBeatsSilenceWhenEarlier(t *testing.T) {
	// Beep at 2.2s; trailing silence would also satisfy the energy
	// detector later. The earlier beep must win.
	e := mustEngine(t, DefaultConfig())

	buf := concat(speechBuf(2200*time.Millisecond), toneBuf(1000, 0.8, 300*time.Millisecond),
		silenceBuf(5*time.Second))
	d := process(t, e, buf)

	if d.Reason != ReasonBeep {
		t.Errorf("reason = %s, want %s (beep earlier than silence)", d.Reason, ReasonBeep)
	}
}

func TestDropNeverExceedsAudioOrMaximum(t *testing.T) {
	// Silence triggers right at the end of the file; the buffer would
	// point past EOF and must be clamped back.
	cfg := DefaultConfig()
	e := mustEngine(t, cfg)

	buf := concat(speechBuf(2*time.Second), silenceBuf(1600*time.Millisecond))
	d := process(t, e, buf)

	total := 3.6
	if d.DropAt > total+float64(cfg.FrameDuration().Seconds()) {
		t.Errorf("drop at %.2fs exceeds audio length %.2fs", d.DropAt, total)
	}
	if d.DropAt > cfg.MaxGreetingLengthS {
		t.Errorf("drop at %.2fs exceeds maximum greeting length", d.DropAt)
	}
}

func TestEarlyTriggerClampedToMinimum(t *testing.T) {
	// A beep well before the minimum greeting length: the decision keeps
	// the beep reason but the timestamp is clamped, not biased.
	cfg := DefaultConfig()
	cfg.SilenceWarmupS = 0.5
	e := mustEngine(t, cfg)

	buf := concat(toneBuf(1000, 0.8, 300*time.Millisecond), speechBuf(3*time.Second))
	d := process(t, e, buf)

	if d.Reason != ReasonBeep {
		t.Fatalf("reason = %s, want %s", d.Reason, ReasonBeep)
	}
	if d.DropAt != cfg.MinGreetingLengthS {
		t.Errorf("drop at %.2fs, want clamped to the %.1fs minimum", d.DropAt, cfg.MinGreetingLengthS)
	}
}

func TestIdempotence(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	buf := concat(speechBuf(2*time.Second), silenceBuf(4*time.Second))

	first := process(t, e, buf)
	second := process(t, e, buf)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("decisions differ across identical runs:\n%+v\n%+v", first, second)
	}
}

func TestSilenceThresholdMonotonicity(t *testing.T) {
	buf := concat(speechBuf(2*time.Second), silenceBuf(8*time.Second))

	var last float64
	for _, threshold := range []float64{0.5, 1.5, 3.0} {
		cfg := DefaultConfig()
		cfg.SilenceThresholdS = threshold
		d := process(t, mustEngine(t, cfg), buf)
		if d.Reason != ReasonSilence {
			t.Fatalf("threshold %v: reason = %s, want silence", threshold, d.Reason)
		}
		if d.DropAt < last {
			t.Errorf("threshold %v dropped at %.2fs, earlier than %.2fs at a lower threshold",
				threshold, d.DropAt, last)
		}
		last = d.DropAt
	}
}

func TestWeightedModeNeedsCombinedConfidence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FusionMode = FusionWeighted

	// Silence alone contributes at most weight 0.3, below the 0.8
	// trigger threshold, so the file falls back at EOF.
	buf := concat(speechBuf(2*time.Second), silenceBuf(4*time.Second))
	d := process(t, mustEngine(t, cfg), buf)
	if d.Reason != ReasonTimeout {
		t.Errorf("reason = %s, want fallback when the weighted sum stays low", d.Reason)
	}

	// Adding a confident phrase estimate pushes the sum over a lowered
	// threshold; the highest-weighted contributor sets the time.
	cfg.TriggerConfidence = 0.3
	analyzer := phrasefake.NewWithResult(phrase.Result{
		GreetingEnds: true,
		EstimatedEnd: 3 * time.Second,
		Confidence:   0.9,
	})
	e := mustEngine(t, cfg, WithAnalyzer(analyzer))
	d, err := e.Process(context.Background(), Input{
		Samples:    buf,
		SampleRate: sampleRate,
		Transcript: "leave a message after the beep",
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if d.Reason != ReasonSilence && d.Reason != ReasonPhrase {
		t.Errorf("reason = %s, want a weighted trigger", d.Reason)
	}
	if len(d.Methods) < 1 {
		t.Errorf("methods = %v, want contributing methods listed", d.Methods)
	}
}

func TestInputErrors(t *testing.T) {
	e := mustEngine(t, DefaultConfig())

	if _, err := e.Process(context.Background(), Input{SampleRate: sampleRate}); err == nil {
		t.Error("expected error for empty buffer")
	}
	if _, err := e.Process(context.Background(), Input{Samples: silenceBuf(time.Second), SampleRate: 0}); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestCorruptedRegionEscalates(t *testing.T) {
	e := mustEngine(t, DefaultConfig())

	// NaN samples across several frames: each detector recovers per
	// frame, but three consecutive failures escalate to a file error.
	buf := speechBuf(3 * time.Second)
	for i := sampleRate; i < sampleRate+4*320; i++ {
		buf[i] = math.NaN()
	}

	_, err := e.Process(context.Background(), Input{Samples: buf, SampleRate: sampleRate})
	if err == nil {
		t.Fatal("expected fatal error for a corrupted region")
	}
	if !errors.Is(err, detect.ErrFatal) {
		t.Errorf("error = %v, want detect.ErrFatal", err)
	}
	if !strings.Contains(err.Error(), "consecutive") {
		t.Errorf("error %q should mention the consecutive failure streak", err)
	}
}

func TestSingleBadFrameRecovered(t *testing.T) {
	e := mustEngine(t, DefaultConfig())

	// One corrupted frame inside otherwise healthy audio must not fail
	// the file.
	buf := concat(speechBuf(2*time.Second), silenceBuf(4*time.Second))
	for i := sampleRate; i < sampleRate+320; i++ {
		buf[i] = math.NaN()
	}

	d := process(t, e, buf)
	if d.Reason != ReasonSilence {
		t.Errorf("reason = %s, want silence despite one bad frame", d.Reason)
	}
}

func TestCancellationAbandonsFile(t *testing.T) {
	analyzer := &phrasefake.Analyzer{Delay: time.Minute}
	e := mustEngine(t, DefaultConfig(), WithAnalyzer(analyzer))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Process(ctx, Input{
		Samples:    speechBuf(5 * time.Second),
		SampleRate: sampleRate,
		Transcript: "x",
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FusionMode = "vibes"
	if _, err := New(cfg); err == nil {
		t.Error("expected error for unknown fusion mode")
	}

	cfg = DefaultConfig()
	cfg.MaxGreetingLengthS = 1.0
	if _, err := New(cfg); err == nil {
		t.Error("expected error when max does not exceed min")
	}
}
