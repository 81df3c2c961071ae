package silence

import (
	"math"
	"testing"
	"time"

	"github.com/clearpath/voicedrop-go/pkg/audio"
	"github.com/clearpath/voicedrop-go/pkg/detect"
)

const sampleRate = 16000

func testConfig() Config {
	return Config{
		Warmup:      2 * time.Second,
		MinSilence:  1500 * time.Millisecond,
		EnergyFloor: 0.01,
	}
}

// loudThenQuiet builds a buffer with loudDur of a 200Hz tone followed by
// quietDur of zeros.
func loudThenQuiet(loudDur, quietDur time.Duration) []float64 {
	loud := int(float64(sampleRate) * loudDur.Seconds())
	quiet := int(float64(sampleRate) * quietDur.Seconds())
	samples := make([]float64, loud+quiet)
	for i := 0; i < loud; i++ {
		samples[i] = 0.5 * math.Sin(2*math.Pi*200*float64(i)/sampleRate)
	}
	return samples
}

func feed(t *testing.T, d *Detector, samples []float64) *detect.Event {
	t.Helper()
	s, err := audio.NewStreamer(samples, sampleRate, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewStreamer() error = %v", err)
	}
	for i := 0; i < s.NumFrames(); i++ {
		ev, err := d.ProcessFrame(s.FrameAt(i))
		if err != nil && !detect.IsRecoverable(err) {
			t.Fatalf("ProcessFrame() error = %v", err)
		}
		if ev != nil {
			return ev
		}
	}
	return nil
}

func TestDetectsTrailingSilence(t *testing.T) {
	d, err := New(testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Speech for 2s, then 4s of silence. Warm-up ends at 2.0s, so quiet
	// time accumulates from 2.0s and crosses 1.5s at 3.5s.
	ev := feed(t, d, loudThenQuiet(2*time.Second, 4*time.Second))
	if ev == nil {
		t.Fatal("expected a silence event")
	}
	if ev.Kind != detect.KindSilence {
		t.Errorf("event kind = %v, want silence", ev.Kind)
	}
	got := ev.TriggerAt.Seconds()
	if got < 3.5 || got > 3.5+0.021 {
		t.Errorf("trigger at %.3fs, want ~3.5s", got)
	}
	if ev.Confidence < 0.4 || ev.Confidence > 1 {
		t.Errorf("confidence = %v out of expected range", ev.Confidence)
	}
}

func TestWarmupIgnoresLeadingSilence(t *testing.T) {
	d, err := New(testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Pure silence for 3s: only the 1s after warm-up counts, which is
	// below the 1.5s threshold. No event.
	if ev := feed(t, d, make([]float64, 3*sampleRate)); ev != nil {
		t.Errorf("unexpected event %+v during warm-up dominated buffer", ev)
	}
}

func TestBreathingPauseDoesNotTrigger(t *testing.T) {
	d, err := New(testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Speech, a 1s pause (below the 1.5s threshold), then more speech.
	samples := loudThenQuiet(3*time.Second, time.Second)
	tail := loudThenQuiet(2*time.Second, 0)
	samples = append(samples, tail...)

	if ev := feed(t, d, samples); ev != nil {
		t.Errorf("unexpected event %+v for mid-sentence pause", ev)
	}
}

func TestContiguousNotCumulative(t *testing.T) {
	d, err := New(testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Two separate 1s pauses sum to 2s but never 1.5s contiguous.
	samples := loudThenQuiet(3*time.Second, time.Second)
	samples = append(samples, loudThenQuiet(time.Second, time.Second)...)
	samples = append(samples, loudThenQuiet(time.Second, 0)...)

	if ev := feed(t, d, samples); ev != nil {
		t.Errorf("unexpected event %+v: pauses must be contiguous to count", ev)
	}
}

func TestHigherThresholdNeverTriggersEarlier(t *testing.T) {
	// Monotonicity: raising MinSilence can only move the trigger later
	// (or suppress it).
	buf := loudThenQuiet(2*time.Second, 6*time.Second)

	var last time.Duration
	for _, threshold := range []time.Duration{
		500 * time.Millisecond,
		1500 * time.Millisecond,
		3 * time.Second,
	} {
		cfg := testConfig()
		cfg.MinSilence = threshold
		d, err := New(cfg)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		ev := feed(t, d, buf)
		if ev == nil {
			t.Fatalf("expected event at threshold %v", threshold)
		}
		if ev.TriggerAt < last {
			t.Errorf("threshold %v triggered at %v, earlier than previous %v",
				threshold, ev.TriggerAt, last)
		}
		last = ev.TriggerAt
	}
}

func TestSpentAfterFirstTrigger(t *testing.T) {
	d, err := New(testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	samples := loudThenQuiet(2*time.Second, 8*time.Second)
	s, err := audio.NewStreamer(samples, sampleRate, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewStreamer() error = %v", err)
	}
	count := 0
	for i := 0; i < s.NumFrames(); i++ {
		ev, err := d.ProcessFrame(s.FrameAt(i))
		if err != nil {
			t.Fatalf("ProcessFrame() error = %v", err)
		}
		if ev != nil {
			count++
		}
	}
	if count != 1 {
		t.Errorf("got %d events, want exactly 1", count)
	}
}

func TestRMS(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Errorf("RMS(nil) = %v, want 0", got)
	}
	if got := RMS([]float64{0.5, -0.5, 0.5, -0.5}); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("RMS = %v, want 0.5", got)
	}
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative warmup", Config{Warmup: -1, MinSilence: time.Second, EnergyFloor: 0.01}},
		{"zero threshold", Config{EnergyFloor: 0.01}},
		{"zero floor", Config{MinSilence: time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("expected config error")
			}
		})
	}
}
