// Package beep detects the sustained narrow-band tone a voicemail system
// plays at the end of its greeting. A single frame matching the target band
// is not enough: the match must persist for a configured duration, which
// rejects clicks and word-initial fricatives that momentarily concentrate
// energy near the target frequency.
package beep

import (
	"fmt"
	"math"
	"math/cmplx"
	"time"

	"github.com/mjibson/go-dsp/fft"

	"github.com/clearpath/voicedrop-go/pkg/audio"
	"github.com/clearpath/voicedrop-go/pkg/detect"
)

// minFrameSamples is the smallest frame the spectral analysis accepts.
// Shorter tail frames are reported as recoverable, not matched.
const minFrameSamples = 32

// Config tunes the tone detector.
type Config struct {
	TargetHz     float64       // center of the tone band
	ToleranceHz  float64       // accepted deviation either side of the target
	MinAmplitude float64       // normalized peak amplitude floor, 0..1
	MinDuration  time.Duration // required consecutive match duration
}

// Detector implements detect.Detector for machine-generated beeps.
type Detector struct {
	cfg Config

	matched   time.Duration // consecutive match duration so far
	triggered bool
}

// New creates a tone detector. The configuration is validated up front so a
// misconfigured detector fails at construction rather than mid-stream.
func New(cfg Config) (*Detector, error) {
	if cfg.TargetHz <= 0 {
		return nil, fmt.Errorf("beep: target frequency must be positive, got %v", cfg.TargetHz)
	}
	if cfg.ToleranceHz < 0 {
		return nil, fmt.Errorf("beep: tolerance must be non-negative, got %v", cfg.ToleranceHz)
	}
	if cfg.MinAmplitude <= 0 {
		return nil, fmt.Errorf("beep: amplitude floor must be positive, got %v", cfg.MinAmplitude)
	}
	if cfg.MinDuration <= 0 {
		return nil, fmt.Errorf("beep: minimum duration must be positive, got %v", cfg.MinDuration)
	}
	return &Detector{cfg: cfg}, nil
}

// Kind returns detect.KindBeep.
func (d *Detector) Kind() detect.Kind { return detect.KindBeep }

// Reset clears the sustain counter and re-arms the detector.
func (d *Detector) Reset() {
	d.matched = 0
	d.triggered = false
}

// ProcessFrame runs a magnitude spectrum over the frame, matches the peak
// bin against the configured band and floor, and emits a single event once
// the match has been sustained for MinDuration. The first event spends the
// detector: later beeps in the same file are ignored.
func (d *Detector) ProcessFrame(frame audio.Frame) (*detect.Event, error) {
	if d.triggered {
		return nil, nil
	}
	if len(frame.Samples) < minFrameSamples {
		return nil, detect.NewRecoverableError(nil,
			fmt.Sprintf("beep: frame of %d samples too short for spectrum", len(frame.Samples)))
	}

	// NaN propagates through the FFT but loses every magnitude comparison,
	// so corrupted frames must be rejected before the spectrum.
	for _, s := range frame.Samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, detect.NewRecoverableError(nil, "beep: non-finite samples")
		}
	}

	peakHz, peakAmp := peakFrequency(frame.Samples, frame.SampleRate)

	inBand := math.Abs(peakHz-d.cfg.TargetHz) <= d.cfg.ToleranceHz
	if !inBand || peakAmp < d.cfg.MinAmplitude {
		d.matched = 0
		return nil, nil
	}

	d.matched += frame.Duration()
	if d.matched < d.cfg.MinDuration {
		return nil, nil
	}

	d.triggered = true
	return &detect.Event{
		Kind:      detect.KindBeep,
		TriggerAt: frame.End(),
		Reason: fmt.Sprintf("sustained %.0fHz tone for %.2fs (amplitude %.3f)",
			peakHz, d.matched.Seconds(), peakAmp),
		Confidence: d.confidence(peakAmp),
	}, nil
}

// confidence scales with how far the peak clears the floor, capped at 1.
// A tone exactly at the floor scores 0.5; 20 dB above it scores 1.0.
func (d *Detector) confidence(peakAmp float64) float64 {
	headroomDB := 20 * math.Log10(peakAmp/d.cfg.MinAmplitude)
	conf := 0.5 + headroomDB/40
	if conf > 1 {
		conf = 1
	}
	if conf < 0.5 {
		conf = 0.5
	}
	return conf
}

// peakFrequency returns the frequency and normalized amplitude of the
// strongest bin in the frame's magnitude spectrum. Amplitude is normalized
// so a full-scale sine reports ~1.0 regardless of frame length.
func peakFrequency(samples []float64, sampleRate int) (hz, amplitude float64) {
	spectrum := fft.FFTReal(samples)
	n := len(samples)
	binWidth := float64(sampleRate) / float64(n)

	// Skip the DC bin; only the first half of the spectrum is unique.
	peakBin := 1
	peakMag := 0.0
	for i := 1; i <= n/2; i++ {
		mag := cmplx.Abs(spectrum[i])
		if mag > peakMag {
			peakMag = mag
			peakBin = i
		}
	}
	return float64(peakBin) * binWidth, 2 * peakMag / float64(n)
}
