// Package silence infers the end of a greeting from sustained low energy.
// RMS amplitude is a cheap proxy for perceived loudness; requiring a
// contiguous run below the floor separates a finished greeting from the
// short pauses inside a sentence, and the warm-up gate keeps a quiet lead-in
// before the greeting starts from counting as silence.
package silence

import (
	"fmt"
	"math"
	"time"

	"github.com/clearpath/voicedrop-go/pkg/audio"
	"github.com/clearpath/voicedrop-go/pkg/detect"
)

// Config tunes the energy detector.
type Config struct {
	Warmup      time.Duration // frames starting before this offset are ignored
	MinSilence  time.Duration // required contiguous sub-floor duration
	EnergyFloor float64       // RMS amplitude below which a frame is silent
}

// Detector implements detect.Detector for end-of-speech silence.
type Detector struct {
	cfg Config

	quiet     time.Duration // contiguous sub-floor duration so far
	triggered bool
}

// New creates an energy detector.
func New(cfg Config) (*Detector, error) {
	if cfg.Warmup < 0 {
		return nil, fmt.Errorf("silence: warmup must be non-negative, got %v", cfg.Warmup)
	}
	if cfg.MinSilence <= 0 {
		return nil, fmt.Errorf("silence: minimum silence must be positive, got %v", cfg.MinSilence)
	}
	if cfg.EnergyFloor <= 0 {
		return nil, fmt.Errorf("silence: energy floor must be positive, got %v", cfg.EnergyFloor)
	}
	return &Detector{cfg: cfg}, nil
}

// Kind returns detect.KindSilence.
func (d *Detector) Kind() detect.Kind { return detect.KindSilence }

// Reset clears the silence accumulator and re-arms the detector.
func (d *Detector) Reset() {
	d.quiet = 0
	d.triggered = false
}

// ProcessFrame measures the frame's RMS amplitude and accumulates contiguous
// sub-floor time. Frames starting inside the warm-up window are ignored
// entirely: they neither accumulate nor reset. The first time the
// accumulator reaches MinSilence an event is emitted and the detector is
// spent for the rest of the file.
func (d *Detector) ProcessFrame(frame audio.Frame) (*detect.Event, error) {
	if d.triggered {
		return nil, nil
	}
	if frame.Start < d.cfg.Warmup {
		return nil, nil
	}
	if len(frame.Samples) == 0 {
		return nil, detect.NewRecoverableError(nil, "silence: empty frame")
	}

	rms := RMS(frame.Samples)
	if math.IsNaN(rms) {
		return nil, detect.NewRecoverableError(nil, "silence: non-finite samples")
	}

	if rms >= d.cfg.EnergyFloor {
		d.quiet = 0
		return nil, nil
	}

	d.quiet += frame.Duration()
	if d.quiet < d.cfg.MinSilence {
		return nil, nil
	}

	d.triggered = true
	return &detect.Event{
		Kind:      detect.KindSilence,
		TriggerAt: frame.End(),
		Reason: fmt.Sprintf("energy below %.4f for %.2fs", d.cfg.EnergyFloor,
			d.quiet.Seconds()),
		Confidence: d.confidence(),
	}, nil
}

// confidence grows with the accumulated quiet time relative to twice the
// threshold, so a bare threshold crossing scores 0.5.
func (d *Detector) confidence() float64 {
	conf := d.quiet.Seconds() / (2 * d.cfg.MinSilence.Seconds())
	if conf > 1 {
		conf = 1
	}
	return conf
}

// RMS returns the root-mean-square amplitude of the samples.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}
