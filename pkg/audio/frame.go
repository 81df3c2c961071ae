// Package audio provides the in-memory audio model for the drop engine:
// immutable fixed-duration frames and a restartable chunked streamer that
// simulates live arrival from a fully buffered recording.
package audio

import (
	"fmt"
	"time"
)

// Frame represents one fixed-duration slice of mono audio.
// Samples are normalized floats in [-1, 1]. All fields are immutable after
// creation; detectors must not retain or mutate the sample slice.
//
// Start is the offset of the first sample from the stream origin. The final
// frame of a stream may be shorter than the nominal frame size.
type Frame struct {
	Samples    []float64
	SampleRate int
	Start      time.Duration
}

// NewFrame creates a Frame and validates its parameters.
func NewFrame(samples []float64, sampleRate int, start time.Duration) (Frame, error) {
	if len(samples) == 0 {
		return Frame{}, fmt.Errorf("audio: frame has no samples")
	}
	if sampleRate <= 0 {
		return Frame{}, fmt.Errorf("audio: invalid sample rate %d", sampleRate)
	}
	return Frame{Samples: samples, SampleRate: sampleRate, Start: start}, nil
}

// Duration returns the time covered by this frame's samples.
func (f Frame) Duration() time.Duration {
	return time.Duration(float64(len(f.Samples)) / float64(f.SampleRate) * float64(time.Second))
}

// End returns the offset just past the last sample, i.e. Start + Duration.
func (f Frame) End() time.Duration {
	return f.Start + f.Duration()
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	samples := make([]float64, len(f.Samples))
	copy(samples, f.Samples)
	return Frame{Samples: samples, SampleRate: f.SampleRate, Start: f.Start}
}
