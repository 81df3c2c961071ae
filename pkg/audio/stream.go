package audio

import (
	"context"
	"fmt"
	"time"
)

// Streamer turns a fully buffered recording into an ordered sequence of
// fixed-duration frames, mimicking live arrival. The sequence covers the
// buffer with no gaps and no overlap; the final frame may be a partial tail
// and is still delivered. A Streamer is restartable: FrameAt is a pure
// function of the buffer, so the sequence can be walked any number of times.
type Streamer struct {
	samples       []float64
	sampleRate    int
	frameDuration time.Duration
	frameSize     int
}

// NewStreamer creates a Streamer over the given mono buffer.
// Fails only on an empty buffer, a non-positive sample rate, or a frame
// duration too short to hold a single sample.
func NewStreamer(samples []float64, sampleRate int, frameDuration time.Duration) (*Streamer, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("audio: empty buffer")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("audio: invalid sample rate %d", sampleRate)
	}
	frameSize := int(float64(sampleRate) * frameDuration.Seconds())
	if frameSize <= 0 {
		return nil, fmt.Errorf("audio: frame duration %v too short for sample rate %d", frameDuration, sampleRate)
	}
	return &Streamer{
		samples:       samples,
		sampleRate:    sampleRate,
		frameDuration: frameDuration,
		frameSize:     frameSize,
	}, nil
}

// SampleRate returns the stream's sample rate in Hz.
func (s *Streamer) SampleRate() int { return s.sampleRate }

// FrameDuration returns the nominal duration of one frame.
func (s *Streamer) FrameDuration() time.Duration { return s.frameDuration }

// Duration returns the total duration of the underlying buffer.
func (s *Streamer) Duration() time.Duration {
	return time.Duration(float64(len(s.samples)) / float64(s.sampleRate) * float64(time.Second))
}

// NumFrames returns the number of frames in the sequence, including the
// partial tail.
func (s *Streamer) NumFrames() int {
	return (len(s.samples) + s.frameSize - 1) / s.frameSize
}

// FrameAt returns frame i of the sequence. The frame's start time is
// i * FrameDuration. The returned frame aliases the underlying buffer;
// callers must treat it as read-only.
func (s *Streamer) FrameAt(i int) Frame {
	lo := i * s.frameSize
	hi := lo + s.frameSize
	if hi > len(s.samples) {
		hi = len(s.samples)
	}
	return Frame{
		Samples:    s.samples[lo:hi],
		SampleRate: s.sampleRate,
		Start:      time.Duration(i) * s.frameDuration,
	}
}

// Frames delivers the sequence on a channel, stopping early if ctx is
// cancelled. The channel is closed after the last frame. Each call starts a
// fresh pass over the buffer.
func (s *Streamer) Frames(ctx context.Context) <-chan Frame {
	out := make(chan Frame)
	go func() {
		defer close(out)
		for i := 0; i < s.NumFrames(); i++ {
			select {
			case out <- s.FrameAt(i):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
