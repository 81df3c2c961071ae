// Package wav decodes greeting recordings into the mono float64 buffers the
// detection pipeline works on, and synthesizes WAV fixtures for testing.
package wav

import (
	"fmt"
	"math"
	"os"

	gowav "github.com/go-audio/wav"
)

// Clip is a decoded recording: mono samples normalized to [-1, 1].
type Clip struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the clip length in seconds.
func (c Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// ReadFile decodes a PCM WAV file to a mono clip. Stereo input is downmixed
// by averaging channels; sample values are scaled by the source bit depth.
func ReadFile(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("wav: %w", err)
	}
	defer f.Close()

	dec := gowav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("wav: decode %s: %w", path, err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return Clip{}, fmt.Errorf("wav: %s contains no audio data", path)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return Clip{}, fmt.Errorf("wav: %s reports %d channels", path, channels)
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int(1) << (bitDepth - 1))

	samples := make([]float64, 0, len(buf.Data)/channels)
	for i := 0; i+channels <= len(buf.Data); i += channels {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i+ch])
		}
		samples = append(samples, sum/float64(channels)/scale)
	}

	return Clip{Samples: samples, SampleRate: buf.Format.SampleRate}, nil
}

// Normalize scales the clip in place so its peak reaches the given target
// amplitude. Silent clips are left untouched.
func (c Clip) Normalize(target float64) {
	var peak float64
	for _, s := range c.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}
	gain := target / peak
	for i := range c.Samples {
		c.Samples[i] *= gain
	}
}
