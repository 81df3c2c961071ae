package wav

import (
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
)

// Synth builds a mono sample buffer segment by segment. It exists for test
// fixtures and the synth command: a voicemail greeting is close enough to a
// low hum, a gap, and a tone that the detectors cannot tell the difference.
type Synth struct {
	sampleRate int
	samples    []float64
}

// NewSynth creates an empty synthesizer at the given sample rate.
func NewSynth(sampleRate int) *Synth {
	return &Synth{sampleRate: sampleRate}
}

// SampleRate returns the synthesizer's sample rate.
func (s *Synth) SampleRate() int { return s.sampleRate }

// Samples returns the accumulated buffer.
func (s *Synth) Samples() []float64 { return s.samples }

// Tone appends a sine of the given frequency and amplitude.
func (s *Synth) Tone(freq, amplitude, seconds float64) *Synth {
	n := int(float64(s.sampleRate) * seconds)
	start := len(s.samples)
	for i := 0; i < n; i++ {
		t := float64(start+i) / float64(s.sampleRate)
		s.samples = append(s.samples, amplitude*math.Sin(2*math.Pi*freq*t))
	}
	return s
}

// Silence appends zero samples.
func (s *Synth) Silence(seconds float64) *Synth {
	n := int(float64(s.sampleRate) * seconds)
	s.samples = append(s.samples, make([]float64, n)...)
	return s
}

// Speech appends a crude voiced-speech stand-in: a low fundamental with a
// wobbling harmonic, loud enough to clear any sensible energy floor.
func (s *Synth) Speech(seconds float64) *Synth {
	n := int(float64(s.sampleRate) * seconds)
	start := len(s.samples)
	for i := 0; i < n; i++ {
		t := float64(start+i) / float64(s.sampleRate)
		v := 0.3*math.Sin(2*math.Pi*180*t) + 0.15*math.Sin(2*math.Pi*300*t+math.Sin(2*math.Pi*3*t))
		s.samples = append(s.samples, v)
	}
	return s
}

// Noise appends uniform noise at the given amplitude, seeded for
// reproducible fixtures.
func (s *Synth) Noise(amplitude, seconds float64, seed int64) *Synth {
	rng := rand.New(rand.NewSource(seed))
	n := int(float64(s.sampleRate) * seconds)
	for i := 0; i < n; i++ {
		s.samples = append(s.samples, amplitude*(2*rng.Float64()-1))
	}
	return s
}

// WriteFile encodes the accumulated buffer as 16-bit mono PCM.
func (s *Synth) WriteFile(path string) error {
	return WriteFile(path, s.samples, s.sampleRate)
}

// WriteFile encodes float64 samples as a 16-bit mono PCM WAV file. Samples
// outside [-1, 1] are clipped.
func WriteFile(path string, samples []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("wav: invalid sample rate %d", sampleRate)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	defer f.Close()

	enc := gowav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(samples)),
	}
	for i, v := range samples {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		buf.Data[i] = int(math.Round(v * 32767))
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav: encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav: finalize %s: %w", path, err)
	}
	return f.Close()
}
