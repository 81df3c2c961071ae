package audio

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestStreamerFrameCoverage(t *testing.T) {
	tests := []struct {
		name       string
		numSamples int
		sampleRate int
		frameDur   time.Duration
		wantFrames int
		wantTail   int // samples in the final frame
	}{
		{
			name:       "exact multiple",
			numSamples: 16000,
			sampleRate: 16000,
			frameDur:   20 * time.Millisecond,
			wantFrames: 50,
			wantTail:   320,
		},
		{
			name:       "partial tail delivered",
			numSamples: 16100,
			sampleRate: 16000,
			frameDur:   20 * time.Millisecond,
			wantFrames: 51,
			wantTail:   100,
		},
		{
			name:       "buffer shorter than one frame",
			numSamples: 37,
			sampleRate: 16000,
			frameDur:   20 * time.Millisecond,
			wantFrames: 1,
			wantTail:   37,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStreamer(make([]float64, tt.numSamples), tt.sampleRate, tt.frameDur)
			if err != nil {
				t.Fatalf("NewStreamer() error = %v", err)
			}

			if got := s.NumFrames(); got != tt.wantFrames {
				t.Fatalf("NumFrames() = %d, want %d", got, tt.wantFrames)
			}

			total := 0
			for i := 0; i < s.NumFrames(); i++ {
				f := s.FrameAt(i)
				if want := time.Duration(i) * tt.frameDur; f.Start != want {
					t.Errorf("frame %d start = %v, want %v", i, f.Start, want)
				}
				total += len(f.Samples)
			}
			if total != tt.numSamples {
				t.Errorf("frames cover %d samples, want %d", total, tt.numSamples)
			}

			last := s.FrameAt(s.NumFrames() - 1)
			if len(last.Samples) != tt.wantTail {
				t.Errorf("tail frame has %d samples, want %d", len(last.Samples), tt.wantTail)
			}
		})
	}
}

func TestStreamerInvalidInput(t *testing.T) {
	if _, err := NewStreamer(nil, 16000, 20*time.Millisecond); err == nil {
		t.Error("expected error for empty buffer")
	}
	if _, err := NewStreamer(make([]float64, 100), 0, 20*time.Millisecond); err == nil {
		t.Error("expected error for zero sample rate")
	}
	if _, err := NewStreamer(make([]float64, 100), -8000, 20*time.Millisecond); err == nil {
		t.Error("expected error for negative sample rate")
	}
	if _, err := NewStreamer(make([]float64, 100), 16000, 0); err == nil {
		t.Error("expected error for zero frame duration")
	}
}

func TestStreamerRestartable(t *testing.T) {
	samples := make([]float64, 800)
	for i := range samples {
		samples[i] = math.Sin(float64(i) / 10)
	}
	s, err := NewStreamer(samples, 8000, 25*time.Millisecond)
	if err != nil {
		t.Fatalf("NewStreamer() error = %v", err)
	}

	collect := func() []Frame {
		var frames []Frame
		for f := range s.Frames(context.Background()) {
			frames = append(frames, f)
		}
		return frames
	}

	first := collect()
	second := collect()

	if len(first) != len(second) {
		t.Fatalf("pass lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Start != second[i].Start || len(first[i].Samples) != len(second[i].Samples) {
			t.Errorf("frame %d differs between passes", i)
		}
	}
}

func TestStreamerFramesCancellation(t *testing.T) {
	s, err := NewStreamer(make([]float64, 160000), 16000, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewStreamer() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Frames(ctx)
	<-ch
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("frame channel not closed after cancellation")
		}
	}
}

func TestFrameDuration(t *testing.T) {
	f, err := NewFrame(make([]float64, 320), 16000, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("NewFrame() error = %v", err)
	}
	if got := f.Duration(); got != 20*time.Millisecond {
		t.Errorf("Duration() = %v, want 20ms", got)
	}
	if got := f.End(); got != 120*time.Millisecond {
		t.Errorf("End() = %v, want 120ms", got)
	}
}
