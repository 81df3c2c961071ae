// Package detect defines the detector contract shared by the drop engine's
// signal detectors. A detector consumes one frame at a time, keeps private
// running state, and emits at most one Event per file.
package detect

import (
	"time"

	"github.com/clearpath/voicedrop-go/pkg/audio"
)

// Kind identifies a detection method. The set is closed so the fusion
// engine can reason exhaustively about every kind.
type Kind int

const (
	KindBeep Kind = iota
	KindSilence
	KindPhrase
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBeep:
		return "beep"
	case KindSilence:
		return "silence"
	case KindPhrase:
		return "phrase"
	default:
		return "unknown"
	}
}

// Event is emitted by a detector when its internal condition is satisfied.
// Events are immutable once emitted and consumed exactly once by the
// fusion engine.
type Event struct {
	Kind       Kind
	TriggerAt  time.Duration // offset from stream origin
	Reason     string        // short human-readable justification
	Confidence float64       // 0.0 to 1.0
}

// Detector processes one frame per step and may emit an event.
// Implementations own their running state exclusively: state is reset by
// Reset at the start of each file, mutated only by ProcessFrame, and never
// shared. After the first emitted event a detector is spent and must
// return nil for the remainder of the file.
type Detector interface {
	// Kind returns the detection method this detector implements.
	Kind() Kind

	// ProcessFrame inspects one frame and returns a non-nil event the
	// first time the detector's condition is met. A recoverable error
	// means "no match this frame"; the caller decides when repeated
	// errors escalate.
	ProcessFrame(frame audio.Frame) (*Event, error)

	// Reset clears all running state so the detector can process a new file.
	Reset()
}
