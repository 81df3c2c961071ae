package engine

// Reason is the machine-readable justification for a drop decision.
type Reason string

const (
	ReasonBeep    Reason = "beep_detected"
	ReasonSilence Reason = "silence_timeout"
	ReasonPhrase  Reason = "phrase_detected"
	ReasonTimeout Reason = "timeout_fallback"
)

// Details carries the per-method evidence behind a decision, for
// compliance auditing.
type Details struct {
	BeepConfidence    float64  `json:"beep_confidence,omitempty"`
	SilenceConfidence float64  `json:"silence_confidence,omitempty"`
	PhraseConfidence  float64  `json:"phrase_confidence,omitempty"`
	MatchedPhrases    []string `json:"matched_phrases,omitempty"`

	// Degraded is set when the phrase analyzer was configured but
	// unavailable, so the decision rests on signal detectors alone.
	Degraded bool `json:"degraded,omitempty"`
}

// Decision is the engine's final output for one audio file: when to start
// the compliance message and why. Created exactly once per file; never
// mutated afterwards.
//
// DropAt always satisfies the absolute bounds: it is at least the minimum
// greeting length and never past the maximum, and a non-fallback decision
// never points past the end of the audio.
type Decision struct {
	DropAt     float64  `json:"drop_timestamp"` // seconds from stream origin
	Reason     Reason   `json:"reason"`
	Methods    []string `json:"contributing_methods"` // empty for fallback decisions
	Confidence float64  `json:"confidence"`
	Compliant  bool     `json:"compliant"`
	Details    *Details `json:"details,omitempty"`
}
