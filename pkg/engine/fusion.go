package engine

import (
	"time"

	"github.com/clearpath/voicedrop-go/pkg/detect"
	"github.com/clearpath/voicedrop-go/pkg/detect/phrase"
)

// signals is the set of detector outputs collected so far for one file.
// Any subset may be present; fusion must produce a sensible answer from
// whatever arrived.
type signals struct {
	beep    *detect.Event
	silence *detect.Event
	phrase  *phrase.Result
}

// phraseFired reports whether the phrase estimate counts as a signal.
func (s signals) phraseFired() bool {
	return s.phrase != nil && s.phrase.GreetingEnds
}

// methods lists the contributing detection kinds in reliability order.
func (s signals) methods() []string {
	var m []string
	if s.beep != nil {
		m = append(m, detect.KindBeep.String())
	}
	if s.silence != nil {
		m = append(m, detect.KindSilence.String())
	}
	if s.phraseFired() {
		m = append(m, detect.KindPhrase.String())
	}
	return m
}

// candidate is a provisional drop point produced by fusion, before the
// engine applies the absolute bounds.
type candidate struct {
	reason     Reason
	triggerAt  time.Duration // signal time, before the safety buffer
	buffer     time.Duration
	confidence float64
}

// fuse combines the collected signals into a candidate, or nil when the
// signals do not yet justify a trigger.
func (c Config) fuse(sig signals) *candidate {
	if c.FusionMode == FusionWeighted {
		return c.fuseWeighted(sig)
	}
	return c.fusePriority(sig)
}

// fusePriority picks the most reliable signal available: a beep means
// nothing before it was audible, silence means speech stopped, and a
// phrase estimate is advisory.
func (c Config) fusePriority(sig signals) *candidate {
	switch {
	case sig.beep != nil:
		return &candidate{
			reason:     ReasonBeep,
			triggerAt:  sig.beep.TriggerAt,
			buffer:     c.BufferAfterBeep(),
			confidence: sig.beep.Confidence,
		}
	case sig.silence != nil:
		return &candidate{
			reason:     ReasonSilence,
			triggerAt:  sig.silence.TriggerAt,
			buffer:     c.BufferAfterSilence(),
			confidence: sig.silence.Confidence,
		}
	case sig.phraseFired():
		return &candidate{
			reason:     ReasonPhrase,
			triggerAt:  sig.phrase.EstimatedEnd,
			buffer:     c.BufferAfterPhrase(),
			confidence: sig.phrase.Confidence,
		}
	default:
		return nil
	}
}

// fuseWeighted accumulates the weighted confidence of every fired signal
// and triggers once the sum crosses the threshold, at the time of the
// highest-weighted contributor.
func (c Config) fuseWeighted(sig signals) *candidate {
	type contribution struct {
		weight    float64
		reason    Reason
		triggerAt time.Duration
		buffer    time.Duration
	}

	var sum float64
	var contribs []contribution

	if sig.beep != nil {
		sum += c.Weights.Beep * sig.beep.Confidence
		contribs = append(contribs, contribution{c.Weights.Beep, ReasonBeep, sig.beep.TriggerAt, c.BufferAfterBeep()})
	}
	if sig.silence != nil {
		sum += c.Weights.Silence * sig.silence.Confidence
		contribs = append(contribs, contribution{c.Weights.Silence, ReasonSilence, sig.silence.TriggerAt, c.BufferAfterSilence()})
	}
	if sig.phraseFired() {
		sum += c.Weights.Phrase * sig.phrase.Confidence
		contribs = append(contribs, contribution{c.Weights.Phrase, ReasonPhrase, sig.phrase.EstimatedEnd, c.BufferAfterPhrase()})
	}

	if len(contribs) == 0 || sum < c.TriggerConfidence {
		return nil
	}

	// Highest weight wins; contribs is already in reliability order, so a
	// strict > keeps the more reliable signal on ties.
	best := contribs[0]
	for _, ct := range contribs[1:] {
		if ct.weight > best.weight {
			best = ct
		}
	}

	if sum > 1 {
		sum = 1
	}
	return &candidate{
		reason:     best.reason,
		triggerAt:  best.triggerAt,
		buffer:     best.buffer,
		confidence: sum,
	}
}
