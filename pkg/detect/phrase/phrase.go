// Package phrase estimates where a greeting rhetorically ends from its
// transcript. Phrase analysis is advisory: it runs once per file, off the
// frame loop, and an unavailable analyzer must never block or fail the
// signal-based pipeline.
package phrase

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrUnavailable is returned when an analyzer cannot produce an estimate:
// service unreachable, quota exhausted, malformed response, or an empty
// transcript. Callers treat it as "no event", not as a failure.
var ErrUnavailable = errors.New("phrase: analyzer unavailable")

// Request carries the greeting context an analyzer works from.
type Request struct {
	Transcript string
	Duration   time.Duration // total greeting audio duration, if known
}

// Result is an analyzer's estimate of the greeting's rhetorical end.
type Result struct {
	GreetingEnds   bool          // the transcript reads like a finished greeting
	EstimatedEnd   time.Duration // when the greeting likely ends
	Confidence     float64       // 0.0 to 1.0
	MatchedPhrases []string      // trigger phrases found, if any
	BeepExpected   bool          // the greeting mentions a beep or tone
}

// Analyzer is the single capability the engine needs from a phrase
// detector. Implementations must be safe for concurrent use across files
// and must respect ctx for cancellation and per-call deadlines.
type Analyzer interface {
	// Analyze estimates the end of the greeting described by req.
	// Returns ErrUnavailable (possibly wrapped) when no estimate can be
	// produced; any other error is treated the same way by the engine.
	Analyze(ctx context.Context, req Request) (Result, error)
}

// triggerPhrases are fragments that conventionally close a voicemail
// greeting, longest variants first so the match report reads naturally.
var triggerPhrases = []string{
	"after the beep",
	"after the tone",
	"at the tone",
	"at the beep",
	"leave your message",
	"leave a message",
	"leave me a message",
	"leave message",
	"we will get back",
	"we'll get back",
	"get back to you",
	"return your call",
	"not available right now",
}

// KeywordAnalyzer is an offline analyzer that matches conventional
// end-of-greeting phrases in the transcript. It needs no external service
// and serves as the degraded-mode fallback for LLM-backed analyzers.
type KeywordAnalyzer struct{}

// NewKeywordAnalyzer creates a keyword-matching analyzer.
func NewKeywordAnalyzer() *KeywordAnalyzer { return &KeywordAnalyzer{} }

// Analyze scans the transcript for trigger phrases. With no transcript
// there is nothing to match and the analyzer reports unavailable.
func (a *KeywordAnalyzer) Analyze(_ context.Context, req Request) (Result, error) {
	transcript := strings.ToLower(strings.TrimSpace(req.Transcript))
	if transcript == "" {
		return Result{}, ErrUnavailable
	}

	var matched []string
	for _, p := range triggerPhrases {
		if strings.Contains(transcript, p) {
			matched = append(matched, p)
		}
	}
	beepExpected := strings.Contains(transcript, "beep") || strings.Contains(transcript, "tone")

	if len(matched) == 0 {
		return Result{BeepExpected: beepExpected}, nil
	}
	return Result{
		GreetingEnds:   true,
		EstimatedEnd:   req.Duration,
		Confidence:     0.7,
		MatchedPhrases: matched,
		BeepExpected:   beepExpected,
	}, nil
}

// Fallback chains analyzers: each is tried in order until one returns
// without error. It is how an LLM analyzer degrades to keyword matching
// when the service is unreachable.
type Fallback struct {
	analyzers []Analyzer
}

// NewFallback creates a chain over the given analyzers.
func NewFallback(analyzers ...Analyzer) *Fallback {
	return &Fallback{analyzers: analyzers}
}

// Analyze tries each analyzer in order. If all are unavailable the chain
// itself is unavailable. Context cancellation stops the chain immediately.
func (f *Fallback) Analyze(ctx context.Context, req Request) (Result, error) {
	err := ErrUnavailable
	for _, a := range f.analyzers {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		res, aerr := a.Analyze(ctx, req)
		if aerr == nil {
			return res, nil
		}
		err = aerr
	}
	return Result{}, err
}
