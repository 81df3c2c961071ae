// Package fake provides a scripted phrase analyzer for offline tests.
package fake

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/clearpath/voicedrop-go/pkg/detect/phrase"
)

// Analyzer is a fake phrase.Analyzer that returns a fixed result or error,
// optionally after a delay to simulate a slow external service.
// The engine invokes analyzers from a separate goroutine, so the call
// counter is atomic.
type Analyzer struct {
	Result phrase.Result
	Err    error
	Delay  time.Duration

	calls atomic.Int32
}

// NewUnavailable creates an analyzer that always reports
// phrase.ErrUnavailable, simulating an unreachable external service.
func NewUnavailable() *Analyzer {
	return &Analyzer{Err: phrase.ErrUnavailable}
}

// NewWithResult creates an analyzer that always returns res.
func NewWithResult(res phrase.Result) *Analyzer {
	return &Analyzer{Result: res}
}

// Analyze returns the scripted result after the optional delay. The delay
// is interruptible by ctx, like a real network call.
func (a *Analyzer) Analyze(ctx context.Context, _ phrase.Request) (phrase.Result, error) {
	a.calls.Add(1)
	if a.Delay > 0 {
		select {
		case <-time.After(a.Delay):
		case <-ctx.Done():
			return phrase.Result{}, ctx.Err()
		}
	}
	if a.Err != nil {
		return phrase.Result{}, a.Err
	}
	return a.Result, nil
}

// Calls reports how many times Analyze was invoked.
func (a *Analyzer) Calls() int { return int(a.calls.Load()) }
