// Package openai implements a phrase analyzer backed by an OpenAI chat
// model. Every failure mode (network error, quota, malformed or
// schema-violating response) maps to phrase.ErrUnavailable so the engine
// degrades to signal-only detection instead of failing the file.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/clearpath/voicedrop-go/pkg/detect/phrase"
)

const (
	// DefaultModel balances latency and transcript comprehension.
	DefaultModel = "gpt-4o-mini"
	// DefaultTimeout bounds each analysis call so an unresponsive service
	// cannot stall end-of-file fallback decisions.
	DefaultTimeout = 10 * time.Second
)

const systemPrompt = `You analyze voicemail greeting transcripts. Decide whether the greeting is ending and when. Respond with ONLY a JSON object:
{"greeting_ends": true/false, "estimated_end_s": <seconds>, "confidence": <0..1>, "matched_phrases": ["..."], "beep_expected": true/false}
Trigger phrases include "after the beep", "leave a message", "at the tone" and similar.`

// client is the subset of the OpenAI API the analyzer uses; narrowed for
// testing without a live service.
type client interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Analyzer implements phrase.Analyzer against the OpenAI chat API.
// Safe for concurrent use across files; the underlying client reuses
// connections.
type Analyzer struct {
	client  client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithModel overrides the chat model.
func WithModel(model string) Option {
	return func(a *Analyzer) { a.model = model }
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.timeout = d }
}

// WithLogger sets the logger for degraded-mode reporting.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// withClient substitutes the API client; used by tests.
func withClient(c client) Option {
	return func(a *Analyzer) { a.client = c }
}

// New creates an analyzer using the OPENAI_API_KEY environment variable.
// Returns an error only when no key is configured; runtime failures are
// reported as phrase.ErrUnavailable from Analyze.
func New(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		model:   DefaultModel,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.client == nil {
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("openai: OPENAI_API_KEY not set")
		}
		a.client = openai.NewClient(apiKey)
	}
	return a, nil
}

// response is the JSON schema the model is asked to produce.
type response struct {
	GreetingEnds   bool     `json:"greeting_ends"`
	EstimatedEndS  float64  `json:"estimated_end_s"`
	Confidence     float64  `json:"confidence"`
	MatchedPhrases []string `json:"matched_phrases"`
	BeepExpected   bool     `json:"beep_expected"`
}

// Analyze asks the model where the greeting ends. Any transport or schema
// problem is logged at Warn and reported as phrase.ErrUnavailable.
func (a *Analyzer) Analyze(ctx context.Context, req phrase.Request) (phrase.Result, error) {
	transcript := strings.TrimSpace(req.Transcript)
	if transcript == "" {
		return phrase.Result{}, phrase.ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	user := fmt.Sprintf("Transcript: %q\nAudio duration: %.2f seconds", transcript, req.Duration.Seconds())
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0,
	})
	if err != nil {
		a.logger.Warn("phrase analysis degraded: completion failed", slog.String("error", err.Error()))
		return phrase.Result{}, fmt.Errorf("%w: %v", phrase.ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		a.logger.Warn("phrase analysis degraded: no completion choices")
		return phrase.Result{}, phrase.ErrUnavailable
	}

	parsed, err := parseResponse(resp.Choices[0].Message.Content)
	if err != nil {
		a.logger.Warn("phrase analysis degraded: bad response", slog.String("error", err.Error()))
		return phrase.Result{}, fmt.Errorf("%w: %v", phrase.ErrUnavailable, err)
	}

	return phrase.Result{
		GreetingEnds:   parsed.GreetingEnds,
		EstimatedEnd:   time.Duration(parsed.EstimatedEndS * float64(time.Second)),
		Confidence:     parsed.Confidence,
		MatchedPhrases: parsed.MatchedPhrases,
		BeepExpected:   parsed.BeepExpected,
	}, nil
}

// parseResponse extracts and validates the JSON object, tolerating the
// markdown code fences some models wrap around JSON output.
func parseResponse(content string) (response, error) {
	text := strings.TrimSpace(content)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.Index(text, "```"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
	}

	var parsed response
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return response{}, fmt.Errorf("invalid JSON: %v", err)
	}
	if parsed.Confidence < 0 || parsed.Confidence > 1 {
		return response{}, fmt.Errorf("confidence %v out of range", parsed.Confidence)
	}
	if parsed.EstimatedEndS < 0 {
		return response{}, fmt.Errorf("negative estimated end %v", parsed.EstimatedEndS)
	}
	return parsed, nil
}
