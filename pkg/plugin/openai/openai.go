// Package openai registers the OpenAI-backed phrase analyzer. Importing it
// for side effects makes the "openai" provider available. Construction
// fails without an OPENAI_API_KEY; the usual arrangement wraps this
// provider in a fallback chain ending at "keyword".
package openai

import (
	"fmt"
	"time"

	"github.com/clearpath/voicedrop-go/pkg/detect/phrase/openai"
	"github.com/clearpath/voicedrop-go/pkg/plugin"
)

func init() {
	plugin.RegisterWithMetadata(&plugin.Plugin{
		Kind:        plugin.KindPhrase,
		Name:        "openai",
		Description: "Greeting-ending analysis via OpenAI chat completion",
		Version:     "1.0.0",
		Factory:     newAnalyzer,
	})
}

func newAnalyzer(cfg map[string]any) (any, error) {
	var opts []openai.Option
	if model, ok := cfg["model"].(string); ok && model != "" {
		opts = append(opts, openai.WithModel(model))
	}
	if timeout, ok := cfg["timeout_s"].(float64); ok {
		if timeout <= 0 {
			return nil, fmt.Errorf("openai plugin: timeout_s must be positive, got %v", timeout)
		}
		opts = append(opts, openai.WithTimeout(time.Duration(timeout*float64(time.Second))))
	}
	return openai.New(opts...)
}
