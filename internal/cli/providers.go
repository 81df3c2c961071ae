package cli

import (
	"fmt"
	"log/slog"

	"github.com/clearpath/voicedrop-go/pkg/detect/phrase"
	"github.com/clearpath/voicedrop-go/pkg/plugin"
	"github.com/clearpath/voicedrop-go/pkg/report"

	_ "github.com/clearpath/voicedrop-go/pkg/plugin/keyword"   // register keyword analyzer
	_ "github.com/clearpath/voicedrop-go/pkg/plugin/openai"    // register openai analyzer
	_ "github.com/clearpath/voicedrop-go/pkg/plugin/reporters" // register json/table reporters
)

// buildAnalyzer resolves a phrase analyzer by provider name. "none"
// disables phrase analysis. An external provider that cannot be
// constructed (typically a missing API key) degrades to the keyword
// analyzer instead of failing the command.
func buildAnalyzer(name string, logger *slog.Logger) (phrase.Analyzer, error) {
	if name == "none" {
		return nil, nil
	}

	factory, ok := plugin.Get(plugin.KindPhrase, name)
	if !ok {
		return nil, fmt.Errorf("unknown phrase analyzer %q (have: %s)", name, providerNames(plugin.KindPhrase))
	}
	v, err := factory(nil)
	if err != nil {
		if name == "keyword" {
			return nil, err
		}
		logger.Warn("phrase analyzer unavailable, using keyword matching",
			slog.String("analyzer", name),
			slog.String("error", err.Error()))
		return phrase.NewKeywordAnalyzer(), nil
	}
	analyzer, ok := v.(phrase.Analyzer)
	if !ok {
		return nil, fmt.Errorf("provider %q is not a phrase analyzer", name)
	}

	// External analyzers always get the offline matcher behind them.
	if name != "keyword" {
		return phrase.NewFallback(analyzer, phrase.NewKeywordAnalyzer()), nil
	}
	return analyzer, nil
}

// buildReporter resolves a result reporter by format name.
func buildReporter(format string) (report.Writer, error) {
	factory, ok := plugin.Get(plugin.KindReporter, format)
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (have: %s)", format, providerNames(plugin.KindReporter))
	}
	v, err := factory(nil)
	if err != nil {
		return nil, err
	}
	w, ok := v.(report.Writer)
	if !ok {
		return nil, fmt.Errorf("provider %q is not a reporter", format)
	}
	return w, nil
}

func providerNames(kind string) string {
	names := ""
	for i, p := range plugin.List(kind) {
		if i > 0 {
			names += ", "
		}
		names += p.Name
	}
	return names
}
