// Package reporters registers the built-in result reporters. Importing it
// for side effects makes the "json" and "table" providers available.
package reporters

import (
	"github.com/clearpath/voicedrop-go/pkg/plugin"
	"github.com/clearpath/voicedrop-go/pkg/report"
)

func init() {
	plugin.RegisterWithMetadata(&plugin.Plugin{
		Kind:        plugin.KindReporter,
		Name:        "json",
		Description: "Machine-readable results document",
		Version:     "1.0.0",
		Factory: func(cfg map[string]any) (any, error) {
			return report.JSONWriter{}, nil
		},
	})
	plugin.RegisterWithMetadata(&plugin.Plugin{
		Kind:        plugin.KindReporter,
		Name:        "table",
		Description: "Human-readable summary table",
		Version:     "1.0.0",
		Factory: func(cfg map[string]any) (any, error) {
			return report.TableWriter{}, nil
		},
	})
}
