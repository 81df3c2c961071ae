// Package keyword registers the offline keyword phrase analyzer. Importing
// it for side effects makes the "keyword" provider available:
//
//	import _ "github.com/clearpath/voicedrop-go/pkg/plugin/keyword"
package keyword

import (
	"github.com/clearpath/voicedrop-go/pkg/detect/phrase"
	"github.com/clearpath/voicedrop-go/pkg/plugin"
)

func init() {
	plugin.RegisterWithMetadata(&plugin.Plugin{
		Kind:        plugin.KindPhrase,
		Name:        "keyword",
		Description: "Offline phrase matching against known greeting endings",
		Version:     "1.0.0",
		Factory: func(cfg map[string]any) (any, error) {
			return phrase.NewKeywordAnalyzer(), nil
		},
	})
}
