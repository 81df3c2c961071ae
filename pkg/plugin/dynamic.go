// Dynamic provider loading via Go's plugin system.
// Only available on Linux and requires the plugindyn build tag.
//go:build plugindyn && linux

package plugin

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"plugin"
	"strings"
)

// LoadDynamicPlugins loads .so provider plugins from the given directory.
// With an empty argument it falls back to the VOICEDROP_PLUGIN_PATH
// environment variable, then to the system default. A missing directory is
// not an error, just an empty load.
func LoadDynamicPlugins(pluginDir string) error {
	if pluginDir == "" {
		pluginDir = os.Getenv("VOICEDROP_PLUGIN_PATH")
		if pluginDir == "" {
			pluginDir = "/usr/local/lib/voicedrop/plugins"
		}
	}

	if _, err := os.Stat(pluginDir); os.IsNotExist(err) {
		return nil
	}

	soFiles, err := filepath.Glob(filepath.Join(pluginDir, "*.so"))
	if err != nil {
		return fmt.Errorf("failed to search for plugin files in %s: %w", pluginDir, err)
	}

	loadedCount := 0
	for _, soFile := range soFiles {
		if err := loadPlugin(soFile); err != nil {
			return fmt.Errorf("failed to load plugin %s: %w", soFile, err)
		}
		loadedCount++
	}

	if loadedCount > 0 {
		slog.Info("loaded dynamic plugins",
			slog.Int("count", loadedCount),
			slog.String("directory", pluginDir))
	}
	return nil
}

// loadPlugin opens one .so file and runs its exported RegisterPlugins
// function, which is expected to call Register for each provider it adds.
func loadPlugin(soFile string) error {
	p, err := plugin.Open(soFile)
	if err != nil {
		return fmt.Errorf("failed to open plugin file: %w", err)
	}

	initFunc, err := p.Lookup("RegisterPlugins")
	if err != nil {
		return fmt.Errorf("plugin does not export RegisterPlugins function: %w", err)
	}
	registerFunc, ok := initFunc.(func() error)
	if !ok {
		return fmt.Errorf("RegisterPlugins function has invalid signature")
	}
	if err := registerFunc(); err != nil {
		return fmt.Errorf("plugin registration failed: %w", err)
	}

	pluginName := strings.TrimSuffix(filepath.Base(soFile), ".so")
	slog.Info("loaded plugin", slog.String("name", pluginName), slog.String("file", soFile))
	return nil
}
