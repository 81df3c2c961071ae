package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/clearpath/voicedrop-go/pkg/plugin"
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Provider plugin commands",
}

var pluginListCmd = &cobra.Command{
	Use:   "list [kind]",
	Short: "List registered providers",
	Long: `List all registered providers or providers of a specific kind.
Available kinds: phrase, reporter`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := ""
		if len(args) > 0 {
			kind = args[0]
		}

		plugins := plugin.List(kind)
		if len(plugins) == 0 {
			if kind == "" {
				fmt.Println("No providers registered")
			} else {
				fmt.Printf("No providers registered for kind: %s\n", kind)
			}
			return nil
		}

		fmt.Printf("%-10s %-12s %-10s %s\n", "KIND", "NAME", "VERSION", "DESCRIPTION")
		for _, p := range plugins {
			version := p.Version
			if version == "" {
				version = "N/A"
			}
			fmt.Printf("%-10s %-12s %-10s %s\n", p.Kind, p.Name, version, p.Description)
		}
		return nil
	},
}

var pluginLoadCmd = &cobra.Command{
	Use:   "load [directory]",
	Short: "Load dynamic provider plugins (Linux only with -tags=plugindyn)",
	Long: `Load .so plugin files from the specified directory.
If no directory is specified, uses the VOICEDROP_PLUGIN_PATH environment
variable or defaults to /usr/local/lib/voicedrop/plugins.

Each plugin .so file must export a RegisterPlugins() error function.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger()

		pluginDir := ""
		if len(args) > 0 {
			pluginDir = args[0]
		}

		if err := plugin.LoadDynamicPlugins(pluginDir); err != nil {
			logger.Error("failed to load dynamic plugins", slog.String("error", err.Error()))
			return err
		}
		return nil
	},
}

func init() {
	pluginCmd.AddCommand(pluginListCmd, pluginLoadCmd)
}
