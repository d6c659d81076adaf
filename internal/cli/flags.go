package cli

import (
	"hyde/internal/config"

	"github.com/spf13/cobra"
)

// CommandFlags holds the persistent flags shared by every command.
type CommandFlags struct {
	// OutputFormat specifies the desired output format (table, plain, json, yaml)
	OutputFormat string
	// NoHeaders suppresses the header row in table output
	NoHeaders bool
	// Quiet suppresses progress indicators and non-essential output
	Quiet bool
	// Debug enables debug logging
	Debug bool
	// LogFormat selects text or json log output
	LogFormat string
	// ConfigPath specifies the configuration directory
	ConfigPath string
	// SettingsDir overrides the directory holding the domain files
	SettingsDir string
}

// DefaultConfigPath returns ~/.config/hyde, or ".hyde" if the home
// directory is unknown.
func DefaultConfigPath() string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		return ".hyde"
	}
	return path
}

// RegisterCommonFlags registers the persistent flags on the root command.
//
// The registered flags are:
//   - --output/-o: Output format (table, plain, json, yaml), default: "table"
//   - --no-headers: Suppress header row in table output
//   - --quiet/-q: Suppress non-essential output
//   - --debug: Enable debug logging
//   - --log-format: text or json
//   - --config-path: Configuration directory
//   - --settings-dir: Directory holding the settings files
func RegisterCommonFlags(cmd *cobra.Command, flags *CommandFlags) {
	cmd.PersistentFlags().StringVarP(&flags.OutputFormat, "output", "o", string(OutputFormatTable), "Output format (table, plain, json, yaml)")
	cmd.PersistentFlags().BoolVar(&flags.NoHeaders, "no-headers", false, "Suppress header row in table output")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&flags.LogFormat, "log-format", "", "Log format: text or json (default from config)")
	cmd.PersistentFlags().StringVar(&flags.ConfigPath, "config-path", DefaultConfigPath(), "Configuration directory")
	cmd.PersistentFlags().StringVar(&flags.SettingsDir, "settings-dir", "", "Directory holding the settings files (default from config)")
}
