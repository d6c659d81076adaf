package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"hyde/internal/cli"
	"hyde/internal/config"
)

// newConfigCmd groups commands for config.yaml.
func newConfigCmd(flags *cli.CommandFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the hyde-settings configuration",
	}
	cmd.AddCommand(newConfigShowCmd(flags), newConfigInitCmd(flags))
	return cmd
}

func newConfigShowCmd(flags *cli.CommandFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration in effect: config.yaml from the config directory
on top of the built-in defaults, with the settings directory resolved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if flags.SettingsDir != "" {
				cfg.SettingsDir = flags.SettingsDir
			}
			return cli.NewPrinter(cmd.OutOrStdout(), cli.OutputFormatYAML, flags.NoHeaders).Data(cfg)
		},
	}
}

func newConfigInitCmd(flags *cli.CommandFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config.yaml with the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(flags.ConfigPath, "config.yaml")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite it", path)
			}
			if err := config.SaveConfig(flags.ConfigPath, config.GetDefaultConfig()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config.yaml")
	return cmd
}

// loadConfig loads config.yaml, turning configuration errors into a
// message with suggestions.
func loadConfig(flags *cli.CommandFlags) (config.HydeConfig, error) {
	cfg, err := config.LoadConfig(flags.ConfigPath)
	if err != nil {
		var cerr *config.ConfigurationError
		if errors.As(err, &cerr) {
			return config.HydeConfig{}, errors.New(cerr.DetailedError())
		}
		return config.HydeConfig{}, err
	}
	return cfg, nil
}
