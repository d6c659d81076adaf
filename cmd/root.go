package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"hyde/internal/cli"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates any failure, including rejected, conflicting
	// or rolled back changes.
	ExitCodeError = 1
)

const versionTemplate = `{{printf "hyde-settings version %s\n" .Version}}`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	flags := &cli.CommandFlags{}

	root := &cobra.Command{
		Use:   "hyde-settings",
		Short: "Manage HyDE desktop settings",
		Long: `hyde-settings keeps the HyDE settings model, its backing configuration
files and the running desktop session consistent.

Every change is validated first and written all-or-nothing: if any file
cannot be written, the files already written are restored. Edits made to the
files by hand are detected and must be accepted or discarded before the
affected domain can be changed again.`,
		// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
		SilenceUsage: true,
	}
	root.SetVersionTemplate(versionTemplate)

	cli.RegisterCommonFlags(root, flags)

	root.AddCommand(
		newVersionCmd(),
		newDomainsCmd(flags),
		newGetCmd(flags),
		newSetCmd(flags),
		newResetCmd(flags),
		newStatusCmd(flags),
		newAcceptCmd(flags),
		newDiscardCmd(flags),
		newWatchCmd(flags),
		newAssistCmd(flags),
		newConfigCmd(flags),
	)
	return root
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the root command and exits with ExitCodeError on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitCodeError)
	}
}
