package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"hyde/internal/cli"
)

// newResetCmd restores domains to their defaults.
func newResetCmd(flags *cli.CommandFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reset [domain]...",
		Short: "Restore domains to their default values",
		Long: `Rewrite the settings files of the given domains with default values.
Content of a file that does not belong to the domain's keys is kept. Reset
also recovers a file that can no longer be parsed.`,
		Example: `  hyde-settings reset appearance
  hyde-settings reset --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorkspace(cmd, flags, true)
			if err != nil {
				return err
			}
			defer w.saveStateOnExit()

			names, err := w.domainNames(args, all)
			if err != nil {
				return err
			}

			var errs []error
			for _, name := range names {
				err := w.warnSession(cmd, w.rec.Reset(cmd.Context(), name))
				if err != nil {
					errs = append(errs, explainApplyError(err))
					continue
				}
				w.printer.Message("Reset %s to defaults.", name)
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Reset every domain")
	return cmd
}
