package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hyde/internal/cli"
	"hyde/internal/reconciler"
)

// newSetCmd validates and applies one change set built from the arguments.
func newSetCmd(flags *cli.CommandFlags) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "set domain.key=value...",
		Short: "Change settings",
		Long: `Change one or more settings in a single all-or-nothing step.

All assignments are validated first and every problem is reported at once;
nothing is written if any assignment is invalid. If a file cannot be
written, the files already written are restored.`,
		Example: `  hyde-settings set appearance.borderRadius=12
  hyde-settings set window.layout=master window.gapsIn=8 --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes := make([]reconciler.Change, 0, len(args))
			for _, arg := range args {
				c, err := parseAssignment(arg)
				if err != nil {
					return err
				}
				changes = append(changes, c)
			}

			w, err := openWorkspace(cmd, flags, true)
			if err != nil {
				return err
			}
			defer w.saveStateOnExit()

			cs, err := w.rec.Propose(changes...)
			if err != nil {
				return err
			}
			if err := w.requireParsed(cs.Domains()...); err != nil {
				return err
			}
			if err := w.printer.ChangeSet(cs); err != nil {
				return err
			}
			if dryRun {
				w.printer.Message("Dry run: %d change(s) not applied.", cs.Len())
				return nil
			}

			err = w.rec.Apply(cmd.Context(), cs)
			if err := w.warnSession(cmd, err); err != nil {
				return explainApplyError(err)
			}
			w.printer.Message("Applied %d change(s).", cs.Len())
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and show the changes without writing them")
	return cmd
}

// parseAssignment parses domain.key=value.
func parseAssignment(arg string) (reconciler.Change, error) {
	target, value, ok := strings.Cut(arg, "=")
	if !ok {
		return reconciler.Change{}, fmt.Errorf("invalid assignment %q: expected domain.key=value", arg)
	}
	domain, key, ok := strings.Cut(strings.TrimSpace(target), ".")
	if !ok || domain == "" || key == "" {
		return reconciler.Change{}, fmt.Errorf("invalid assignment %q: expected domain.key=value", arg)
	}
	return reconciler.Change{Domain: domain, Key: key, Value: strings.TrimSpace(value)}, nil
}
