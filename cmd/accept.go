package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"hyde/internal/cli"
	"hyde/internal/reconciler"
)

// resolveFunc settles the pending external changes of one domain.
type resolveFunc func(w *workspace, cmd *cobra.Command, domain string) error

func acceptDomain(w *workspace, cmd *cobra.Command, domain string) error {
	return w.rec.AcceptExternal(cmd.Context(), domain)
}

func discardDomain(w *workspace, cmd *cobra.Command, domain string) error {
	return w.rec.DiscardExternal(cmd.Context(), domain)
}

// newAcceptCmd adopts external edits into the settings model.
func newAcceptCmd(flags *cli.CommandFlags) *cobra.Command {
	return newResolveCmd(flags, resolveOptions{
		use:   "accept [domain]...",
		short: "Adopt changes made to settings files by hand",
		long: `Adopt the external changes of the given domains, or of every changed
domain when none is given, as the current settings. A deleted file is
recreated with default values.`,
		done:    "Accepted external changes to %s.",
		resolve: acceptDomain,
	})
}

// newDiscardCmd overwrites external edits with the settings model.
func newDiscardCmd(flags *cli.CommandFlags) *cobra.Command {
	return newResolveCmd(flags, resolveOptions{
		use:   "discard [domain]...",
		short: "Overwrite changes made to settings files by hand",
		long: `Write the current settings of the given domains, or of every changed
domain when none is given, over the externally changed files.`,
		done:    "Discarded external changes to %s.",
		resolve: discardDomain,
	})
}

type resolveOptions struct {
	use     string
	short   string
	long    string
	done    string
	resolve resolveFunc
}

func newResolveCmd(flags *cli.CommandFlags, opts resolveOptions) *cobra.Command {
	return &cobra.Command{
		Use:   opts.use,
		Short: opts.short,
		Long:  opts.long,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorkspace(cmd, flags, true)
			if err != nil {
				return err
			}
			defer w.saveStateOnExit()

			names := args
			if len(names) == 0 {
				names = w.drift.Domains()
				if len(names) == 0 {
					w.printer.Message("No external changes.")
					return nil
				}
			}

			var errs []error
			for _, name := range names {
				err := w.warnSession(cmd, opts.resolve(w, cmd, name))
				if err != nil {
					if errors.Is(err, reconciler.ErrNoDrift) {
						w.printer.Message("No external changes to %s.", name)
						continue
					}
					errs = append(errs, err)
					continue
				}
				w.printer.Message(opts.done, name)
			}
			if len(errs) > 0 {
				return fmt.Errorf("failed to resolve external changes: %w", errors.Join(errs...))
			}
			return nil
		},
	}
}
