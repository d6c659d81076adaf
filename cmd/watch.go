package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hyde/internal/cli"
	"hyde/internal/reconciler"
	"hyde/pkg/logging"
)

// driftPolicy decides what watch does with external changes.
type driftPolicy int

const (
	// policyReport only reports external changes.
	policyReport driftPolicy = iota
	// policyAccept adopts external changes.
	policyAccept
	// policyDiscard overwrites external changes.
	policyDiscard
)

// newWatchCmd follows the settings files until interrupted.
func newWatchCmd(flags *cli.CommandFlags) *cobra.Command {
	var accept, discard bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the settings files for changes made by hand",
		Long: `Watch the settings files and report changes made by other programs or by
hand. With --accept the changes are adopted as they happen; with --discard
they are overwritten with the current settings. Stop with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorkspace(cmd, flags, true)
			if err != nil {
				return err
			}
			defer w.saveStateOnExit()

			policy := policyReport
			switch {
			case discard:
				policy = policyDiscard
			case accept || w.cfg.Watch.AutoAccept:
				policy = policyAccept
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return w.watch(ctx, cmd, policy)
		},
	}

	cmd.Flags().BoolVar(&accept, "accept", false, "Adopt external changes automatically")
	cmd.Flags().BoolVar(&discard, "discard", false, "Overwrite external changes automatically")
	cmd.MarkFlagsMutuallyExclusive("accept", "discard")
	return cmd
}

// watch handles drift until ctx is done.
func (w *workspace) watch(ctx context.Context, cmd *cobra.Command, policy driftPolicy) error {
	detector, err := reconciler.NewFilesystemDetector(w.rec, w.cfg.Watch.Debounce)
	if err != nil {
		return err
	}

	events := make(chan reconciler.ChangeEvent, 16)
	if err := detector.Start(ctx, events); err != nil {
		return err
	}
	defer func() { _ = detector.Stop() }()

	w.resolveDrift(ctx, cmd, w.drift, policy)
	w.printer.Message("Watching %d settings files. Press Ctrl+C to stop.", len(w.rec.Domains()))

	for {
		select {
		case <-ctx.Done():
			summary := w.rec.Metrics().GetSummary()
			logging.Info("CLI", "Stopped watching: %d drifts detected, %d applied", summary.TotalDriftDetections, summary.TotalApplySuccesses)
			if w.flags.Quiet {
				return nil
			}
			return w.printer.Metrics(summary)

		case ev := <-events:
			logging.Debug("CLI", "%s of %s (%s)", ev.Operation, ev.Path, ev.Domain)
			report, err := w.rec.Reload(ctx)
			if err != nil {
				logging.Warn("CLI", "Failed to check for external changes: %v", err)
				continue
			}
			w.resolveDrift(ctx, cmd, report, policy)
			w.saveStateOnExit()
		}
	}
}

// resolveDrift applies policy to every drifted domain in report. Failures
// are logged; the domain stays pending.
func (w *workspace) resolveDrift(ctx context.Context, cmd *cobra.Command, report *reconciler.DriftReport, policy driftPolicy) {
	if !report.HasDrift() {
		return
	}

	if policy == policyReport {
		if err := w.printer.Drift(report); err != nil {
			logging.Error("CLI", err, "Failed to print external changes")
		}
		w.printer.Message("Run 'hyde-settings accept' or 'hyde-settings discard' to resolve.")
		return
	}

	for _, d := range report.Drifts {
		var err error
		switch {
		case policy == policyAccept && d.Kind == reconciler.DriftUnparseable:
			logging.Warn("CLI", "Cannot adopt %s: %s", d.Path, d.Err)
			continue
		case policy == policyAccept:
			err = w.rec.AcceptExternal(ctx, d.Domain)
		default:
			err = w.rec.DiscardExternal(ctx, d.Domain)
		}

		if err = w.warnSession(cmd, err); err != nil {
			logging.Error("CLI", err, "Failed to resolve external changes to %s", d.Domain)
			continue
		}
		if policy == policyAccept {
			w.printer.Message("Accepted external changes to %s.", d.Domain)
		} else {
			w.printer.Message("Discarded external changes to %s.", d.Domain)
		}
	}
}
