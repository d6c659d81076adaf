package cmd

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"hyde/internal/cli"
	"hyde/internal/reconciler"
)

// Domain states shown by status.
const (
	stateOK          = "ok"
	stateCreated     = "created"
	stateUnparseable = "unparseable"
	stateChanged     = "changed externally"
)

// domainStatus is one row of the status overview.
type domainStatus struct {
	Domain string `json:"domain" yaml:"domain"`
	File   string `json:"file" yaml:"file"`
	Format string `json:"format" yaml:"format"`
	State  string `json:"state" yaml:"state"`
	Flags  int    `json:"flags" yaml:"flags"`
}

// statusView is the structured output of status.
type statusView struct {
	Domains []domainStatus               `json:"domains" yaml:"domains"`
	Flags   map[string][]reconciler.Flag `json:"flags,omitempty" yaml:"flags,omitempty"`
	Drift   *reconciler.DriftReport      `json:"drift" yaml:"drift"`
	Metrics reconciler.MetricsSummary    `json:"metrics" yaml:"metrics"`
}

// newStatusCmd reports the state of every settings file.
func newStatusCmd(flags *cli.CommandFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of the settings files",
		Long: `Show each domain's settings file and whether it was created, could not be
parsed, contains keys that fell back to defaults, or was changed by hand
since hyde-settings last wrote it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorkspace(cmd, flags, true)
			if err != nil {
				return err
			}
			defer w.saveStateOnExit()

			view := buildStatus(w)
			if w.printer.Structured() {
				return w.printer.Data(view)
			}

			renderStatus(w, view)
			if err := w.printer.Flags(view.Flags); err != nil {
				return err
			}
			if err := w.printer.Drift(view.Drift); err != nil {
				return err
			}
			if !w.flags.Quiet {
				return w.printer.Metrics(view.Metrics)
			}
			return nil
		},
	}
}

func buildStatus(w *workspace) statusView {
	created := make(map[string]bool)
	for _, d := range w.report.Created {
		created[d] = true
	}
	defaulted := make(map[string]bool)
	for _, d := range w.report.Defaulted {
		defaulted[d] = true
	}
	drifted := make(map[string]reconciler.DriftKind)
	for _, d := range w.drift.Drifts {
		drifted[d.Domain] = d.Kind
	}

	view := statusView{
		Flags:   make(map[string][]reconciler.Flag),
		Drift:   w.drift,
		Metrics: w.rec.Metrics().GetSummary(),
	}
	for _, d := range w.rec.Domains() {
		path, _ := w.rec.Path(d.Name)
		flags, _ := w.rec.Flags(d.Name)
		if len(flags) > 0 {
			view.Flags[d.Name] = flags
		}

		state := stateOK
		switch kind, ok := drifted[d.Name]; {
		case ok:
			state = stateChanged + " (" + string(kind) + ")"
		case defaulted[d.Name]:
			state = stateUnparseable
		case created[d.Name]:
			state = stateCreated
		}

		view.Domains = append(view.Domains, domainStatus{
			Domain: d.Name,
			File:   path,
			Format: d.Format,
			State:  state,
			Flags:  len(flags),
		})
	}
	return view
}

func renderStatus(w *workspace, view statusView) {
	rows := make([]table.Row, len(view.Domains))
	for i, d := range view.Domains {
		rows[i] = table.Row{d.Domain, d.File, d.Format, d.State, d.Flags}
	}
	w.printer.Table([]string{"DOMAIN", "FILE", "FORMAT", "STATE", "FLAGS"}, rows)
}
