package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"hyde/internal/cli"
	"hyde/internal/config"
	"hyde/internal/reconciler"
	"hyde/internal/session"
	"hyde/internal/settings"
	"hyde/internal/storage"
	"hyde/pkg/logging"
)

// stateFileName holds the last reconciled model between invocations, so
// that edits made while no command runs are reported as drift.
const stateFileName = "state.json"

// workspace is everything a command needs to act on the settings files.
type workspace struct {
	flags      *cli.CommandFlags
	cfg        config.HydeConfig
	rec        *reconciler.Reconciler
	report     *reconciler.LoadReport
	printer    *cli.Printer
	storage    storage.Storage
	statePath  string
	drift      *reconciler.DriftReport
	configPath string
}

// openWorkspace loads the configuration, sets up logging and loads every
// domain. With tracked set, the state saved by the previous invocation is
// restored and the files are checked for external changes against it.
func openWorkspace(cmd *cobra.Command, flags *cli.CommandFlags, tracked bool) (*workspace, error) {
	if err := cli.ValidateOutputFormat(flags.OutputFormat); err != nil {
		return nil, err
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	if err := initLogging(cmd, flags, cfg); err != nil {
		return nil, err
	}
	if flags.SettingsDir != "" {
		cfg.SettingsDir = flags.SettingsDir
	}

	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	var applier session.Applier = session.NoopApplier{}
	if cfg.Session.Enabled {
		applier = session.NewHookRunner(cfg.Session.Hooks, cfg.Session.Timeout)
	}

	w := &workspace{
		flags:      flags,
		cfg:        cfg,
		printer:    cli.NewPrinter(cmd.OutOrStdout(), cli.OutputFormat(flags.OutputFormat), flags.NoHeaders),
		storage:    storage.NewDiskStorage(),
		statePath:  filepath.Join(flags.ConfigPath, stateFileName),
		configPath: flags.ConfigPath,
	}

	w.rec, err = reconciler.New(reconciler.Options{
		Registry: registry,
		Dir:      cfg.SettingsDir,
		Storage:  w.storage,
		Session:  applier,
	})
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	w.report, err = w.rec.Load(ctx)
	if err != nil {
		if !onlyFormatErrors(err) {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
		for _, d := range w.report.Defaulted {
			logging.Warn("CLI", "Settings of %s could not be read and show defaults; run 'hyde-settings reset %s' to rewrite the file", d, d)
		}
	}

	if !tracked {
		return w, nil
	}

	saved, err := reconciler.LoadState(w.storage, w.statePath)
	if err != nil {
		logging.Warn("CLI", "Ignoring saved state: %v", err)
	}
	if restored := w.rec.Restore(saved); len(restored) > 0 {
		logging.Debug("CLI", "Restored state of %s from %s", strings.Join(restored, ", "), w.statePath)
	}
	w.drift, err = w.rec.Reload(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for external changes: %w", err)
	}
	return w, nil
}

// onlyFormatErrors reports whether every error joined in err is a
// *reconciler.FormatError. Those leave the domain usable with defaults.
func onlyFormatErrors(err error) bool {
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	for _, e := range errs {
		var ferr *reconciler.FormatError
		if !errors.As(e, &ferr) {
			return false
		}
	}
	return true
}

// initLogging configures logging from the flags, falling back to the
// configuration file.
func initLogging(cmd *cobra.Command, flags *cli.CommandFlags, cfg config.HydeConfig) error {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	if flags.Debug {
		level = logging.LevelDebug
	}

	format := logging.Format(cfg.Logging.Format)
	if flags.LogFormat != "" {
		format = logging.Format(flags.LogFormat)
	}
	switch format {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("unsupported log format %q (valid: text, json)", flags.LogFormat)
	}

	logging.Init(level, format, cmd.ErrOrStderr())
	return nil
}

// saveState records the current model for the next invocation.
func (w *workspace) saveState() error {
	if err := reconciler.SaveState(w.storage, w.statePath, w.rec.State()); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// requireParsed refuses to change domains whose file could not be read.
func (w *workspace) requireParsed(domains ...string) error {
	for _, d := range domains {
		if slices.Contains(w.report.Defaulted, d) {
			return fmt.Errorf("settings file of %s cannot be parsed; fix it by hand or run 'hyde-settings reset %s'", d, d)
		}
	}
	return nil
}

// domainNames returns args, or every domain when all is set. Unknown names
// are rejected.
func (w *workspace) domainNames(args []string, all bool) ([]string, error) {
	if all {
		if len(args) > 0 {
			return nil, errors.New("--all cannot be combined with domain names")
		}
		var names []string
		for _, d := range w.rec.Domains() {
			names = append(names, d.Name)
		}
		return names, nil
	}
	if len(args) == 0 {
		return nil, errors.New("specify at least one domain or --all")
	}
	for _, name := range args {
		if _, ok := w.rec.Registry().Domain(name); !ok {
			return nil, fmt.Errorf("%w: %s", settings.ErrUnknownDomain, name)
		}
	}
	return args, nil
}

// warnSession reports live-session failures without failing the command;
// the files have been written at that point.
func (w *workspace) warnSession(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	var serr *reconciler.SessionError
	if errors.As(err, &serr) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: settings saved, but the running session was not updated: %v\n", err)
		return nil
	}
	return err
}

// saveStateOnExit is saveState for deferred use.
func (w *workspace) saveStateOnExit() {
	if err := w.saveState(); err != nil {
		logging.Error("CLI", err, "External changes made before the next run may go unnoticed")
	}
}

// explainApplyError adds what the user can do about a failed apply.
func explainApplyError(err error) error {
	var conflict *reconciler.ConflictError
	if errors.As(err, &conflict) {
		return fmt.Errorf("%w\nrun 'hyde-settings status', then 'hyde-settings accept %s' or 'hyde-settings discard %s'",
			err, conflict.Domain, conflict.Domain)
	}
	var aerr *reconciler.ApplyError
	if errors.As(err, &aerr) && aerr.Fatal() {
		return fmt.Errorf("%w\nsettings files may be inconsistent; check them with 'hyde-settings status'", err)
	}
	return err
}
