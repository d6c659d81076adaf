package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hyde/internal/settings"
	"hyde/pkg/logging"
)

var now = time.Now

func newID() string {
	return uuid.NewString()
}

// Load reads every domain's backing file into the model.
//
// A missing file is created from defaults. Declared keys that are absent or
// malformed fall back to their default and are flagged; undeclared keys are
// flagged and left in the file. A file that exists but cannot be parsed
// loads its domain from defaults and contributes a *FormatError to the
// returned error; the model is fully populated either way. Load also clears
// any drift recorded by Reload.
func (r *Reconciler) Load(ctx context.Context) (*LoadReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := r.lockDomains(r.allDomainNames())
	defer unlock()

	domains := r.registry.Domains()
	images, readErrs, err := r.readAll(ctx, domains)
	if err != nil {
		return nil, err
	}

	report := &LoadReport{Flags: make(map[string][]Flag)}
	states := make(map[string]*domainState, len(domains))
	var errs []error

	for i, d := range domains {
		path := r.pathOf(d)
		img := images[i]
		st := &domainState{}
		states[d.Name] = st

		switch {
		case readErrs[i] != nil:
			st.values = d.Defaults()
			report.Defaulted = append(report.Defaulted, d.Name)
			errs = append(errs, &FormatError{Domain: d.Name, Path: path, Err: readErrs[i]})
			logging.Error("Reconciler", readErrs[i], "Cannot read %s, using defaults for %s", path, d.Name)

		case !img.exists:
			st.values = d.Defaults()
			fp, err := r.createFromDefaults(d, path)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			st.fingerprint = fp
			report.Created = append(report.Created, d.Name)
			logging.Info("Reconciler", "Created %s with defaults for %s", path, d.Name)

		default:
			values, flags, err := r.decode(d, img.data)
			st.values = values
			st.flags = flags
			st.fingerprint = img.fingerprint
			if err != nil {
				report.Defaulted = append(report.Defaulted, d.Name)
				errs = append(errs, &FormatError{Domain: d.Name, Path: path, Err: err})
				logging.Warn("Reconciler", "Cannot parse %s, using defaults for %s: %v", path, d.Name, err)
				continue
			}
			if len(flags) > 0 {
				report.Flags[d.Name] = flags
			}
			logging.Debug("Reconciler", "Loaded %s from %s (%d flags)", d.Name, path, len(flags))
		}
	}

	r.mu.Lock()
	r.states = states
	r.mu.Unlock()

	return report, errors.Join(errs...)
}

func (r *Reconciler) createFromDefaults(d settings.Domain, path string) (Fingerprint, error) {
	data, err := r.render(d, nil, d.Defaults())
	if err != nil {
		return Fingerprint{}, &ApplyError{Domain: d.Name, Path: path, Op: "render", Err: err}
	}
	if err := r.storage.WriteFile(path, data); err != nil {
		return Fingerprint{}, &ApplyError{Domain: d.Name, Path: path, Op: "write", Err: err}
	}
	return writtenFingerprint(r.storage, path, data), nil
}

// Reload re-reads every backing file and reports domains whose file changed
// since the last successful load or apply. The model is not touched: the
// external state is held until AcceptExternal or DiscardExternal is called
// for the domain, or Load is reissued.
func (r *Reconciler) Reload(ctx context.Context) (*DriftReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := r.lockDomains(r.allDomainNames())
	defer unlock()

	domains := r.registry.Domains()
	images, readErrs, err := r.readAll(ctx, domains)
	if err != nil {
		return nil, err
	}
	report := &DriftReport{CheckedAt: now()}
	var errs []error

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, d := range domains {
		path := r.pathOf(d)
		if readErrs[i] != nil {
			errs = append(errs, fmt.Errorf("domain %s: read %s: %w", d.Name, path, readErrs[i]))
			continue
		}

		st := r.states[d.Name]
		img := images[i]
		if st.fingerprint.Matches(img.fingerprint) {
			st.pending = nil
			continue
		}

		ext := &externalState{fingerprint: img.fingerprint}
		drift := Drift{Domain: d.Name, Path: path}

		switch {
		case !img.exists:
			ext.removed = true
			drift.Kind = DriftRemoved
		default:
			values, flags, err := r.decode(d, img.data)
			if err != nil {
				ext.parseErr = err
				drift.Kind = DriftUnparseable
				drift.Err = err.Error()
				break
			}
			ext.values = values
			ext.flags = flags
			drift.Kind = DriftModified
			for _, k := range d.Keys {
				if st.values[k.Name] != values[k.Name] {
					drift.Keys = append(drift.Keys, KeyDrift{
						Key:      k.Name,
						Local:    st.values[k.Name],
						External: values[k.Name],
					})
				}
			}
		}

		st.pending = ext
		report.Drifts = append(report.Drifts, drift)
		r.metrics.RecordDrift(d.Name)
		logging.Info("Reconciler", "Detected external %s change of %s (%d keys differ)", drift.Kind, path, len(drift.Keys))
	}

	return report, errors.Join(errs...)
}

// AcceptExternal adopts the external state recorded by Reload into the
// model. A removed file is recreated from defaults. An unparseable file
// cannot be accepted and yields a *FormatError. If the file changed again
// after Reload, a *ConflictError asks the caller to reload first.
func (r *Reconciler) AcceptExternal(ctx context.Context, domain string) error {
	d, err := r.domain(domain)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := r.lockDomains([]string{domain})
	defer unlock()

	r.mu.RLock()
	pending := r.states[domain].pending
	r.mu.RUnlock()
	if pending == nil {
		return fmt.Errorf("domain %s: %w", domain, ErrNoDrift)
	}

	path := r.pathOf(d)
	if pending.parseErr != nil {
		return &FormatError{Domain: domain, Path: path, Err: pending.parseErr}
	}

	current, err := readImage(r.storage, path)
	if err != nil {
		return fmt.Errorf("domain %s: read %s: %w", domain, path, err)
	}
	if !current.fingerprint.Matches(pending.fingerprint) {
		return &ConflictError{
			Domain:   domain,
			Path:     path,
			Reason:   "file changed again since reload",
			Expected: pending.fingerprint,
			Actual:   current.fingerprint,
		}
	}

	st := &domainState{}
	if pending.removed {
		fp, err := r.createFromDefaults(d, path)
		if err != nil {
			return err
		}
		st.values = d.Defaults()
		st.fingerprint = fp
	} else {
		st.values = copyValues(pending.values)
		st.flags = pending.flags
		st.fingerprint = pending.fingerprint
	}

	r.mu.Lock()
	r.states[domain] = st
	r.mu.Unlock()

	logging.Info("Reconciler", "Accepted external changes to %s", path)
	return r.notifySession(ctx, domain, copyValues(st.values))
}

// DiscardExternal keeps the model and writes it over the drifted file.
// Content of the file unrelated to the domain's keys is kept when the file
// parses.
func (r *Reconciler) DiscardExternal(ctx context.Context, domain string) error {
	d, err := r.domain(domain)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := r.lockDomains([]string{domain})
	defer unlock()

	r.mu.RLock()
	st := r.states[domain]
	pending := st.pending
	values := copyValues(st.values)
	r.mu.RUnlock()
	if pending == nil {
		return fmt.Errorf("domain %s: %w", domain, ErrNoDrift)
	}

	path := r.pathOf(d)
	current, err := readImage(r.storage, path)
	if err != nil {
		return &ApplyError{Domain: domain, Path: path, Op: "read", Err: err}
	}
	data, err := r.render(d, current.data, values)
	if err != nil {
		return &ApplyError{Domain: domain, Path: path, Op: "render", Err: err}
	}
	if err := r.storage.WriteFile(path, data); err != nil {
		return &ApplyError{Domain: domain, Path: path, Op: "write", Err: err}
	}

	r.mu.Lock()
	r.states[domain] = &domainState{
		values:      values,
		flags:       nil,
		fingerprint: writtenFingerprint(r.storage, path, data),
	}
	r.mu.Unlock()

	logging.Info("Reconciler", "Discarded external changes to %s", path)
	return nil
}
