package reconciler

import (
	"context"
	"errors"
	"fmt"

	"hyde/internal/format"
	"hyde/internal/settings"
	"hyde/pkg/logging"
)

// Propose validates changes and returns a ChangeSet ready for Apply. Every
// change is checked; if any fails, all failures are returned together as
// settings.ValidationErrors and no ChangeSet is produced.
//
// Values are coerced to the key's declared type, so "12" is accepted for an
// int key. A key named twice keeps its first position and its last value.
func (r *Reconciler) Propose(changes ...Change) (*ChangeSet, error) {
	return r.ProposeFrom(SourceManual, changes...)
}

// ProposeFrom is Propose with an explicit source tag.
func (r *Reconciler) ProposeFrom(source Source, changes ...Change) (*ChangeSet, error) {
	var verrs settings.ValidationErrors
	cs := &ChangeSet{ID: newID(), Source: source, CreatedAt: now()}
	position := make(map[string]int)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range changes {
		key, err := r.registry.Lookup(c.Domain, c.Key)
		if err != nil {
			msg := "unknown key"
			if errors.Is(err, settings.ErrUnknownDomain) {
				msg = "unknown domain"
			}
			verrs.Add(c.Domain, c.Key, msg, c.Value)
			continue
		}

		v, err := key.Normalize(c.Value)
		if err != nil {
			verrs.Add(c.Domain, c.Key, err.Error(), c.Value)
			continue
		}

		id := c.Domain + "." + c.Key
		if i, dup := position[id]; dup {
			cs.entries[i].New = v
			continue
		}
		position[id] = len(cs.entries)
		cs.entries = append(cs.entries, Entry{
			Domain: c.Domain,
			Key:    c.Key,
			Old:    r.states[c.Domain].values[c.Key],
			New:    v,
		})
	}

	if verrs.HasErrors() {
		r.metrics.RecordValidationRejection(len(verrs))
		logging.Debug("Reconciler", "Rejected %s change set: %v", source, verrs)
		return nil, verrs
	}
	return cs, nil
}

// Apply writes a ChangeSet to the backing files and then to the model.
//
// Before writing, Apply refuses with a *ConflictError if a touched file
// changed since the last successful load or apply, or if an entry's old
// value no longer matches the model, and with a *FormatError if a touched
// file exists but cannot be parsed. It then takes a Snapshot and rewrites
// each affected domain's file with temp-then-rename. If a write fails,
// every file already written is restored from the Snapshot and an
// *ApplyError is returned; the model is unchanged. If restoring fails too,
// the ApplyError carries the rollback error and Fatal reports true.
//
// The context is only consulted before any work starts. A failing
// live-session hook yields a *SessionError after files and model are
// updated.
func (r *Reconciler) Apply(ctx context.Context, cs *ChangeSet) error {
	if cs == nil {
		return errors.New("nil change set")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if cs.Len() == 0 {
		return nil
	}

	names := cs.Domains()
	for _, name := range names {
		if _, err := r.domain(name); err != nil {
			return err
		}
	}

	unlock := r.lockDomains(names)
	defer unlock()

	for _, name := range names {
		r.metrics.RecordApplyAttempt(name)
	}

	snap, err := r.prepare(cs, names)
	if err != nil {
		for _, name := range names {
			r.metrics.RecordApplyFailure(name, err.Error())
		}
		return err
	}

	written := make([]string, 0, len(names))
	fingerprints := make(map[string]Fingerprint, len(names))

	for _, name := range names {
		d, _ := r.domain(name)
		path := r.pathOf(d)
		img := snap.files[name]

		data, err := r.render(d, img.data, cs.valuesFor(name))
		if err == nil {
			err = r.storage.WriteFile(path, data)
		}
		if err != nil {
			rbErr := r.rollback(snap, written)
			applyErr := &ApplyError{Domain: name, Path: path, Op: "write", Err: err, RollbackErr: rbErr}
			for _, n := range names {
				r.metrics.RecordApplyFailure(n, err.Error())
			}
			if rbErr != nil {
				logging.Error("Reconciler", applyErr, "Rollback of change set %s failed; files may be inconsistent", cs.ID)
			} else {
				logging.Warn("Reconciler", "Change set %s rolled back: %v", cs.ID, err)
			}
			return applyErr
		}

		written = append(written, name)
		fingerprints[name] = writtenFingerprint(r.storage, path, data)
	}

	r.mu.Lock()
	committed := make(map[string]map[string]any, len(names))
	for _, name := range names {
		st := r.states[name]
		values := copyValues(st.values)
		for k, v := range cs.valuesFor(name) {
			values[k] = v
		}
		r.states[name] = &domainState{
			values:      values,
			flags:       dropFlags(st.flags, cs.valuesFor(name)),
			fingerprint: fingerprints[name],
		}
		committed[name] = copyValues(values)
	}
	r.mu.Unlock()

	for _, name := range names {
		r.metrics.RecordApplySuccess(name)
	}
	logging.Info("Reconciler", "Applied %s change set %s (%d entries, domains %v)", cs.Source, cs.ID, cs.Len(), names)

	var sessionErrs []error
	for _, name := range names {
		if err := r.notifySession(ctx, name, committed[name]); err != nil {
			sessionErrs = append(sessionErrs, err)
		}
	}
	return errors.Join(sessionErrs...)
}

// prepare captures the snapshot and runs the conflict checks. Callers hold
// the domain locks.
func (r *Reconciler) prepare(cs *ChangeSet, names []string) (*Snapshot, error) {
	files := make(map[string]fileImage, len(names))
	for _, name := range names {
		d, _ := r.domain(name)
		path := r.pathOf(d)
		img, err := readImage(r.storage, path)
		if err != nil {
			return nil, &ApplyError{Domain: name, Path: path, Op: "read", Err: err}
		}
		files[name] = img
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range names {
		d, _ := r.domain(name)
		st := r.states[name]
		img := files[name]
		if !st.fingerprint.Matches(img.fingerprint) {
			r.metrics.RecordConflict(name, "external change")
			return nil, &ConflictError{
				Domain:   name,
				Path:     r.pathOf(d),
				Reason:   "file changed outside the reconciler; reload and accept or discard first",
				Expected: st.fingerprint,
				Actual:   img.fingerprint,
			}
		}
	}

	// Only Reset and DiscardExternal may replace a file that does not parse.
	for _, name := range names {
		d, _ := r.domain(name)
		img := files[name]
		if !img.exists {
			continue
		}
		codec, err := format.For(d.Format, d.Name)
		if err == nil {
			_, err = codec.Parse(img.data)
		}
		if err != nil {
			return nil, &FormatError{Domain: name, Path: r.pathOf(d), Err: err}
		}
	}

	for _, e := range cs.entries {
		if current := r.states[e.Domain].values[e.Key]; current != e.Old {
			d, _ := r.domain(e.Domain)
			r.metrics.RecordConflict(e.Domain, "stale change set")
			return nil, &ConflictError{
				Domain: e.Domain,
				Path:   r.pathOf(d),
				Reason: fmt.Sprintf("%s changed from %v to %v since the change set was proposed", e.Key, e.Old, current),
			}
		}
	}

	return r.snapshotLocked(files), nil
}

// rollback restores the files of the given domains from the snapshot, in
// reverse order of writing.
func (r *Reconciler) rollback(snap *Snapshot, written []string) error {
	var errs []error
	for i := len(written) - 1; i >= 0; i-- {
		name := written[i]
		d, _ := r.domain(name)
		path := r.pathOf(d)
		img := snap.files[name]

		var err error
		if img.exists {
			err = r.storage.WriteFile(path, img.data)
		} else {
			err = r.storage.Remove(path)
		}
		r.metrics.RecordRollback(name, err == nil)
		if err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", path, err))
			continue
		}
		logging.Debug("Reconciler", "Restored %s from snapshot %s", path, snap.ID())
	}
	return errors.Join(errs...)
}

// Reset restores every key of a domain to its default and persists it.
// Content of the file unrelated to the domain's keys is kept. On a write
// failure an *ApplyError is returned and both the previous file and the
// model are left untouched.
func (r *Reconciler) Reset(ctx context.Context, domain string) error {
	d, err := r.domain(domain)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := r.lockDomains([]string{domain})
	defer unlock()

	path := r.pathOf(d)
	r.metrics.RecordApplyAttempt(domain)

	base, err := readImage(r.storage, path)
	if err != nil {
		r.metrics.RecordApplyFailure(domain, err.Error())
		return &ApplyError{Domain: domain, Path: path, Op: "read", Err: err}
	}

	defaults := d.Defaults()
	data, err := r.render(d, base.data, defaults)
	if err != nil {
		r.metrics.RecordApplyFailure(domain, err.Error())
		return &ApplyError{Domain: domain, Path: path, Op: "render", Err: err}
	}
	if err := r.storage.WriteFile(path, data); err != nil {
		r.metrics.RecordApplyFailure(domain, err.Error())
		return &ApplyError{Domain: domain, Path: path, Op: "write", Err: err}
	}

	r.mu.Lock()
	r.states[domain] = &domainState{
		values:      copyValues(defaults),
		fingerprint: writtenFingerprint(r.storage, path, data),
	}
	r.mu.Unlock()

	r.metrics.RecordApplySuccess(domain)
	logging.Info("Reconciler", "Applied %s of %s to defaults", SourceReset, domain)
	return r.notifySession(ctx, domain, defaults)
}

// dropFlags removes flags of keys that now hold a freshly written value.
func dropFlags(flags []Flag, written map[string]any) []Flag {
	var out []Flag
	for _, f := range flags {
		if _, ok := written[f.Key]; ok && f.Kind != FlagUnknown {
			continue
		}
		out = append(out, f)
	}
	return out
}
