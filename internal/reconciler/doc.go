// Package reconciler keeps the in-memory settings model, the on-disk backing
// files and the running desktop session consistent.
//
// # Overview
//
// A Reconciler owns one value map per setting domain. Every mutation goes
// through the same pipeline:
//
//   - Propose validates a batch of changes and returns a ChangeSet
//   - Apply checks for conflicts, snapshots the touched files, rewrites
//     them with temp-then-rename and commits the model
//   - on any write failure the snapshot is restored and the model is left
//     as it was
//
// Reads never touch the disk; Load and Reload are the only operations that
// pull file contents into the model.
//
// # External edits
//
// Each backing file has a Fingerprint (size and SHA-256) recorded at load
// and after each write. Reload compares the disk against the fingerprints
// and reports a DriftReport without changing the model. The caller then
// decides per domain with AcceptExternal or DiscardExternal. Apply on a
// drifted domain fails with a *ConflictError.
//
// FilesystemDetector turns fsnotify events into ChangeEvents so that a
// long-running process can call Reload when something changes.
//
// # Example
//
//	r, err := reconciler.New(reconciler.Options{
//	    Registry: settings.DefaultRegistry(),
//	    Dir:      settingsDir,
//	})
//	if err != nil {
//	    return err
//	}
//	if _, err := r.Load(ctx); err != nil {
//	    logging.Warn("Settings", "Some settings fell back to defaults: %v", err)
//	}
//	cs, err := r.Propose(reconciler.Change{Domain: "appearance", Key: "borderRadius", Value: 12})
//	if err != nil {
//	    return err
//	}
//	return r.Apply(ctx, cs)
package reconciler
