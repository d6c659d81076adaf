package reconciler

import (
	"errors"
	"fmt"
)

// ErrNoDrift is returned by AcceptExternal and DiscardExternal when Reload
// has not recorded external changes for the domain.
var ErrNoDrift = errors.New("no external changes pending")

// FormatError reports a backing file that exists but cannot be parsed.
// Load falls back to the defaults for the domain; Apply refuses to write
// over the file.
type FormatError struct {
	Domain string
	Path   string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("domain %s: cannot parse %s: %v", e.Domain, e.Path, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// ApplyError reports an I/O failure while writing a domain's backing file.
// When RollbackErr is set, restoring the pre-apply state failed as well and
// files on disk may no longer match the in-memory model.
type ApplyError struct {
	Domain      string
	Path        string
	Op          string
	Err         error
	RollbackErr error
}

func (e *ApplyError) Error() string {
	msg := fmt.Sprintf("domain %s: %s %s: %v", e.Domain, e.Op, e.Path, e.Err)
	if e.RollbackErr != nil {
		msg += fmt.Sprintf(" (rollback failed: %v)", e.RollbackErr)
	}
	return msg
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// Fatal reports whether rollback failed and the error must be escalated.
func (e *ApplyError) Fatal() bool {
	return e.RollbackErr != nil
}

// ConflictError reports that a backing file changed since the last
// successful load or apply, or that a ChangeSet was built against values
// that have changed since. Nothing was written.
type ConflictError struct {
	Domain   string
	Path     string
	Reason   string
	Expected Fingerprint
	Actual   Fingerprint
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("domain %s: conflict on %s: %s", e.Domain, e.Path, e.Reason)
}

// SessionError reports a failed live-session hook. The files and the
// in-memory model were updated; only the running desktop may be stale.
type SessionError struct {
	Domain string
	Err    error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("domain %s: live session update failed: %v", e.Domain, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}
