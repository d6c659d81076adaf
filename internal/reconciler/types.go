package reconciler

import (
	"time"
)

// Change is one requested edit, as produced by a settings page, the command
// line or the assistant.
type Change struct {
	Domain string `json:"domain" yaml:"domain"`
	Key    string `json:"key" yaml:"key"`
	Value  any    `json:"value" yaml:"value"`
}

// Source tags where a ChangeSet came from. It is used for logging only.
type Source string

const (
	SourceManual    Source = "manual"
	SourceAssistant Source = "assistant"
	SourceReset     Source = "reset"
)

// Entry is one validated edit of a ChangeSet.
type Entry struct {
	Domain string `json:"domain" yaml:"domain"`
	Key    string `json:"key" yaml:"key"`
	Old    any    `json:"old" yaml:"old"`
	New    any    `json:"new" yaml:"new"`
}

// ChangeSet is a validated, not yet applied batch of edits. It is applied
// completely or not at all.
type ChangeSet struct {
	ID        string
	Source    Source
	CreatedAt time.Time
	entries   []Entry
}

// Entries returns a copy of the entries in order.
func (cs *ChangeSet) Entries() []Entry {
	out := make([]Entry, len(cs.entries))
	copy(out, cs.entries)
	return out
}

// Len returns the number of entries.
func (cs *ChangeSet) Len() int {
	return len(cs.entries)
}

// Domains returns the affected domains in order of first appearance.
func (cs *ChangeSet) Domains() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range cs.entries {
		if !seen[e.Domain] {
			seen[e.Domain] = true
			out = append(out, e.Domain)
		}
	}
	return out
}

// valuesFor returns the new values the ChangeSet sets in one domain.
func (cs *ChangeSet) valuesFor(domain string) map[string]any {
	values := make(map[string]any)
	for _, e := range cs.entries {
		if e.Domain == domain {
			values[e.Key] = e.New
		}
	}
	return values
}

// FlagKind classifies a problem found in a backing file during load.
type FlagKind string

const (
	// FlagMalformed marks a declared key whose value failed coercion or validation.
	FlagMalformed FlagKind = "malformed"

	// FlagMissing marks a declared key absent from the file.
	FlagMissing FlagKind = "missing"

	// FlagUnknown marks a key in the file that no declaration matches. It is
	// passed through untouched.
	FlagUnknown FlagKind = "unknown"
)

// Flag reports one key that was not taken from its backing file as-is.
type Flag struct {
	Key    string   `json:"key" yaml:"key"`
	Kind   FlagKind `json:"kind" yaml:"kind"`
	Raw    any      `json:"raw,omitempty" yaml:"raw,omitempty"`
	Reason string   `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// LoadReport summarizes a Load.
type LoadReport struct {
	// Created lists domains whose backing file was missing and has been
	// written from defaults.
	Created []string

	// Flags lists per-domain keys that fell back to their default or were
	// passed through.
	Flags map[string][]Flag

	// Defaulted lists domains loaded from defaults because their file could
	// not be parsed or read.
	Defaulted []string
}

// DriftKind describes how a backing file changed outside the reconciler.
type DriftKind string

const (
	DriftModified    DriftKind = "modified"
	DriftRemoved     DriftKind = "removed"
	DriftUnparseable DriftKind = "unparseable"
)

// KeyDrift is a key whose on-disk value differs from the in-memory one.
type KeyDrift struct {
	Key      string `json:"key" yaml:"key"`
	Local    any    `json:"local" yaml:"local"`
	External any    `json:"external" yaml:"external"`
}

// Drift describes one domain whose backing file changed externally.
type Drift struct {
	Domain string     `json:"domain" yaml:"domain"`
	Path   string     `json:"path" yaml:"path"`
	Kind   DriftKind  `json:"kind" yaml:"kind"`
	Keys   []KeyDrift `json:"keys,omitempty" yaml:"keys,omitempty"`
	Err    string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// DriftReport is the result of Reload.
type DriftReport struct {
	CheckedAt time.Time `json:"checkedAt" yaml:"checkedAt"`
	Drifts    []Drift   `json:"drifts" yaml:"drifts"`
}

// HasDrift reports whether any domain drifted.
func (r *DriftReport) HasDrift() bool {
	return r != nil && len(r.Drifts) > 0
}

// Domains returns the drifted domain names.
func (r *DriftReport) Domains() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.Drifts))
	for i, d := range r.Drifts {
		out[i] = d.Domain
	}
	return out
}
