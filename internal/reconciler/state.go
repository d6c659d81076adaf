package reconciler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"hyde/internal/storage"
	"hyde/pkg/logging"
)

// State is the model and file fingerprints at the end of a run. Saving it
// and restoring it in the next process lets Reload find edits made while
// no reconciler was running.
type State struct {
	SavedAt time.Time              `json:"savedAt"`
	Domains map[string]DomainState `json:"domains"`
}

// DomainState is the saved state of one domain.
type DomainState struct {
	Fingerprint Fingerprint    `json:"fingerprint"`
	Values      map[string]any `json:"values"`
}

// State captures the current model. Domains with drift still pending keep
// their last reconciled fingerprint.
func (r *Reconciler) State() *State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := &State{SavedAt: now(), Domains: make(map[string]DomainState, len(r.states))}
	for name, st := range r.states {
		out.Domains[name] = DomainState{
			Fingerprint: st.fingerprint,
			Values:      copyValues(st.values),
		}
	}
	return out
}

// Restore replaces the model of every domain in saved with the saved
// values and fingerprint, and clears pending drift. Unknown domains and
// keys are ignored; saved values that no longer validate keep the current
// value. It returns the restored domain names. Call it after Load and
// follow it with Reload.
func (r *Reconciler) Restore(saved *State) []string {
	if saved == nil {
		return nil
	}

	unlock := r.lockDomains(r.allDomainNames())
	defer unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	var restored []string
	for _, d := range r.registry.Domains() {
		ds, ok := saved.Domains[d.Name]
		if !ok {
			continue
		}

		values := copyValues(r.states[d.Name].values)
		for _, k := range d.Keys {
			raw, ok := ds.Values[k.Name]
			if !ok {
				continue
			}
			v, err := k.Normalize(raw)
			if err != nil {
				logging.Warn("Reconciler", "Ignoring saved %s.%s: %v", d.Name, k.Name, err)
				continue
			}
			values[k.Name] = v
		}

		r.states[d.Name] = &domainState{
			values:      values,
			flags:       r.states[d.Name].flags,
			fingerprint: ds.Fingerprint,
		}
		restored = append(restored, d.Name)
	}
	return restored
}

// LoadState reads a State saved with SaveState. A missing file yields nil
// and no error.
func LoadState(st storage.Storage, path string) (*State, error) {
	data, err := st.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", path, err)
	}
	return &s, nil
}

// SaveState writes s to path atomically.
func SaveState(st storage.Storage, path string, s *State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return st.WriteFile(path, append(data, '\n'))
}
