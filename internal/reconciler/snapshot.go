package reconciler

import (
	"time"
)

// Snapshot is an immutable capture of the model taken before an apply. For
// the domains the apply touches it also holds the backing files' bytes so
// they can be restored.
type Snapshot struct {
	id      string
	takenAt time.Time
	values  map[string]map[string]any
	files   map[string]fileImage
}

// ID returns the snapshot's unique id.
func (s *Snapshot) ID() string {
	return s.id
}

// TakenAt returns when the snapshot was captured.
func (s *Snapshot) TakenAt() time.Time {
	return s.takenAt
}

// Domains returns the names of the captured domains.
func (s *Snapshot) Domains() []string {
	out := make([]string, 0, len(s.values))
	for name := range s.values {
		out = append(out, name)
	}
	return out
}

// Values returns a copy of one domain's captured values.
func (s *Snapshot) Values(domain string) (map[string]any, bool) {
	v, ok := s.values[domain]
	if !ok {
		return nil, false
	}
	return copyValues(v), true
}

// File returns a copy of the captured backing file of a domain and whether
// the file existed. ok is false when the domain's file was not captured.
func (s *Snapshot) File(domain string) (data []byte, existed bool, ok bool) {
	img, ok := s.files[domain]
	if !ok {
		return nil, false, false
	}
	if img.data != nil {
		data = make([]byte, len(img.data))
		copy(data, img.data)
	}
	return data, img.exists, true
}

func copyValues(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
