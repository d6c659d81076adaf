package reconciler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"hyde/internal/format"
	"hyde/internal/session"
	"hyde/internal/settings"
	"hyde/internal/storage"
	"hyde/pkg/logging"
)

// Options configures a Reconciler.
type Options struct {
	// Registry declares the domains. Required.
	Registry *settings.Registry

	// Dir is the directory relative domain files are resolved against.
	Dir string

	// Storage defaults to storage.NewDiskStorage().
	Storage storage.Storage

	// Session is notified after every successful apply or reset. Optional.
	Session session.Applier

	// Metrics defaults to a fresh Metrics instance.
	Metrics *Metrics
}

// Reconciler keeps the in-memory settings model, the backing files and,
// optionally, the running desktop session consistent.
//
// All operations are synchronous. Applies to the same domain are serialized
// by a per-domain lock; the model itself is guarded by mu.
type Reconciler struct {
	registry *settings.Registry
	dir      string
	storage  storage.Storage
	session  session.Applier
	metrics  *Metrics

	// locks serializes writers per domain. Always acquired in sorted order.
	locks map[string]*sync.Mutex

	mu     sync.RWMutex
	states map[string]*domainState
}

// domainState is the model of one domain.
type domainState struct {
	values      map[string]any
	flags       []Flag
	fingerprint Fingerprint
	pending     *externalState
}

// externalState is what Reload found on disk for a drifted domain.
type externalState struct {
	fingerprint Fingerprint
	removed     bool
	parseErr    error
	values      map[string]any
	flags       []Flag
}

// New creates a Reconciler. Every domain starts at its defaults; call Load
// before use.
func New(opts Options) (*Reconciler, error) {
	if opts.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if opts.Storage == nil {
		opts.Storage = storage.NewDiskStorage()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}

	r := &Reconciler{
		registry: opts.Registry,
		dir:      opts.Dir,
		storage:  opts.Storage,
		session:  opts.Session,
		metrics:  opts.Metrics,
		locks:    make(map[string]*sync.Mutex),
		states:   make(map[string]*domainState),
	}

	owners := make(map[string]string)
	for _, d := range opts.Registry.Domains() {
		if _, err := format.For(d.Format, d.Name); err != nil {
			return nil, fmt.Errorf("domain %s: %w", d.Name, err)
		}
		path := filepath.Clean(r.pathOf(d))
		if other, taken := owners[path]; taken {
			return nil, fmt.Errorf("domains %s and %s share backing file %s", other, d.Name, path)
		}
		owners[path] = d.Name
		r.locks[d.Name] = &sync.Mutex{}
		r.states[d.Name] = &domainState{values: d.Defaults()}
	}
	return r, nil
}

// Registry returns the domain declarations.
func (r *Reconciler) Registry() *settings.Registry {
	return r.registry
}

// Metrics returns the reconciler's metrics.
func (r *Reconciler) Metrics() *Metrics {
	return r.metrics
}

// Domains returns the domain declarations in registration order.
func (r *Reconciler) Domains() []settings.Domain {
	return r.registry.Domains()
}

// Path returns the resolved backing file of a domain.
func (r *Reconciler) Path(domain string) (string, error) {
	d, err := r.domain(domain)
	if err != nil {
		return "", err
	}
	return r.pathOf(d), nil
}

// Values returns a copy of a domain's current values.
func (r *Reconciler) Values(domain string) (map[string]any, error) {
	if _, err := r.domain(domain); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyValues(r.states[domain].values), nil
}

// Get returns the current value of domain.key.
func (r *Reconciler) Get(domain, key string) (any, error) {
	if _, err := r.registry.Lookup(domain, key); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.states[domain].values[key], nil
}

// Flags returns the load flags of a domain.
func (r *Reconciler) Flags(domain string) ([]Flag, error) {
	if _, err := r.domain(domain); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Flag, len(r.states[domain].flags))
	copy(out, r.states[domain].flags)
	return out, nil
}

// HasPendingDrift reports whether Reload recorded external changes for the
// domain that have been neither accepted nor discarded.
func (r *Reconciler) HasPendingDrift(domain string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.states[domain]
	return ok && st.pending != nil
}

// Snapshot captures the values of every domain. It is safe to hand to
// read-only consumers such as previews.
func (r *Reconciler) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked(nil)
}

// All returns a copy of every domain's values keyed by domain name.
func (r *Reconciler) All() map[string]map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]map[string]any, len(r.states))
	for name, st := range r.states {
		out[name] = copyValues(st.values)
	}
	return out
}

func (r *Reconciler) domain(name string) (settings.Domain, error) {
	d, ok := r.registry.Domain(name)
	if !ok {
		return settings.Domain{}, fmt.Errorf("%w: %s", settings.ErrUnknownDomain, name)
	}
	return d, nil
}

func (r *Reconciler) pathOf(d settings.Domain) string {
	if filepath.IsAbs(d.File) || r.dir == "" {
		return d.File
	}
	return filepath.Join(r.dir, d.File)
}

// lockDomains acquires the apply locks of the given domains in sorted order
// and returns the matching unlock function.
func (r *Reconciler) lockDomains(names []string) func() {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	var held []*sync.Mutex
	for _, name := range sorted {
		if l, ok := r.locks[name]; ok {
			l.Lock()
			held = append(held, l)
		}
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func (r *Reconciler) allDomainNames() []string {
	domains := r.registry.Domains()
	names := make([]string, len(domains))
	for i, d := range domains {
		names[i] = d.Name
	}
	return names
}

// readAll reads the backing files of the given domains concurrently. Read
// failures are reported per domain; only cancellation of ctx fails the
// whole read.
func (r *Reconciler) readAll(ctx context.Context, domains []settings.Domain) ([]fileImage, []error, error) {
	images := make([]fileImage, len(domains))
	errs := make([]error, len(domains))

	g, gctx := errgroup.WithContext(ctx)
	for i, d := range domains {
		i := i
		path := r.pathOf(d)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			images[i], errs[i] = readImage(r.storage, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return images, errs, nil
}

// decode parses a backing file and extracts the domain's values. On a parse
// error the defaults are returned together with the error.
func (r *Reconciler) decode(d settings.Domain, data []byte) (map[string]any, []Flag, error) {
	codec, err := format.For(d.Format, d.Name)
	if err != nil {
		return d.Defaults(), nil, err
	}
	doc, err := codec.Parse(data)
	if err != nil {
		return d.Defaults(), nil, err
	}

	values := make(map[string]any, len(d.Keys))
	var flags []Flag
	for _, k := range d.Keys {
		raw, ok := doc.Get(k.Name)
		if !ok {
			values[k.Name] = k.Default
			flags = append(flags, Flag{Key: k.Name, Kind: FlagMissing})
			continue
		}
		v, err := k.Normalize(raw)
		if err != nil {
			values[k.Name] = k.Default
			flags = append(flags, Flag{Key: k.Name, Kind: FlagMalformed, Raw: raw, Reason: err.Error()})
			continue
		}
		values[k.Name] = v
	}

	for _, name := range doc.Keys() {
		if _, declared := d.Key(name); !declared {
			raw, _ := doc.Get(name)
			flags = append(flags, Flag{Key: name, Kind: FlagUnknown, Raw: raw})
		}
	}
	return values, flags, nil
}

// render sets values on top of base and returns the new file content. A
// base that does not parse is replaced by a fresh document.
func (r *Reconciler) render(d settings.Domain, base []byte, values map[string]any) ([]byte, error) {
	codec, err := format.For(d.Format, d.Name)
	if err != nil {
		return nil, err
	}
	doc, err := codec.Parse(base)
	if err != nil {
		if doc, err = codec.Parse(nil); err != nil {
			return nil, err
		}
	}

	// Declaration order keeps newly added keys in a stable order.
	for _, k := range d.Keys {
		v, ok := values[k.Name]
		if !ok {
			continue
		}
		if err := doc.Set(k.Name, v); err != nil {
			return nil, fmt.Errorf("set %s: %w", k.Name, err)
		}
	}
	return doc.Bytes()
}

// notifySession runs the live-session hook for a domain after its values
// have been committed.
func (r *Reconciler) notifySession(ctx context.Context, domain string, values map[string]any) error {
	if r.session == nil {
		return nil
	}
	if err := r.session.Apply(ctx, domain, values); err != nil {
		logging.Warn("Reconciler", "Live session update for %s failed: %v", domain, err)
		return &SessionError{Domain: domain, Err: err}
	}
	return nil
}

func (r *Reconciler) snapshotLocked(files map[string]fileImage) *Snapshot {
	values := make(map[string]map[string]any, len(r.states))
	for name, st := range r.states {
		values[name] = copyValues(st.values)
	}
	return &Snapshot{
		id:      newID(),
		takenAt: now(),
		values:  values,
		files:   files,
	}
}
