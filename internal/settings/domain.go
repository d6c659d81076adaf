package settings

import (
	"fmt"
	"regexp"
	"sort"
)

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Domain is a named group of related keys backed by one file.
type Domain struct {
	Name string

	// File is the backing file. Relative paths are resolved against the
	// settings directory.
	File string

	// Format is the codec name of the backing file (kv, ini, yaml, json, toml).
	Format string

	Keys []Key
}

// Key returns the declared key with the given name.
func (d Domain) Key(name string) (Key, bool) {
	for _, k := range d.Keys {
		if k.Name == name {
			return k, true
		}
	}
	return Key{}, false
}

// KeyNames returns the key names in declaration order.
func (d Domain) KeyNames() []string {
	names := make([]string, len(d.Keys))
	for i, k := range d.Keys {
		names[i] = k.Name
	}
	return names
}

// Defaults returns a fresh map of every key's default value.
func (d Domain) Defaults() map[string]any {
	values := make(map[string]any, len(d.Keys))
	for _, k := range d.Keys {
		values[k.Name] = k.Default
	}
	return values
}

// Registry holds the ordered set of domains known to the reconciler.
type Registry struct {
	domains []Domain
	index   map[string]int
}

// NewRegistry validates the domains and builds a registry from them. Domain
// names must be unique, key names unique within a domain, and every default
// must pass its own key's checks.
func NewRegistry(domains ...Domain) (*Registry, error) {
	var errs ValidationErrors
	r := &Registry{index: make(map[string]int, len(domains))}

	for _, d := range domains {
		if !namePattern.MatchString(d.Name) {
			errs.Add(d.Name, "", "invalid domain name")
			continue
		}
		if _, dup := r.index[d.Name]; dup {
			errs.Add(d.Name, "", "duplicate domain")
			continue
		}
		if d.File == "" {
			errs.Add(d.Name, "", "backing file is required")
		}
		if d.Format == "" {
			errs.Add(d.Name, "", "format is required")
		}

		seen := make(map[string]bool, len(d.Keys))
		for _, k := range d.Keys {
			if !namePattern.MatchString(k.Name) {
				errs.Add(d.Name, k.Name, "invalid key name")
				continue
			}
			if seen[k.Name] {
				errs.Add(d.Name, k.Name, "duplicate key")
				continue
			}
			seen[k.Name] = true
			if !k.Type.Valid() {
				errs.Add(d.Name, k.Name, fmt.Sprintf("unsupported type %q", k.Type))
				continue
			}
			if k.Type == TypeEnum && len(k.Enum) == 0 {
				errs.Add(d.Name, k.Name, "enum key needs at least one value")
				continue
			}
			if err := k.Check(k.Default); err != nil {
				errs.Add(d.Name, k.Name, "invalid default: "+err.Error(), k.Default)
			}
		}

		r.index[d.Name] = len(r.domains)
		r.domains = append(r.domains, d)
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return r, nil
}

// Domains returns the registered domains in registration order.
func (r *Registry) Domains() []Domain {
	out := make([]Domain, len(r.domains))
	copy(out, r.domains)
	return out
}

// Names returns the registered domain names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.domains))
	for _, d := range r.domains {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}

// Domain returns the domain with the given name.
func (r *Registry) Domain(name string) (Domain, bool) {
	i, ok := r.index[name]
	if !ok {
		return Domain{}, false
	}
	return r.domains[i], true
}

// Lookup returns the key declared as domain.key.
func (r *Registry) Lookup(domain, key string) (Key, error) {
	d, ok := r.Domain(domain)
	if !ok {
		return Key{}, fmt.Errorf("%w: %s", ErrUnknownDomain, domain)
	}
	k, ok := d.Key(key)
	if !ok {
		return Key{}, fmt.Errorf("%w: %s.%s", ErrUnknownKey, domain, key)
	}
	return k, nil
}
