package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"hyde/internal/format"
	"hyde/internal/settings"
	"hyde/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks every field and reports all problems at once.
func (c HydeConfig) Validate() error {
	var errs ValidationErrors

	known := make(map[string]bool)
	for _, d := range settings.DefaultDomains() {
		known[d.Name] = true
	}

	for name, o := range c.Domains {
		field := "domains." + name
		if !known[name] {
			errs.Add(field, "unknown domain", name)
			continue
		}
		if o.Format != "" {
			if _, err := format.For(o.Format, name); err != nil {
				errs.Add(field+".format", fmt.Sprintf("must be one of: %s", strings.Join(format.Names(), ", ")), o.Format)
			}
		}
	}

	owners := make(map[string]string)
	for _, d := range settings.DefaultDomains() {
		file := d.File
		if o, ok := c.Domains[d.Name]; ok && o.File != "" {
			file = o.File
		}
		file = filepath.Clean(file)
		if other, taken := owners[file]; taken {
			errs.Add("domains."+d.Name+".file", "shares its file with domain "+other, file)
			continue
		}
		owners[file] = d.Name
	}

	for domain, cmds := range c.Session.Hooks {
		if domain != "*" && !known[domain] {
			errs.Add("session.hooks."+domain, "unknown domain", domain)
		}
		for i, cmd := range cmds {
			if strings.TrimSpace(cmd) == "" {
				errs.Add(fmt.Sprintf("session.hooks.%s[%d]", domain, i), "must not be empty")
			}
		}
	}
	if c.Session.Timeout < 0 {
		errs.Add("session.timeout", "must not be negative", c.Session.Timeout)
	}

	if t := c.Assistant.Temperature; t < 0 || t > 2 {
		errs.Add("assistant.temperature", "must be between 0 and 2", t)
	}
	if c.Assistant.MaxHistory < 0 {
		errs.Add("assistant.maxHistory", "must not be negative", c.Assistant.MaxHistory)
	}
	if c.Watch.Debounce < 0 {
		errs.Add("watch.debounce", "must not be negative", c.Watch.Debounce)
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs.Add("logging.level", "must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch logging.Format(c.Logging.Format) {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		errs.Add("logging.format", "must be text or json", c.Logging.Format)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Registry returns the built-in domains with the configured overrides
// applied.
func (c HydeConfig) Registry() (*settings.Registry, error) {
	domains := settings.DefaultDomains()
	for i := range domains {
		o, ok := c.Domains[domains[i].Name]
		if !ok {
			continue
		}
		if o.File != "" {
			domains[i].File = o.File
		}
		if o.Format != "" {
			domains[i].Format = o.Format
		} else if o.File != "" {
			if f, ok := format.FromPath(o.File); ok {
				domains[i].Format = f
			}
		}
	}
	return settings.NewRegistry(domains...)
}
