package settings

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownDomain is returned when a domain name is not registered.
	ErrUnknownDomain = errors.New("unknown domain")

	// ErrUnknownKey is returned when a key is not declared in its domain.
	ErrUnknownKey = errors.New("unknown key")
)

// ValidationError represents a value that failed a key's declared type or predicate
type ValidationError struct {
	Domain  string
	Key     string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	switch {
	case ve.Domain == "" && ve.Key == "":
		return ve.Message
	case ve.Key == "":
		return fmt.Sprintf("domain '%s': %s", ve.Domain, ve.Message)
	default:
		return fmt.Sprintf("%s.%s: %s", ve.Domain, ve.Key, ve.Message)
	}
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
func (ve *ValidationErrors) Add(domain, key, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Domain:  domain,
		Key:     key,
		Value:   val,
		Message: message,
	})
}

// Err returns the collection as an error, or nil when it is empty.
func (ve ValidationErrors) Err() error {
	if !ve.HasErrors() {
		return nil
	}
	return ve
}
