package config

import (
	"fmt"
	"strings"
)

// Error types of a ConfigurationError.
const (
	ErrorTypeIO         = "io"
	ErrorTypeParse      = "parse"
	ErrorTypeValidation = "validation"
)

// ConfigurationError represents a structured error that occurs during configuration loading
type ConfigurationError struct {
	FilePath  string `json:"filePath"`
	ErrorType string `json:"errorType"` // io, parse or validation
	Message   string `json:"message"`
	Cause     error  `json:"-"`
}

// Error implements the error interface
func (ce *ConfigurationError) Error() string {
	return fmt.Sprintf("%s error in %s: %s", ce.ErrorType, ce.FilePath, ce.Message)
}

func (ce *ConfigurationError) Unwrap() error {
	return ce.Cause
}

// DetailedError returns a multi-line message with suggestions.
func (ce *ConfigurationError) DetailedError() string {
	parts := []string{
		fmt.Sprintf("Configuration Error in %s", ce.FilePath),
		fmt.Sprintf("  Type: %s", ce.ErrorType),
		fmt.Sprintf("  Error: %s", ce.Message),
	}
	switch ce.ErrorType {
	case ErrorTypeParse:
		parts = append(parts, "  Suggestions:", "    - Check YAML indentation and quoting")
	case ErrorTypeValidation:
		parts = append(parts, "  Suggestions:", "    - Remove the offending field to fall back to its default")
	}
	return strings.Join(parts, "\n")
}
