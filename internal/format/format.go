package format

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Supported format names.
const (
	KV   = "kv"
	INI  = "ini"
	YAML = "yaml"
	JSON = "json"
	TOML = "toml"
)

// Document is a parsed backing file. Keys not touched through Set are
// written back as they were read.
type Document interface {
	// Keys returns the top-level keys present in the document, in file order.
	Keys() []string

	// Get returns the raw value stored under key. Text formats return strings.
	Get(key string) (any, bool)

	// Set stores value under key, adding the key when it is absent.
	Set(key string, value any) error

	// Bytes renders the document.
	Bytes() ([]byte, error)
}

// Codec parses backing files of one format. Parsing nil or empty input yields
// an empty document.
type Codec interface {
	Name() string
	Parse(data []byte) (Document, error)
}

// ParseError reports a file that could not be parsed at all.
type ParseError struct {
	Format string
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// For returns the codec for a format. The domain name selects the section of
// INI files that holds the domain's keys.
func For(format, domain string) (Codec, error) {
	switch strings.ToLower(format) {
	case KV:
		return kvCodec{}, nil
	case INI:
		return iniCodec{section: domain}, nil
	case YAML:
		return yamlCodec{}, nil
	case JSON:
		return jsonCodec{}, nil
	case TOML:
		return tomlCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// Names returns every supported format name.
func Names() []string {
	return []string{KV, INI, YAML, JSON, TOML}
}

// FromPath guesses the format from a file extension.
func FromPath(path string) (string, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".conf", ".kv", ".env":
		return KV, true
	case ".ini":
		return INI, true
	case ".yaml", ".yml":
		return YAML, true
	case ".json":
		return JSON, true
	case ".toml":
		return TOML, true
	}
	return "", false
}

// formatScalar renders a canonical value for the line-based formats.
func formatScalar(value any) (string, error) {
	switch v := value.(type) {
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case string:
		if strings.ContainsAny(v, "\r\n") {
			return "", fmt.Errorf("value contains a line break")
		}
		if v == "" || v != strings.TrimSpace(v) || (strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`)) ||
			inlineComment(v, "#;") >= 0 {
			return strconv.Quote(v), nil
		}
		return v, nil
	default:
		return "", fmt.Errorf("unsupported value type %T", value)
	}
}

// parseScalar strips the quoting added by formatScalar.
func parseScalar(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) {
		if s, err := strconv.Unquote(raw); err == nil {
			return s
		}
	}
	return raw
}

// splitLines splits text into lines and reports whether it ended with a newline.
func splitLines(data []byte) ([]string, bool) {
	if len(data) == 0 {
		return nil, true
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	trailing := strings.HasSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n"), trailing
}

func joinLines(lines []string, trailing bool) []byte {
	if len(lines) == 0 {
		return nil
	}
	out := strings.Join(lines, "\n")
	if trailing {
		out += "\n"
	}
	return []byte(out)
}
