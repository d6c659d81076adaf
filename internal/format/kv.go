package format

import (
	"bytes"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// kvCodec handles "key = value" files such as Hyprland-style .conf files.
// Blank lines, comments and lines that are not simple assignments are kept
// verbatim. A " # comment" after a value survives rewrites of the value.
type kvCodec struct{}

func (kvCodec) Name() string { return KV }

type kvLine struct {
	raw    string
	key    string
	value  string
	prefix string // everything up to and including the space after '='
	suffix string // inline comment with its leading whitespace
}

type kvDocument struct {
	lines    []kvLine
	trailing bool
}

func (kvCodec) Parse(data []byte) (Document, error) {
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, &ParseError{Format: KV, Err: errors.New("binary content")}
	}
	if !utf8.Valid(data) {
		return nil, &ParseError{Format: KV, Err: errors.New("invalid UTF-8")}
	}

	lines, trailing := splitLines(data)
	doc := &kvDocument{trailing: trailing}
	for _, raw := range lines {
		doc.lines = append(doc.lines, parseAssignment(raw, "#", "="))
	}
	return doc, nil
}

// parseAssignment recognizes "key<sep>value" lines. Anything else comes back
// with an empty key.
func parseAssignment(raw, commentPrefixes, separators string) kvLine {
	line := kvLine{raw: raw}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.ContainsAny(trimmed[:1], commentPrefixes) {
		return line
	}

	idx := strings.IndexAny(raw, separators)
	if idx <= 0 {
		return line
	}
	key := strings.TrimSpace(raw[:idx])
	if key == "" || strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return line
	}

	rest := raw[idx+1:]
	value := strings.TrimLeft(rest, " \t")
	if c := inlineComment(value, commentPrefixes); c >= 0 {
		body := strings.TrimRight(value[:c], " \t")
		line.suffix = value[len(body):]
		value = body
	}
	line.key = key
	line.value = parseScalar(value)
	line.prefix = raw[:idx+1] + rest[:len(rest)-len(strings.TrimLeft(rest, " \t"))]
	return line
}

// inlineComment returns the offset of a comment that follows whitespace
// outside double quotes, or -1.
func inlineComment(value, commentPrefixes string) int {
	quoted := false
	for i := 0; i < len(value); i++ {
		switch c := value[i]; {
		case c == '\\' && quoted:
			i++
		case c == '"':
			quoted = !quoted
		case !quoted && i > 0 && strings.IndexByte(commentPrefixes, c) >= 0 &&
			(value[i-1] == ' ' || value[i-1] == '\t'):
			return i
		}
	}
	return -1
}

func (d *kvDocument) Keys() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, l := range d.lines {
		if l.key != "" && !seen[l.key] {
			seen[l.key] = true
			keys = append(keys, l.key)
		}
	}
	return keys
}

// find returns the index of the last assignment to key, which is the one
// that takes effect.
func (d *kvDocument) find(key string) int {
	for i := len(d.lines) - 1; i >= 0; i-- {
		if d.lines[i].key == key {
			return i
		}
	}
	return -1
}

func (d *kvDocument) Get(key string) (any, bool) {
	i := d.find(key)
	if i < 0 {
		return nil, false
	}
	return d.lines[i].value, true
}

func (d *kvDocument) Set(key string, value any) error {
	s, err := formatScalar(value)
	if err != nil {
		return err
	}

	if i := d.find(key); i >= 0 {
		d.lines[i].raw = d.lines[i].prefix + s + d.lines[i].suffix
		d.lines[i].value = parseScalar(s)
		return nil
	}

	prefix := key + " = "
	d.lines = append(d.lines, kvLine{raw: prefix + s, key: key, value: parseScalar(s), prefix: prefix})
	return nil
}

func (d *kvDocument) Bytes() ([]byte, error) {
	lines := make([]string, len(d.lines))
	for i, l := range d.lines {
		lines[i] = l.raw
	}
	return joinLines(lines, d.trailing), nil
}
