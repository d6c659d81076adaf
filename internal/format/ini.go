package format

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// iniCodec handles INI files. Only the section named after the domain is
// read and edited; every other section passes through.
type iniCodec struct {
	section string
}

func (iniCodec) Name() string { return INI }

type iniLine struct {
	kvLine
	section string
	header  bool
}

type iniDocument struct {
	section  string
	lines    []iniLine
	trailing bool
}

func (c iniCodec) Parse(data []byte) (Document, error) {
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, &ParseError{Format: INI, Err: errors.New("binary content")}
	}
	if !utf8.Valid(data) {
		return nil, &ParseError{Format: INI, Err: errors.New("invalid UTF-8")}
	}

	lines, trailing := splitLines(data)
	doc := &iniDocument{section: c.section, trailing: trailing}
	current := ""

	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if strings.HasPrefix(trimmed, "[") {
			if at := inlineComment(trimmed, "#;"); at >= 0 {
				trimmed = strings.TrimSpace(trimmed[:at])
			}
			if !strings.HasSuffix(trimmed, "]") {
				return nil, &ParseError{Format: INI, Line: i + 1, Err: errors.New("malformed section header")}
			}
			name := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
			if name == "" {
				return nil, &ParseError{Format: INI, Line: i + 1, Err: errors.New("empty section name")}
			}
			current = name
			doc.lines = append(doc.lines, iniLine{kvLine: kvLine{raw: raw}, section: current, header: true})
			continue
		}
		doc.lines = append(doc.lines, iniLine{kvLine: parseAssignment(raw, "#;", "=:"), section: current})
	}
	return doc, nil
}

func (d *iniDocument) Keys() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, l := range d.lines {
		if l.section == d.section && l.key != "" && !seen[l.key] {
			seen[l.key] = true
			keys = append(keys, l.key)
		}
	}
	return keys
}

func (d *iniDocument) find(key string) int {
	for i := len(d.lines) - 1; i >= 0; i-- {
		if d.lines[i].section == d.section && d.lines[i].key == key {
			return i
		}
	}
	return -1
}

func (d *iniDocument) Get(key string) (any, bool) {
	i := d.find(key)
	if i < 0 {
		return nil, false
	}
	return d.lines[i].value, true
}

func (d *iniDocument) Set(key string, value any) error {
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
	entry := iniLine{kvLine: kvLine{raw: prefix + s, key: key, value: parseScalar(s), prefix: prefix}, section: d.section}

	// Insert after the last header or entry of our section.
	at := -1
	for i, l := range d.lines {
		if l.section == d.section && (l.header || l.key != "") {
			at = i
		}
	}

	if at < 0 {
		if d.section == "" {
			d.lines = append([]iniLine{entry}, d.lines...)
			return nil
		}
		if len(d.lines) > 0 && strings.TrimSpace(d.lines[len(d.lines)-1].raw) != "" {
			d.lines = append(d.lines, iniLine{})
		}
		header := iniLine{kvLine: kvLine{raw: fmt.Sprintf("[%s]", d.section)}, section: d.section, header: true}
		d.lines = append(d.lines, header, entry)
		return nil
	}

	d.lines = append(d.lines[:at+1], append([]iniLine{entry}, d.lines[at+1:]...)...)
	return nil
}

func (d *iniDocument) Bytes() ([]byte, error) {
	lines := make([]string, len(d.lines))
	for i, l := range d.lines {
		lines[i] = l.raw
	}
	return joinLines(lines, d.trailing), nil
}
