package format

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// yamlCodec edits a top-level YAML mapping through yaml.v3 nodes so comments,
// key order and unknown keys survive a rewrite.
type yamlCodec struct{}

func (yamlCodec) Name() string { return YAML }

type yamlDocument struct {
	root    *yaml.Node
	mapping *yaml.Node
}

func (yamlCodec) Parse(data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return newYAMLDocument(), nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ParseError{Format: YAML, Err: err}
	}

	// A document made only of comments decodes to an empty node.
	if root.Kind == 0 || len(root.Content) == 0 {
		return newYAMLDocument(), nil
	}
	if root.Kind != yaml.DocumentNode || root.Content[0].Kind != yaml.MappingNode {
		return nil, &ParseError{Format: YAML, Err: errors.New("top-level value must be a mapping")}
	}
	return &yamlDocument{root: &root, mapping: root.Content[0]}, nil
}

func newYAMLDocument() *yamlDocument {
	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	return &yamlDocument{
		root:    &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{mapping}},
		mapping: mapping,
	}
}

func (d *yamlDocument) Keys() []string {
	var keys []string
	for i := 0; i+1 < len(d.mapping.Content); i += 2 {
		keys = append(keys, d.mapping.Content[i].Value)
	}
	return keys
}

func (d *yamlDocument) find(key string) int {
	for i := 0; i+1 < len(d.mapping.Content); i += 2 {
		if d.mapping.Content[i].Value == key {
			return i + 1
		}
	}
	return -1
}

func (d *yamlDocument) Get(key string) (any, bool) {
	i := d.find(key)
	if i < 0 {
		return nil, false
	}
	var v any
	if err := d.mapping.Content[i].Decode(&v); err != nil {
		return nil, true
	}
	return v, true
}

func (d *yamlDocument) Set(key string, value any) error {
	var node yaml.Node
	if err := node.Encode(value); err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if i := d.find(key); i >= 0 {
		old := d.mapping.Content[i]
		node.HeadComment = old.HeadComment
		node.LineComment = old.LineComment
		node.FootComment = old.FootComment
		d.mapping.Content[i] = &node
		return nil
	}

	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	d.mapping.Content = append(d.mapping.Content, keyNode, &node)
	return nil
}

func (d *yamlDocument) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
