package format

import (
	"bytes"

	"github.com/BurntSushi/toml"
)

// tomlCodec round-trips TOML through a map. Unknown keys and tables are kept;
// comments and key order are not.
type tomlCodec struct{}

func (tomlCodec) Name() string { return TOML }

type tomlDocument struct {
	values map[string]any
	order  []string
}

func (tomlCodec) Parse(data []byte) (Document, error) {
	doc := &tomlDocument{values: make(map[string]any)}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	md, err := toml.Decode(string(data), &doc.values)
	if err != nil {
		return nil, &ParseError{Format: TOML, Err: err}
	}
	for _, k := range md.Keys() {
		if len(k) == 1 {
			doc.order = append(doc.order, k[0])
		}
	}
	return doc, nil
}

func (d *tomlDocument) Keys() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

func (d *tomlDocument) Get(key string) (any, bool) {
	v, ok := d.values[key]
	return v, ok
}

func (d *tomlDocument) Set(key string, value any) error {
	if _, ok := d.values[key]; !ok {
		d.order = append(d.order, key)
	}
	d.values[key] = value
	return nil
}

func (d *tomlDocument) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(d.values); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
