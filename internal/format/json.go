package format

import (
	"bytes"
	"errors"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// jsonCodec reads a top-level JSON object with gjson and edits it in place
// with sjson, so unknown members and the file's layout are kept.
type jsonCodec struct{}

func (jsonCodec) Name() string { return JSON }

type jsonDocument struct {
	data []byte

	// fresh documents are pretty-printed on output; parsed ones keep their layout.
	fresh bool
}

func (jsonCodec) Parse(data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return &jsonDocument{data: []byte("{}"), fresh: true}, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, &ParseError{Format: JSON, Err: errors.New("invalid JSON")}
	}
	if !gjson.ParseBytes(data).IsObject() {
		return nil, &ParseError{Format: JSON, Err: errors.New("top-level value must be an object")}
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	return &jsonDocument{data: buf}, nil
}

func (d *jsonDocument) Keys() []string {
	var keys []string
	gjson.ParseBytes(d.data).ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

func (d *jsonDocument) Get(key string) (any, bool) {
	r := gjson.GetBytes(d.data, key)
	if !r.Exists() {
		return nil, false
	}
	return r.Value(), true
}

func (d *jsonDocument) Set(key string, value any) error {
	out, err := sjson.SetBytes(d.data, key, value)
	if err != nil {
		return err
	}
	d.data = out
	return nil
}

func (d *jsonDocument) Bytes() ([]byte, error) {
	if d.fresh {
		return pretty.PrettyOptions(d.data, &pretty.Options{Width: 80, Indent: "    "}), nil
	}
	return d.data, nil
}
