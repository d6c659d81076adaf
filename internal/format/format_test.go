package format

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCodec(t *testing.T, name, domain string) Codec {
	t.Helper()
	c, err := For(name, domain)
	require.NoError(t, err)
	return c
}

func TestFor(t *testing.T) {
	for _, name := range Names() {
		c, err := For(name, "window")
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
	}

	_, err := For("xml", "window")
	assert.Error(t, err)
}

func TestFromPath(t *testing.T) {
	tests := map[string]string{
		"window.conf":        KV,
		"appearance.ini":     INI,
		"perf.yml":           YAML,
		"performance.yaml":   YAML,
		"notification.json":  JSON,
		"/etc/hyde/foo.toml": TOML,
	}
	for path, want := range tests {
		got, ok := FromPath(path)
		assert.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}

	_, ok := FromPath("settings.xml")
	assert.False(t, ok)
}

func TestEmptyInputIsEmptyDocument(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			doc, err := mustCodec(t, name, "appearance").Parse(nil)
			require.NoError(t, err)
			assert.Empty(t, doc.Keys())

			require.NoError(t, doc.Set("borderRadius", 12))
			require.NoError(t, doc.Set("iconTheme", "Papirus"))
			out, err := doc.Bytes()
			require.NoError(t, err)

			again, err := mustCodec(t, name, "appearance").Parse(out)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"borderRadius", "iconTheme"}, again.Keys())

			theme, ok := again.Get("iconTheme")
			require.True(t, ok)
			assert.Equal(t, "Papirus", theme)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		format string
		input  string
	}{
		{KV, "enableAnimations = true\x00"},
		{KV, "bad \xff utf8"},
		{INI, "[appearance\nborderRadius = 8\n"},
		{INI, "[]\n"},
		{YAML, "vsync: [true\n"},
		{YAML, "- a\n- b\n"},
		{JSON, `{"timeout": 5000`},
		{JSON, `[1, 2, 3]`},
		{TOML, "vsync = = true"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			_, err := mustCodec(t, tt.format, "appearance").Parse([]byte(tt.input))
			require.Error(t, err)

			var perr *ParseError
			assert.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.format, perr.Format)
		})
	}
}

func TestParseError_LineNumber(t *testing.T) {
	_, err := mustCodec(t, INI, "appearance").Parse([]byte("[appearance]\nx = 1\n[broken\n"))
	require.Error(t, err)
	assert.Equal(t, "ini: line 3: malformed section header", err.Error())
}
