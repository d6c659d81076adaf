package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const windowConf = `# managed by hyde
enableAnimations = true
borderWidth=2

general {
    border_size = 2
}
source = ~/.config/hypr/themes/theme.conf
iconTheme = "  padded  "
`

func TestKV_PreservesUnrelatedLines(t *testing.T) {
	doc, err := kvCodec{}.Parse([]byte(windowConf))
	require.NoError(t, err)

	assert.Equal(t, []string{"enableAnimations", "borderWidth", "border_size", "source", "iconTheme"}, doc.Keys())

	v, ok := doc.Get("borderWidth")
	require.True(t, ok)
	assert.Equal(t, "2", v)

	v, ok = doc.Get("iconTheme")
	require.True(t, ok)
	assert.Equal(t, "  padded  ", v)

	require.NoError(t, doc.Set("borderWidth", 4))
	require.NoError(t, doc.Set("layout", "master"))

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Equal(t, `# managed by hyde
enableAnimations = true
borderWidth=4

general {
    border_size = 2
}
source = ~/.config/hypr/themes/theme.conf
iconTheme = "  padded  "
layout = master
`, string(out))
}

func TestKV_LastAssignmentWins(t *testing.T) {
	doc, err := kvCodec{}.Parse([]byte("gapsIn = 3\ngapsIn = 7\n"))
	require.NoError(t, err)

	v, _ := doc.Get("gapsIn")
	assert.Equal(t, "7", v)

	require.NoError(t, doc.Set("gapsIn", 9))
	out, _ := doc.Bytes()
	assert.Equal(t, "gapsIn = 3\ngapsIn = 9\n", string(out))
}

func TestKV_RejectsMultilineValue(t *testing.T) {
	doc, err := kvCodec{}.Parse(nil)
	require.NoError(t, err)
	assert.Error(t, doc.Set("iconTheme", "a\nb"))
}

func TestKV_NoTrailingNewlineKept(t *testing.T) {
	doc, err := kvCodec{}.Parse([]byte("vsync = true"))
	require.NoError(t, err)
	require.NoError(t, doc.Set("vsync", false))
	out, _ := doc.Bytes()
	assert.Equal(t, "vsync = false", string(out))
}

func TestKV_InlineComments(t *testing.T) {
	doc, err := kvCodec{}.Parse([]byte("borderWidth = 3 # thin\ncol = #33ccff\ntitle = \"a # b\" # quoted\n"))
	require.NoError(t, err)

	v, _ := doc.Get("borderWidth")
	assert.Equal(t, "3", v)
	v, _ = doc.Get("col")
	assert.Equal(t, "#33ccff", v)
	v, _ = doc.Get("title")
	assert.Equal(t, "a # b", v)

	require.NoError(t, doc.Set("borderWidth", 5))
	require.NoError(t, doc.Set("layout", "x # y"))
	out, _ := doc.Bytes()
	assert.Equal(t, "borderWidth = 5 # thin\ncol = #33ccff\ntitle = \"a # b\" # quoted\nlayout = \"x # y\"\n", string(out))
}
