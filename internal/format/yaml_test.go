package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYAML_KeepsCommentsAndUnknownKeys(t *testing.T) {
	input := `# performance tuning
enableCompositing: true # compositor on
vsync: true
custom:
  fps: 144
`
	doc, err := yamlCodec{}.Parse([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"enableCompositing", "vsync", "custom"}, doc.Keys())

	v, ok := doc.Get("vsync")
	require.True(t, ok)
	assert.Equal(t, true, v)

	require.NoError(t, doc.Set("enableCompositing", false))
	require.NoError(t, doc.Set("tearing", true))

	out, err := doc.Bytes()
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "# performance tuning")
	assert.Contains(t, text, "enableCompositing: false # compositor on")
	assert.Contains(t, text, "custom:\n  fps: 144")
	assert.Contains(t, text, "tearing: true")

	again, err := yamlCodec{}.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"enableCompositing", "vsync", "custom", "tearing"}, again.Keys())
}

func TestYAML_CommentOnlyDocument(t *testing.T) {
	doc, err := yamlCodec{}.Parse([]byte("# nothing here yet\n"))
	require.NoError(t, err)
	assert.Empty(t, doc.Keys())
}
