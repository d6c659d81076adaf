package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Render(t *testing.T) {
	e := New()
	vars := map[string]any{
		"borderWidth":   2,
		"activeOpacity": 0.85,
		"vsync":         true,
		"iconTheme":     "Tela Circle",
	}

	tests := []struct {
		name     string
		template string
		want     string
		wantErr  string
	}{
		{"spaced", "general:border_size {{ borderWidth }}", "general:border_size 2", ""},
		{"compact", "{{borderWidth}}px", "2px", ""},
		{"dot prefix", "{{ .vsync }}", "true", ""},
		{"float", "opacity {{ activeOpacity }}", "opacity 0.85", ""},
		{"repeated", "{{ borderWidth }}x{{ borderWidth }}", "2x2", ""},
		{"no placeholders", "hyprctl reload", "hyprctl reload", ""},
		{"missing", "{{ nope }} {{ nope }} {{ other }}", "", "missing template variables: nope, other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Render(tt.template, vars)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_RenderArgs(t *testing.T) {
	e := New()

	args, err := e.RenderArgs("gsettings set org.gnome.desktop.interface icon-theme {{ iconTheme }}",
		map[string]any{"iconTheme": "Tela Circle"})
	require.NoError(t, err)
	assert.Equal(t, []string{"gsettings", "set", "org.gnome.desktop.interface", "icon-theme", "Tela Circle"}, args)

	args, err = e.RenderArgs("hyprctl keyword decoration:rounding {{ borderRadius }} --dir={{ .dir }}/x",
		map[string]any{"borderRadius": 12, "dir": "/tmp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"hyprctl", "keyword", "decoration:rounding", "12", "--dir=/tmp/x"}, args)

	_, err = e.RenderArgs("notify-send {{ missing }}", nil)
	assert.ErrorContains(t, err, "missing template variables: missing")

	_, err = e.RenderArgs("   ", nil)
	assert.Error(t, err)
}

func TestEngine_Replace(t *testing.T) {
	e := New()
	value := map[string]any{
		"cmd":  "{{ layout }}",
		"args": []any{"{{ gapsIn }}", 3},
	}

	got, err := e.Replace(value, map[string]any{"layout": "master", "gapsIn": 5})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"cmd":  "master",
		"args": []any{"5", 3},
	}, got)

	_, err = e.Replace([]any{"{{ missing }}"}, nil)
	assert.ErrorContains(t, err, "error at index 0")
}

func TestEngine_ExtractAndValidate(t *testing.T) {
	e := New()
	tmpl := "{{ gapsOut }} {{gapsIn}} {{ gapsOut }}"

	assert.Equal(t, []string{"gapsIn", "gapsOut"}, e.ExtractVariables(tmpl))
	assert.NoError(t, e.ValidateContext(tmpl, map[string]any{"gapsIn": 1, "gapsOut": 2}))
	assert.EqualError(t, e.ValidateContext(tmpl, map[string]any{"gapsIn": 1}), "missing required variables: gapsOut")
}

func TestMergeContexts(t *testing.T) {
	merged := MergeContexts(
		map[string]any{"domain": "window", "a": 1},
		map[string]any{"a": 2},
		nil,
	)
	assert.Equal(t, map[string]any{"domain": "window", "a": 2}, merged)
}
