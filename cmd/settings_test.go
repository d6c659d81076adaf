package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"hyde/internal/reconciler"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))
}

func TestDomainsCommand(t *testing.T) {
	dir := t.TempDir()

	out := mustExecute(t, dir, "domains", "-o", "json")
	require.True(t, gjson.Valid(out), out)
	assert.Equal(t, []any{"window", "appearance", "performance", "notification"}, gjson.Get(out, "#.name").Value())
	assert.Equal(t, filepath.Join(dir, "appearance.ini"), gjson.Get(out, `#(name=="appearance").file`).String())
	assert.Equal(t, "0..20", gjson.Get(out, `#(name=="appearance").keys.#(name=="borderRadius").constraint`).String())

	out = mustExecute(t, dir, "domains", "-o", "plain")
	assert.Contains(t, out, "DOMAIN")
	assert.Contains(t, out, "dwindle|master")
}

func TestDomainsCommand_FileOverride(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "domains:\n  window:\n    file: hypr/window.yaml\n")

	out := mustExecute(t, dir, "domains", "-o", "json")
	assert.Equal(t, filepath.Join(dir, "hypr", "window.yaml"), gjson.Get(out, `#(name=="window").file`).String())
	assert.Equal(t, "yaml", gjson.Get(out, `#(name=="window").format`).String())
}

func TestGetCommand(t *testing.T) {
	dir := t.TempDir()

	assert.Equal(t, "8\n", mustExecute(t, dir, "get", "appearance.borderRadius"))
	for _, name := range []string{"window.conf", "appearance.ini", "performance.yaml", "notification.json"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	out := mustExecute(t, dir, "get", "-o", "json", "window", "appearance.iconTheme")
	assert.Equal(t, "dwindle", gjson.Get(out, "window.layout").String())
	assert.Equal(t, "Papirus", gjson.Get(out, "appearance.iconTheme").String())
	assert.False(t, gjson.Get(out, "appearance.borderRadius").Exists())
	assert.False(t, gjson.Get(out, "performance").Exists())

	out = mustExecute(t, dir, "get", "--no-headers", "-o", "plain")
	assert.NotContains(t, out, "DEFAULT")
	assert.Contains(t, out, "borderRadius")

	_, err := execute(t, dir, "", "get", "bogus")
	assert.Error(t, err)
	_, err = execute(t, dir, "", "get", "window.bogus")
	assert.Error(t, err)
}

func TestGetCommand_SettingsDirFlag(t *testing.T) {
	dir := t.TempDir()
	settingsDir := filepath.Join(t.TempDir(), "settings")

	mustExecute(t, dir, "--settings-dir", settingsDir, "get")
	assert.FileExists(t, filepath.Join(settingsDir, "window.conf"))
	assert.NoFileExists(t, filepath.Join(dir, "window.conf"))
}

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		name    string
		arg     string
		want    reconciler.Change
		wantErr bool
	}{
		{name: "simple", arg: "window.layout=master", want: reconciler.Change{Domain: "window", Key: "layout", Value: "master"}},
		{name: "spaces trimmed", arg: "appearance.iconTheme= Tela Circle ", want: reconciler.Change{Domain: "appearance", Key: "iconTheme", Value: "Tela Circle"}},
		{name: "value with equals", arg: "appearance.iconTheme=a=b", want: reconciler.Change{Domain: "appearance", Key: "iconTheme", Value: "a=b"}},
		{name: "empty value", arg: "appearance.iconTheme=", want: reconciler.Change{Domain: "appearance", Key: "iconTheme", Value: ""}},
		{name: "no equals", arg: "window.layout", wantErr: true},
		{name: "no key", arg: "window=master", wantErr: true},
		{name: "empty domain", arg: ".layout=master", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAssignment(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetCommand(t *testing.T) {
	dir := t.TempDir()

	out := mustExecute(t, dir, "set", "appearance.borderRadius=12", "window.layout=master", "performance.vsync=off")
	assert.Contains(t, out, "Applied 3 change(s).")

	assert.Equal(t, "12\n", mustExecute(t, dir, "get", "appearance.borderRadius"))
	assert.Equal(t, "master\n", mustExecute(t, dir, "get", "window.layout"))
	assert.Equal(t, "false\n", mustExecute(t, dir, "get", "performance.vsync"))
	assert.Contains(t, readFile(t, filepath.Join(dir, "window.conf")), "layout = master")
	assert.FileExists(t, filepath.Join(dir, stateFileName))
}

func TestSetCommand_JSONOutput(t *testing.T) {
	dir := t.TempDir()

	out := mustExecute(t, dir, "set", "-o", "json", "notification.position=bottom-left")
	require.True(t, gjson.Valid(out), out)
	assert.Equal(t, "manual", gjson.Get(out, "source").String())
	assert.Equal(t, "top-right", gjson.Get(out, "entries.0.old").String())
	assert.Equal(t, "bottom-left", gjson.Get(out, "entries.0.new").String())
}

func TestSetCommand_InvalidChangesWriteNothing(t *testing.T) {
	dir := t.TempDir()
	mustExecute(t, dir, "get")
	before := readFile(t, filepath.Join(dir, "appearance.ini"))

	_, err := execute(t, dir, "", "set", "appearance.borderRadius=25", "window.layout=spiral", "window.gapsIn=8")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be <= 20")
	assert.Contains(t, err.Error(), "must be one of")

	assert.Equal(t, before, readFile(t, filepath.Join(dir, "appearance.ini")))
	assert.Equal(t, "5\n", mustExecute(t, dir, "get", "window.gapsIn"))

	_, err = execute(t, dir, "", "set", "window.layout")
	assert.Error(t, err)
}

func TestSetCommand_DryRun(t *testing.T) {
	dir := t.TempDir()

	out := mustExecute(t, dir, "set", "--dry-run", "appearance.borderRadius=12")
	assert.Contains(t, out, "borderRadius")
	assert.Contains(t, out, "Dry run")
	assert.Equal(t, "8\n", mustExecute(t, dir, "get", "appearance.borderRadius"))
}

func TestSetCommand_UnparseableFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notification.json"), []byte("{not json"), 0644))

	_, err := execute(t, dir, "", "set", "notification.timeout=1000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hyde-settings reset notification")
	assert.Equal(t, "{not json", readFile(t, filepath.Join(dir, "notification.json")))

	out := mustExecute(t, dir, "status", "-o", "json")
	assert.Equal(t, stateUnparseable, gjson.Get(out, `domains.#(domain=="notification").state`).String())

	mustExecute(t, dir, "reset", "notification")
	mustExecute(t, dir, "set", "notification.timeout=1000")
	assert.Equal(t, "1000\n", mustExecute(t, dir, "get", "notification.timeout"))
}

func TestExternalEdit_BlocksUntilAccepted(t *testing.T) {
	dir := t.TempDir()
	mustExecute(t, dir, "status")

	editFile(t, dir, "window.conf", "borderWidth = 2", "borderWidth = 6")

	_, err := execute(t, dir, "", "set", "window.layout=master")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hyde-settings accept window")

	// Other domains are unaffected.
	mustExecute(t, dir, "set", "appearance.borderRadius=10")

	out := mustExecute(t, dir, "status", "-o", "json")
	assert.Equal(t, "window", gjson.Get(out, "drift.drifts.0.domain").String())
	assert.Equal(t, "modified", gjson.Get(out, "drift.drifts.0.kind").String())
	assert.Equal(t, "borderWidth", gjson.Get(out, "drift.drifts.0.keys.0.key").String())
	assert.Equal(t, int64(2), gjson.Get(out, "drift.drifts.0.keys.0.local").Int())
	assert.Equal(t, int64(6), gjson.Get(out, "drift.drifts.0.keys.0.external").Int())
	assert.Contains(t, gjson.Get(out, `domains.#(domain=="window").state`).String(), stateChanged)
	assert.Equal(t, int64(1), gjson.Get(out, "metrics.total_drift_detections").Int())

	out = mustExecute(t, dir, "accept")
	assert.Contains(t, out, "Accepted external changes to window.")

	assert.Equal(t, "6\n", mustExecute(t, dir, "get", "window.borderWidth"))
	mustExecute(t, dir, "set", "window.layout=master")

	out = mustExecute(t, dir, "status", "-o", "json")
	assert.Empty(t, gjson.Get(out, "drift.drifts").Array())
	assert.Equal(t, stateOK, gjson.Get(out, `domains.#(domain=="window").state`).String())
}

func TestExternalEdit_Discard(t *testing.T) {
	dir := t.TempDir()
	mustExecute(t, dir, "set", "appearance.borderRadius=12")

	editFile(t, dir, "appearance.ini", "borderRadius = 12", "borderRadius = 3")

	out := mustExecute(t, dir, "discard", "appearance")
	assert.Contains(t, out, "Discarded external changes to appearance.")
	assert.Contains(t, readFile(t, filepath.Join(dir, "appearance.ini")), "borderRadius = 12")
	assert.Equal(t, "12\n", mustExecute(t, dir, "get", "appearance.borderRadius"))

	out = mustExecute(t, dir, "discard")
	assert.Contains(t, out, "No external changes.")

	out = mustExecute(t, dir, "accept", "window")
	assert.Contains(t, out, "No external changes to window.")
}

func TestExternalEdit_RemovedFile(t *testing.T) {
	dir := t.TempDir()
	mustExecute(t, dir, "set", "performance.tearing=true")

	require.NoError(t, os.Remove(filepath.Join(dir, "performance.yaml")))

	// Load recreates the file from defaults, which differs from the saved
	// state.
	out := mustExecute(t, dir, "status", "-o", "json")
	assert.Equal(t, "performance", gjson.Get(out, "drift.drifts.0.domain").String())

	mustExecute(t, dir, "discard", "performance")
	assert.Equal(t, "true\n", mustExecute(t, dir, "get", "performance.tearing"))
}

func TestResetCommand(t *testing.T) {
	dir := t.TempDir()
	mustExecute(t, dir, "set", "appearance.borderRadius=12", "window.layout=master")

	out := mustExecute(t, dir, "reset", "appearance")
	assert.Contains(t, out, "Reset appearance to defaults.")
	assert.Equal(t, "8\n", mustExecute(t, dir, "get", "appearance.borderRadius"))
	assert.Equal(t, "master\n", mustExecute(t, dir, "get", "window.layout"))

	mustExecute(t, dir, "reset", "--all")
	assert.Equal(t, "dwindle\n", mustExecute(t, dir, "get", "window.layout"))

	_, err := execute(t, dir, "", "reset")
	assert.Error(t, err)
	_, err = execute(t, dir, "", "reset", "--all", "window")
	assert.Error(t, err)
	_, err = execute(t, dir, "", "reset", "bogus")
	assert.Error(t, err)
}

func TestStatusCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "window.conf"), []byte("layout = spiral\ncustom = 1\n"), 0644))

	out := mustExecute(t, dir, "status", "-o", "json")
	assert.Equal(t, stateCreated, gjson.Get(out, `domains.#(domain=="appearance").state`).String())
	assert.Equal(t, stateOK, gjson.Get(out, `domains.#(domain=="window").state`).String())
	assert.Equal(t, "malformed", gjson.Get(out, `flags.window.#(key=="layout").kind`).String())
	assert.Equal(t, "unknown", gjson.Get(out, `flags.window.#(key=="custom").kind`).String())

	out = mustExecute(t, dir, "status")
	assert.Contains(t, out, "STATE")
	assert.Contains(t, out, "No external changes.")
}

func TestSessionHooks(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "applied")
	writeConfig(t, dir, "session:\n  enabled: true\n  hooks:\n    appearance:\n      - touch "+marker+"\n    window:\n      - \"false\"\n")

	mustExecute(t, dir, "set", "appearance.borderRadius=12")
	assert.FileExists(t, marker)

	out, err := execute(t, dir, "", "set", "window.layout=master")
	require.NoError(t, err)
	assert.Contains(t, out, "running session was not updated")
	assert.Equal(t, "master\n", mustExecute(t, dir, "get", "window.layout"))
}

func TestSessionHooksRenderValues(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "session:\n  enabled: true\n  hooks:\n    appearance:\n      - 'touch "+dir+"/{{ borderRadius }}.applied'\n")

	mustExecute(t, dir, "set", "appearance.borderRadius=12")
	assert.FileExists(t, filepath.Join(dir, "12.applied"))
}
