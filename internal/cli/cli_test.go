package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelepuginivan/veil/dbusapi"
	"github.com/shelepuginivan/veil/tray"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := NewRootCmd("test")
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.Execute()
	return out.String(), err
}

func TestDefaultConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := DefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "veil", "settings.toml"), path)

	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", home)

	path, err = DefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "veil", "settings.toml"), path)
}

func TestConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	out, err := execute(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "veil", "settings.toml"), strings.TrimSpace(out))

	out, err = execute(t, "config", "path", "--config", "/tmp/custom.toml")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.toml", strings.TrimSpace(out))
}

func TestConfigSchema(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	out, err := execute(t, "config", "schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Equal(t, "veil settings", schema["title"])
	assert.Contains(t, schema, "properties")
}

func TestAllowRequiresName(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := execute(t, "allow")
	assert.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	cmd := NewRootCmd("test")

	for _, name := range []string{"daemon", "toggle", "show", "hide", "status", "items", "prune", "allow", "prefs", "config"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}

	daemon, _, err := cmd.Find([]string{"daemon"})
	require.NoError(t, err)
	assert.NotNil(t, daemon.Flags().Lookup("watcher"))

	items, _, err := cmd.Find([]string{"items"})
	require.NoError(t, err)
	assert.NotNil(t, items.Flags().Lookup("visible"))
}

func TestWriteItems(t *testing.T) {
	var out bytes.Buffer

	writeItems(&out, []dbusapi.ItemState{
		{Name: "nm-applet", Visible: true, Opacity: 255},
		{Name: "a", Visible: false, Opacity: 0},
	})

	assert.Equal(t,
		"NAME       VISIBLE  OPACITY\n"+
			"nm-applet  true     255\n"+
			"a          false    0\n",
		out.String())
}

func TestItemStates(t *testing.T) {
	states := itemStates([]tray.SlotState{
		{Name: "a", Visible: true, Opacity: 128, X: -4.5},
	})

	assert.Equal(t, []dbusapi.ItemState{
		{Name: "a", Visible: true, Opacity: 128, X: -4.5},
	}, states)

	assert.Empty(t, itemStates(nil))
}

func TestVisibilityString(t *testing.T) {
	assert.Equal(t, "shown", visibilityString(true))
	assert.Equal(t, "hidden", visibilityString(false))
}
