package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/npc/internal/config"
)

func withConfigOpts(t *testing.T, path string, force bool) *bytes.Buffer {
	t.Helper()
	setupLogger()
	configOpts.path = path
	configOpts.force = force
	t.Cleanup(func() {
		configOpts.path = ""
		configOpts.force = false
	})

	var buf bytes.Buffer
	configInitCmd.SetOut(&buf)
	t.Cleanup(func() { configInitCmd.SetOut(nil) })
	return &buf
}

func TestRunConfigInit_WritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "npc.toml")
	buf := withConfigOpts(t, path, false)

	require.NoError(t, runConfigInit(configInitCmd, nil))
	assert.Equal(t, path+"\n", buf.String())

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestRunConfigInit_RefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "npc.toml")
	require.NoError(t, os.WriteFile(path, []byte("[sound]\nvolume = 10\n"), 0600))

	withConfigOpts(t, path, false)
	err := runConfigInit(configInitCmd, nil)
	assert.ErrorContains(t, err, "already exists")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "volume = 10")
}

func TestRunConfigInit_Force(t *testing.T) {
	path := filepath.Join(t.TempDir(), "npc.toml")
	require.NoError(t, os.WriteFile(path, []byte("[sound]\nvolume = 10\n"), 0600))

	withConfigOpts(t, path, true)
	require.NoError(t, runConfigInit(configInitCmd, nil))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Sound.Volume, cfg.Sound.Volume)
}
