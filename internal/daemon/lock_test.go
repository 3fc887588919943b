package daemon

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "npc", "npcd.lock")

	first := NewInstanceLock(path)
	require.NoError(t, first.Acquire())
	assert.Equal(t, path, first.Path())

	second := NewInstanceLock(path)
	assert.ErrorIs(t, second.Acquire(), ErrAlreadyRunning)

	require.NoError(t, first.Release())
	require.NoError(t, second.Acquire())
	require.NoError(t, second.Release())
}

func TestLockPath_UsesRuntimeDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)
	assert.Equal(t, filepath.Join(dir, "npc", "npcd.lock"), LockPath())
}

func TestNotifyWithoutSystemd(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	NotifyReady(nil)
	NotifyReloading(nil)
	NotifyStopping(nil)
}
