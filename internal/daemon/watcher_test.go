package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/npc/internal/config"
)

func startWatcher(t *testing.T) (string, chan *config.Config, chan error) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "npc.toml")
	require.NoError(t, os.WriteFile(path, []byte("[timing]\ndisplay = \"2s\"\n"), 0600))

	reloads := make(chan *config.Config, 4)
	errs := make(chan error, 4)

	w := NewConfigWatcher(path, nil)
	w.SetDebounce(20 * time.Millisecond)
	w.SetReloadCallback(func(c *config.Config) { reloads <- c })
	w.SetErrorCallback(func(err error) { errs <- err })

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)

	return path, reloads, errs
}

func TestConfigWatcher_ReloadsValidChange(t *testing.T) {
	path, reloads, _ := startWatcher(t)

	require.NoError(t, os.WriteFile(path, []byte("[timing]\ndisplay = \"3s\"\n\n[sound]\nvolume = 30\n"), 0600))

	select {
	case cfg := <-reloads:
		assert.Equal(t, 3*time.Second, cfg.Timing.Display.Duration())
		assert.Equal(t, 30, cfg.Sound.Volume)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after config change")
	}
}

func TestConfigWatcher_KeepsPreviousConfigOnError(t *testing.T) {
	path, reloads, errs := startWatcher(t)

	require.NoError(t, os.WriteFile(path, []byte("[timing]\nfade_step = 0.3\n"), 0600))

	select {
	case err := <-errs:
		assert.Contains(t, err.Error(), "fade_step")
	case cfg := <-reloads:
		t.Fatalf("unexpected reload: %+v", cfg)
	case <-time.After(5 * time.Second):
		t.Fatal("no error after invalid config change")
	}

	select {
	case cfg := <-reloads:
		t.Fatalf("invalid config was applied: %+v", cfg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	path, reloads, errs := startWatcher(t)

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.toml"), []byte("junk"), 0600))

	select {
	case <-reloads:
		t.Fatal("reloaded for an unrelated file")
	case <-errs:
		t.Fatal("error for an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestConfigWatcher_StartFailsForMissingDirectory(t *testing.T) {
	w := NewConfigWatcher(filepath.Join(t.TempDir(), "missing", "npc.toml"), nil)
	assert.Error(t, w.Start(context.Background()))
	w.Stop()
}
