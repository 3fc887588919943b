package main

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/npc/internal/bot"
	"github.com/jmylchreest/npc/internal/config"
	"github.com/jmylchreest/npc/internal/metrics"
	"github.com/jmylchreest/npc/internal/model"
	"github.com/jmylchreest/npc/internal/overlay"
	"github.com/jmylchreest/npc/internal/queue"
)

func TestRejectReason(t *testing.T) {
	assert.Equal(t, "not_allowed", rejectReason(bot.ErrNotAllowed))
	assert.Equal(t, "rate_limited", rejectReason(bot.ErrRateLimited))
	assert.Equal(t, "unknown_command", rejectReason(bot.ErrUnknownCommand))
	assert.Equal(t, "other", rejectReason(errors.New("boom")))
}

func TestStatusProxy_IdleBeforeRenderer(t *testing.T) {
	p := &statusProxy{}
	assert.Equal(t, overlay.StateIdle, p.Snapshot().State)
}

func TestCountingQueue(t *testing.T) {
	mb := queue.NewMailbox[model.Event]()
	m := metrics.New(prometheus.NewRegistry(), &statusProxy{}, mb)
	q := &countingQueue{Mailbox: mb, metrics: m}

	q.Enqueue(model.Event{ID: "1", Message: "a", Source: model.SourceDBus})
	q.Enqueue(model.Event{ID: "2", Message: "b", Source: model.SourceTelegram})

	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsEnqueued.WithLabelValues(model.SourceDBus)))
}

func TestLogWindow(t *testing.T) {
	w := newLogWindow(slog.Default())
	w.Render(image.NewNRGBA(image.Rect(0, 0, 48, 48)), "Alice approves.")
	w.SetOpacity(1)
	w.SetOpacity(0.5)
	w.SetOpacity(0)
	assert.Equal(t, 0.0, w.alpha)
}

func TestConfigWatcher_CountsRejectedReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "npc.toml")
	require.NoError(t, os.WriteFile(path, []byte("[timing]\ndisplay = \"2s\"\n"), 0600))

	a := newApp(options{configPath: path}, config.DefaultConfig(), &config.Secrets{}, slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startConfigWatcher(ctx, nil, func(fn func()) {
		t.Error("invalid config must not be applied")
	})
	require.NotNil(t, a.configWatcher)
	defer a.configWatcher.Stop()

	require.NoError(t, os.WriteFile(path, []byte("[timing]\nfade_step = 0.3\n"), 0600))

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(a.metrics.ConfigReloadErrors) == 1
	}, 5*time.Second, 20*time.Millisecond)
}
