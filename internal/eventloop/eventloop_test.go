package eventloop

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/npc/internal/overlay"
)

var _ overlay.Scheduler = (*Loop)(nil)

func startLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	l := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return l, cancel
}

func TestLoop_PostRunsInOrder(t *testing.T) {
	l, _ := startLoop(t)

	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		require.True(t, l.Post(func() {
			defer wg.Done()
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestLoop_AfterFires(t *testing.T) {
	l, _ := startLoop(t)

	fired := make(chan time.Time, 1)
	start := time.Now()
	l.After(30*time.Millisecond, func() { fired <- time.Now() })

	select {
	case at := <-fired:
		assert.GreaterOrEqual(t, at.Sub(start), 30*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestLoop_StoppedTimerNeverRuns(t *testing.T) {
	l, _ := startLoop(t)

	var ran atomic.Bool
	tm := l.After(20*time.Millisecond, func() { ran.Store(true) })
	tm.Stop()

	time.Sleep(80 * time.Millisecond)
	assert.False(t, ran.Load())
}

func TestLoop_StopAfterExpiryBeforeRun(t *testing.T) {
	l, _ := startLoop(t)

	// Block the loop so the timer expires while its task is still queued.
	release := make(chan struct{})
	require.True(t, l.Post(func() { <-release }))

	var ran atomic.Bool
	tm := l.After(time.Millisecond, func() { ran.Store(true) })
	time.Sleep(30 * time.Millisecond)
	tm.Stop()
	close(release)

	flushed := make(chan struct{})
	require.True(t, l.Post(func() { close(flushed) }))
	<-flushed
	assert.False(t, ran.Load())
}

func TestLoop_CallbacksNeverOverlap(t *testing.T) {
	l, _ := startLoop(t)

	var active, maxActive atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		l.After(time.Millisecond, func() {
			defer wg.Done()
			n := active.Add(1)
			if n > maxActive.Load() {
				maxActive.Store(n)
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive.Load())
}

func TestLoop_PostAfterStopFails(t *testing.T) {
	l := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.False(t, l.Post(func() {}))
}
