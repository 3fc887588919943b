// Package eventloop provides a single-goroutine cooperative scheduler for
// running the overlay renderer without a GUI toolkit main loop.
package eventloop

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/npc/internal/overlay"
)

// Loop runs posted functions and timer callbacks one at a time on the
// goroutine that called Run.
type Loop struct {
	logger *slog.Logger
	tasks  chan func()

	doneOnce sync.Once
	done     chan struct{}
}

// New creates a Loop. Call Run to start processing.
func New(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		logger: logger,
		tasks:  make(chan func(), 64),
		done:   make(chan struct{}),
	}
}

// Run processes tasks until ctx is cancelled. It returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	defer l.doneOnce.Do(func() { close(l.done) })

	l.logger.Debug("event loop started")
	defer l.logger.Debug("event loop stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Post queues fn to run on the loop goroutine. It returns false if the loop
// has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// After runs fn on the loop goroutine once d has elapsed.
func (l *Loop) After(d time.Duration, fn func()) overlay.Timer {
	t := &timer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			// Stop may have been called after the timer expired but
			// before this task reached the front of the queue.
			if t.stopped.Load() {
				return
			}
			fn()
		})
	})
	return t
}

type timer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

// Stop prevents the callback from running if it has not started yet.
func (t *timer) Stop() {
	t.stopped.Store(true)
	t.timer.Stop()
}
