package display

import (
	"time"

	"github.com/diamondburned/gotk4/pkg/core/glib"

	"github.com/jmylchreest/npc/internal/overlay"
)

// GLibScheduler runs renderer callbacks on the GLib main loop, which
// serializes them with every other GTK callback.
type GLibScheduler struct{}

// After schedules fn to run on the main loop once d has elapsed.
func (GLibScheduler) After(d time.Duration, fn func()) overlay.Timer {
	t := &glibTimer{}
	t.handle = glib.TimeoutAdd(uint(d/time.Millisecond), func() bool {
		t.fired = true
		if !t.stopped {
			fn()
		}
		return false
	})
	return t
}

// glibTimer is only touched from the main loop.
type glibTimer struct {
	handle  glib.SourceHandle
	fired   bool
	stopped bool
}

// Stop removes the pending source. A source that already fired has been
// removed by GLib and must not be removed twice.
func (t *glibTimer) Stop() {
	if t.stopped || t.fired {
		t.stopped = true
		return
	}
	t.stopped = true
	glib.SourceRemove(t.handle)
}
