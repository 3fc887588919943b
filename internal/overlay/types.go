package overlay

import (
	"image"
	"math"
	"time"

	"github.com/jmylchreest/npc/internal/model"
)

// State is the renderer's visual state.
type State int

const (
	// StateIdle means the window is fully transparent.
	StateIdle State = iota
	// StateDisplaying means an event is shown at full opacity.
	StateDisplaying
	// StateFading means the window opacity is decaying towards zero.
	StateFading
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDisplaying:
		return "displaying"
	case StateFading:
		return "fading"
	default:
		return "unknown"
	}
}

// Timing holds the renderer's timer intervals.
type Timing struct {
	PollInterval time.Duration // P: heartbeat and maximum queue wait
	Display      time.Duration // D: full-opacity display window
	FadeInterval time.Duration // F: time between decay ticks
	FadeStep     float64       // opacity removed per decay tick
}

// DefaultTiming returns P=100ms, D=2s, F=100ms and a 0.05 step.
func DefaultTiming() Timing {
	return Timing{
		PollInterval: 100 * time.Millisecond,
		Display:      2 * time.Second,
		FadeInterval: 100 * time.Millisecond,
		FadeStep:     0.05,
	}
}

// FadeTicks returns the number of decay ticks needed to go from 1 to 0.
func (t Timing) FadeTicks() int {
	if t.FadeStep <= 0 || t.FadeStep >= 1 {
		return 1
	}
	return int(math.Round(1 / t.FadeStep))
}

// Source is the consumer side of the notification queue.
type Source interface {
	TryDequeueAll(timeout time.Duration) []model.Event
}

// Window is the overlay surface. It is only touched from the render thread.
type Window interface {
	// Render replaces the visible avatar and message.
	Render(avatar image.Image, message string)
	// SetOpacity sets the window opacity in [0,1].
	SetOpacity(alpha float64)
}

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop()
}

// Scheduler runs callbacks on the render thread after a delay. It must never
// run two callbacks concurrently.
type Scheduler interface {
	After(d time.Duration, fn func()) Timer
}

// Status is a point-in-time view of the renderer, safe to share between goroutines.
type Status struct {
	State   State       `json:"state" yaml:"state"`
	Alpha   float64     `json:"alpha" yaml:"alpha"`
	Event   model.Event `json:"event" yaml:"event"`
	ShownAt time.Time   `json:"shown_at" yaml:"shown_at"`
	Shown   uint64      `json:"shown" yaml:"shown"`
	Skipped uint64      `json:"skipped" yaml:"skipped"`
}
