package overlay

import (
	"context"
	"image"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/npc/internal/avatar"
	"github.com/jmylchreest/npc/internal/model"
)

// DefaultAvatarSize is the avatar edge length in pixels.
const DefaultAvatarSize = 48

// Options configures a Renderer.
type Options struct {
	AvatarWidth  int
	AvatarHeight int
	Timing       Timing

	// OnShow is called on the render thread after each show.
	OnShow func(ev model.Event)

	// Now overrides the clock used for Status.ShownAt.
	Now func() time.Time
}

// Renderer drains the notification queue on a fixed heartbeat, shows each
// event in turn and fades the window out after the display window.
//
// All methods except Snapshot must be called from the scheduler's thread.
type Renderer struct {
	source  Source
	fetcher avatar.Fetcher
	window  Window
	sched   Scheduler
	logger  *slog.Logger

	avatarW int
	avatarH int
	timing  Timing
	onShow  func(ev model.Event)
	now     func() time.Time

	ctx       context.Context
	running   bool
	pollTimer Timer

	// Overlay state
	state      State
	level      int // remaining decay ticks, alpha = level/ticks
	ticks      int
	displayed  model.Event
	pending    Timer
	generation uint64
	shownAt    time.Time
	shown      uint64
	skipped    uint64

	status atomic.Pointer[Status]
}

// NewRenderer creates a renderer in the idle state with alpha 0.
func NewRenderer(source Source, fetcher avatar.Fetcher, window Window, sched Scheduler, opts Options, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.AvatarWidth <= 0 {
		opts.AvatarWidth = DefaultAvatarSize
	}
	if opts.AvatarHeight <= 0 {
		opts.AvatarHeight = DefaultAvatarSize
	}
	if opts.Timing == (Timing{}) {
		opts.Timing = DefaultTiming()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	r := &Renderer{
		source:  source,
		fetcher: fetcher,
		window:  window,
		sched:   sched,
		logger:  logger,
		avatarW: opts.AvatarWidth,
		avatarH: opts.AvatarHeight,
		timing:  opts.Timing,
		onShow:  opts.OnShow,
		now:     opts.Now,
		ctx:     context.Background(),
		state:   StateIdle,
		ticks:   opts.Timing.FadeTicks(),
	}
	r.publish()
	return r
}

// Start arms the poll heartbeat. The first poll runs immediately.
func (r *Renderer) Start(ctx context.Context) {
	if r.running {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	r.ctx = ctx
	r.running = true
	r.pollTimer = r.sched.After(0, r.pollTick)

	r.logger.Debug("renderer started",
		"poll_interval", r.timing.PollInterval,
		"display", r.timing.Display,
		"fade_interval", r.timing.FadeInterval,
		"fade_ticks", r.timing.FadeTicks(),
	)
}

// Stop cancels the heartbeat and any in-flight fade.
func (r *Renderer) Stop() {
	if !r.running {
		return
	}
	r.running = false
	if r.pollTimer != nil {
		r.pollTimer.Stop()
		r.pollTimer = nil
	}
	r.cancelPending()
	r.logger.Debug("renderer stopped")
}

// SetTiming replaces the timer intervals. Running timers keep their delay;
// the new values apply from the next schedule.
func (r *Renderer) SetTiming(t Timing) {
	r.timing = t
	r.logger.Debug("renderer timing updated",
		"poll_interval", t.PollInterval,
		"display", t.Display,
		"fade_interval", t.FadeInterval,
		"fade_step", t.FadeStep,
	)
}

// pollTick runs one heartbeat and re-arms itself.
func (r *Renderer) pollTick() {
	if !r.running {
		return
	}
	r.Poll()
	if r.running {
		r.pollTimer = r.sched.After(r.timing.PollInterval, r.pollTick)
	}
}

// Poll waits up to the poll interval for queued events and shows each one in
// order. Under a burst only the last event stays visible.
func (r *Renderer) Poll() {
	events := r.source.TryDequeueAll(r.timing.PollInterval)
	if len(events) == 0 {
		return
	}
	if len(events) > 1 {
		r.logger.Debug("draining burst", "count", len(events))
	}
	for _, ev := range events {
		r.process(ev)
	}
}

// process fetches the avatar for ev and shows it. A fetch failure skips the event.
func (r *Renderer) process(ev model.Event) {
	img, err := r.fetcher.Fetch(r.ctx, ev.AvatarURL, r.avatarW, r.avatarH)
	if err != nil {
		r.skipped++
		r.logger.Warn("avatar fetch failed, skipping notification",
			"event_id", ev.ID,
			"avatar_url", avatar.Redact(ev.AvatarURL),
			"error", err,
		)
		r.publish()
		return
	}
	r.Show(ev, img)
}

// Show displays ev at full opacity and restarts the display window,
// cancelling any pending fade.
func (r *Renderer) Show(ev model.Event, img image.Image) {
	r.cancelPending()
	r.generation++
	gen := r.generation

	r.displayed = ev
	r.window.Render(img, ev.Message)

	r.ticks = r.timing.FadeTicks()
	r.level = r.ticks
	r.window.SetOpacity(1)
	r.state = StateDisplaying
	r.shownAt = r.now()
	r.shown++

	r.pending = r.sched.After(r.timing.Display, func() { r.beginFade(gen) })
	r.publish()

	r.logger.Debug("showing notification",
		"event_id", ev.ID,
		"source", ev.Source,
		"message", ev.Message,
	)

	if r.onShow != nil {
		r.onShow(ev)
	}
}

// beginFade moves from displaying to fading and arms the first decay tick.
func (r *Renderer) beginFade(gen uint64) {
	if gen != r.generation || r.state != StateDisplaying {
		return
	}
	r.state = StateFading
	r.pending = r.sched.After(r.timing.FadeInterval, func() { r.decay(gen) })
	r.publish()
}

// decay lowers the opacity by one step. Reaching zero ends the cycle.
func (r *Renderer) decay(gen uint64) {
	if gen != r.generation || r.state != StateFading {
		return
	}

	r.level--
	if r.level <= 0 {
		r.level = 0
		r.window.SetOpacity(0)
		r.state = StateIdle
		r.pending = nil
		r.publish()
		r.logger.Debug("notification faded out", "event_id", r.displayed.ID)
		return
	}

	r.window.SetOpacity(r.alpha())
	r.pending = r.sched.After(r.timing.FadeInterval, func() { r.decay(gen) })
	r.publish()
}

func (r *Renderer) cancelPending() {
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
}

func (r *Renderer) alpha() float64 {
	if r.ticks <= 0 {
		return 0
	}
	return float64(r.level) / float64(r.ticks)
}

// State returns the current state.
func (r *Renderer) State() State {
	return r.state
}

// Alpha returns the current window opacity.
func (r *Renderer) Alpha() float64 {
	return r.alpha()
}

// Displayed returns the most recently shown event.
func (r *Renderer) Displayed() model.Event {
	return r.displayed
}

// publish stores a fresh Status for Snapshot readers.
func (r *Renderer) publish() {
	r.status.Store(&Status{
		State:   r.state,
		Alpha:   r.alpha(),
		Event:   r.displayed,
		ShownAt: r.shownAt,
		Shown:   r.shown,
		Skipped: r.skipped,
	})
}

// Snapshot returns the last published status. Safe for concurrent use.
func (r *Renderer) Snapshot() Status {
	return *r.status.Load()
}
