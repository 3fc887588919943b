package overlay

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sort"
	"time"

	"github.com/jmylchreest/npc/internal/avatar"
	"github.com/jmylchreest/npc/internal/model"
)

// virtualScheduler runs callbacks on a manually advanced clock.
type virtualScheduler struct {
	now        time.Time
	seq        int
	timers     []*virtualTimer
	ignoreStop bool
}

type virtualTimer struct {
	sched   *virtualScheduler
	at      time.Time
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func newVirtualScheduler() *virtualScheduler {
	return &virtualScheduler{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (s *virtualScheduler) After(d time.Duration, fn func()) Timer {
	s.seq++
	t := &virtualTimer{sched: s, at: s.now.Add(d), seq: s.seq, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (t *virtualTimer) Stop() {
	if !t.sched.ignoreStop {
		t.stopped = true
	}
}

// Advance moves the clock forward by d, firing due timers in order.
func (s *virtualScheduler) Advance(d time.Duration) {
	target := s.now.Add(d)
	for {
		var due []*virtualTimer
		for _, t := range s.timers {
			if !t.stopped && !t.fired && !t.at.After(target) {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			break
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].at.Equal(due[j].at) {
				return due[i].seq < due[j].seq
			}
			return due[i].at.Before(due[j].at)
		})
		next := due[0]
		s.now = next.at
		next.fired = true
		next.fn()
	}
	s.now = target
}

// Pending returns the number of armed timers.
func (s *virtualScheduler) Pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (s *virtualScheduler) Now() time.Time {
	return s.now
}

// recordingWindow remembers everything rendered to it.
type recordingWindow struct {
	renders  []string
	avatars  []image.Image
	opacity  []float64
	message  string
	avatar   image.Image
	curAlpha float64
}

func (w *recordingWindow) Render(img image.Image, message string) {
	w.renders = append(w.renders, message)
	w.avatars = append(w.avatars, img)
	w.message = message
	w.avatar = img
}

func (w *recordingWindow) SetOpacity(alpha float64) {
	w.opacity = append(w.opacity, alpha)
	w.curAlpha = alpha
}

// taggedImage identifies which URL produced an avatar.
type taggedImage struct {
	*image.NRGBA
	url string
}

// stubFetcher returns a tagged 1x1 image per URL, or the configured error.
type stubFetcher struct {
	failures map[string]error
	calls    []string
}

func (f *stubFetcher) Fetch(_ context.Context, url string, width, height int) (image.Image, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.failures[url]; ok {
		return nil, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	img.Set(0, 0, color.White)
	return taggedImage{NRGBA: img, url: url}, nil
}

func fetchFailure(url string) error {
	return &avatar.FetchError{URL: url, Op: avatar.OpStatus, StatusCode: 404}
}

var errBoom = errors.New("boom")

// batchSource returns pre-arranged batches, one per poll.
type batchSource struct {
	batches [][]model.Event
	polls   int
}

func (s *batchSource) TryDequeueAll(time.Duration) []model.Event {
	s.polls++
	if len(s.batches) == 0 {
		return nil
	}
	b := s.batches[0]
	s.batches = s.batches[1:]
	return b
}

func event(url, msg string) model.Event {
	ev, err := model.NewEvent(model.SourceTelegram, url, msg)
	if err != nil {
		panic(err)
	}
	return ev
}

type fixture struct {
	sched   *virtualScheduler
	window  *recordingWindow
	fetcher *stubFetcher
	source  *batchSource
	r       *Renderer
}

func newFixture(opts Options) *fixture {
	f := &fixture{
		sched:   newVirtualScheduler(),
		window:  &recordingWindow{},
		fetcher: &stubFetcher{failures: map[string]error{}},
		source:  &batchSource{},
	}
	if opts.Now == nil {
		opts.Now = f.sched.Now
	}
	f.r = NewRenderer(f.source, f.fetcher, f.window, f.sched, opts, nil)
	return f
}
