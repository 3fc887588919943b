package dbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/npc/internal/model"
	"github.com/jmylchreest/npc/internal/overlay"
	"github.com/jmylchreest/npc/internal/queue"
)

type fixedStatus overlay.Status

func (f fixedStatus) Snapshot() overlay.Status { return overlay.Status(f) }

func TestServer_NotifyEnqueues(t *testing.T) {
	q := queue.NewMailbox[model.Event]()
	s := NewServer(q, fixedStatus{}, nil)

	id, derr := s.Notify("https://a/1.png", "  Build passed  ")
	require.Nil(t, derr)
	assert.NotEmpty(t, id)

	events := q.TryDequeueAll(time.Millisecond)
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].ID)
	assert.Equal(t, "https://a/1.png", events[0].AvatarURL)
	assert.Equal(t, "Build passed", events[0].Message)
	assert.Equal(t, model.SourceDBus, events[0].Source)
}

func TestServer_NotifyRejectsEmptyMessage(t *testing.T) {
	q := queue.NewMailbox[model.Event]()
	s := NewServer(q, fixedStatus{}, nil)

	id, derr := s.Notify("https://a/1.png", "   ")
	require.NotNil(t, derr)
	assert.Equal(t, ErrInvalidArgs, derr.Name)
	assert.Empty(t, id)
	assert.Equal(t, 0, q.Len())
}

func TestServer_GetStatus(t *testing.T) {
	shownAt := time.UnixMilli(1_700_000_000_123)
	q := queue.NewMailbox[model.Event]()
	q.Enqueue(model.Event{ID: "queued", Message: "later"})

	s := NewServer(q, fixedStatus{
		State:   overlay.StateFading,
		Alpha:   0.5,
		Event:   model.Event{ID: "ev1", Message: "Alice approves."},
		ShownAt: shownAt,
		Shown:   3,
		Skipped: 1,
	}, nil)

	state, alpha, message, shownMs, queued, eventID, shown, skipped, derr := s.GetStatus()
	require.Nil(t, derr)
	assert.Equal(t, "fading", state)
	assert.Equal(t, 0.5, alpha)
	assert.Equal(t, "Alice approves.", message)
	assert.Equal(t, shownAt.UnixMilli(), shownMs)
	assert.Equal(t, uint32(1), queued)
	assert.Equal(t, "ev1", eventID)
	assert.Equal(t, uint64(3), shown)
	assert.Equal(t, uint64(1), skipped)
}

func TestServer_GetStatusDecodesLikeClient(t *testing.T) {
	shownAt := time.UnixMilli(1_700_000_000_123)
	s := NewServer(queue.NewMailbox[model.Event](), fixedStatus{
		State:   overlay.StateDisplaying,
		Alpha:   1,
		Event:   model.Event{ID: "ev9", Message: "Bob disapproves."},
		ShownAt: shownAt,
		Shown:   7,
		Skipped: 2,
	}, nil)

	state, alpha, message, shownMs, queued, eventID, shown, skipped, derr := s.GetStatus()
	require.Nil(t, derr)

	// The reply body as godbus hands it to Client.Status.
	body := []any{state, alpha, message, shownMs, queued, eventID, shown, skipped}
	st, err := decodeStatus(body)
	require.NoError(t, err)

	assert.Equal(t, "displaying", st.State)
	assert.Equal(t, 1.0, st.Alpha)
	assert.Equal(t, "Bob disapproves.", st.Message)
	assert.True(t, shownAt.Equal(st.ShownAt))
	assert.Equal(t, "ev9", st.EventID)
	assert.Equal(t, uint64(7), st.Shown)
	assert.Equal(t, uint64(2), st.Skipped)
	assert.Equal(t, s.Status(), st)
}

func TestDecodeStatus_ShortReply(t *testing.T) {
	_, err := decodeStatus([]any{"idle", 0.0, "", int64(0), uint32(0)})
	assert.Error(t, err)
}

func TestServer_GetStatusIdle(t *testing.T) {
	s := NewServer(queue.NewMailbox[model.Event](), fixedStatus{}, nil)

	state, alpha, message, shownMs, queued, eventID, shown, skipped, derr := s.GetStatus()
	require.Nil(t, derr)
	assert.Equal(t, "idle", state)
	assert.Empty(t, eventID)
	assert.Zero(t, shown)
	assert.Zero(t, skipped)
	assert.Equal(t, 0.0, alpha)
	assert.Empty(t, message)
	assert.Equal(t, int64(0), shownMs)
	assert.Equal(t, uint32(0), queued)
}

func TestServer_EmitShownWithoutConnection(t *testing.T) {
	s := NewServer(queue.NewMailbox[model.Event](), fixedStatus{}, nil)
	assert.Error(t, s.EmitShown(model.Event{ID: "x", Message: "y"}))
}

func TestServer_StopWhenNotRunning(t *testing.T) {
	s := NewServer(queue.NewMailbox[model.Event](), fixedStatus{}, nil)
	assert.NoError(t, s.Stop())
}

func TestUnixMilliRoundTrip(t *testing.T) {
	assert.Equal(t, int64(0), unixMilli(time.Time{}))
	assert.True(t, fromUnixMilli(0).IsZero())

	now := time.UnixMilli(time.Now().UnixMilli())
	assert.True(t, now.Equal(fromUnixMilli(unixMilli(now))))
}

func TestIntrospection(t *testing.T) {
	names := make([]string, 0)
	for _, m := range methods() {
		names = append(names, m.Name)
	}
	assert.ElementsMatch(t, []string{"Notify", "GetStatus"}, names)

	for _, m := range methods() {
		if m.Name == "GetStatus" {
			assert.Len(t, m.Args, 8)
		}
	}
	assert.Equal(t, "Shown", signals()[0].Name)
}
