package dbus

import (
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/npc/internal/overlay"
)

const (
	// BusName is the well-known name claimed by npcd.
	BusName = "io.github.jmylchreest.Npc"
	// ObjectPath is the path of the overlay object.
	ObjectPath = dbus.ObjectPath("/io/github/jmylchreest/Npc")
	// Interface is the overlay interface name.
	Interface = "io.github.jmylchreest.Npc"

	// ErrInvalidArgs is the D-Bus error name for rejected Notify calls.
	ErrInvalidArgs = Interface + ".Error.InvalidArgs"
)

// Status is the overlay status as carried over the bus.
type Status struct {
	State   string    `json:"state" yaml:"state"`
	Alpha   float64   `json:"alpha" yaml:"alpha"`
	Message string    `json:"message,omitempty" yaml:"message,omitempty"`
	ShownAt time.Time `json:"shown_at,omitzero" yaml:"shown_at,omitempty"`
	Queued  uint32    `json:"queued" yaml:"queued"`
	EventID string    `json:"event_id,omitempty" yaml:"event_id,omitempty"`
	Shown   uint64    `json:"shown" yaml:"shown"`
	Skipped uint64    `json:"skipped" yaml:"skipped"`
	Daemon  string    `json:"daemon,omitempty" yaml:"daemon,omitempty"`
}

// StatusFromSnapshot converts a renderer snapshot.
func StatusFromSnapshot(s overlay.Status, queued int) Status {
	return Status{
		State:   s.State.String(),
		Alpha:   s.Alpha,
		Message: s.Event.Message,
		ShownAt: s.ShownAt,
		Queued:  uint32(max(queued, 0)),
		EventID: s.Event.ID,
		Shown:   s.Shown,
		Skipped: s.Skipped,
	}
}

// wireStatus mirrors the GetStatus out arguments, in order.
type wireStatus struct {
	State   string
	Alpha   float64
	Message string
	ShownAt int64
	Queued  uint32
	EventID string
	Shown   uint64
	Skipped uint64
}

func toWire(st Status) wireStatus {
	return wireStatus{
		State:   st.State,
		Alpha:   st.Alpha,
		Message: st.Message,
		ShownAt: unixMilli(st.ShownAt),
		Queued:  st.Queued,
		EventID: st.EventID,
		Shown:   st.Shown,
		Skipped: st.Skipped,
	}
}

func (w *wireStatus) dest() []any {
	return []any{&w.State, &w.Alpha, &w.Message, &w.ShownAt, &w.Queued, &w.EventID, &w.Shown, &w.Skipped}
}

// decodeStatus converts a GetStatus reply body into a Status.
func decodeStatus(body []any) (Status, error) {
	var w wireStatus
	if err := dbus.Store(body, w.dest()...); err != nil {
		return Status{}, err
	}
	return Status{
		State:   w.State,
		Alpha:   w.Alpha,
		Message: w.Message,
		ShownAt: fromUnixMilli(w.ShownAt),
		Queued:  w.Queued,
		EventID: w.EventID,
		Shown:   w.Shown,
		Skipped: w.Skipped,
	}, nil
}

// unixMilli encodes t for the wire, the zero time as 0.
func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// fromUnixMilli decodes a wire timestamp, 0 as the zero time.
func fromUnixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
