package dbus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/npc/internal/model"
	"github.com/jmylchreest/npc/internal/overlay"
)

// Queue is the producer side of the notification queue.
type Queue interface {
	Enqueue(ev model.Event)
	Len() int
}

// StatusSource provides renderer snapshots.
type StatusSource interface {
	Snapshot() overlay.Status
}

// Server implements the io.github.jmylchreest.Npc interface.
type Server struct {
	conn   *dbus.Conn
	logger *slog.Logger

	queue  Queue
	status StatusSource

	mu      sync.Mutex
	running bool
}

// NewServer creates a server that enqueues onto queue and reports status.
func NewServer(queue Queue, status StatusSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		queue:  queue,
		status: status,
		logger: logger,
	}
}

// Start connects to the session bus and claims the bus name.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := conn.Export(s, ObjectPath, Interface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: string(ObjectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: methods(),
				Signals: signals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ObjectPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", BusName)
	}

	s.conn = conn
	s.running = true
	s.logger.Info("D-Bus server started", "bus_name", BusName, "path", ObjectPath)
	return nil
}

// Stop releases the bus name.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(BusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		// The session bus connection is shared, leave it open.
	}

	s.logger.Info("D-Bus server stopped")
	return nil
}

// Notify enqueues one event and returns its ID.
// D-Bus method: Notify(ss) -> s
func (s *Server) Notify(avatarURL, message string) (string, *dbus.Error) {
	ev, err := model.NewEvent(model.SourceDBus, avatarURL, message)
	if err != nil {
		s.logger.Debug("Notify rejected", "error", err)
		return "", dbus.NewError(ErrInvalidArgs, []any{err.Error()})
	}

	s.queue.Enqueue(ev)
	s.logger.Debug("Notify called", "event_id", ev.ID, "message", ev.Message)
	return ev.ID, nil
}

// GetStatus reports the renderer state.
// D-Bus method: GetStatus() -> (sdsxustt)
func (s *Server) GetStatus() (string, float64, string, int64, uint32, string, uint64, uint64, *dbus.Error) {
	w := toWire(s.Status())
	return w.State, w.Alpha, w.Message, w.ShownAt, w.Queued, w.EventID, w.Shown, w.Skipped, nil
}

// Status returns the current status.
func (s *Server) Status() Status {
	return StatusFromSnapshot(s.status.Snapshot(), s.queue.Len())
}

// EmitShown emits the Shown signal for an event that became visible.
func (s *Server) EmitShown(ev model.Event) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}
	if err := conn.Emit(ObjectPath, Interface+".Shown", ev.ID, ev.Message); err != nil {
		return fmt.Errorf("failed to emit Shown signal: %w", err)
	}
	return nil
}

func methods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "Notify",
			Args: []introspect.Arg{
				{Name: "avatar_url", Type: "s", Direction: "in"},
				{Name: "message", Type: "s", Direction: "in"},
				{Name: "id", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "GetStatus",
			Args: []introspect.Arg{
				{Name: "state", Type: "s", Direction: "out"},
				{Name: "alpha", Type: "d", Direction: "out"},
				{Name: "message", Type: "s", Direction: "out"},
				{Name: "shown_at", Type: "x", Direction: "out"},
				{Name: "queued", Type: "u", Direction: "out"},
				{Name: "event_id", Type: "s", Direction: "out"},
				{Name: "shown", Type: "t", Direction: "out"},
				{Name: "skipped", Type: "t", Direction: "out"},
			},
		},
	}
}

func signals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "Shown",
			Args: []introspect.Arg{
				{Name: "id", Type: "s"},
				{Name: "message", Type: "s"},
			},
		},
	}
}
