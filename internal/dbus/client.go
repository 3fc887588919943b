package dbus

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Client calls a running npcd over the session bus.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewClient connects to the session bus.
func NewClient() (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{
		conn: conn,
		obj:  conn.Object(BusName, ObjectPath),
	}, nil
}

// Notify asks the daemon to show message with the given avatar.
func (c *Client) Notify(ctx context.Context, avatarURL, message string) (string, error) {
	var id string
	if err := c.obj.CallWithContext(ctx, Interface+".Notify", 0, avatarURL, message).Store(&id); err != nil {
		return "", fmt.Errorf("notify failed: %w", err)
	}
	return id, nil
}

// Status fetches the daemon's overlay status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	call := c.obj.CallWithContext(ctx, Interface+".GetStatus", 0)
	if call.Err != nil {
		return Status{}, fmt.Errorf("status failed: %w", call.Err)
	}
	st, err := decodeStatus(call.Body)
	if err != nil {
		return Status{}, fmt.Errorf("status failed: %w", err)
	}
	st.Daemon = call.Destination
	return st, nil
}
