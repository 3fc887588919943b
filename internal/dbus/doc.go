// Package dbus exposes the overlay on the session bus.
// The server accepts local notifications and reports the renderer's status;
// the client wraps both calls for the npc command.
package dbus
