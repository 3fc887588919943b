package display

import (
	"unsafe"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
)

// primaryMonitor returns the first monitor of the default display.
// GTK4 has no "primary" concept, the first entry is what the compositor
// lists first.
func primaryMonitor() (*gdk.Monitor, error) {
	display := gdk.DisplayGetDefault()
	if display == nil {
		return nil, &DisplayError{Message: "no display available"}
	}

	monitors := display.Monitors()
	if monitors == nil || monitors.NItems() == 0 {
		return nil, &DisplayError{Message: "no monitors available"}
	}

	monitor := wrapMonitor(monitors.Item(0))
	if monitor == nil {
		return nil, &DisplayError{Message: "first monitor is not available"}
	}
	return monitor, nil
}

// ScreenWidth returns the width of the primary monitor in logical pixels.
func ScreenWidth() (int, error) {
	monitor, err := primaryMonitor()
	if err != nil {
		return 0, err
	}
	return monitor.Geometry().Width(), nil
}

// wrapMonitor wraps a glib.Object as a gdk.Monitor.
// gotk4 doesn't expose its own wrapMonitor function.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	// gdk.Monitor embeds a *glib.Object, so a struct with the same layout
	// can be cast to it.
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}
