// Package display implements the overlay window on GTK4.
// It positions an undecorated window in the top-right corner via Wayland
// layer-shell, renders the avatar and message, and runs the renderer's
// timers on the GLib main loop.
package display
