package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/jmylchreest/npc/internal/daemon"
	"github.com/jmylchreest/npc/internal/dbus"
	"github.com/jmylchreest/npc/internal/display"
	"github.com/jmylchreest/npc/internal/overlay"
)

// runGTK runs the overlay on the GTK main loop, which doubles as the
// render thread.
func runGTK(a *app) error {
	logger := a.logger

	gtkApp := adw.NewApplication(appID, 0)

	var (
		window   *display.Window
		renderer *overlay.Renderer
		running  atomic.Bool
		fatal    error
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
		case <-ctx.Done():
			return
		}
		cancel()
		glib.IdleAdd(func() {
			gtkApp.Quit()
		})
	}()

	gtkApp.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		var err error
		window, err = display.NewWindow(&gtkApp.Application, a.cfg.Window, logger.With("component", "display"))
		if err != nil {
			fatal = fmt.Errorf("failed to create overlay window: %w", err)
			gtkApp.Quit()
			return
		}

		renderer = a.newRenderer(window, display.GLibScheduler{})

		if err := a.startProducers(ctx); err != nil {
			fatal = fmt.Errorf("failed to start producers: %w", err)
			gtkApp.Quit()
			return
		}

		a.startConfigWatcher(ctx, renderer, func(fn func()) {
			glib.IdleAdd(fn)
		})

		renderer.Start(ctx)
		// Keep the application alive while the overlay is hidden.
		gtkApp.Hold()

		daemon.NotifyReady(logger)
		logger.Info("npcd ready", "bus_name", dbus.BusName)
	})

	gtkApp.ConnectShutdown(func() {
		logger.Info("application shutting down")
		if renderer != nil {
			renderer.Stop()
		}
		a.shutdown()
		if window != nil {
			window.Destroy()
		}
		running.Store(false)
	})

	status := gtkApp.Run([]string{os.Args[0]})
	cancel()

	if fatal != nil {
		return fatal
	}
	if status != 0 {
		return fmt.Errorf("application exited with status %d", status)
	}

	logger.Info("npcd stopped")
	return nil
}
