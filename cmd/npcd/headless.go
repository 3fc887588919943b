package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/jmylchreest/npc/internal/daemon"
	"github.com/jmylchreest/npc/internal/eventloop"
)

// runHeadless drives the renderer from a plain event loop and logs each
// frame. Useful on machines without a compositor and for debugging timing.
func runHeadless(a *app) error {
	logger := a.logger

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	loop := eventloop.New(logger.With("component", "eventloop"))
	renderer := a.newRenderer(newLogWindow(logger.With("component", "window")), loop)

	if err := a.startProducers(ctx); err != nil {
		return fmt.Errorf("failed to start producers: %w", err)
	}
	defer a.shutdown()

	a.startConfigWatcher(ctx, renderer, func(fn func()) {
		loop.Post(fn)
	})

	loop.Post(func() { renderer.Start(ctx) })

	daemon.NotifyReady(logger)
	logger.Info("npcd ready (headless)")

	err := loop.Run(ctx)
	renderer.Stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("npcd stopped")
	return nil
}

// logWindow is an overlay.Window that logs instead of drawing.
type logWindow struct {
	logger *slog.Logger
	alpha  float64
}

func newLogWindow(logger *slog.Logger) *logWindow {
	return &logWindow{logger: logger}
}

func (w *logWindow) Render(avatar image.Image, message string) {
	var size image.Point
	if avatar != nil {
		size = avatar.Bounds().Size()
	}
	w.logger.Info("overlay shown", "message", message, "avatar", fmt.Sprintf("%dx%d", size.X, size.Y))
}

func (w *logWindow) SetOpacity(alpha float64) {
	if alpha == w.alpha {
		return
	}
	w.alpha = alpha
	w.logger.Debug("overlay opacity", "alpha", alpha)
	if alpha == 0 {
		w.logger.Info("overlay hidden")
	}
}
