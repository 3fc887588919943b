// Package metrics exports overlay counters for Prometheus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmylchreest/npc/internal/model"
	"github.com/jmylchreest/npc/internal/overlay"
)

// Metrics groups the instruments npcd records.
// Registered once at startup via New; passed by pointer wherever needed.
type Metrics struct {
	EventsEnqueued     *prometheus.CounterVec
	CommandsRejected   *prometheus.CounterVec
	ConfigReloadErrors prometheus.Counter
}

// Queue is the part of the notification queue the gauges read.
type Queue interface {
	Len() int
}

// StatusSource provides renderer snapshots.
type StatusSource interface {
	Snapshot() overlay.Status
}

// New registers the instruments with reg. Renderer and queue figures are
// read at scrape time from status and queue.
func New(reg prometheus.Registerer, status StatusSource, queue Queue) *Metrics {
	m := &Metrics{
		EventsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "npc",
			Name:      "events_enqueued_total",
			Help:      "Events accepted by a producer, by source.",
		}, []string{"source"}),

		CommandsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "npc",
			Name:      "commands_rejected_total",
			Help:      "Chat commands refused, by reason.",
		}, []string{"reason"}),

		ConfigReloadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "npc",
			Name:      "config_reload_errors_total",
			Help:      "Config file changes rejected because they failed to load or validate.",
		}),
	}

	reg.MustRegister(
		m.EventsEnqueued,
		m.CommandsRejected,
		m.ConfigReloadErrors,
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "npc",
			Name:      "overlay_shown_total",
			Help:      "Events shown on the overlay.",
		}, func() float64 { return float64(status.Snapshot().Shown) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "npc",
			Name:      "overlay_skipped_total",
			Help:      "Events skipped because the avatar could not be fetched.",
		}, func() float64 { return float64(status.Snapshot().Skipped) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "npc",
			Name:      "overlay_alpha",
			Help:      "Current overlay opacity.",
		}, func() float64 { return status.Snapshot().Alpha }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "npc",
			Name:      "queue_depth",
			Help:      "Events waiting for the renderer.",
		}, func() float64 { return float64(queue.Len()) }),
	)

	return m
}

// ObserveEnqueued counts an accepted event.
func (m *Metrics) ObserveEnqueued(ev model.Event) {
	m.EventsEnqueued.WithLabelValues(ev.Source).Inc()
}

// ObserveRejected counts a refused command.
func (m *Metrics) ObserveRejected(reason string) {
	m.CommandsRejected.WithLabelValues(reason).Inc()
}

// ObserveReloadError counts a rejected config change.
func (m *Metrics) ObserveReloadError() {
	m.ConfigReloadErrors.Inc()
}

// Serve exposes reg on /metrics at addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, reg prometheus.Gatherer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
