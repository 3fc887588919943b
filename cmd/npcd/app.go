package main

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jmylchreest/npc/internal/audio"
	"github.com/jmylchreest/npc/internal/avatar"
	"github.com/jmylchreest/npc/internal/bot"
	"github.com/jmylchreest/npc/internal/config"
	"github.com/jmylchreest/npc/internal/daemon"
	"github.com/jmylchreest/npc/internal/dbus"
	"github.com/jmylchreest/npc/internal/metrics"
	"github.com/jmylchreest/npc/internal/model"
	"github.com/jmylchreest/npc/internal/overlay"
	"github.com/jmylchreest/npc/internal/queue"
)

// app holds the components shared by the GTK and headless modes.
type app struct {
	opts    options
	cfg     *config.Config
	secrets *config.Secrets
	logger  *slog.Logger

	queue    *queue.Mailbox[model.Event]
	producer *countingQueue
	fetcher  *avatar.HTTPFetcher
	chime    *audio.Chime
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	status   *statusProxy

	dbusServer    *dbus.Server
	configWatcher *daemon.ConfigWatcher
}

func newApp(opts options, cfg *config.Config, secrets *config.Secrets, logger *slog.Logger) *app {
	a := &app{
		opts:    opts,
		cfg:     cfg,
		secrets: secrets,
		logger:  logger,
		queue:   queue.NewMailbox[model.Event](),
		status:  &statusProxy{},
		fetcher: avatar.NewHTTPFetcher(avatar.Options{
			Timeout:   cfg.Avatar.FetchTimeout.Duration(),
			UserAgent: cfg.Avatar.UserAgent,
			MaxBytes:  cfg.Avatar.MaxBytes,
		}, logger.With("component", "avatar")),
		chime:    audio.NewChime(cfg.Sound, logger.With("component", "audio")),
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(collectors.NewGoCollector())
	a.metrics = metrics.New(a.registry, a.status, a.queue)
	a.producer = &countingQueue{Mailbox: a.queue, metrics: a.metrics}
	return a
}

// newRenderer builds the renderer for window and sched and publishes its
// status to the D-Bus server and metrics.
func (a *app) newRenderer(window overlay.Window, sched overlay.Scheduler) *overlay.Renderer {
	r := overlay.NewRenderer(a.queue, a.fetcher, window, sched, overlay.Options{
		AvatarWidth:  a.cfg.Window.AvatarSize,
		AvatarHeight: a.cfg.Window.AvatarSize,
		Timing:       a.cfg.OverlayTiming(),
		OnShow:       a.onShow,
	}, a.logger.With("component", "renderer"))
	a.status.set(r)
	return r
}

// onShow runs on the render thread for every displayed event.
func (a *app) onShow(ev model.Event) {
	a.chime.OnShow(ev)
	if a.dbusServer != nil {
		if err := a.dbusServer.EmitShown(ev); err != nil {
			a.logger.Debug("failed to emit Shown signal", "event_id", ev.ID, "error", err)
		}
	}
}

// startProducers starts the D-Bus service, the Telegram bot and the
// metrics endpoint. Only a D-Bus failure is fatal.
func (a *app) startProducers(ctx context.Context) error {
	a.dbusServer = dbus.NewServer(a.producer, a.status, a.logger.With("component", "dbus"))
	if err := a.dbusServer.Start(); err != nil {
		return err
	}

	if a.cfg.Bot.Enabled && !a.opts.noBot {
		a.startBot(ctx)
	}

	if a.cfg.Metrics.Listen != "" {
		go func() {
			if err := metrics.Serve(ctx, a.cfg.Metrics.Listen, a.registry, a.logger); err != nil {
				a.logger.Warn("metrics endpoint failed", "error", err)
			}
		}()
	}
	return nil
}

func (a *app) startBot(ctx context.Context) {
	logger := a.logger.With("component", "bot")

	if a.secrets.BotToken == "" {
		logger.Warn("bot enabled but NPC_BOT_TOKEN is not set, skipping")
		return
	}
	if len(a.secrets.AllowedChats) == 0 {
		logger.Warn("NPC_ALLOWED_CHATS is empty, accepting commands from every chat")
	}

	tg, err := bot.NewTelegram(bot.TelegramConfig{
		Token:       a.secrets.BotToken,
		PollTimeout: a.cfg.Bot.PollTimeout.Duration(),
	}, logger)
	if err != nil {
		logger.Error("failed to start telegram bot", "error", err)
		return
	}

	dispatcher := bot.NewDispatcher(a.producer, tg, bot.DispatcherOptions{
		AllowedChats:  a.secrets.AllowedChats,
		RatePerMinute: a.cfg.Bot.RatePerMinute,
		DefaultAvatar: a.cfg.Bot.DefaultAvatar,
		OnReject: func(_ string, err error) {
			a.metrics.ObserveRejected(rejectReason(err))
		},
	}, logger)

	go func() {
		if err := tg.Run(ctx, dispatcher); err != nil {
			logger.Error("telegram bot stopped", "error", err)
		}
	}()
}

// startConfigWatcher applies reloaded timing and sound settings through post,
// which must run fn on the render thread.
func (a *app) startConfigWatcher(ctx context.Context, renderer *overlay.Renderer, post func(fn func())) {
	a.configWatcher = daemon.NewConfigWatcher(a.opts.configPath, a.logger.With("component", "config"))
	a.configWatcher.SetReloadCallback(func(newConfig *config.Config) {
		daemon.NotifyReloading(a.logger)
		post(func() {
			renderer.SetTiming(newConfig.OverlayTiming())
			a.chime.UpdateConfig(newConfig.Sound)
			a.cfg = newConfig
			daemon.NotifyReady(a.logger)
		})
	})
	a.configWatcher.SetErrorCallback(func(error) {
		a.metrics.ObserveReloadError()
	})
	if err := a.configWatcher.Start(ctx); err != nil {
		a.logger.Warn("failed to start config watcher", "error", err)
	}
}

// shutdown stops everything except the renderer, which belongs to the
// render thread. Queued events are dropped.
func (a *app) shutdown() {
	daemon.NotifyStopping(a.logger)
	if a.configWatcher != nil {
		a.configWatcher.Stop()
	}
	if a.dbusServer != nil {
		_ = a.dbusServer.Stop()
	}
	a.chime.Close()
	if n := a.queue.Len(); n > 0 {
		a.logger.Info("dropping queued notifications", "count", n)
	}
}

// countingQueue records every accepted event before enqueueing it.
type countingQueue struct {
	*queue.Mailbox[model.Event]
	metrics *metrics.Metrics
}

func (q *countingQueue) Enqueue(ev model.Event) {
	q.metrics.ObserveEnqueued(ev)
	q.Mailbox.Enqueue(ev)
}

// statusProxy serves renderer snapshots before the renderer exists.
type statusProxy struct {
	renderer atomic.Pointer[overlay.Renderer]
}

func (p *statusProxy) set(r *overlay.Renderer) {
	p.renderer.Store(r)
}

func (p *statusProxy) Snapshot() overlay.Status {
	if r := p.renderer.Load(); r != nil {
		return r.Snapshot()
	}
	return overlay.Status{State: overlay.StateIdle}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, bot.ErrNotAllowed):
		return "not_allowed"
	case errors.Is(err, bot.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, bot.ErrUnknownCommand):
		return "unknown_command"
	default:
		return "other"
	}
}
