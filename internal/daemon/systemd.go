package daemon

import (
	"log/slog"

	sd "github.com/coreos/go-systemd/v22/daemon"
)

// NotifyReady tells systemd the service is up. Outside a Type=notify unit it
// does nothing.
func NotifyReady(logger *slog.Logger) {
	notify(sd.SdNotifyReady, logger)
}

// NotifyStopping tells systemd the service is shutting down.
func NotifyStopping(logger *slog.Logger) {
	notify(sd.SdNotifyStopping, logger)
}

// NotifyReloading tells systemd a configuration reload is in progress.
func NotifyReloading(logger *slog.Logger) {
	notify(sd.SdNotifyReloading, logger)
}

func notify(state string, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	sent, err := sd.SdNotify(false, state)
	if err != nil {
		logger.Debug("sd_notify failed", "state", state, "error", err)
		return
	}
	if sent {
		logger.Debug("sd_notify sent", "state", state)
	}
}
