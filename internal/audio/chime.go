package audio

import (
	"log/slog"
	"sync"

	"github.com/jmylchreest/npc/internal/config"
	"github.com/jmylchreest/npc/internal/model"
)

// Chime plays the configured sound whenever an event is shown.
type Chime struct {
	mu     sync.RWMutex
	logger *slog.Logger
	player *Player
	cfg    config.SoundConfig

	// play runs a file; replaced in tests
	play func(path string) error
}

// NewChime creates a chime for the given sound settings.
func NewChime(cfg config.SoundConfig, logger *slog.Logger) *Chime {
	if logger == nil {
		logger = slog.Default()
	}
	player := NewPlayer(logger)
	c := &Chime{
		logger: logger,
		player: player,
		play:   player.Play,
	}
	c.UpdateConfig(cfg)
	return c
}

// UpdateConfig applies new sound settings. A changed file is decoded again
// on next use.
func (c *Chime) UpdateConfig(cfg config.SoundConfig) {
	c.mu.Lock()
	fileChanged := cfg.File != c.cfg.File
	c.cfg = cfg
	c.mu.Unlock()

	c.player.SetVolume(float64(cfg.Volume) / 100.0)
	if fileChanged {
		c.player.ClearCache()
	}
	c.logger.Debug("chime configured", "enabled", cfg.Enabled, "file", cfg.File, "volume", cfg.Volume)
}

// OnShow plays the chime for ev without blocking the caller.
func (c *Chime) OnShow(ev model.Event) {
	c.mu.RLock()
	file := c.cfg.File
	enabled := c.cfg.Enabled
	c.mu.RUnlock()

	if !enabled || file == "" {
		return
	}

	go func() {
		if err := c.play(file); err != nil {
			c.logger.Debug("failed to play chime", "event_id", ev.ID, "file", file, "error", err)
		}
	}()
}

// Close releases the speaker.
func (c *Chime) Close() {
	c.player.Close()
}
