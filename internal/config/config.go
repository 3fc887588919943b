// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/npc/internal/overlay"
)

// AppName is used for the config directory name.
const AppName = "npc"

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "100ms", "2s", "1m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	// Integer values are milliseconds
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '100ms', '2s', '1m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the configuration for npcd.
// Loaded from ~/.config/npc/npc.toml
type Config struct {
	Window  WindowConfig  `toml:"window"`
	Timing  TimingConfig  `toml:"timing"`
	Avatar  AvatarConfig  `toml:"avatar"`
	Bot     BotConfig     `toml:"bot"`
	Sound   SoundConfig   `toml:"sound"`
	Metrics MetricsConfig `toml:"metrics"`
}

// WindowConfig contains overlay geometry and text settings.
type WindowConfig struct {
	Width      int    `toml:"width"`       // Window width in pixels
	Height     int    `toml:"height"`      // Window height in pixels
	OffsetY    int    `toml:"offset_y"`    // Distance from the top edge
	Padding    int    `toml:"padding"`     // Distance from the right edge
	AvatarSize int    `toml:"avatar_size"` // Avatar edge length in pixels
	Font       string `toml:"font"`        // Pango font description
	TextColor  string `toml:"text_color"`  // CSS color
}

// TimingConfig contains the renderer's timer intervals.
type TimingConfig struct {
	PollInterval Duration `toml:"poll_interval"`
	Display      Duration `toml:"display"`
	FadeInterval Duration `toml:"fade_interval"`
	FadeStep     float64  `toml:"fade_step"`
}

// AvatarConfig contains avatar download settings.
type AvatarConfig struct {
	FetchTimeout Duration `toml:"fetch_timeout"`
	UserAgent    string   `toml:"user_agent"`
	MaxBytes     int64    `toml:"max_bytes"`
}

// BotConfig contains chat bot settings. Credentials come from the environment.
type BotConfig struct {
	Enabled       bool     `toml:"enabled"`
	PollTimeout   Duration `toml:"poll_timeout"`
	RatePerMinute int      `toml:"rate_per_minute"` // Per-user command limit, 0 = unlimited
	DefaultAvatar string   `toml:"default_avatar"`  // Used when a user has no profile photo
}

// SoundConfig contains the optional chime played on each notification.
type SoundConfig struct {
	Enabled bool   `toml:"enabled"`
	File    string `toml:"file"`
	Volume  int    `toml:"volume"` // 0-100
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Listen string `toml:"listen"` // e.g. "127.0.0.1:9464", empty = disabled
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:      512,
			Height:     64,
			OffsetY:    96,
			Padding:    64,
			AvatarSize: 48,
			Font:       "Georgia 14",
			TextColor:  "white",
		},
		Timing: TimingConfig{
			PollInterval: Duration(100 * time.Millisecond),
			Display:      Duration(2 * time.Second),
			FadeInterval: Duration(100 * time.Millisecond),
			FadeStep:     0.05,
		},
		Avatar: AvatarConfig{
			FetchTimeout: Duration(5 * time.Second),
			UserAgent:    "Mozilla/5.0",
			MaxBytes:     8 << 20,
		},
		Bot: BotConfig{
			Enabled:       true,
			PollTimeout:   Duration(10 * time.Second),
			RatePerMinute: 20,
		},
		Sound: SoundConfig{
			Enabled: false,
			Volume:  80,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, AppName, AppName+".toml")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if the file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	w := c.Window
	if w.Width < 64 || w.Width > 4096 {
		return fmt.Errorf("window width must be between 64 and 4096, got %d", w.Width)
	}
	if w.Height < 16 || w.Height > 2048 {
		return fmt.Errorf("window height must be between 16 and 2048, got %d", w.Height)
	}
	if w.OffsetY < 0 || w.Padding < 0 {
		return fmt.Errorf("window offset_y and padding must not be negative")
	}
	if w.AvatarSize < 8 || w.AvatarSize > w.Height {
		return fmt.Errorf("avatar_size must be between 8 and the window height (%d), got %d", w.Height, w.AvatarSize)
	}

	t := c.Timing
	if t.PollInterval.Duration() < 10*time.Millisecond {
		return fmt.Errorf("poll_interval must be at least 10ms, got %s", t.PollInterval.Duration())
	}
	if t.Display.Duration() <= 0 {
		return fmt.Errorf("display must be positive, got %s", t.Display.Duration())
	}
	if t.FadeInterval.Duration() < 10*time.Millisecond {
		return fmt.Errorf("fade_interval must be at least 10ms, got %s", t.FadeInterval.Duration())
	}
	if t.FadeStep <= 0 || t.FadeStep > 1 {
		return fmt.Errorf("fade_step must be in (0, 1], got %v", t.FadeStep)
	}
	if ticks := 1 / t.FadeStep; math.Abs(ticks-math.Round(ticks)) > 1e-9 {
		return fmt.Errorf("fade_step must divide 1 into whole ticks, got %v", t.FadeStep)
	}

	if c.Avatar.FetchTimeout.Duration() <= 0 {
		return fmt.Errorf("avatar fetch_timeout must be positive, got %s", c.Avatar.FetchTimeout.Duration())
	}
	if c.Avatar.MaxBytes <= 0 {
		return fmt.Errorf("avatar max_bytes must be positive, got %d", c.Avatar.MaxBytes)
	}

	if c.Bot.RatePerMinute < 0 {
		return fmt.Errorf("bot rate_per_minute must not be negative, got %d", c.Bot.RatePerMinute)
	}

	if c.Sound.Volume < 0 || c.Sound.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Sound.Volume)
	}

	return nil
}

// OverlayTiming converts the timing section for the renderer.
func (c *Config) OverlayTiming() overlay.Timing {
	return overlay.Timing{
		PollInterval: c.Timing.PollInterval.Duration(),
		Display:      c.Timing.Display.Duration(),
		FadeInterval: c.Timing.FadeInterval.Duration(),
		FadeStep:     c.Timing.FadeStep,
	}
}

// Rect is a resolved window rectangle in screen coordinates.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Resolve anchors the window to the top-right corner of a screen of the
// given width.
func (w WindowConfig) Resolve(screenWidth int) Rect {
	return Rect{
		X:      screenWidth - (w.Width + w.Padding),
		Y:      w.OffsetY,
		Width:  w.Width,
		Height: w.Height,
	}
}

// RightMargin returns the distance between the rectangle and the right edge.
func (r Rect) RightMargin(screenWidth int) int {
	return screenWidth - (r.X + r.Width)
}
