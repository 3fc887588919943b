package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/npc/internal/config"
	"github.com/jmylchreest/npc/internal/model"
)

func recordingChime(cfg config.SoundConfig) (*Chime, chan string) {
	played := make(chan string, 4)
	c := NewChime(cfg, nil)
	c.play = func(path string) error {
		played <- path
		return nil
	}
	return c, played
}

func TestChime_PlaysWhenEnabled(t *testing.T) {
	c, played := recordingChime(config.SoundConfig{Enabled: true, File: "/tmp/ding.wav", Volume: 50})

	assert.Equal(t, 0.5, c.player.Volume())

	c.OnShow(model.Event{ID: "a", Message: "hi"})

	select {
	case path := <-played:
		assert.Equal(t, "/tmp/ding.wav", path)
	case <-time.After(time.Second):
		t.Fatal("chime was not played")
	}
}

func TestChime_SilentWhenDisabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.SoundConfig
	}{
		{"disabled", config.SoundConfig{Enabled: false, File: "/tmp/ding.wav"}},
		{"no file", config.SoundConfig{Enabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, played := recordingChime(tt.cfg)

			c.OnShow(model.Event{ID: "a", Message: "hi"})

			select {
			case path := <-played:
				t.Fatalf("unexpected chime %q", path)
			case <-time.After(50 * time.Millisecond):
			}
		})
	}
}

func TestChime_UpdateConfig(t *testing.T) {
	c, played := recordingChime(config.SoundConfig{})

	c.OnShow(model.Event{ID: "a", Message: "hi"})
	select {
	case path := <-played:
		t.Fatalf("unexpected chime %q", path)
	case <-time.After(50 * time.Millisecond):
	}

	c.UpdateConfig(config.SoundConfig{Enabled: true, File: "/tmp/new.wav", Volume: 100})
	assert.Equal(t, 1.0, c.player.Volume())

	c.OnShow(model.Event{ID: "b", Message: "hello"})
	assert.Equal(t, "/tmp/new.wav", <-played)
}
