// Package model defines the core data structures for npc.
package model

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Event sources.
const (
	SourceTelegram = "telegram"
	SourceDBus     = "dbus"
)

// ErrEmptyMessage is returned when an event carries no message text.
var ErrEmptyMessage = errors.New("message cannot be empty")

// Event is a single request to display an avatar and a message on the overlay.
// It is created once by a producer and consumed once by the renderer.
// Events are passed by value and never modified after construction.
type Event struct {
	ID        string    `json:"id" yaml:"id"`
	AvatarURL string    `json:"avatar_url" yaml:"avatar_url"`
	Message   string    `json:"message" yaml:"message"`
	Source    string    `json:"source" yaml:"source"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewEvent creates a new Event with a generated ULID.
func NewEvent(source, avatarURL, message string) (Event, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return Event{}, fmt.Errorf("failed to generate ULID: %w", err)
	}

	ev := Event{
		ID:        id.String(),
		AvatarURL: strings.TrimSpace(avatarURL),
		Message:   strings.TrimSpace(message),
		Source:    source,
		CreatedAt: time.Now(),
	}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// Validate checks that the event has the fields the overlay needs.
func (e Event) Validate() error {
	if e.Message == "" {
		return ErrEmptyMessage
	}
	return nil
}

// IsZero reports whether e is the zero Event.
func (e Event) IsZero() bool {
	return e.ID == "" && e.Message == "" && e.AvatarURL == ""
}
