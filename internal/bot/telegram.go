package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

// TelegramConfig configures the Telegram transport.
type TelegramConfig struct {
	Token       string
	PollTimeout time.Duration
}

// Telegram receives commands over the Telegram Bot API.
type Telegram struct {
	bot    *tele.Bot
	logger *slog.Logger
}

// NewTelegram creates the bot client. It does not start polling.
func NewTelegram(cfg TelegramConfig, logger *slog.Logger) (*Telegram, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Telegram{bot: b, logger: logger}, nil
}

// Run registers the command handlers and polls until ctx is cancelled.
func (t *Telegram) Run(ctx context.Context, d *Dispatcher) error {
	menu := make([]tele.Command, 0, len(commands))
	for _, cmd := range Commands() {
		t.bot.Handle("/"+cmd.Name, t.handler(ctx, d, cmd.Name))
		menu = append(menu, tele.Command{Text: cmd.Name, Description: cmd.Description})
	}

	if err := t.bot.SetCommands(menu); err != nil {
		t.logger.Warn("failed to publish command menu", "error", err)
	}

	go func() {
		<-ctx.Done()
		t.bot.Stop()
	}()

	t.logger.Info("telegram polling started", "bot", t.bot.Me.Username)
	t.bot.Start() // blocks until Stop
	t.logger.Info("telegram polling stopped")
	return nil
}

func (t *Telegram) handler(ctx context.Context, d *Dispatcher, name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		chat := c.Chat()
		if sender == nil || chat == nil {
			return nil
		}

		reply, err := d.Handle(ctx, name, Origin{
			UserID:      sender.ID,
			ChatID:      chat.ID,
			DisplayName: displayName(sender),
		})
		switch {
		case err == nil:
			return c.Reply(reply)
		case errors.Is(err, ErrRateLimited):
			return c.Reply("Too many commands, try again shortly.")
		case errors.Is(err, ErrNotAllowed), errors.Is(err, ErrUnknownCommand):
			return nil
		default:
			t.logger.Error("failed to handle command", "command", name, "error", err)
			return nil
		}
	}
}

// AvatarURL returns a download URL for the user's current profile photo.
// The Bot API calls are abandoned when ctx is done.
func (t *Telegram) AvatarURL(ctx context.Context, userID int64) (string, error) {
	return callWithContext(ctx, func() (string, error) {
		return t.profilePhotoURL(userID)
	})
}

func (t *Telegram) profilePhotoURL(userID int64) (string, error) {
	photos, err := t.bot.ProfilePhotosOf(&tele.User{ID: userID})
	if err != nil {
		return "", fmt.Errorf("failed to list profile photos: %w", err)
	}
	if len(photos) == 0 {
		return "", nil
	}

	file, err := t.bot.FileByID(photos[0].FileID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve profile photo: %w", err)
	}
	return fileURL(t.bot.URL, t.bot.Token, file.FilePath), nil
}

// callWithContext runs fn and returns its result, or ctx.Err() if ctx is done
// first. fn keeps running in the background until it returns.
func callWithContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// fileURL builds the Bot API download URL for a file path.
func fileURL(apiURL, token, filePath string) string {
	return strings.TrimRight(apiURL, "/") + "/file/bot" + token + "/" + strings.TrimLeft(filePath, "/")
}

// displayName mirrors how Telegram clients show a user.
func displayName(u *tele.User) string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return ""
}
