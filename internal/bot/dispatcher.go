package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jmylchreest/npc/internal/model"
)

const (
	// DefaultAvatarTimeout bounds the avatar lookup done before a command is
	// acknowledged.
	DefaultAvatarTimeout = 3 * time.Second

	// DefaultAvatarCacheTTL is how long a resolved avatar URL is reused.
	// Telegram file links stay valid for at least an hour.
	DefaultAvatarCacheTTL = 10 * time.Minute

	// limiterIdle is how long a per-user bucket takes to refill completely.
	// A limiter idle for longer is indistinguishable from a new one.
	limiterIdle = time.Minute

	// sweepInterval is the minimum time between evictions of idle limiters
	// and expired avatar URLs.
	sweepInterval = time.Minute
)

// Origin identifies who sent a command and where.
type Origin struct {
	UserID      int64
	ChatID      int64
	DisplayName string
}

// AvatarResolver looks up the avatar image URL of a user.
// An empty URL with a nil error means the user has no avatar.
type AvatarResolver interface {
	AvatarURL(ctx context.Context, userID int64) (string, error)
}

// Enqueuer accepts events for display. Enqueue must not block.
type Enqueuer interface {
	Enqueue(ev model.Event)
}

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	// AllowedChats restricts commands to these chats. Empty allows every chat.
	AllowedChats []int64
	// RatePerMinute caps commands per user. Zero disables the limit.
	RatePerMinute int
	// DefaultAvatar is used when a user has no avatar or it can't be resolved.
	DefaultAvatar string
	// AvatarTimeout bounds each avatar lookup. Zero uses DefaultAvatarTimeout.
	AvatarTimeout time.Duration
	// AvatarCacheTTL is how long a resolved URL is reused. Zero uses
	// DefaultAvatarCacheTTL, negative disables the cache.
	AvatarCacheTTL time.Duration
	// OnReject is called for every refused command.
	OnReject func(command string, err error)
}

// Dispatcher validates commands and enqueues one event per accepted command.
// It never waits for the overlay.
type Dispatcher struct {
	queue   Enqueuer
	avatars AvatarResolver
	opts    DispatcherOptions
	allowed map[int64]struct{}
	logger  *slog.Logger

	now func() time.Time

	mu        sync.Mutex
	limiters  map[int64]*userLimiter
	avatarURL map[int64]cachedAvatar
	lastSweep time.Time
}

type userLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type cachedAvatar struct {
	url     string
	expires time.Time
}

// NewDispatcher creates a dispatcher. avatars may be nil, in which case the
// default avatar is always used.
func NewDispatcher(queue Enqueuer, avatars AvatarResolver, opts DispatcherOptions, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	if opts.AvatarTimeout <= 0 {
		opts.AvatarTimeout = DefaultAvatarTimeout
	}
	if opts.AvatarCacheTTL == 0 {
		opts.AvatarCacheTTL = DefaultAvatarCacheTTL
	}

	var allowed map[int64]struct{}
	if len(opts.AllowedChats) > 0 {
		allowed = make(map[int64]struct{}, len(opts.AllowedChats))
		for _, id := range opts.AllowedChats {
			allowed[id] = struct{}{}
		}
	}

	return &Dispatcher{
		queue:     queue,
		avatars:   avatars,
		opts:      opts,
		allowed:   allowed,
		logger:    logger,
		now:       time.Now,
		limiters:  make(map[int64]*userLimiter),
		avatarURL: make(map[int64]cachedAvatar),
	}
}

// Handle runs command for origin and returns the reply text.
func (d *Dispatcher) Handle(ctx context.Context, command string, origin Origin) (string, error) {
	cmd, ok := Lookup(command)
	if !ok {
		return "", d.reject(command, origin, ErrUnknownCommand)
	}
	if !d.chatAllowed(origin.ChatID) {
		return "", d.reject(cmd.Name, origin, ErrNotAllowed)
	}
	if !d.allow(origin.UserID) {
		return "", d.reject(cmd.Name, origin, ErrRateLimited)
	}

	name := strings.TrimSpace(origin.DisplayName)
	if name == "" {
		name = fmt.Sprintf("User %d", origin.UserID)
	}

	ev, err := model.NewEvent(model.SourceTelegram, d.resolveAvatar(ctx, origin.UserID), cmd.Message(name))
	if err != nil {
		return "", fmt.Errorf("failed to build event: %w", err)
	}
	d.queue.Enqueue(ev)

	d.logger.Info("command accepted",
		"command", cmd.Name,
		"event_id", ev.ID,
		"user_id", origin.UserID,
		"chat_id", origin.ChatID,
	)
	return Acknowledgement, nil
}

func (d *Dispatcher) reject(command string, origin Origin, err error) error {
	d.logger.Debug("command rejected",
		"command", command,
		"user_id", origin.UserID,
		"chat_id", origin.ChatID,
		"error", err,
	)
	if d.opts.OnReject != nil {
		d.opts.OnReject(command, err)
	}
	return err
}

func (d *Dispatcher) chatAllowed(chatID int64) bool {
	if d.allowed == nil {
		return true
	}
	_, ok := d.allowed[chatID]
	return ok
}

// allow reports whether userID may send another command now.
func (d *Dispatcher) allow(userID int64) bool {
	if d.opts.RatePerMinute <= 0 {
		return true
	}

	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.sweepLocked(now)

	ul, ok := d.limiters[userID]
	if !ok {
		ul = &userLimiter{
			lim: rate.NewLimiter(rate.Every(time.Minute/time.Duration(d.opts.RatePerMinute)), d.opts.RatePerMinute),
		}
		d.limiters[userID] = ul
	}
	ul.lastSeen = now
	return ul.lim.AllowN(now, 1)
}

// sweepLocked drops idle limiters and expired avatar URLs. d.mu must be held.
func (d *Dispatcher) sweepLocked(now time.Time) {
	if now.Sub(d.lastSweep) < sweepInterval {
		return
	}
	d.lastSweep = now

	for id, ul := range d.limiters {
		if now.Sub(ul.lastSeen) >= limiterIdle {
			delete(d.limiters, id)
		}
	}
	for id, c := range d.avatarURL {
		if !now.Before(c.expires) {
			delete(d.avatarURL, id)
		}
	}
}

func (d *Dispatcher) resolveAvatar(ctx context.Context, userID int64) string {
	if d.avatars == nil {
		return d.opts.DefaultAvatar
	}

	url, ok := d.cachedAvatarURL(userID)
	if !ok {
		lookupCtx, cancel := context.WithTimeout(ctx, d.opts.AvatarTimeout)
		defer cancel()

		var err error
		url, err = d.avatars.AvatarURL(lookupCtx, userID)
		if err != nil {
			d.logger.Warn("failed to resolve avatar, using default", "user_id", userID, "error", err)
			return d.opts.DefaultAvatar
		}
		d.cacheAvatarURL(userID, url)
	}

	if url == "" {
		return d.opts.DefaultAvatar
	}
	return url
}

func (d *Dispatcher) cachedAvatarURL(userID int64) (string, bool) {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.sweepLocked(now)

	c, ok := d.avatarURL[userID]
	if !ok || !now.Before(c.expires) {
		return "", false
	}
	return c.url, true
}

func (d *Dispatcher) cacheAvatarURL(userID int64, url string) {
	if d.opts.AvatarCacheTTL < 0 {
		return
	}
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.avatarURL[userID] = cachedAvatar{url: url, expires: now.Add(d.opts.AvatarCacheTTL)}
}
