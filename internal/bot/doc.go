// Package bot turns chat commands into overlay events.
//
// The Dispatcher is transport independent: it checks the originating chat,
// throttles each user, resolves an avatar and enqueues one event per
// command. Telegram adapts telebot updates onto it.
package bot
