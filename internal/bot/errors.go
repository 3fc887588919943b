package bot

import "errors"

var (
	// ErrNotAllowed is returned for commands from chats outside the allow list.
	ErrNotAllowed = errors.New("chat is not allowed")
	// ErrUnknownCommand is returned for commands missing from the command table.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrRateLimited is returned when a user sends commands too quickly.
	ErrRateLimited = errors.New("rate limited")
)
