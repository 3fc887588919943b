package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names for secrets.
const (
	EnvBotToken     = "NPC_BOT_TOKEN"
	EnvAllowedChats = "NPC_ALLOWED_CHATS"
)

// Secrets holds credentials that never live in the config file.
type Secrets struct {
	BotToken     string
	AllowedChats []int64 // Empty means every chat is allowed
}

// LoadSecrets reads secrets from the environment. If envFile is set and
// exists, it is loaded first; variables already in the environment win.
func LoadSecrets(envFile string) (*Secrets, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	chats, err := ParseChatIDs(os.Getenv(EnvAllowedChats))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvAllowedChats, err)
	}

	return &Secrets{
		BotToken:     strings.TrimSpace(os.Getenv(EnvBotToken)),
		AllowedChats: chats,
	}, nil
}

// ParseChatIDs parses a comma-separated list of chat IDs.
func ParseChatIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("chat id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
