package bot

import (
	"fmt"
	"strings"
)

// Acknowledgement is the reply sent for every accepted command.
const Acknowledgement = "Thank you for your feedback."

// Command is a chat command that produces an overlay message.
type Command struct {
	Name        string
	Description string
	// Format is applied to the originator's display name.
	Format string
}

// Message returns the overlay text for the given display name.
func (c Command) Message(displayName string) string {
	return fmt.Sprintf(c.Format, displayName)
}

var commands = []Command{
	{Name: "approve", Description: "Express your approval.", Format: "%s approves."},
	{Name: "disapprove", Description: "Express your disapproval.", Format: "%s disapproves."},
	{Name: "remember", Description: "You will remember this.", Format: "%s will remember that."},
}

// Commands returns the supported commands in menu order.
func Commands() []Command {
	out := make([]Command, len(commands))
	copy(out, commands)
	return out
}

// Lookup finds a command by name. A leading slash and a "@botname" suffix
// are ignored.
func Lookup(name string) (Command, bool) {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	name = strings.ToLower(name)

	for _, c := range commands {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}
