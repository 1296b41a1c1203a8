package palette

import (
	"fmt"
	"strings"
)

// Handler executes a command. Anything the command needs is captured in
// the closure at registration time.
type Handler func() error

// Command represents a registered command in the palette.
type Command struct {
	// ID is the unique command identifier (e.g. "trade.new").
	ID string

	// Title is the display name shown in the palette.
	Title string

	// Description provides additional context about the command.
	Description string

	// Category groups related commands (e.g. "Navigation", "Trades").
	Category string

	// Keybinding shows the keyboard shortcut (display only).
	Keybinding string

	// Handler executes the command.
	Handler Handler

	// Source indicates where the command was registered,
	// e.g. "core", "script", "user".
	Source string
}

// Execute runs the command.
func (c *Command) Execute() error {
	if c.Handler == nil {
		return fmt.Errorf("command %q has no handler", c.ID)
	}
	return c.Handler()
}

// SearchText returns the text used for fuzzy searching, combining title
// and description for better matching.
func (c *Command) SearchText() string {
	desc := strings.TrimSpace(c.Description)
	if desc == "" {
		return c.Title
	}
	return c.Title + " " + desc
}
