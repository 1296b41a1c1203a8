// Package palette provides a searchable command palette.
//
// Commands are registered by id and searched with fuzzy matching over
// their title, id, description, and category. Recently executed commands
// are boosted in the ranking and shown first for an empty query, so the
// palette converges on each user's habits.
//
// The palette stores actions, not key sequences: a command's Keybinding
// field is display-only. Keeping the two registries separate lets a
// command exist without a shortcut and a shortcut without a palette
// entry.
package palette
