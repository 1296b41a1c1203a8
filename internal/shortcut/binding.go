package shortcut

import (
	"sort"

	"github.com/dshills/keycast/internal/key"
)

// Handler is the action invoked when a binding's sequence is typed.
// It takes no arguments; anything the action needs is captured in the
// closure at registration time.
type Handler func() error

// Binding represents a single key-sequence-to-action mapping.
type Binding struct {
	// ID uniquely identifies the binding in the registry.
	// Left empty, Register generates one.
	ID string

	// Keys is the key sequence spec that triggers this binding.
	// Formats: "j", "g d", "?", "<C-s>", "Ctrl+Shift+P"
	Keys string

	// Handler is the action to invoke.
	Handler Handler

	// Description documents the binding for display.
	Description string

	// Category groups bindings for display purposes.
	Category string

	// Active bindings participate in dispatch matching.
	// Inactive ones remain listed for UI display.
	Active bool

	// sequence is the parsed form of Keys, set by Register.
	sequence *key.Sequence
}

// Sequence returns the parsed key sequence, or nil for a binding that has
// not been registered.
func (b Binding) Sequence() *key.Sequence {
	return b.sequence
}

// Matches checks if the binding's sequence exactly matches seq.
func (b Binding) Matches(seq *key.Sequence) bool {
	if b.sequence == nil {
		return false
	}
	return b.sequence.Equals(seq)
}

// CategoryGroup is a display grouping of bindings sharing a category.
type CategoryGroup struct {
	Name     string
	Bindings []Binding
}

// GroupByCategory groups bindings by category, sorted by category name,
// with bindings ordered by their key spec within each group. Bindings
// without a category land in "Other".
func GroupByCategory(bindings []Binding) []CategoryGroup {
	byName := make(map[string][]Binding)
	for _, b := range bindings {
		cat := b.Category
		if cat == "" {
			cat = "Other"
		}
		byName[cat] = append(byName[cat], b)
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]CategoryGroup, 0, len(names))
	for _, name := range names {
		group := byName[name]
		sort.Slice(group, func(i, j int) bool {
			return group[i].Keys < group[j].Keys
		})
		groups = append(groups, CategoryGroup{Name: name, Bindings: group})
	}
	return groups
}
