package palette

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/keycast/internal/fuzzy"
)

// SearchResult is a matched command with scoring information.
type SearchResult struct {
	// Command is the matched command.
	Command *Command

	// Score is the match score (higher is better).
	Score int

	// Matches holds the rune indices of matched characters in the
	// command's search text, for highlighting.
	Matches []int
}

// Palette provides searchable access to registered commands.
type Palette struct {
	mu       sync.RWMutex
	commands map[string]*Command
	matcher  *fuzzy.Matcher
	history  *History

	// onChange callbacks fire when commands are added or removed.
	onChange []func()
}

// New creates a command palette with the default history size.
func New() *Palette {
	return NewWithHistory(100)
}

// NewWithHistory creates a palette with a custom history capacity.
func NewWithHistory(historySize int) *Palette {
	return &Palette{
		commands: make(map[string]*Command),
		matcher:  fuzzy.NewMatcher(fuzzy.Options{}),
		history:  NewHistory(historySize),
	}
}

// Register adds a command, replacing any existing command with the same
// id.
func (p *Palette) Register(cmd *Command) error {
	if cmd == nil {
		return fmt.Errorf("command cannot be nil")
	}
	if cmd.ID == "" {
		return fmt.Errorf("command ID cannot be empty")
	}
	if cmd.Title == "" {
		return fmt.Errorf("command %q: title cannot be empty", cmd.ID)
	}

	p.mu.Lock()
	p.commands[cmd.ID] = cmd
	p.mu.Unlock()

	p.notifyChange()
	return nil
}

// RegisterAll adds multiple commands, stopping at the first error.
func (p *Palette) RegisterAll(commands []*Command) error {
	for _, cmd := range commands {
		if err := p.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

// Unregister removes a command, reporting whether it existed.
func (p *Palette) Unregister(id string) bool {
	p.mu.Lock()
	_, exists := p.commands[id]
	delete(p.commands, id)
	p.mu.Unlock()

	if exists {
		p.notifyChange()
	}
	return exists
}

// UnregisterBySource removes all commands from a source, e.g. every
// command a script registered when the script is unloaded.
func (p *Palette) UnregisterBySource(source string) int {
	p.mu.Lock()
	count := 0
	for id, cmd := range p.commands {
		if cmd.Source == source {
			delete(p.commands, id)
			count++
		}
	}
	p.mu.Unlock()

	if count > 0 {
		p.notifyChange()
	}
	return count
}

// Get retrieves a command by id, or nil.
func (p *Palette) Get(id string) *Command {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.commands[id]
}

// Has checks if a command exists.
func (p *Palette) Has(id string) bool {
	return p.Get(id) != nil
}

// All returns all commands sorted by title.
func (p *Palette) All() []*Command {
	p.mu.RLock()
	result := make([]*Command, 0, len(p.commands))
	for _, cmd := range p.commands {
		result = append(result, cmd)
	}
	p.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Title < result[j].Title
	})
	return result
}

// Count returns the number of registered commands.
func (p *Palette) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.commands)
}

// Search finds commands matching the query, sorted by relevance with
// recently executed commands boosted. An empty query lists recent
// commands first, then the rest alphabetically.
func (p *Palette) Search(query string, limit int) []SearchResult {
	p.mu.RLock()
	items := make([]fuzzy.Item, 0, len(p.commands))
	for _, cmd := range p.commands {
		items = append(items, fuzzy.Item{Text: cmd.SearchText(), Data: cmd})
	}
	p.mu.RUnlock()

	if query == "" {
		return p.recentFirst(items, limit)
	}

	// Request extra results since the history boost may reorder past
	// the cutoff.
	searchLimit := 0
	if limit > 0 {
		searchLimit = limit * 2
		if searchLimit < 50 {
			searchLimit = 50
		}
	}
	matched := p.matcher.Match(query, items, searchLimit)

	results := make([]SearchResult, 0, len(matched))
	for _, m := range matched {
		cmd := m.Item.Data.(*Command)
		score := m.Score
		if pos := p.history.Position(cmd.ID); pos >= 0 {
			score += 100 - pos
		}
		results = append(results, SearchResult{
			Command: cmd,
			Score:   score,
			Matches: m.Matches,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Command.Title < results[j].Command.Title
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// recentFirst orders commands by history recency, then title.
func (p *Palette) recentFirst(items []fuzzy.Item, limit int) []SearchResult {
	results := make([]SearchResult, 0, len(items))
	for _, item := range items {
		cmd := item.Data.(*Command)
		score := 0
		if pos := p.history.Position(cmd.ID); pos >= 0 {
			score = 1000 - pos
		}
		results = append(results, SearchResult{Command: cmd, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Command.Title < results[j].Command.Title
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Execute runs a command by id. History records the command only after
// it succeeds.
func (p *Palette) Execute(id string) error {
	p.mu.RLock()
	cmd, exists := p.commands[id]
	p.mu.RUnlock()

	if !exists {
		return fmt.Errorf("unknown command: %s", id)
	}

	err := cmd.Execute()
	if err == nil {
		p.history.Add(id)
	}
	return err
}

// History returns the command history.
func (p *Palette) History() *History {
	return p.history
}

// Categories returns all unique command categories, sorted.
func (p *Palette) Categories() []string {
	p.mu.RLock()
	seen := make(map[string]bool)
	for _, cmd := range p.commands {
		if cmd.Category != "" {
			seen[cmd.Category] = true
		}
	}
	p.mu.RUnlock()

	result := make([]string, 0, len(seen))
	for cat := range seen {
		result = append(result, cat)
	}
	sort.Strings(result)
	return result
}

// ByCategory returns commands in the given category sorted by title.
func (p *Palette) ByCategory(category string) []*Command {
	p.mu.RLock()
	result := make([]*Command, 0)
	for _, cmd := range p.commands {
		if cmd.Category == category {
			result = append(result, cmd)
		}
	}
	p.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Title < result[j].Title
	})
	return result
}

// OnChange registers a callback invoked after commands are added or
// removed. Callbacks must not register or unregister commands.
func (p *Palette) OnChange(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = append(p.onChange, fn)
}

// notifyChange calls change callbacks without holding the lock.
func (p *Palette) notifyChange() {
	p.mu.RLock()
	callbacks := make([]func(), len(p.onChange))
	copy(callbacks, p.onChange)
	p.mu.RUnlock()

	for _, fn := range callbacks {
		fn()
	}
}

// Clear removes all commands and clears history.
func (p *Palette) Clear() {
	p.mu.Lock()
	p.commands = make(map[string]*Command)
	p.mu.Unlock()

	p.history.Clear()
	p.notifyChange()
}
