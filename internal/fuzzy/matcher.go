package fuzzy

import (
	"sort"
	"strings"
)

// Item represents a searchable item.
type Item struct {
	// Text is the string to match against.
	Text string

	// Data is arbitrary data associated with this item.
	Data any
}

// Result represents a match result with scoring information.
type Result struct {
	// Item is the matched item.
	Item Item

	// Score is the match score (higher is better).
	Score int

	// Matches contains the rune indices of matched characters,
	// for highlighting.
	Matches []int
}

// Options configures the matcher behavior.
type Options struct {
	// MinScore is the minimum score for a match to be included.
	// Default is 0 (include all matches).
	MinScore int

	// CaseSensitive enables case-sensitive matching.
	// Default is false (case-insensitive).
	CaseSensitive bool
}

// Matcher performs fuzzy string matching.
type Matcher struct {
	scorer  Scorer
	options Options
}

// NewMatcher creates a new fuzzy matcher with the given options.
func NewMatcher(opts Options) *Matcher {
	return &Matcher{
		scorer:  DefaultScorer{},
		options: opts,
	}
}

// SetScorer sets a custom scoring algorithm.
func (m *Matcher) SetScorer(scorer Scorer) {
	m.scorer = scorer
}

// Match finds items matching the query and returns results sorted by
// score descending, ties broken by text for deterministic ordering.
// An empty query returns the first items unscored, preserving their
// given order. A limit <= 0 means unlimited.
func (m *Matcher) Match(query string, items []Item, limit int) []Result {
	if !m.options.CaseSensitive {
		query = strings.ToLower(query)
	}
	query = strings.TrimSpace(query)

	if query == "" {
		return m.emptyQueryResults(items, limit)
	}

	queryRunes := []rune(query)

	results := make([]Result, 0, len(items))
	for _, item := range items {
		score, matches := m.matchItem(queryRunes, item.Text)
		if score > m.options.MinScore {
			results = append(results, Result{
				Item:    item,
				Score:   score,
				Matches: matches,
			})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Item.Text < results[j].Item.Text
	})

	return applyLimit(results, limit)
}

// matchItem scores a single item against the query.
// Returns score and matched rune indices.
func (m *Matcher) matchItem(queryRunes []rune, text string) (int, []int) {
	if text == "" || len(queryRunes) == 0 {
		return 0, nil
	}

	var textRunes []rune
	if m.options.CaseSensitive {
		textRunes = []rune(text)
	} else {
		textRunes = []rune(strings.ToLower(text))
	}
	originalRunes := []rune(text) // original case for boundary detection

	// Greedy left-to-right scan.
	matches := make([]int, 0, len(queryRunes))
	queryIdx := 0
	for i := 0; i < len(textRunes) && queryIdx < len(queryRunes); i++ {
		if textRunes[i] == queryRunes[queryIdx] {
			matches = append(matches, i)
			queryIdx++
		}
	}

	// All query characters must match.
	if queryIdx != len(queryRunes) {
		return 0, nil
	}

	score := m.scorer.Score(queryRunes, originalRunes, textRunes, matches)
	return score, matches
}

// emptyQueryResults returns items in their given order with zero score.
func (m *Matcher) emptyQueryResults(items []Item, limit int) []Result {
	count := len(items)
	if limit > 0 && limit < count {
		count = limit
	}

	results := make([]Result, count)
	for i := 0; i < count; i++ {
		results[i] = Result{Item: items[i]}
	}
	return results
}

// applyLimit returns at most limit results.
func applyLimit(results []Result, limit int) []Result {
	if limit <= 0 || limit >= len(results) {
		return results
	}
	return results[:limit]
}
