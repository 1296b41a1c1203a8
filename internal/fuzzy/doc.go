// Package fuzzy provides fuzzy string matching for the command palette.
//
// Matching uses a greedy left-to-right scan: every query rune must appear
// in the candidate text in order, not necessarily adjacent. Candidates
// are scored by match quality (consecutive runs, word boundaries, prefix
// position) and returned best-first.
//
// The matcher is stateless per call; palettes hold one Matcher and pass
// their current command list on every keystroke.
package fuzzy
