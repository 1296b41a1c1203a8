package fuzzy

import "unicode"

// Scorer calculates match scores.
type Scorer interface {
	// Score calculates a match score. Higher scores indicate better
	// matches. queryRunes are normalized, originalRunes preserve case
	// for boundary detection, textRunes are normalized, and matches
	// holds the rune indices of matched characters in text.
	Score(queryRunes, originalRunes, textRunes []rune, matches []int) int
}

// DefaultScorer scores matches the way command palettes expect: runs of
// consecutive characters, word-boundary hits, and prefix matches rank
// highest; scattered matches deep in a long string rank lowest.
type DefaultScorer struct{}

// Score implements the Scorer interface.
func (s DefaultScorer) Score(queryRunes, originalRunes, textRunes []rune, matches []int) int {
	if len(matches) == 0 {
		return 0
	}

	score := 100

	for i := 1; i < len(matches); i++ {
		if matches[i] == matches[i-1]+1 {
			score += 20
		}
	}

	for _, idx := range matches {
		if isWordBoundary(originalRunes, idx) {
			score += 15
		}
	}

	if matches[0] == 0 {
		score += 25
	}

	// Penalty for gaps between matches.
	if len(matches) > 1 {
		totalGap := matches[len(matches)-1] - matches[0] - len(matches) + 1
		if totalGap > 0 {
			score -= totalGap * 2
		}
	}

	// Penalty for matches far from the start.
	if matches[0] > 0 {
		score -= matches[0]
	}

	// Shorter text means a more specific match.
	textLen := len(textRunes)
	if textLen < 20 {
		score += 20 - textLen
	}

	if hasExactPrefix(queryRunes, textRunes) {
		score += 50
	}

	if score < 1 {
		score = 1
	}
	return score
}

// hasExactPrefix reports whether text starts with the query verbatim.
func hasExactPrefix(queryRunes, textRunes []rune) bool {
	if len(textRunes) < len(queryRunes) {
		return false
	}
	for i, qr := range queryRunes {
		if textRunes[i] != qr {
			return false
		}
	}
	return true
}

// isWordBoundary checks if the rune at idx is at a word boundary:
// string start, after space or punctuation, or a camelCase transition.
func isWordBoundary(runes []rune, idx int) bool {
	if idx == 0 {
		return true
	}
	if idx >= len(runes) {
		return false
	}

	prev := runes[idx-1]
	curr := runes[idx]

	if unicode.IsSpace(prev) || unicode.IsPunct(prev) {
		return true
	}
	if unicode.IsLower(prev) && unicode.IsUpper(curr) {
		return true
	}
	return false
}
