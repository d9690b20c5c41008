package fuzzy

import "unicode"

const (
	exactScore       = 1.0
	minScore         = 0.01
	maxSubseqScore   = 0.99
	minEditScore     = 0.6
	subseqScoreRange = maxSubseqScore - minScore
)

// Result holds the score of a single match and the rune indices of the
// matched characters in the text.
type Result struct {
	Score   float64 `json:"score"`
	Indices []int   `json:"indices"`
}

// Match scores query against text. The boolean is false when no tier matched.
func Match(query, text string) (Result, bool) {
	return matchRunes(foldRunes(query), text)
}

// MatchFields returns the best scoring match of query across fields. Ties go
// to the earliest field.
func MatchFields(query string, fields []string) (Result, bool) {
	return matchFieldsRunes(foldRunes(query), fields)
}

func matchFieldsRunes(query []rune, fields []string) (Result, bool) {
	var best Result
	found := false
	for _, field := range fields {
		result, ok := matchRunes(query, field)
		if !ok {
			continue
		}
		if !found || result.Score > best.Score {
			best, found = result, true
		}
		if best.Score == exactScore {
			break
		}
	}
	return best, found
}

func matchRunes(query []rune, text string) (Result, bool) {
	folded := foldRunes(text)

	if start := indexRunes(folded, query); start >= 0 {
		return Result{Score: exactScore, Indices: indexRange(start, start+len(query))}, true
	}

	if indices, ok := tightestSubsequence(query, folded); ok {
		return Result{Score: subsequenceScore(indices), Indices: indices}, true
	}

	return editDistanceMatch(query, folded)
}

// foldRunes maps every rune to a single canonical case so that a string, its
// upper-cased and its lower-cased forms fold to the same runes.
func foldRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(unicode.ToUpper(r))
	}
	return runes
}

func indexRunes(text, query []rune) int {
	n, m := len(text), len(query)
	for i := 0; i+m <= n; i++ {
		j := 0
		for j < m && text[i+j] == query[j] {
			j++
		}
		if j == m {
			return i
		}
	}
	return -1
}

func indexRange(start, end int) []int {
	indices := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		indices = append(indices, i)
	}
	return indices
}
