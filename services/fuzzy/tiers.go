package fuzzy

// tightestSubsequence finds the query as an in-order subsequence of text and
// returns the indices of the narrowest window. Each candidate window is found
// with a greedy forward scan and then shrunk with a backward scan from its end.
func tightestSubsequence(query, text []rune) ([]int, bool) {
	if len(query) == 0 {
		return nil, false
	}

	var best []int
	bestSpan := -1
	for from := 0; from < len(text); {
		end := forwardScan(query, text, from)
		if end < 0 {
			break
		}
		indices := backwardScan(query, text, end)
		span := indices[len(indices)-1] - indices[0]
		if bestSpan < 0 || span < bestSpan {
			best, bestSpan = indices, span
		}
		from = indices[0] + 1
	}

	return best, best != nil
}

func forwardScan(query, text []rune, from int) int {
	q := 0
	for i := from; i < len(text); i++ {
		if text[i] != query[q] {
			continue
		}
		q++
		if q == len(query) {
			return i
		}
	}
	return -1
}

func backwardScan(query, text []rune, end int) []int {
	indices := make([]int, len(query))
	q := len(query) - 1
	for i := end; i >= 0 && q >= 0; i-- {
		if text[i] == query[q] {
			indices[q] = i
			q--
		}
	}
	return indices
}

// subsequenceScore is strictly below 1.0 because the window always has at
// least one gap, otherwise the exact tier would have matched.
func subsequenceScore(indices []int) float64 {
	m := len(indices)
	gap := indices[m-1] - indices[0] - (m - 1)
	score := minScore + subseqScoreRange*float64(m)/float64(m+gap)
	return clamp(score, minScore, maxSubseqScore)
}

// editDistanceMatch aligns query against every window of text with the
// semi-global edit distance table, where the window may start anywhere at no
// cost. Only two rows of the table are kept, together with the window start
// that each cell's best alignment came from.
func editDistanceMatch(query, text []rune) (Result, bool) {
	m, n := len(query), len(text)
	if m == 0 || n == 0 {
		return Result{}, false
	}

	prev, prevStart := make([]int, n+1), make([]int, n+1)
	cur, curStart := make([]int, n+1), make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j], prevStart[j] = 0, j
	}

	for i := 1; i <= m; i++ {
		cur[0], curStart[0] = i, 0
		for j := 1; j <= n; j++ {
			cost := 1
			if query[i-1] == text[j-1] {
				cost = 0
			}
			best, start := prev[j-1]+cost, prevStart[j-1]
			if v := prev[j] + 1; v < best {
				best, start = v, prevStart[j]
			}
			if v := cur[j-1] + 1; v < best {
				best, start = v, curStart[j-1]
			}
			cur[j], curStart[j] = best, start
		}
		prev, cur = cur, prev
		prevStart, curStart = curStart, prevStart
	}

	bestScore := -1.0
	bestStart, bestEnd := 0, 0
	for j := 1; j <= n; j++ {
		start := prevStart[j]
		window := j - start
		if window == 0 {
			continue
		}
		score := 1 - float64(prev[j])/float64(max(m, window))
		if score > bestScore {
			bestScore, bestStart, bestEnd = score, start, j
		}
	}

	if bestScore < minEditScore {
		return Result{}, false
	}

	return Result{Score: bestScore, Indices: indexRange(bestStart, bestEnd)}, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
