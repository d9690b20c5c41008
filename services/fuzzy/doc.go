// Package fuzzy scores how well a query matches a piece of text.
//
// Matching is case-insensitive and runs three tiers in order, the first
// tier that succeeds wins:
//
//   - Exact substring: the query occurs contiguously in the text. This is the
//     only tier that produces a score of exactly 1.0.
//   - Subsequence: the query runes occur in order with gaps. The tightest
//     window is chosen and the score decreases as the gaps grow.
//   - Edit distance: the query is aligned against the closest window of the
//     text. Weak alignments are rejected.
//
// Indices in a Result are rune offsets into the original text, so they can be
// used directly for highlighting.
package fuzzy
