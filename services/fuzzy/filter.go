package fuzzy

import "sort"

// Scored pairs an item with the result of matching it.
type Scored[T any] struct {
	Item   T
	Result Result
}

// Filter matches query against the fields of every item, drops the items that
// do not match and orders the rest by descending score. Items with equal
// scores keep their input order.
func Filter[T any](query string, items []T, fields func(T) []string) []Scored[T] {
	folded := foldRunes(query)

	scored := make([]Scored[T], 0, len(items))
	for _, item := range items {
		result, ok := matchFieldsRunes(folded, fields(item))
		if !ok {
			continue
		}
		scored = append(scored, Scored[T]{Item: item, Result: result})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Result.Score > scored[j].Result.Score
	})

	return scored
}

// Items strips the scores from a filtered slice.
func Items[T any](scored []Scored[T]) []T {
	items := make([]T, len(scored))
	for i, s := range scored {
		items[i] = s.Item
	}
	return items
}
