package search

import (
	"context"
	"fmt"
	"time"
)

const defaultPageSize = 20

// Loader fetches one page of results for query. Pages are numbered from 0.
// The context is cancelled once the request has been superseded, but the
// loader is free to ignore it: late results are discarded either way.
type Loader[T any] func(ctx context.Context, query string, page int, pageSize int) ([]T, error)

// Options configures a Controller. A nil Loader puts the controller in
// offline mode, where Items are filtered locally with the fuzzy matcher.
type Options[T any] struct {
	// Fields returns the searchable text of an item. Defaults to the item
	// formatted with fmt.Sprint.
	Fields func(T) []string

	Loader Loader[T]

	// DebounceDelay is how long Search waits for the query to settle.
	DebounceDelay time.Duration

	CacheResults bool

	// MaxCacheSize bounds the number of cached pages. 0 disables caching.
	MaxCacheSize int

	PageSize int

	Paginated bool

	// Items is the initial data set for offline mode.
	Items []T
}

func (o *Options[T]) setDefaults() {
	if o.Fields == nil {
		o.Fields = func(item T) []string {
			return []string{fmt.Sprint(item)}
		}
	}

	if o.DebounceDelay < 0 {
		o.DebounceDelay = 0
	}

	if o.PageSize <= 0 {
		o.PageSize = defaultPageSize
	}

	if o.MaxCacheSize < 0 || !o.CacheResults {
		o.MaxCacheSize = 0
	}
}
