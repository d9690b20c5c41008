package cache

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/text/cases"
)

// Cache is a bounded least-recently-used store of result pages keyed by
// query. A cache created with a capacity of zero is disabled: Put does
// nothing and Get always misses.
type Cache[T any] struct {
	capacity int
	store    *lru.Cache
}

// New creates a cache holding at most capacity entries.
func New[T any](capacity int) *Cache[T] {
	c := &Cache[T]{capacity: max(capacity, 0)}
	if c.capacity == 0 {
		return c
	}

	// lru.New only fails for non-positive sizes, which are handled above.
	store, err := lru.New(c.capacity)
	if err != nil {
		c.capacity = 0
		return c
	}
	c.store = store

	return c
}

// Get returns a copy of the cached page for key. A hit marks the entry as
// most recently used.
func (c *Cache[T]) Get(key string) ([]T, bool) {
	if c.store == nil {
		return nil, false
	}

	value, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}

	page, ok := value.([]T)
	if !ok {
		return nil, false
	}

	return clone(page), true
}

// Put stores a copy of page under key, evicting the least recently used entry
// when the cache is full.
func (c *Cache[T]) Put(key string, page []T) {
	if c.store == nil {
		return
	}
	c.store.Add(key, clone(page))
}

func (c *Cache[T]) Len() int {
	if c.store == nil {
		return 0
	}
	return c.store.Len()
}

func (c *Cache[T]) Capacity() int {
	return c.capacity
}

func (c *Cache[T]) Enabled() bool {
	return c.store != nil
}

// Purge removes every entry.
func (c *Cache[T]) Purge() {
	if c.store == nil {
		return
	}
	c.store.Purge()
}

// Key builds the cache key for a page of results. Queries are trimmed and
// case folded so that equivalent queries share an entry; the page number is
// separated by a NUL byte so that no query text can collide with another
// query's page.
func Key(query string, page int) string {
	var builder strings.Builder
	builder.WriteString(cases.Fold().String(strings.TrimSpace(query)))
	builder.WriteByte(0)
	builder.WriteString(strconv.Itoa(page))

	return builder.String()
}

func clone[T any](page []T) []T {
	if page == nil {
		return nil
	}
	copied := make([]T, len(page))
	copy(copied, page)
	return copied
}
