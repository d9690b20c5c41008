package search

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/meghashyamc/quickfind/db/cache"
	"github.com/meghashyamc/quickfind/logger"
	"github.com/meghashyamc/quickfind/services/fuzzy"
)

type State string

const (
	StateIdle       State = "idle"
	StateDebouncing State = "debouncing"
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateErrored    State = "errored"
	StateDisposed   State = "disposed"
)

// Snapshot is a point-in-time copy of the controller state.
type Snapshot[T any] struct {
	Query       string `json:"query"`
	Items       []T    `json:"items"`
	IsLoading   bool   `json:"is_loading"`
	LoadingMore bool   `json:"loading_more"`
	Error       string `json:"error,omitempty"`
	Page        int    `json:"page"`
	HasMore     bool   `json:"has_more"`
	State       State  `json:"state"`
	Disposed    bool   `json:"disposed"`
}

// Controller turns queries into a result set. In offline mode it filters its
// items with the fuzzy matcher; with a Loader it fetches pages asynchronously
// and caches them.
//
// Every asynchronous request carries a generation id. A completion only
// touches the state if its generation is still current, and the check is made
// under the same lock as the mutation it guards. Listeners are notified once
// per state change, after the lock has been released.
type Controller[T any] struct {
	logger        logger.Logger
	fields        func(T) []string
	debounceDelay time.Duration
	pageSize      int

	cache     *cache.Cache[T]
	debouncer *Debouncer
	sequencer *Sequencer
	notifier  *Notifier

	mu           sync.Mutex
	loader       Loader[T]
	source       []T
	items        []T
	query        string
	appliedQuery string
	isLoading    bool
	err          error
	evaluated    bool
	disposed     bool
	pagination   *Pagination
	cancelLoad   context.CancelFunc
}

func New[T any](logger logger.Logger, opts Options[T]) *Controller[T] {
	opts.setDefaults()

	c := &Controller[T]{
		logger:        logger,
		fields:        opts.Fields,
		debounceDelay: opts.DebounceDelay,
		pageSize:      opts.PageSize,
		cache:         cache.New[T](opts.MaxCacheSize),
		debouncer:     &Debouncer{},
		sequencer:     &Sequencer{},
		notifier:      &Notifier{},
		loader:        opts.Loader,
		source:        slices.Clone(opts.Items),
		pagination:    NewPagination(opts.Paginated),
	}
	logger.Debug("created search controller",
		"online", opts.Loader != nil,
		"page_size", opts.PageSize,
		"paginated", opts.Paginated,
		"cache_enabled", c.cache.Enabled(),
		"cache_capacity", c.cache.Capacity(),
	)

	return c
}

// Subscribe registers fn to be called after every state change.
func (c *Controller[T]) Subscribe(fn func()) (unsubscribe func()) {
	if c.IsDisposed() {
		return func() {}
	}
	return c.notifier.Subscribe(fn)
}

// Search records query and evaluates it once the debounce delay has passed
// without another call.
func (c *Controller[T]) Search(query string) {
	c.schedule(query, c.debounceDelay)
}

// SearchImmediate skips the debounce delay. The query is still evaluated
// asynchronously, never before this call returns.
func (c *Controller[T]) SearchImmediate(query string) {
	c.schedule(query, 0)
}

func (c *Controller[T]) schedule(query string, delay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return
	}

	c.query = query
	c.debouncer.Schedule(delay, c.evaluate)
}

func (c *Controller[T]) evaluate() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.evaluated = true

	if c.loader == nil {
		changes := c.filterLocked()
		c.mu.Unlock()
		c.notify(changes)
		return
	}

	query := c.query
	if page, ok := c.cache.Get(cache.Key(query, 0)); ok {
		c.supersedeLocked()
		c.err = nil
		c.items = page
		c.appliedQuery = query
		c.isLoading = false
		c.pagination.Reset(len(page) >= c.pageSize)
		c.mu.Unlock()
		c.notify(2)
		return
	}

	ctx, generation := c.launchLocked()
	c.isLoading = true
	c.err = nil
	c.pagination.Reset(false)
	loader := c.loader
	c.mu.Unlock()
	c.notify(1)

	go c.load(ctx, loader, generation, query, 0)
}

// LoadMore requests the next page of the current results. It does nothing in
// offline mode, when pagination is disabled, while another page is loading or
// when the last page was short.
func (c *Controller[T]) LoadMore() {
	c.mu.Lock()
	if c.disposed || c.loader == nil {
		c.mu.Unlock()
		return
	}

	page, ok := c.pagination.BeginLoadMore()
	if !ok {
		c.mu.Unlock()
		return
	}

	query := c.appliedQuery
	if cached, ok := c.cache.Get(cache.Key(query, page)); ok {
		c.err = nil
		c.items = append(c.items, cached...)
		c.pagination.CompleteLoadMore(len(cached), c.pageSize)
		c.mu.Unlock()
		c.notify(1)
		return
	}

	ctx, generation := c.launchLocked()
	c.err = nil
	loader := c.loader
	c.mu.Unlock()
	c.notify(1)

	go c.load(ctx, loader, generation, query, page)
}

// SetItems replaces the offline data set and re-applies the current query.
func (c *Controller[T]) SetItems(items []T) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}

	c.source = slices.Clone(items)
	if c.loader != nil {
		c.err = nil
		c.mu.Unlock()
		c.notify(1)
		return
	}

	changes := c.filterLocked()
	c.mu.Unlock()
	c.notify(changes)
}

// SetLoader swaps the loader. A nil loader switches to offline mode. Requests
// issued with the previous loader are discarded and the cache is emptied. A
// query that was already evaluated is evaluated again with the new source so
// that the items always belong to the current query.
func (c *Controller[T]) SetLoader(loader Loader[T]) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}

	c.supersedeLocked()
	c.loader = loader
	c.cache.Purge()
	c.pagination.Reset(false)

	changes := 0
	if c.isLoading {
		c.isLoading = false
		changes++
	}

	// A pending debounce picks up the new loader when it fires.
	rerun := c.evaluated && !c.debouncer.Pending()
	if rerun && loader == nil {
		changes += c.filterLocked()
	} else if rerun {
		c.debouncer.Schedule(0, c.evaluate)
	}
	c.mu.Unlock()

	c.notify(changes)
}

// Dispose permanently stops the controller. In-flight requests are discarded
// when they complete and every later call is a no-op.
func (c *Controller[T]) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}

	c.disposed = true
	c.debouncer.Cancel()
	c.supersedeLocked()
	c.mu.Unlock()

	c.notifier.Clear()
}

func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.itemsLocked()
}

func (c *Controller[T]) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isLoading
}

func (c *Controller[T]) LoadingMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pagination.LoadingMore()
}

func (c *Controller[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Controller[T]) IsDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

func (c *Controller[T]) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

func (c *Controller[T]) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pagination.HasMore()
}

func (c *Controller[T]) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pagination.Page()
}

func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := Snapshot[T]{
		Query:       c.query,
		Items:       c.itemsLocked(),
		IsLoading:   c.isLoading,
		LoadingMore: c.pagination.LoadingMore(),
		Page:        c.pagination.Page(),
		HasMore:     c.pagination.HasMore(),
		State:       c.stateLocked(),
		Disposed:    c.disposed,
	}
	if c.err != nil {
		snapshot.Error = c.err.Error()
	}

	return snapshot
}

func (c *Controller[T]) load(ctx context.Context, loader Loader[T], generation uint64, query string, page int) {
	results, err := callLoader(ctx, loader, query, page, c.pageSize)
	if page == 0 {
		c.completeSearch(generation, query, results, err)
		return
	}
	c.completeLoadMore(generation, query, page, results, err)
}

func (c *Controller[T]) completeSearch(generation uint64, query string, results []T, err error) {
	c.mu.Lock()
	if !c.isCurrentLocked(generation) {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded search results", "query", query, "generation", generation)
		return
	}

	c.releaseLocked()
	c.isLoading = false

	if err != nil {
		c.err = &LoaderError{Query: query, Page: 0, Err: err}
		c.mu.Unlock()
		c.logger.Warn("search loader failed", "query", query, "err", err.Error())
		c.notify(2)
		return
	}

	c.cache.Put(cache.Key(query, 0), results)
	c.items = slices.Clone(results)
	c.appliedQuery = query
	c.pagination.Reset(len(results) >= c.pageSize)
	c.mu.Unlock()
	c.notify(1)
}

func (c *Controller[T]) completeLoadMore(generation uint64, query string, page int, results []T, err error) {
	c.mu.Lock()
	if !c.isCurrentLocked(generation) {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded page", "query", query, "page", page, "generation", generation)
		return
	}

	c.releaseLocked()

	if err != nil {
		c.err = &LoaderError{Query: query, Page: page, Err: err}
		c.pagination.FailLoadMore()
		c.mu.Unlock()
		c.logger.Warn("load more failed", "query", query, "page", page, "err", err.Error())
		c.notify(2)
		return
	}

	c.cache.Put(cache.Key(query, page), results)
	c.items = append(c.items, results...)
	c.pagination.CompleteLoadMore(len(results), c.pageSize)
	c.mu.Unlock()
	c.notify(1)
}

// filterLocked runs the offline pass. It reports two changes: the cleared
// error and the new item set.
func (c *Controller[T]) filterLocked() int {
	c.err = nil
	c.items = fuzzy.Items(fuzzy.Filter(c.query, c.source, c.fields))
	c.appliedQuery = c.query
	return 2
}

func (c *Controller[T]) launchLocked() (context.Context, uint64) {
	c.supersedeLocked()
	generation := c.sequencer.Next()
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelLoad = cancel
	return ctx, generation
}

func (c *Controller[T]) supersedeLocked() {
	c.sequencer.Invalidate()
	c.releaseLocked()
}

func (c *Controller[T]) releaseLocked() {
	if c.cancelLoad != nil {
		c.cancelLoad()
		c.cancelLoad = nil
	}
}

func (c *Controller[T]) isCurrentLocked(generation uint64) bool {
	return !c.disposed && c.sequencer.IsCurrent(generation)
}

func (c *Controller[T]) itemsLocked() []T {
	if c.items == nil {
		return []T{}
	}
	return slices.Clone(c.items)
}

func (c *Controller[T]) stateLocked() State {
	switch {
	case c.disposed:
		return StateDisposed
	case c.debouncer.Pending():
		return StateDebouncing
	case c.isLoading || c.pagination.LoadingMore():
		return StateLoading
	case c.err != nil:
		return StateErrored
	case c.evaluated:
		return StateReady
	default:
		return StateIdle
	}
}

func (c *Controller[T]) notify(changes int) {
	for i := 0; i < changes; i++ {
		if c.IsDisposed() {
			return
		}
		c.notifier.Notify()
	}
}

func callLoader[T any](ctx context.Context, loader Loader[T], query string, page int, pageSize int) (results []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("loader panicked: %v", r)
		}
	}()
	return loader(ctx, query, page, pageSize)
}
