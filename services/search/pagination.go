package search

// Pagination tracks which page of results has been loaded and whether a
// "load more" request is in flight. It is not safe for concurrent use; the
// controller guards it with its own lock.
type Pagination struct {
	enabled     bool
	page        int
	hasMore     bool
	loadingMore bool
}

func NewPagination(enabled bool) *Pagination {
	return &Pagination{enabled: enabled}
}

// Reset starts over at the first page.
func (p *Pagination) Reset(hasMore bool) {
	p.page = 0
	p.hasMore = p.enabled && hasMore
	p.loadingMore = false
}

// BeginLoadMore returns the next page to request. ok is false when no request
// should be issued: pagination is disabled, a request is already in flight or
// there are no more pages.
func (p *Pagination) BeginLoadMore() (page int, ok bool) {
	if !p.enabled || p.loadingMore || !p.hasMore {
		return 0, false
	}
	p.loadingMore = true
	return p.page + 1, true
}

// CompleteLoadMore records a loaded page. A short page means there is nothing
// left to load.
func (p *Pagination) CompleteLoadMore(resultCount int, pageSize int) {
	p.page++
	p.hasMore = resultCount >= pageSize
	p.loadingMore = false
}

// FailLoadMore clears the in-flight flag so that the same page can be retried.
func (p *Pagination) FailLoadMore() {
	p.loadingMore = false
}

func (p *Pagination) Page() int {
	return p.page
}

func (p *Pagination) HasMore() bool {
	return p.hasMore
}

func (p *Pagination) LoadingMore() bool {
	return p.loadingMore
}
