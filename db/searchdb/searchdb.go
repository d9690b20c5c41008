// Package searchdb is the full-text index that online catalog searches read
// pages from.
package searchdb

import "time"

// DB is a paged full-text index of catalog documents.
type DB interface {
	BuildIndex(documents []Document) error
	DeleteDocuments(documentIDs []string) error
	Search(queryString string, limit int, offset int) (*Response, error)
	GetDocCount() (uint64, error)
	Close() error
}

var _ DB = (*BleveDB)(nil)

// Document is what gets indexed for one catalog entry. Content is indexed but
// never stored.
type Document struct {
	ID      string    `json:"id"`
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Content string    `json:"content"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

type Result struct {
	ID      string  `json:"id"`
	Path    string  `json:"path"`
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Size    int64   `json:"size"`
	ModTime string  `json:"mod_time"`
	Snippet string  `json:"snippet,omitempty"`
}

// Response is one page of hits. Total counts every hit, not only the page.
type Response struct {
	Results []Result `json:"results"`
	Total   uint64   `json:"total"`
}
