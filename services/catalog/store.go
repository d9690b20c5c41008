package catalog

import "github.com/meghashyamc/quickfind/db/searchdb"

// Store persists catalog entries and import progress.
type Store interface {
	Set(bucket string, key string, value string) error
	Get(bucket string, key string) (string, error)
	Delete(bucket string, key string) error
	GetAllKeys(bucket string) ([]string, error)
	GetAll(bucket string) (map[string]string, error)
}

// Indexer is the full-text index the catalog writes documents to and online
// searches read pages from.
type Indexer interface {
	BuildIndex(documents []searchdb.Document) error
	DeleteDocuments(documentIDs []string) error
	Search(queryString string, limit int, offset int) (*searchdb.Response, error)
}
