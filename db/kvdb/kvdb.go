package kvdb

// Bucket names. Every bucket is created when the database is opened.
const (
	// EntriesBucket maps a file path to its JSON encoded catalog entry.
	EntriesBucket = "entries"
	// ImportsBucket maps an import request id to its progress status.
	ImportsBucket = "imports"
)

var buckets = []string{EntriesBucket, ImportsBucket}

type DB interface {
	Set(bucket string, key string, value string) error
	Get(bucket string, key string) (string, error)
	Delete(bucket string, key string) error
	GetAllKeys(bucket string) ([]string, error)
	GetAll(bucket string) (map[string]string, error)
	Close() error
}
