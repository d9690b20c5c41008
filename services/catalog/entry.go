package catalog

import (
	"time"

	"github.com/meghashyamc/quickfind/db/searchdb"
)

// Entry is one imported file. Entries are the items of offline search
// sessions and the results of online ones.
type Entry struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModTime    time.Time `json:"mod_time"`
	IsText     bool      `json:"is_text"`
	ImportedAt time.Time `json:"imported_at,omitzero"`
	Score      float64   `json:"score,omitempty"`
	Snippet    string    `json:"snippet,omitempty"`
}

// Fields returns the text an entry is fuzzy-matched on.
func Fields(entry Entry) []string {
	return []string{entry.Name, entry.Path}
}

func entryFromResult(result searchdb.Result) Entry {
	entry := Entry{
		ID:      result.ID,
		Path:    result.Path,
		Name:    result.Name,
		Size:    result.Size,
		Score:   result.Score,
		Snippet: result.Snippet,
	}
	if modTime, err := time.Parse(time.RFC3339Nano, result.ModTime); err == nil {
		entry.ModTime = modTime
	}
	return entry
}
