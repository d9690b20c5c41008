package catalog

import (
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/meghashyamc/quickfind/db/searchdb"
)

const maxContentSize = 10 * 1024 * 1024

// extractDocument builds the index document for a file. Only text files have
// their content read, capped at maxContentSize; other files are indexed by
// name and path alone.
func extractDocument(fileInfo FileInfo) (searchdb.Document, error) {
	id := fileInfo.ExistingID
	if id == "" {
		id = uuid.New().String()
	}

	doc := searchdb.Document{
		ID:      id,
		Path:    fileInfo.Path,
		Name:    fileInfo.Name,
		Size:    fileInfo.Size,
		ModTime: fileInfo.ModTime,
	}

	if fileInfo.IsText {
		content, err := readTextFile(fileInfo.Path)
		if err != nil {
			return searchdb.Document{}, err
		}
		doc.Content = content
	}

	return doc, nil
}

func readTextFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxContentSize))
	if err != nil {
		return "", err
	}

	return string(content), nil
}
