package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meghashyamc/quickfind/db/kvdb"
)

type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsText  bool
	// ID of the entry already stored for this path, if any.
	ExistingID string
}

// discoverModifiedFiles walks rootPath and returns the files that are new or
// were modified after their last import. Hidden files and directories, and
// the excluded folders, are skipped.
func (s *Service) discoverModifiedFiles(rootPath string, excludeFolders []string) ([]FileInfo, error) {
	var modifiedFiles []FileInfo
	excludeSet := make(map[string]struct{}, len(excludeFolders))
	for _, folder := range excludeFolders {
		excludeSet[filepath.Clean(folder)] = struct{}{}
	}
	rootPath = filepath.Clean(rootPath)

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			s.logger.Error("could not walk through file or directory", "path", path, "err", err.Error())
			if errors.Is(err, os.ErrPermission) {
				return nil
			}
			return err
		}

		if info.IsDir() && path != rootPath && (strings.HasPrefix(info.Name(), ".") || isInExcludedPath(path, excludeSet)) {
			return filepath.SkipDir
		}

		if info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			return nil
		}

		existing, modified := s.wasModified(path, info.ModTime())
		if !modified {
			return nil
		}

		fileInfo := FileInfo{
			Path:    path,
			Name:    info.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			IsText:  isTextFile(path),
		}
		if existing != nil {
			fileInfo.ExistingID = existing.ID
		}
		modifiedFiles = append(modifiedFiles, fileInfo)

		return nil
	})

	return modifiedFiles, err
}

// wasModified looks up the stored entry for path. It reports true when there
// is no usable entry or the file changed since it was imported.
func (s *Service) wasModified(path string, fileModTime time.Time) (*Entry, bool) {
	entry, err := s.getEntry(path)
	if err != nil {
		var notFoundErr *kvdb.NotFoundError
		var invalidKeyErr *kvdb.InvalidKeyError

		switch {
		case errors.As(err, &notFoundErr):
		case errors.As(err, &invalidKeyErr):
			s.logger.Error("invalid key for file path", "key", path, "err", err.Error())
		default:
			s.logger.Error("failed to get catalog entry", "path", path, "err", err.Error())
		}
		return nil, true
	}

	return entry, fileModTime.After(entry.ImportedAt)
}

func (s *Service) getEntry(path string) (*Entry, error) {
	value, err := s.store.Get(kvdb.EntriesBucket, path)
	if err != nil {
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal([]byte(value), &entry); err != nil {
		s.logger.Error("failed to unmarshal catalog entry", "path", path, "err", err.Error())
		return nil, err
	}

	return &entry, nil
}

func isTextFile(path string) bool {
	textExtensions := map[string]bool{
		".txt": true, ".md": true, ".go": true, ".js": true,
		".py": true, ".java": true, ".cpp": true, ".c": true,
		".html": true, ".css": true, ".json": true, ".xml": true,
		".yaml": true, ".yml": true, ".ini": true, ".conf": true,
		".csv": true, ".tsv": true, ".sql": true, ".cs": true,
		".rs": true, ".ts": true, ".toml": true, ".sh": true,
	}

	ext := strings.ToLower(filepath.Ext(path))
	return textExtensions[ext]
}

// Assumes currentPath and the excluded paths are clean
func isInExcludedPath(currentPath string, excludeSet map[string]struct{}) bool {
	if len(excludeSet) == 0 {
		return false
	}

	_, ok := excludeSet[currentPath]
	return ok
}
