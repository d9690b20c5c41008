// Common test helpers
package catalog

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meghashyamc/quickfind/config"
	"github.com/meghashyamc/quickfind/db/kvdb"
	"github.com/meghashyamc/quickfind/db/searchdb"
	"github.com/meghashyamc/quickfind/logger"
	"github.com/stretchr/testify/require"
)

const importTimeout = 10 * time.Second

var testFiles = map[string]string{
	"file1.txt":               "This is test content for file1",
	"file2.go":                "package main\n\nfunc main() {\n\tprint(\"Hello\")\n}",
	"subdir/file3.md":         "# Test Markdown\n\nThis is a test markdown file",
	"subdir/file4.json":       `{"key": "value", "number": 42}`,
	"subdir/nested/file5.py":  "def hello():\n    print('Hello World')",
	"image.png":               "not really a png",
	".hidden":                 "hidden file",
	".git/config":             "hidden directory",
	"node_modules/lib/lib.js": "excluded folder",
}

func newTestLogger() logger.Logger {
	opts := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}

func writeTestFiles(assert *require.Assertions, rootDir string) {
	for relPath, content := range testFiles {
		fullPath := filepath.Join(rootDir, relPath)
		assert.NoError(os.MkdirAll(filepath.Dir(fullPath), 0755), "could not create test sub-directory")
		assert.NoError(os.WriteFile(fullPath, []byte(content), 0644), "could not write test file")
	}
}

func openTestStores(t *testing.T, assert *require.Assertions) (*kvdb.BoltDB, *searchdb.BleveDB) {
	storageDir := t.TempDir()
	t.Setenv("STORAGE_PATH", storageDir)
	t.Setenv("INDEX_PATH", "index.bleve")
	t.Setenv("KVDB_PATH", filepath.Join(storageDir, "catalog.db"))

	cfg, err := config.Load("test")
	assert.NoError(err, "could not load config")

	testLogger := newTestLogger()
	kvDB, err := kvdb.New(testLogger, cfg)
	assert.NoError(err, "could not create kv database")
	searchDB, err := searchdb.New(testLogger, cfg)
	assert.NoError(err, "could not create search database")

	return kvDB, searchDB
}

// setupTestCatalog returns a running service and a directory filled with
// testFiles.
func setupTestCatalog(t *testing.T, assert *require.Assertions) (*Service, string) {
	kvDB, searchDB := openTestStores(t, assert)
	rootDir := t.TempDir()
	writeTestFiles(assert, rootDir)

	ctx, cancel := context.WithCancel(context.Background())
	service := New(ctx, newTestLogger(), searchDB, kvDB)

	t.Cleanup(func() {
		cancel()
		<-service.Stopped()
		assert.NoError(searchDB.Close(), "could not close search database")
		assert.NoError(kvDB.Close(), "could not close kv database")
	})

	return service, rootDir
}

func importAndWait(assert *require.Assertions, service *Service, rootPath string, excludeFolders []string) int {
	requestID := uuid.New().String()
	assert.NoError(service.Import(rootPath, excludeFolders, requestID))

	var status int
	assert.Eventually(func() bool {
		var err error
		status, err = service.Status(requestID)
		return err == nil && (status == ProgressStatusComplete || status == ProgressStatusFailed)
	}, importTimeout, 20*time.Millisecond, "import did not finish")

	return status
}

func entryPaths(entries []Entry) []string {
	paths := make([]string, len(entries))
	for i, entry := range entries {
		paths[i] = entry.Path
	}
	return paths
}
