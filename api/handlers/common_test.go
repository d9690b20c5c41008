// Common test helpers
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/quickfind/config"
	"github.com/meghashyamc/quickfind/db/kvdb"
	"github.com/meghashyamc/quickfind/db/searchdb"
	"github.com/meghashyamc/quickfind/logger"
	"github.com/meghashyamc/quickfind/services/catalog"
	"github.com/meghashyamc/quickfind/services/session"
	"github.com/meghashyamc/quickfind/validation"
	"github.com/stretchr/testify/require"
)

const eventuallyTimeout = 10 * time.Second

var defaultTestRequestHeaders = map[string]string{"Content-Type": "application/json"}

var testFiles = map[string]string{
	"file1.txt":              "This is test content for file1",
	"file2.go":               "package main\n\nfunc main() {\n\tprint(\"Hello\")\n}",
	"subdir/file3.md":        "# Test Markdown\n\nThis is a test markdown file",
	"subdir/file4.json":      `{"key": "value", "number": 42}`,
	"subdir/nested/file5.py": "def hello():\n    print('Hello World')",
}

type testCase struct {
	name           string
	requestHeaders map[string]string
	requestBody    map[string]any
	queryParams    map[string]string
	expectedStatus int
}

// typedResponse mirrors response with a concrete data type for decoding.
type typedResponse[T any] struct {
	Data   T        `json:"data"`
	Errors []string `json:"errors"`
}

type testServer struct {
	router   *gin.Engine
	rootDir  string
	catalog  *catalog.Service
	sessions *session.Manager
}

func newTestLogger() logger.Logger {

	opts := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}

func newTestValidator(assert *require.Assertions) *validation.Validator {
	validator, err := validation.New(newTestLogger())
	assert.NoError(err, "could not create validator")
	return validator
}

func setupTestServer(t *testing.T, assert *require.Assertions) *testServer {
	storageDir := t.TempDir()
	t.Setenv("STORAGE_PATH", storageDir)
	t.Setenv("INDEX_PATH", "index.bleve")
	t.Setenv("KVDB_PATH", filepath.Join(storageDir, "catalog.db"))

	cfg, err := config.Load("test")
	assert.NoError(err, "could not load config")

	rootDir := t.TempDir()
	for relPath, content := range testFiles {
		fullPath := filepath.Join(rootDir, relPath)
		err := os.MkdirAll(filepath.Dir(fullPath), 0755)
		assert.NoError(err, "could not create test sub-directory")
		err = os.WriteFile(fullPath, []byte(content), 0644)
		assert.NoError(err, "could not write test file")
	}

	testLogger := newTestLogger()

	searchDB, err := searchdb.New(testLogger, cfg)
	assert.NoError(err, "could not create search database")

	kvDB, err := kvdb.New(testLogger, cfg)
	assert.NoError(err, "could not create kv database")

	validator := newTestValidator(assert)

	ctx, cancel := context.WithCancel(context.Background())
	catalogService := catalog.New(ctx, testLogger, searchDB, kvDB)
	sessions := session.NewManager(testLogger, catalogService)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	SetupMatch(router, testLogger, validator)
	SetupCatalog(router, testLogger, catalogService, validator)
	SetupSessions(router, testLogger, sessions, validator, session.Options{
		DebounceDelay: cfg.GetDebounceDelay(),
		PageSize:      cfg.GetSearchPageSize(),
		Paginated:     true,
		CacheResults:  true,
		MaxCacheSize:  cfg.GetMaxCacheSize(),
	})

	t.Cleanup(func() {
		sessions.Close()
		cancel()
		<-catalogService.Stopped()
		assert.NoError(searchDB.Close(), "could not close search database")
		assert.NoError(kvDB.Close(), "could not close kv database")
	})

	return &testServer{router: router, rootDir: rootDir, catalog: catalogService, sessions: sessions}
}

// importTestFiles imports the test directory through the API and waits for
// the import to complete.
func (s *testServer) importTestFiles(assert *require.Assertions) {
	w := makeTestHTTPRequest(s.router, assert, http.MethodPost, "/catalog/import", defaultTestRequestHeaders, map[string]any{"path": s.rootDir}, nil)
	assert.Equal(http.StatusAccepted, w.Code, w.Body.String())
	started := decodeResponse[ImportResponse](assert, w)

	assert.Eventually(func() bool {
		w := makeTestHTTPRequest(s.router, assert, http.MethodGet, "/catalog/import/"+started.Data.RequestID, nil, nil, nil)
		if w.Code != http.StatusOK {
			return false
		}
		return decodeResponse[ImportStatusResponse](assert, w).Data.Status == catalog.ProgressStatusComplete
	}, eventuallyTimeout, 20*time.Millisecond, "import did not complete")
}

func makeTestHTTPRequest(router http.Handler, assert *require.Assertions, method string, endpoint string, headers map[string]string, requestBodyMap map[string]any, queryParams map[string]string) *httptest.ResponseRecorder {

	var err error
	w := httptest.NewRecorder()

	if len(queryParams) > 0 {
		values := url.Values{}
		for key, value := range queryParams {
			values.Set(key, value)
		}
		endpoint = endpoint + "?" + values.Encode()
	}
	var jsonBody []byte
	var req *http.Request
	if requestBodyMap != nil {
		jsonBody, err = json.Marshal(requestBodyMap)
		assert.NoError(err)
	}

	slog.Info("Making test request", "method", method, "endpoint", endpoint, "headers", headers, "body", string(jsonBody))

	if len(jsonBody) > 0 {
		req, err = http.NewRequest(method, endpoint, bytes.NewBuffer(jsonBody))
	} else {
		req, err = http.NewRequest(method, endpoint, nil)
	}
	assert.NoError(err)

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	router.ServeHTTP(w, req)

	return w
}

func decodeResponse[T any](assert *require.Assertions, w *httptest.ResponseRecorder) typedResponse[T] {
	var decoded typedResponse[T]
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &decoded), "could not decode response %s", w.Body.String())
	return decoded
}
