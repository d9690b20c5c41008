package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandleImport(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)

	testCases := []testCase{
		{
			name:           "NoRequestBody",
			requestHeaders: defaultTestRequestHeaders,
			requestBody:    nil,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "EmptyPath",
			requestHeaders: defaultTestRequestHeaders,
			requestBody:    map[string]any{"path": ""},
			expectedStatus: http.StatusNotAcceptable,
		},
		{
			name:           "RelativePath",
			requestHeaders: defaultTestRequestHeaders,
			requestBody:    map[string]any{"path": "./abc"},
			expectedStatus: http.StatusNotAcceptable,
		},
		{
			name:           "NonExistentPath",
			requestHeaders: defaultTestRequestHeaders,
			requestBody:    map[string]any{"path": filepath.Join(server.rootDir, "missing")},
			expectedStatus: http.StatusNotAcceptable,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			w := makeTestHTTPRequest(server.router, assert, http.MethodPost, "/catalog/import", testCase.requestHeaders, testCase.requestBody, testCase.queryParams)
			assert.Equal(testCase.expectedStatus, w.Code, fmt.Sprintf("response gotten was %s", w.Body.String()))
		})
	}

	t.Run("Success", func(t *testing.T) {
		assert := require.New(t)
		server.importTestFiles(assert)
	})
}

func TestHandleImportStatusUnknownRequest(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)

	w := makeTestHTTPRequest(server.router, assert, http.MethodGet, "/catalog/import/unknown", nil, nil, nil)
	assert.Equal(http.StatusNotFound, w.Code, w.Body.String())
}

func TestHandleListCatalog(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)

	w := makeTestHTTPRequest(server.router, assert, http.MethodGet, "/catalog", nil, nil, nil)
	assert.Equal(http.StatusOK, w.Code)
	assert.Empty(decodeResponse[ListCatalogResponse](assert, w).Data.Entries)

	server.importTestFiles(assert)

	testCases := []struct {
		name            string
		queryParams     map[string]string
		expectedStatus  int
		expectedNames   []string
		expectedHasNext bool
	}{
		{
			name:           "AllEntries",
			expectedStatus: http.StatusOK,
			expectedNames:  []string{"file1.txt", "file2.go", "file3.md", "file4.json", "file5.py"},
		},
		{
			name:            "FirstPage",
			queryParams:     map[string]string{"per_page": "2"},
			expectedStatus:  http.StatusOK,
			expectedNames:   []string{"file1.txt", "file2.go"},
			expectedHasNext: true,
		},
		{
			name:           "LastPage",
			queryParams:    map[string]string{"per_page": "2", "page": "3"},
			expectedStatus: http.StatusOK,
			expectedNames:  []string{"file5.py"},
		},
		{
			name:           "PastTheEnd",
			queryParams:    map[string]string{"per_page": "2", "page": "9"},
			expectedStatus: http.StatusOK,
			expectedNames:  []string{},
		},
		{
			name:           "InvalidPerPage",
			queryParams:    map[string]string{"per_page": "-1"},
			expectedStatus: http.StatusNotAcceptable,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			w := makeTestHTTPRequest(server.router, assert, http.MethodGet, "/catalog", nil, nil, testCase.queryParams)
			assert.Equal(testCase.expectedStatus, w.Code, w.Body.String())
			if testCase.expectedStatus != http.StatusOK {
				return
			}

			assert.Equal("5", w.Header().Get(HeaderPaginationTotalCount))
			decoded := decodeResponse[ListCatalogResponse](assert, w)
			names := make([]string, len(decoded.Data.Entries))
			for i, entry := range decoded.Data.Entries {
				names[i] = entry.Name
			}
			assert.Equal(testCase.expectedNames, names)
			assert.Equal(testCase.expectedHasNext, decoded.Data.PageDetails.HasNextPage)
			assert.Equal(5, decoded.Data.PageDetails.TotalResults)
		})
	}
}
