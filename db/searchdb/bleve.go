package searchdb

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/meghashyamc/quickfind/config"
	"github.com/meghashyamc/quickfind/logger"
)

// IndexingBatchSize is the number of documents written to the index per batch.
const IndexingBatchSize = 100

// snippetContext is the number of bytes shown on each side of a match.
const snippetContext = 100

const (
	indexFieldContent = "content"
	indexFieldName    = "name"
	indexFieldPath    = "path"
	indexFieldSize    = "size"
	indexFieldModTime = "mod_time"
)

const (
	boostPhrase  = 5.0
	boostContent = 3.0
	boostName    = 2.0
	boostPrefix  = 1.5
)

var quotedPhraseRegex = regexp.MustCompile(`"([^"]*)"`)

type fieldQuery interface {
	query.BoostableQuery
	query.FieldableQuery
}

type BleveDB struct {
	logger logger.Logger
	index  bleve.Index
}

// New opens the index under the configured storage path, creating it on first
// use.
func New(logger logger.Logger, cfg *config.Config) (*BleveDB, error) {
	indexPath := filepath.Join(cfg.GetStoragePath(), cfg.GetIndexPath())

	index, err := bleve.Open(indexPath)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		index, err = bleve.New(indexPath, newIndexMapping())
	}
	if err != nil {
		logger.Error("could not open index", "path", indexPath, "err", err.Error())
		return nil, err
	}

	return &BleveDB{logger: logger, index: index}, nil
}

func newIndexMapping() mapping.IndexMapping {
	textField := func(analyzer string, store bool) *mapping.FieldMapping {
		field := bleve.NewTextFieldMapping()
		field.Analyzer = analyzer
		field.Store = store
		return field
	}

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt(indexFieldPath, textField(keyword.Name, true))
	docMapping.AddFieldMappingsAt(indexFieldName, textField(standard.Name, true))
	docMapping.AddFieldMappingsAt(indexFieldContent, textField(standard.Name, false))
	docMapping.AddFieldMappingsAt(indexFieldSize, bleve.NewNumericFieldMapping())
	docMapping.AddFieldMappingsAt(indexFieldModTime, bleve.NewDateTimeFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func (b *BleveDB) BuildIndex(documents []Document) error {
	err := b.writeBatches(len(documents), func(batch *bleve.Batch, i int) error {
		return batch.Index(documents[i].ID, documents[i])
	})
	if err != nil {
		b.logger.Error("could not index documents", "count", len(documents), "err", err.Error())
		return err
	}
	return nil
}

func (b *BleveDB) DeleteDocuments(documentIDs []string) error {
	err := b.writeBatches(len(documentIDs), func(batch *bleve.Batch, i int) error {
		batch.Delete(documentIDs[i])
		return nil
	})
	if err != nil {
		b.logger.Error("could not delete documents", "count", len(documentIDs), "err", err.Error())
		return err
	}
	return nil
}

// writeBatches calls add for each of n operations and flushes the batch every
// IndexingBatchSize operations.
func (b *BleveDB) writeBatches(n int, add func(batch *bleve.Batch, i int) error) error {
	batch := b.index.NewBatch()
	for i := 0; i < n; i++ {
		if err := add(batch, i); err != nil {
			return err
		}
		if batch.Size() < IndexingBatchSize {
			continue
		}
		if err := b.index.Batch(batch); err != nil {
			return err
		}
		batch.Reset()
	}

	if batch.Size() == 0 {
		return nil
	}
	return b.index.Batch(batch)
}

// Search returns limit hits starting at offset. Hits are ordered by score and
// then by path, so consecutive pages never overlap.
func (b *BleveDB) Search(queryString string, limit int, offset int) (*Response, error) {
	request := bleve.NewSearchRequestOptions(buildSearchQuery(queryString), limit, offset, false)
	request.Fields = []string{indexFieldPath, indexFieldName, indexFieldSize, indexFieldModTime}
	request.SortBy([]string{"-_score", indexFieldPath})
	request.IncludeLocations = true

	searchResult, err := b.index.Search(request)
	if err != nil {
		b.logger.Error("search failed", "query", queryString, "err", err.Error())
		return nil, fmt.Errorf("search failed: %w", err)
	}

	response := &Response{
		Results: make([]Result, len(searchResult.Hits)),
		Total:   searchResult.Total,
	}
	for i, hit := range searchResult.Hits {
		response.Results[i] = b.newResult(hit)
	}

	return response, nil
}

func (b *BleveDB) newResult(hit *search.DocumentMatch) Result {
	result := Result{ID: hit.ID, Score: hit.Score}
	result.Path, _ = hit.Fields[indexFieldPath].(string)
	result.Name, _ = hit.Fields[indexFieldName].(string)
	result.ModTime, _ = hit.Fields[indexFieldModTime].(string)
	if size, ok := hit.Fields[indexFieldSize].(float64); ok {
		result.Size = int64(size)
	}

	// Only documents indexed with content have content locations.
	if start, end, ok := firstLocation(hit.Locations[indexFieldContent]); ok {
		snippet, err := readSnippet(result.Path, start, end)
		if err != nil {
			b.logger.Warn("could not read snippet", "path", result.Path, "err", err.Error())
		}
		result.Snippet = snippet
	}

	return result
}

// buildSearchQuery matches quoted phrases as phrases and the remaining terms
// against content and name. The last term is also matched as a prefix, since
// it is usually still being typed. An empty query matches every document.
func buildSearchQuery(queryString string) query.Query {
	quoted, remaining := parseQuotedQuery(strings.ToLower(queryString))
	if len(quoted) == 0 && remaining == "" {
		return bleve.NewMatchAllQuery()
	}

	disjunction := bleve.NewDisjunctionQuery()
	add := func(q fieldQuery, field string, boost float64) {
		q.SetField(field)
		q.SetBoost(boost)
		disjunction.AddQuery(q)
	}

	for _, phrase := range quoted {
		add(bleve.NewMatchPhraseQuery(phrase), indexFieldContent, boostPhrase)
		add(bleve.NewMatchPhraseQuery(phrase), indexFieldName, boostName)
	}

	if remaining == "" {
		return disjunction
	}

	add(bleve.NewMatchQuery(remaining), indexFieldContent, boostContent)
	add(bleve.NewMatchQuery(remaining), indexFieldName, boostName)

	terms := strings.Fields(remaining)
	if last := terms[len(terms)-1]; len([]rune(last)) >= 2 {
		add(bleve.NewPrefixQuery(last), indexFieldName, boostPrefix)
		add(bleve.NewPrefixQuery(last), indexFieldContent, boostPrefix)
	}

	return disjunction
}

// parseQuotedQuery splits out the double-quoted phrases of a query. Phrases
// are trimmed and empty ones dropped; the unquoted terms are returned joined by
// single spaces.
func parseQuotedQuery(queryString string) ([]string, string) {
	var quoted []string
	for _, match := range quotedPhraseRegex.FindAllStringSubmatch(queryString, -1) {
		phrase := strings.Join(strings.Fields(match[1]), " ")
		if phrase != "" {
			quoted = append(quoted, phrase)
		}
	}

	remaining := quotedPhraseRegex.ReplaceAllString(queryString, " ")
	return quoted, strings.Join(strings.Fields(remaining), " ")
}

func (b *BleveDB) GetDocCount() (uint64, error) {
	return b.index.DocCount()
}

func (b *BleveDB) Close() error {
	if err := b.index.Close(); err != nil {
		b.logger.Error("could not close search index", "err", err.Error())
		return err
	}
	return nil
}

// firstLocation returns the byte range of the earliest match among all terms.
func firstLocation(termLocations search.TermLocationMap) (uint64, uint64, bool) {
	var first *search.Location
	for _, locations := range termLocations {
		for _, location := range locations {
			if location != nil && (first == nil || location.Start < first.Start) {
				first = location
			}
		}
	}
	if first == nil {
		return 0, 0, false
	}
	return first.Start, first.End, true
}

// readSnippet reads the match at [matchStart, matchEnd) from the file with
// snippetContext bytes on each side.
func readSnippet(path string, matchStart uint64, matchEnd uint64) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", err
	}
	fileSize := info.Size()
	if int64(matchStart) >= fileSize {
		return "", fmt.Errorf("match at %d is past the end of the file (%d bytes)", matchStart, fileSize)
	}

	start := max(0, int64(matchStart)-snippetContext)
	end := min(fileSize, int64(matchEnd)+snippetContext)

	buffer := make([]byte, end-start)
	if _, err := file.ReadAt(buffer, start); err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	return formatSnippet(string(buffer), start, end, fileSize), nil
}

func formatSnippet(snippet string, snippetStart int64, snippetEnd int64, fileSize int64) string {
	snippet = strings.TrimSpace(snippet)
	if snippetStart > 0 {
		snippet = "..." + snippet
	}
	if snippetEnd < fileSize {
		snippet += "..."
	}

	return snippet
}
