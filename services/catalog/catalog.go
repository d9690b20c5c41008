package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/meghashyamc/quickfind/db/kvdb"
	"github.com/meghashyamc/quickfind/db/searchdb"
	"github.com/meghashyamc/quickfind/logger"
)

const (
	ProgressStatusQueued   = 0
	ProgressStatusStep1    = 10
	ProgressStatusStep2    = 20
	ProgressStatusComplete = 100
	ProgressStatusFailed   = -1

	maxWorkersForFileProcessing = 8
	maxImportTime               = 2 * time.Hour
)

var (
	ErrImportInProgress = errors.New("import already in progress")
	ErrStopped          = errors.New("catalog service stopped")
)

// Service imports directories into the catalog. Entries are kept in the
// key-value store and their documents in the full-text index. Only one import
// runs at a time.
type Service struct {
	logger   logger.Logger
	indexer  Indexer
	store    Store
	importC  chan importRequest
	stoppedC chan struct{}
	busy     atomic.Bool
}

type importRequest struct {
	rootPath       string
	excludeFolders []string
	requestID      string
}

func New(ctx context.Context, logger logger.Logger, indexer Indexer, store Store) *Service {
	service := &Service{
		logger:   logger,
		indexer:  indexer,
		store:    store,
		importC:  make(chan importRequest),
		stoppedC: make(chan struct{}),
	}

	go service.run(ctx)
	return service
}

// Import queues rootPath for import. Files that have not changed since their
// last import are skipped. Progress is reported through Status.
func (s *Service) Import(rootPath string, excludeFolders []string, requestID string) error {
	if !s.busy.CompareAndSwap(false, true) {
		s.logger.Warn("request to import while an import is already in progress", "request_id", requestID)
		return ErrImportInProgress
	}

	s.setRequestStatus(requestID, ProgressStatusQueued)

	select {
	case s.importC <- importRequest{rootPath: rootPath, excludeFolders: excludeFolders, requestID: requestID}:
		return nil
	case <-s.stoppedC:
		s.busy.Store(false)
		return ErrStopped
	}
}

// Status returns the progress of an import, from 0 to 100, or -1 if it failed.
func (s *Service) Status(requestID string) (int, error) {
	value, err := s.store.Get(kvdb.ImportsBucket, requestID)
	if err != nil {
		return 0, fmt.Errorf("import request not found: %w", err)
	}

	status, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid status value: %w", err)
	}

	return status, nil
}

// Entries returns every catalog entry ordered by path.
func (s *Service) Entries() ([]Entry, error) {
	values, err := s.store.GetAll(kvdb.EntriesBucket)
	if err != nil {
		s.logger.Error("failed to list catalog entries", "err", err.Error())
		return nil, fmt.Errorf("failed to list catalog entries: %w", err)
	}

	entries := make([]Entry, 0, len(values))
	for path, value := range values {
		var entry Entry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			s.logger.Warn("skipping unreadable catalog entry", "path", path, "err", err.Error())
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})

	return entries, nil
}

// Load reads one page of full-text results for query. Its signature matches
// search.Loader so that online search sessions can use it directly.
func (s *Service) Load(ctx context.Context, query string, page int, pageSize int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	response, err := s.indexer.Search(query, pageSize, page*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to search catalog: %w", err)
	}

	entries := make([]Entry, len(response.Results))
	for i, result := range response.Results {
		entries[i] = entryFromResult(result)
	}

	return entries, nil
}

// Stopped is closed once the import worker has exited.
func (s *Service) Stopped() <-chan struct{} {
	return s.stoppedC
}

func (s *Service) run(ctx context.Context) {
	defer close(s.stoppedC)

	for {
		select {
		case req := <-s.importC:
			s.runImport(ctx, req)
		case <-ctx.Done():
			s.logger.Info("catalog service stopped", "reason", ctx.Err())
			return
		}
	}
}

func (s *Service) runImport(ctx context.Context, req importRequest) {
	importCtx, cancel := context.WithTimeout(ctx, maxImportTime)
	defer cancel()

	err := s.doImport(importCtx, req)
	s.busy.Store(false)

	if err != nil {
		s.logger.Error("failed to import directory", "request_id", req.requestID, "path", req.rootPath, "err", err.Error())
		s.setRequestStatus(req.requestID, ProgressStatusFailed)
		return
	}
	s.setRequestStatus(req.requestID, ProgressStatusComplete)
}

func (s *Service) doImport(ctx context.Context, req importRequest) error {
	importTime := time.Now().UTC()

	files, err := s.discoverModifiedFiles(req.rootPath, req.excludeFolders)
	if err != nil {
		return fmt.Errorf("failed to discover files: %w", err)
	}
	s.logger.Info("discovered modified files", "request_id", req.requestID, "num_of_files", len(files))
	s.setRequestStatus(req.requestID, ProgressStatusStep1)

	if err := s.removeDeletedEntries(); err != nil {
		return err
	}
	s.setRequestStatus(req.requestID, ProgressStatusStep2)

	return s.importFiles(ctx, files, importTime, req.requestID)
}

// removeDeletedEntries drops the entries whose files no longer exist.
func (s *Service) removeDeletedEntries() error {
	values, err := s.store.GetAll(kvdb.EntriesBucket)
	if err != nil {
		s.logger.Error("failed to list catalog entries", "err", err.Error())
		return fmt.Errorf("failed to list catalog entries: %w", err)
	}

	var deletedPaths []string
	var deletedIDs []string
	for path, value := range values {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			continue
		}
		deletedPaths = append(deletedPaths, path)

		var entry Entry
		if err := json.Unmarshal([]byte(value), &entry); err == nil && entry.ID != "" {
			deletedIDs = append(deletedIDs, entry.ID)
		}
	}

	if len(deletedPaths) == 0 {
		return nil
	}

	s.logger.Info("removing deleted files from catalog", "deleted_files", len(deletedPaths))
	if err := s.indexer.DeleteDocuments(deletedIDs); err != nil {
		s.logger.Error("failed to delete documents from search index", "err", err.Error())
		return fmt.Errorf("failed to delete documents from search index: %w", err)
	}

	for _, path := range deletedPaths {
		if err := s.store.Delete(kvdb.EntriesBucket, path); err != nil {
			s.logger.Error("failed to delete catalog entry", "path", path, "err", err.Error())
		}
	}
	return nil
}

// importFiles indexes files in batches spread over a bounded set of workers
// and records an entry for every file that made it into the index.
func (s *Service) importFiles(ctx context.Context, files []FileInfo, importTime time.Time, requestID string) error {
	if len(files) == 0 {
		s.logger.Info("no files to import", "request_id", requestID)
		return nil
	}

	var batches [][]FileInfo
	for start := 0; start < len(files); start += searchdb.IndexingBatchSize {
		batches = append(batches, files[start:min(start+searchdb.IndexingBatchSize, len(files))])
	}

	batchC := make(chan []FileInfo)
	processedC := make(chan []FileInfo, len(batches))
	numWorkers := min(maxWorkersForFileProcessing, len(batches))

	var wg sync.WaitGroup
	for workerID := 0; workerID < numWorkers; workerID++ {
		workerID := workerID
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range batchC {
				processedC <- s.importBatch(batch, workerID)
			}
		}()
	}

	go func() {
		defer close(batchC)
		for _, batch := range batches {
			select {
			case batchC <- batch:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(processedC)
	}()

	storedCount := 0
	for processed := range processedC {
		for _, file := range processed {
			if err := s.storeEntry(file, importTime); err == nil {
				storedCount++
			}
		}
		s.setRequestStatus(requestID, getProgressPercentage(storedCount, len(files), ProgressStatusStep2, ProgressStatusComplete-1))
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("import cancelled: %w", err)
	}

	s.logger.Info("finished importing files", "request_id", requestID, "count", fmt.Sprintf("%d/%d", storedCount, len(files)))
	return nil
}

func (s *Service) importBatch(batch []FileInfo, workerID int) []FileInfo {
	documents := make([]searchdb.Document, 0, len(batch))
	processed := make([]FileInfo, 0, len(batch))

	for _, file := range batch {
		doc, err := extractDocument(file)
		if err != nil {
			s.logger.Error("error processing file", "path", file.Path, "err", err.Error(), "worker_id", workerID)
			continue
		}
		file.ExistingID = doc.ID
		documents = append(documents, doc)
		processed = append(processed, file)
	}

	if err := s.indexer.BuildIndex(documents); err != nil {
		s.logger.Error("failed to index batch", "worker_id", workerID, "err", err.Error())
		return nil
	}

	return processed
}

func (s *Service) storeEntry(file FileInfo, importTime time.Time) error {
	entry := Entry{
		ID:         file.ExistingID,
		Path:       file.Path,
		Name:       file.Name,
		Size:       file.Size,
		ModTime:    file.ModTime,
		IsText:     file.IsText,
		ImportedAt: importTime,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		s.logger.Error("failed to marshal catalog entry", "path", file.Path, "err", err.Error())
		return fmt.Errorf("failed to marshal catalog entry for %s: %w", file.Path, err)
	}

	if err := s.store.Set(kvdb.EntriesBucket, file.Path, string(data)); err != nil {
		s.logger.Error("failed to store catalog entry", "path", file.Path, "err", err.Error())
		return err
	}

	return nil
}

func (s *Service) setRequestStatus(requestID string, status int) {
	if err := s.store.Set(kvdb.ImportsBucket, requestID, strconv.Itoa(status)); err != nil {
		s.logger.Error("failed to update import status", "request_id", requestID, "status", status, "err", err.Error())
	}
}

func getProgressPercentage(done int, total int, initial int, final int) int {
	if done == 0 || total == 0 {
		return initial
	}

	if done >= total {
		return final
	}

	progress := float64(done) / float64(total)
	return int(float64(initial) + progress*float64(final-initial))
}
