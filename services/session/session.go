package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meghashyamc/quickfind/logger"
	"github.com/meghashyamc/quickfind/services/catalog"
	"github.com/meghashyamc/quickfind/services/search"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

var ErrNotFound = errors.New("session not found")

type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session not found: %s", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Catalog is the source of session items. Entries feeds offline sessions and
// Load is the loader of online ones.
type Catalog interface {
	Entries() ([]catalog.Entry, error)
	Load(ctx context.Context, query string, page int, pageSize int) ([]catalog.Entry, error)
}

type Options struct {
	Mode          Mode
	DebounceDelay time.Duration
	PageSize      int
	Paginated     bool
	CacheResults  bool
	MaxCacheSize  int
}

// Session is one search controller owned by a remote client.
type Session struct {
	ID         string
	Mode       Mode
	CreatedAt  time.Time
	Controller *search.Controller[catalog.Entry]

	closeOnce sync.Once
	closedC   chan struct{}
}

// Closed is closed once the session has been deleted.
func (s *Session) Closed() <-chan struct{} {
	return s.closedC
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.Controller.Dispose()
		close(s.closedC)
	})
}

type Manager struct {
	logger   logger.Logger
	catalog  Catalog
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(logger logger.Logger, catalog Catalog) *Manager {
	return &Manager{
		logger:   logger,
		catalog:  catalog,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session. Offline sessions are seeded with every catalog
// entry; online sessions page through the full-text index.
func (m *Manager) Create(opts Options) (*Session, error) {
	controllerOpts := search.Options[catalog.Entry]{
		Fields:        catalog.Fields,
		DebounceDelay: opts.DebounceDelay,
		CacheResults:  opts.CacheResults,
		MaxCacheSize:  opts.MaxCacheSize,
		PageSize:      opts.PageSize,
		Paginated:     opts.Paginated,
	}

	switch opts.Mode {
	case ModeOffline:
		entries, err := m.catalog.Entries()
		if err != nil {
			m.logger.Error("failed to load catalog entries for session", "err", err.Error())
			return nil, fmt.Errorf("failed to load catalog entries: %w", err)
		}
		controllerOpts.Items = entries
	case ModeOnline:
		controllerOpts.Loader = m.catalog.Load
	default:
		return nil, fmt.Errorf("unknown session mode %q", opts.Mode)
	}

	session := &Session{
		ID:         uuid.New().String(),
		Mode:       opts.Mode,
		CreatedAt:  time.Now().UTC(),
		Controller: search.New(m.logger, controllerOpts),
		closedC:    make(chan struct{}),
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.logger.Info("created search session", "session_id", session.ID, "mode", opts.Mode)
	return session, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return session, nil
}

// Delete disposes the session's controller and forgets it.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return &NotFoundError{ID: id}
	}

	session.close()
	m.logger.Info("deleted search session", "session_id", id)
	return nil
}

// ReloadItems replaces a session's items with the current catalog entries.
func (m *Manager) ReloadItems(id string) error {
	session, err := m.Get(id)
	if err != nil {
		return err
	}

	entries, err := m.catalog.Entries()
	if err != nil {
		m.logger.Error("failed to load catalog entries for session", "session_id", id, "err", err.Error())
		return fmt.Errorf("failed to load catalog entries: %w", err)
	}

	session.Controller.SetItems(entries)
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close deletes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, session := range sessions {
		session.close()
	}
}
