package session

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/meghashyamc/quickfind/logger"
	"github.com/meghashyamc/quickfind/services/catalog"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

func newTestLogger() logger.Logger {
	opts := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}

type fakeCatalog struct {
	mu         sync.Mutex
	entries    []catalog.Entry
	entriesErr error
	queries    []string
}

func (f *fakeCatalog) Entries() ([]catalog.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries, f.entriesErr
}

func (f *fakeCatalog) Load(ctx context.Context, query string, page int, pageSize int) ([]catalog.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return []catalog.Entry{{ID: "remote", Name: query + ".txt", Path: "/remote/" + query + ".txt"}}, nil
}

func (f *fakeCatalog) setEntries(entries []catalog.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = entries
}

func entryNames(entries []catalog.Entry) []string {
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
	}
	return names
}

func TestOfflineSession(t *testing.T) {
	assert := require.New(t)
	source := &fakeCatalog{entries: []catalog.Entry{
		{ID: "1", Name: "main.go", Path: "/src/main.go"},
		{ID: "2", Name: "README.md", Path: "/src/README.md"},
	}}
	manager := NewManager(newTestLogger(), source)
	defer manager.Close()

	session, err := manager.Create(Options{Mode: ModeOffline})
	assert.NoError(err)
	assert.NotEmpty(session.ID)
	assert.Equal(ModeOffline, session.Mode)

	session.Controller.SearchImmediate("readme")
	assert.Eventually(func() bool {
		return len(session.Controller.Items()) == 1
	}, waitTimeout, 10*time.Millisecond)
	assert.Equal([]string{"README.md"}, entryNames(session.Controller.Items()))

	source.setEntries(append(source.entries, catalog.Entry{ID: "3", Name: "readme.txt", Path: "/docs/readme.txt"}))
	assert.NoError(manager.ReloadItems(session.ID))
	assert.ElementsMatch([]string{"README.md", "readme.txt"}, entryNames(session.Controller.Items()))
}

func TestOnlineSession(t *testing.T) {
	assert := require.New(t)
	source := &fakeCatalog{}
	manager := NewManager(newTestLogger(), source)
	defer manager.Close()

	session, err := manager.Create(Options{Mode: ModeOnline, PageSize: 5})
	assert.NoError(err)

	session.Controller.SearchImmediate("notes")
	assert.Eventually(func() bool {
		return len(session.Controller.Items()) == 1
	}, waitTimeout, 10*time.Millisecond)
	assert.Equal([]string{"notes.txt"}, entryNames(session.Controller.Items()))
}

func TestCreateFailures(t *testing.T) {
	testCases := []struct {
		name   string
		source *fakeCatalog
		opts   Options
	}{
		{name: "Unknown mode", source: &fakeCatalog{}, opts: Options{Mode: "hybrid"}},
		{name: "Catalog unavailable", source: &fakeCatalog{entriesErr: errors.New("closed")}, opts: Options{Mode: ModeOffline}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			manager := NewManager(newTestLogger(), testCase.source)
			_, err := manager.Create(testCase.opts)
			assert.Error(err)
			assert.Equal(0, manager.Len())
		})
	}
}

func TestDelete(t *testing.T) {
	assert := require.New(t)
	manager := NewManager(newTestLogger(), &fakeCatalog{})

	session, err := manager.Create(Options{Mode: ModeOffline})
	assert.NoError(err)

	found, err := manager.Get(session.ID)
	assert.NoError(err)
	assert.Same(session, found)

	assert.NoError(manager.Delete(session.ID))
	assert.True(session.Controller.IsDisposed())
	select {
	case <-session.Closed():
	default:
		assert.Fail("deleting a session should close it")
	}

	_, err = manager.Get(session.ID)
	assert.ErrorIs(err, ErrNotFound)
	assert.ErrorIs(manager.Delete(session.ID), ErrNotFound)
	assert.ErrorIs(manager.ReloadItems(session.ID), ErrNotFound)
}

func TestClose(t *testing.T) {
	assert := require.New(t)
	manager := NewManager(newTestLogger(), &fakeCatalog{})

	first, err := manager.Create(Options{Mode: ModeOffline})
	assert.NoError(err)
	second, err := manager.Create(Options{Mode: ModeOnline})
	assert.NoError(err)
	assert.Equal(2, manager.Len())

	manager.Close()
	assert.Equal(0, manager.Len())
	assert.True(first.Controller.IsDisposed())
	assert.True(second.Controller.IsDisposed())
}
