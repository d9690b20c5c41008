// Common test helpers
package search

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/meghashyamc/quickfind/logger"
	"github.com/stretchr/testify/require"
)

const (
	notificationTimeout = 2 * time.Second
	quietPeriod         = 75 * time.Millisecond
)

func newTestLogger() logger.Logger {
	opts := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}

type loadResult struct {
	items []string
	err   error
}

// pendingLoad is a loader call that blocks until the test resolves it.
type pendingLoad struct {
	query    string
	page     int
	pageSize int
	ctx      context.Context
	resultC  chan loadResult
}

func (p *pendingLoad) resolve(items ...string) {
	p.resultC <- loadResult{items: items}
}

func (p *pendingLoad) fail(err error) {
	p.resultC <- loadResult{err: err}
}

type fakeLoader struct {
	calls chan *pendingLoad
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{calls: make(chan *pendingLoad, 16)}
}

func (f *fakeLoader) load(ctx context.Context, query string, page int, pageSize int) ([]string, error) {
	call := &pendingLoad{query: query, page: page, pageSize: pageSize, ctx: ctx, resultC: make(chan loadResult, 1)}
	f.calls <- call
	result := <-call.resultC
	return result.items, result.err
}

func (f *fakeLoader) nextCall(assert *require.Assertions) *pendingLoad {
	select {
	case call := <-f.calls:
		return call
	case <-time.After(notificationTimeout):
		assert.FailNow("timed out waiting for a loader call")
		return nil
	}
}

func (f *fakeLoader) assertNoCall(assert *require.Assertions) {
	select {
	case call := <-f.calls:
		assert.FailNow("unexpected loader call", "query %q page %d", call.query, call.page)
	case <-time.After(quietPeriod):
	}
}

// notificationRecorder counts change notifications delivered by a controller.
type notificationRecorder struct {
	notifiedC chan struct{}
}

func recordNotifications[T any](c *Controller[T]) *notificationRecorder {
	recorder := &notificationRecorder{notifiedC: make(chan struct{}, 64)}
	c.Subscribe(func() {
		recorder.notifiedC <- struct{}{}
	})
	return recorder
}

// expect waits for exactly count notifications and then for a quiet period
// with none.
func (r *notificationRecorder) expect(assert *require.Assertions, count int) {
	for i := 0; i < count; i++ {
		select {
		case <-r.notifiedC:
		case <-time.After(notificationTimeout):
			assert.FailNow("timed out waiting for notifications", "got %d of %d", i, count)
		}
	}
	r.expectNone(assert)
}

func (r *notificationRecorder) expectNone(assert *require.Assertions) {
	select {
	case <-r.notifiedC:
		assert.FailNow("unexpected notification")
	case <-time.After(quietPeriod):
	}
}

func newOnlineController(t *testing.T, loader *fakeLoader, opts Options[string]) *Controller[string] {
	opts.Loader = loader.load
	c := New(newTestLogger(), opts)
	t.Cleanup(c.Dispose)
	return c
}
