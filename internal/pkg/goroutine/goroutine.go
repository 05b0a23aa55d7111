// Package goroutine runs long-lived background jobs, such as message
// consumers, under a shared concurrency limit.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/folio/internal/pkg/stacktrace"
	"go.uber.org/atomic"
	"golang.org/x/sync/semaphore"
)

// DefaultLimit is used when NewManager receives a non-positive limit.
const DefaultLimit int64 = 64

var (
	ErrManagerClosed = errors.New("goroutine manager is closed")
	ErrLimitReached  = errors.New("goroutine limit reached")
)

// Manager starts named jobs and waits for them on shutdown.
type Manager struct {
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	closed atomic.Bool

	mu   sync.Mutex
	errs []error
}

func NewManager(limit int64) *Manager {
	if limit < 1 {
		limit = DefaultLimit
	}

	return &Manager{sem: semaphore.NewWeighted(limit)}
}

// Go runs f in its own goroutine. It returns an error instead of blocking when
// the manager is closed or every slot is taken.
func (m *Manager) Go(ctx context.Context, name string, f func(ctx context.Context) error) error {
	if m.closed.Load() {
		return ErrManagerClosed
	}

	if !m.sem.TryAcquire(1) {
		slog.WarnContext(ctx, "goroutine limit reached", "job", name)
		return ErrLimitReached
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.sem.Release(1)
		defer m.recover(ctx, name)

		if err := f(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.collect(fmt.Errorf("%s: %w", name, err))
		}
	}()

	return nil
}

func (m *Manager) recover(ctx context.Context, name string) {
	rvr := recover()
	if rvr == nil {
		return
	}

	stack := debug.Stack()
	if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
		slog.ErrorContext(ctx, "panic in background job", "job", name, "panic", rvr, "stack", paths)
	} else {
		slog.ErrorContext(ctx, "panic in background job", "job", name, "panic", rvr, "stack", string(stack))
	}

	m.collect(fmt.Errorf("%s: panic: %v", name, rvr))
}

func (m *Manager) collect(err error) {
	m.mu.Lock()
	m.errs = append(m.errs, err)
	m.mu.Unlock()
}

// Wait closes the manager to new jobs and blocks until running ones return.
func (m *Manager) Wait() error {
	m.closed.Store(true)
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()

	return errors.Join(m.errs...)
}
