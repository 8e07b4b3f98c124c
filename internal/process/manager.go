package process

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"bindery/internal/config"
	"bindery/internal/logging"
	"bindery/internal/scanner"
	"bindery/internal/services"
)

// Manager fans scan events out over a fixed pool of workers. Events for
// different books run in parallel; the processor serializes per book.
type Manager struct {
	processor  *Processor
	workers    int
	retryDelay time.Duration
	logger     *slog.Logger

	events chan scanner.Event
	wg     sync.WaitGroup

	mu       sync.Mutex
	started  bool
	failures int
}

func NewManager(cfg *config.Config, processor *Processor, logger *slog.Logger) *Manager {
	workers := cfg.Workflow.ScanWorkers
	if workers < 1 {
		workers = 1
	}
	return &Manager{
		processor:  processor,
		workers:    workers,
		retryDelay: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		logger:     logging.NewComponentLogger(logger, "manager"),
	}
}

// Start launches the worker pool. Events submitted afterwards are processed
// until Stop is called or the context is canceled.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	m.events = make(chan scanner.Event)

	for i := 0; i < m.workers; i++ {
		m.wg.Add(1)
		go m.worker(ctx)
	}
}

// Submit queues one event. Blocks while all workers are busy; returns the
// context error if canceled first.
func (m *Manager) Submit(ctx context.Context, event scanner.Event) error {
	select {
	case m.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the queue and waits for in-flight work to finish. Returns the
// number of events that failed even after retry.
func (m *Manager) Stop() int {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return 0
	}
	m.started = false
	m.mu.Unlock()

	close(m.events)
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures
}

func (m *Manager) worker(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case event, ok := <-m.events:
			if !ok {
				return
			}
			m.handle(ctx, event)
		case <-ctx.Done():
			return
		}
	}
}

// handle runs one event, retrying once after the configured delay on failure.
// Extraction problems never reach here as errors; only persistence failures do.
func (m *Manager) handle(ctx context.Context, event scanner.Event) {
	ctx = services.WithBookID(ctx, event.Book.ID)
	ctx = services.WithStage(ctx, string(event.Op))
	logger := logging.WithContext(ctx, m.logger)

	err := m.dispatch(ctx, event)
	if err == nil || ctx.Err() != nil {
		return
	}

	logger.WarnContext(ctx, "event failed, retrying",
		logging.Duration("retry_delay", m.retryDelay),
		logging.Error(err))

	select {
	case <-time.After(m.retryDelay):
	case <-ctx.Done():
		return
	}

	if err := m.dispatch(ctx, event); err != nil {
		m.mu.Lock()
		m.failures++
		m.mu.Unlock()
		logger.ErrorContext(ctx, "event failed after retry",
			logging.Error(err))
	}
}

func (m *Manager) dispatch(ctx context.Context, event scanner.Event) error {
	switch event.Op {
	case scanner.OpRemove:
		return m.processor.Remove(ctx, event.Book.ID)
	default:
		_, err := m.processor.Process(ctx, event.Book)
		return err
	}
}
