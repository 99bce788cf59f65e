// Package worker defines worker contracts for asynchronous earnings
// calculation and ledger updates.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/airomo/payday/internal/domain/model"
	"github.com/airomo/payday/pkg/logger"
	"github.com/airomo/payday/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 20 // multiplier for runtime.NumCPU()
	metricsUpdateInterval   = 5 * time.Second
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Event abstracts what workers read off the queue.
type Event = model.SessionEvent

// Calculator computes the monetary earnings for a session score.
type Calculator interface {
	Calculate(ctx context.Context, score int64, platform string, bonuses []string) (decimal.Decimal, error)
}

// Crediter credits computed earnings to a user account.
type Crediter interface {
	Credit(ctx context.Context, userID string, amount decimal.Decimal, eventID, gameID string) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes session events and writes ledger credits.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing session events.
type InMemoryWorker struct {
	queue      Queue
	calculator Calculator
	crediter   Crediter
	name       string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, calculator Calculator, crediter Crediter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      queue,
		calculator: calculator,
		crediter:   crediter,
		name:       "worker",
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger = logger.Get().Named(w.name)

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	eventChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "error processing session event", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processEvent converts a single session event into a ledger credit.
func (w *InMemoryWorker) processEvent(ctx context.Context, event Event) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	calcStart := time.Now()
	amount, err := w.calculator.Calculate(ctx, event.Score, event.Platform, event.Bonuses)
	metrics.RecordEarningsLatency(float64(time.Since(calcStart).Milliseconds()))

	if err != nil {
		metrics.RecordEarningsError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "earnings_error")
		metrics.RecordErrorByType("earnings_error", "high")
		w.logger.Error(ctx, "earnings calculation failed",
			logger.String("eventID", event.EventID),
			logger.String("userID", event.UserID),
			logger.String("platform", event.Platform),
			logger.Error(err),
		)
		return fmt.Errorf("failed to price event %s: %w", event.EventID, err)
	}

	if err := w.crediter.Credit(ctx, event.UserID, amount, event.EventID, event.GameID); err != nil {
		metrics.RecordLedgerError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "ledger_error")
		metrics.RecordErrorByType("ledger_error", "high")
		w.logger.Error(ctx, "ledger credit failed",
			logger.String("eventID", event.EventID),
			logger.String("userID", event.UserID),
			logger.Error(err),
		)
		return fmt.Errorf("ledger credit failed: %w", err)
	}

	metrics.RecordSessionProcessed()
	metrics.RecordEarningsAmount(event.Platform, amount.InexactFloat64())

	w.logger.Debug(ctx, "session credited",
		logger.String("eventID", event.EventID),
		logger.String("userID", event.UserID),
		logger.Int64("score", event.Score),
		logger.Stringer("amount", amount),
	)

	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers    []*InMemoryWorker
	queue      Queue
	calculator Calculator
	crediter   Crediter

	// Shutdown control
	shutdown chan struct{}

	// Metrics tracking
	processedCount    int64
	lastProcessedTime time.Time

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, calculator Calculator, crediter Crediter) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		queue:             queue,
		calculator:        calculator,
		crediter:          crediter,
		shutdown:          make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			calculator,
			crediter,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	metrics.UpdateWorkerMessagesPerSecond(0.0)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}

	go p.startMetricsUpdater(ctx)
}

// startMetricsUpdater periodically publishes throughput metrics.
func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

// updateMetrics updates worker-related metrics.
func (p *Pool) updateMetrics() {
	now := time.Now()
	timeDiff := now.Sub(p.lastProcessedTime).Seconds()
	if timeDiff > 0 {
		metrics.UpdateWorkerMessagesPerSecond(float64(p.processedCount) / timeDiff)
	}

	p.processedCount = 0
	p.lastProcessedTime = now
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
	defer cancel()
	for _, worker := range p.workers {
		_ = worker.Shutdown(ctx)
	}
}

// Shutdown closes the queue and waits for all workers to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
