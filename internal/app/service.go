// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	eventqueue "github.com/airomo/payday/internal/adapters/mq/queue"
	workerpool "github.com/airomo/payday/internal/adapters/mq/worker"
	"github.com/airomo/payday/internal/adapters/repository"
	"github.com/airomo/payday/internal/domain/dedupe"
	"github.com/airomo/payday/internal/domain/model"
	"github.com/airomo/payday/internal/domain/rewards"
	"github.com/airomo/payday/internal/domain/types"
	"github.com/airomo/payday/pkg/logger"
	"github.com/airomo/payday/pkg/metrics"
	"github.com/shopspring/decimal"
)

// earningsAdapter adapts the rewards.Calculator interface to worker.Calculator.
type earningsAdapter struct {
	engine rewards.Calculator
}

func (a *earningsAdapter) Calculate(ctx context.Context, score int64, platform string, bonuses []string) (decimal.Decimal, error) {
	earnings, err := a.engine.CalculateEarnings(ctx, score, platform, bonuses)
	if err != nil {
		return decimal.Zero, err
	}
	return earnings.Amount, nil
}

// ledgerAdapter adapts the repository.Ledger interface to worker.Crediter.
type ledgerAdapter struct {
	ledger repository.Ledger
}

func (a *ledgerAdapter) Credit(ctx context.Context, userID string, amount decimal.Decimal, eventID, gameID string) error {
	_, err := a.ledger.Credit(ctx, userID, amount, eventID, gameID)
	return err
}

// Service implements the API dependencies for the rewards system.
type Service struct {
	mu sync.RWMutex

	// Core components
	ledger     repository.Ledger
	deduper    dedupe.Deduper
	eventQueue eventqueue.Queue
	engine     *rewards.Engine
	workerPool *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	shardCount  int
	rateTable   *rewards.RateTable

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithShardCount sets the number of ledger shards.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithRateTable sets the rate table used for earnings and payouts.
func WithRateTable(table *rewards.RateTable) Option {
	return func(s *Service) {
		if table != nil {
			s.rateTable = table
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   100000,
		dedupeSize:  50000,
		shardCount:  8,
		stopCh:      make(chan struct{}),
		logger:      nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting rewards service...")

	// Fall back to the built-in rate defaults when no table was supplied.
	if s.rateTable == nil {
		table, err := rewards.NewRateTable(
			rewards.WithBaseRates(map[string]string{
				"mobile": "0.001",
				"web":    "0.0008",
			}),
			rewards.WithBonusMultipliers(map[string]string{
				"daily_bonus": "1.5",
				"streak_week": "2.0",
			}),
		)
		if err != nil {
			return fmt.Errorf("build default rate table: %w", err)
		}
		s.rateTable = table
	}

	// Initialize components
	s.ledger = repository.NewShardedLedger(ctx,
		repository.WithShardCount(s.shardCount),
	)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.eventQueue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
	)
	s.engine = rewards.NewEngine(s.rateTable)

	// Create and start worker pool with the earnings and ledger adapters
	s.workerPool = workerpool.NewPool(
		s.workerCount,
		s.eventQueue,
		&earningsAdapter{engine: s.engine},
		&ledgerAdapter{ledger: s.ledger},
	)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "rewards service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("shardCount", s.shardCount),
		logger.String("currency", s.rateTable.Currency()),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping rewards service...")

	// Stop worker pool
	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	// Close ledger
	if s.ledger != nil {
		if closer, ok := s.ledger.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}

	// Close queue
	if q, ok := s.eventQueue.(*eventqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	// Signal cleanup loop to stop
	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "rewards service stopped")
}

// SeenAndRecord atomically checks if an event id was seen and records it if not.
// Returns true if the event was already seen, false if it was newly recorded.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordSessionDuplicate()
	}
	return seen
}

// Unrecord removes an event ID from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Enqueue submits a session event for asynchronous processing.
// Returns false on backpressure.
func (s *Service) Enqueue(ctx context.Context, e model.SessionEvent) bool {
	s.logger.Debug(ctx, "enqueueing session event",
		logger.String("eventID", e.EventID),
		logger.String("userID", e.UserID),
		logger.String("platform", e.Platform),
		logger.Int64("score", e.Score),
	)

	ok := s.eventQueue.Enqueue(ctx, e)
	if ok {
		metrics.UpdateQueueSize(s.eventQueue.Len(ctx))
	}
	return ok
}

// Balance returns the balance snapshot for a user.
func (s *Service) Balance(ctx context.Context, userID string) (types.Balance, error) {
	acct, err := s.ledger.Account(ctx, userID)
	if err != nil {
		return types.Balance{}, err
	}

	eligible, err := s.engine.PayoutEligible(acct.Balance)
	if err != nil {
		return types.Balance{}, err
	}

	return types.Balance{
		UserID:        acct.UserID,
		Balance:       acct.Balance.String(),
		TotalEarned:   acct.TotalEarned.String(),
		Sessions:      acct.Sessions,
		Currency:      s.rateTable.Currency(),
		Eligible:      eligible,
		MinimumPayout: s.rateTable.MinimumPayout().String(),
	}, nil
}

// TopEarners returns the top n earners ranked by lifetime earnings.
func (s *Service) TopEarners(ctx context.Context, n int) ([]types.Earner, error) {
	earners, err := s.ledger.TopEarners(ctx, n)
	if err != nil {
		return nil, err
	}

	// Convert to API format
	apiEarners := make([]types.Earner, len(earners))
	for i, e := range earners {
		apiEarners[i] = types.Earner{
			Rank:        e.Rank,
			UserID:      e.UserID,
			TotalEarned: e.TotalEarned.String(),
			Sessions:    e.Sessions,
		}
	}

	return apiEarners, nil
}

// QuotePayout computes the fee split for a requested payout without moving
// funds. An empty amount quotes the whole balance. An ineligible amount is
// reported in the quote rather than returned as an error.
func (s *Service) QuotePayout(ctx context.Context, userID, amount string) (types.PayoutQuote, error) {
	acct, err := s.ledger.Account(ctx, userID)
	if err != nil {
		metrics.RecordPayoutQuote("error")
		return types.PayoutQuote{}, err
	}

	requested, err := s.resolveAmount(acct, amount)
	if err != nil {
		metrics.RecordPayoutQuote("error")
		return types.PayoutQuote{}, err
	}

	eligible, err := s.engine.PayoutEligible(requested)
	if err != nil {
		metrics.RecordPayoutQuote("error")
		return types.PayoutQuote{}, err
	}

	net, fee, err := s.engine.SplitFee(requested)
	if err != nil {
		metrics.RecordPayoutQuote("error")
		return types.PayoutQuote{}, err
	}

	if eligible {
		metrics.RecordPayoutQuote("eligible")
	} else {
		metrics.RecordPayoutQuote("ineligible")
	}

	return types.PayoutQuote{
		UserID:        acct.UserID,
		Eligible:      eligible,
		Amount:        requested.String(),
		NetAmount:     net.String(),
		FeeAmount:     fee.String(),
		Currency:      s.rateTable.Currency(),
		MinimumPayout: s.rateTable.MinimumPayout().String(),
	}, nil
}

// ExecutePayout debits the requested amount and returns the receipt with the
// fee split applied. An empty amount pays out the whole balance.
func (s *Service) ExecutePayout(ctx context.Context, userID, amount string) (types.PayoutReceipt, error) {
	acct, err := s.ledger.Account(ctx, userID)
	if err != nil {
		return types.PayoutReceipt{}, err
	}

	requested, err := s.resolveAmount(acct, amount)
	if err != nil {
		return types.PayoutReceipt{}, err
	}

	eligible, err := s.engine.PayoutEligible(requested)
	if err != nil {
		return types.PayoutReceipt{}, err
	}
	if !eligible {
		return types.PayoutReceipt{}, fmt.Errorf("%w: requested %s, minimum %s",
			rewards.ErrBelowMinimum, requested.String(), s.rateTable.MinimumPayout().String())
	}

	net, fee, err := s.engine.SplitFee(requested)
	if err != nil {
		return types.PayoutReceipt{}, err
	}

	updated, err := s.ledger.Debit(ctx, userID, requested)
	if err != nil {
		return types.PayoutReceipt{}, err
	}

	metrics.RecordPayoutExecuted()
	s.logger.Info(ctx, "payout executed",
		logger.String("userID", userID),
		logger.String("amount", requested.String()),
		logger.String("net", net.String()),
		logger.String("fee", fee.String()),
	)

	return types.PayoutReceipt{
		UserID:    updated.UserID,
		Amount:    requested.String(),
		NetAmount: net.String(),
		FeeAmount: fee.String(),
		Currency:  s.rateTable.Currency(),
		Balance:   updated.Balance.String(),
	}, nil
}

// resolveAmount parses a requested payout amount. An empty string means the
// whole current balance.
func (s *Service) resolveAmount(acct repository.Account, amount string) (decimal.Decimal, error) {
	if amount == "" {
		return acct.Balance, nil
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", rewards.ErrInvalidAmount, amount)
	}
	if parsed.IsNegative() || parsed.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: %s", rewards.ErrInvalidAmount, amount)
	}
	return parsed, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"shardCount":  s.shardCount,
	}

	if s.started {
		queueLen := s.eventQueue.Len(ctx)
		totalAccounts := s.ledger.Count(ctx)

		stats["queueLength"] = queueLen
		stats["totalAccounts"] = totalAccounts
		stats["currency"] = s.rateTable.Currency()
		stats["platforms"] = s.rateTable.Platforms()

		// Update metrics
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTotalAccounts(totalAccounts)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
