package repository

import (
	"context"
	"hash/fnv"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/airomo/payday/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Sharded, in-memory Ledger implementation.
//
// Accounts are partitioned across shards by an FNV-1a hash of the user ID so
// concurrent credits to different users rarely contend on the same lock.
// Ranking queries collect from all shards and sort; the ledger stays small
// enough in one process that a dedicated ordered index is not worth its
// bookkeeping on every credit.

// Default ledger configuration constants.
const (
	defaultShardCount            = 8
	defaultMetricsUpdateInterval = 5 * time.Second
	estimatedShardCapacity       = 10000
)

type shard struct {
	mu       sync.RWMutex
	accounts map[string]*Account
}

// ShardedLedger implements Ledger over hash-partitioned in-memory shards.
type ShardedLedger struct {
	shards                []*shard
	shardCount            int
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// Option applies a configuration option to the ShardedLedger.
type Option func(*ShardedLedger)

// WithShardCount sets the number of hash shards.
func WithShardCount(count int) Option {
	return func(l *ShardedLedger) {
		if count > 0 {
			l.shardCount = count
		}
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(l *ShardedLedger) {
		if interval > 0 {
			l.metricsUpdateInterval = interval
		}
	}
}

// NewShardedLedger constructs a ledger with configuration options.
func NewShardedLedger(ctx context.Context, opts ...Option) *ShardedLedger {
	l := &ShardedLedger{
		shardCount:            defaultShardCount,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
	}

	for _, opt := range opts {
		opt(l)
	}

	l.shards = make([]*shard, l.shardCount)
	for i := range l.shards {
		l.shards[i] = &shard{accounts: make(map[string]*Account)}
	}

	l.stopChan = make(chan struct{})
	metrics.UpdateLedgerShardCount(l.shardCount)
	l.startMetricsUpdater(ctx)

	return l
}

// Close gracefully shuts down the background metrics goroutine.
func (l *ShardedLedger) Close() error {
	select {
	case <-l.stopChan:
		// already closed
	default:
		close(l.stopChan)
	}
	l.wg.Wait()
	return nil
}

func (l *ShardedLedger) shardFor(userID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return l.shards[h.Sum32()%uint32(l.shardCount)]
}

// Credit implements Ledger.Credit.
func (l *ShardedLedger) Credit(ctx context.Context, userID string, amount decimal.Decimal, eventID, gameID string) (Account, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if amount.IsNegative() {
		metrics.RecordErrorByComponent("ledger", "negative_credit")
		return Account{}, ErrNegativeAmount
	}

	s := l.shardFor(userID)
	s.mu.Lock()
	acct, ok := s.accounts[userID]
	if !ok {
		acct = &Account{
			UserID:      userID,
			Balance:     decimal.Zero,
			TotalEarned: decimal.Zero,
		}
		s.accounts[userID] = acct
	}
	acct.Balance = acct.Balance.Add(amount)
	acct.TotalEarned = acct.TotalEarned.Add(amount)
	acct.Sessions++
	acct.LastEventID = eventID
	acct.LastGameID = gameID
	acct.UpdatedAt = time.Now()
	snapshot := *acct
	s.mu.Unlock()

	metrics.RecordLedgerCredit()
	if !ok {
		metrics.UpdateLedgerAccountsTotal(l.Count(ctx))
	}

	return snapshot, nil
}

// Debit implements Ledger.Debit.
func (l *ShardedLedger) Debit(ctx context.Context, userID string, amount decimal.Decimal) (Account, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if amount.IsNegative() {
		metrics.RecordErrorByComponent("ledger", "negative_debit")
		return Account{}, ErrNegativeAmount
	}

	s := l.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[userID]
	if !ok {
		metrics.RecordErrorByComponent("ledger", "not_found")
		return Account{}, ErrNotFound
	}
	if acct.Balance.LessThan(amount) {
		metrics.RecordErrorByComponent("ledger", "insufficient_funds")
		return Account{}, ErrInsufficientFunds
	}

	acct.Balance = acct.Balance.Sub(amount)
	acct.UpdatedAt = time.Now()
	metrics.RecordLedgerDebit()

	return *acct, nil
}

// Account implements Ledger.Account.
func (l *ShardedLedger) Account(ctx context.Context, userID string) (Account, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s := l.shardFor(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[userID]
	if !ok {
		metrics.RecordErrorByComponent("ledger", "not_found")
		return Account{}, ErrNotFound
	}
	return *acct, nil
}

// TopEarners implements Ledger.TopEarners.
func (l *ShardedLedger) TopEarners(ctx context.Context, n int) ([]Earner, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("ledger", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	all := l.collectAll()
	sortEarners(all)
	assignRanksWithTies(all)

	if n < len(all) {
		all = all[:n]
	}
	return all, nil
}

// Count returns the total number of accounts.
func (l *ShardedLedger) Count(ctx context.Context) int {
	total := 0
	for _, s := range l.shards {
		s.mu.RLock()
		total += len(s.accounts)
		s.mu.RUnlock()
	}
	return total
}

// collectAll snapshots every account as an Earner row.
func (l *ShardedLedger) collectAll() []Earner {
	out := make([]Earner, 0, 64)
	for _, s := range l.shards {
		s.mu.RLock()
		for _, acct := range s.accounts {
			out = append(out, Earner{
				UserID:      acct.UserID,
				TotalEarned: acct.TotalEarned,
				Sessions:    acct.Sessions,
			})
		}
		s.mu.RUnlock()
	}
	return out
}

// sortEarners orders by total earned desc with user ID asc as tiebreak, so
// rankings are deterministic.
func sortEarners(earners []Earner) {
	sort.Slice(earners, func(i, j int) bool {
		if !earners[i].TotalEarned.Equal(earners[j].TotalEarned) {
			return earners[i].TotalEarned.GreaterThan(earners[j].TotalEarned)
		}
		return earners[i].UserID < earners[j].UserID
	})
}

// assignRanksWithTies assigns ranks where equal totals share a rank and the
// next distinct total takes the next consecutive rank.
func assignRanksWithTies(earners []Earner) {
	currentRank := 0
	for i := range earners {
		if i == 0 || !earners[i].TotalEarned.Equal(earners[i-1].TotalEarned) {
			currentRank++
		}
		earners[i].Rank = currentRank
	}
}

// startMetricsUpdater starts a background goroutine that publishes ledger metrics.
func (l *ShardedLedger) startMetricsUpdater(ctx context.Context) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ticker := time.NewTicker(l.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-l.stopChan:
				return
			case <-ticker.C:
				l.updateMetrics()
			}
		}
	}()
}

// updateMetrics publishes per-shard and total account gauges.
func (l *ShardedLedger) updateMetrics() {
	total := 0
	for i, s := range l.shards {
		s.mu.RLock()
		count := len(s.accounts)
		s.mu.RUnlock()

		total += count
		shardID := "shard_" + strconv.Itoa(i)
		metrics.UpdateLedgerAccountsPerShard(shardID, count)

		utilization := float64(count) / float64(estimatedShardCapacity)
		if utilization > 1.0 {
			utilization = 1.0
		}
		metrics.UpdateLedgerShardUtilization(shardID, utilization)
	}
	metrics.UpdateLedgerAccountsTotal(total)
}
