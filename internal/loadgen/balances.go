package loadgen

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// retrieveBalances retrieves balances for all users concurrently.
func retrieveBalances(ctx context.Context, config *Config, sessions []Session, stats *Stats) ([]Balance, error) {
	// Collect the distinct users the sessions were generated for
	userSet := make(map[string]struct{}, config.NumUsers)
	for _, session := range sessions {
		userSet[session.UserID] = struct{}{}
	}
	userIDs := make([]string, 0, len(userSet))
	for userID := range userSet {
		userIDs = append(userIDs, userID)
	}

	log.Printf("💰 Retrieving balances for %d users with %d workers...", len(userIDs), config.Workers)

	client := newHTTPClient(config.Timeout)

	// Results storage
	balances := make([]Balance, len(userIDs))
	var (
		retrieved int64
		failed    int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	userChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range userChan {
				select {
				case <-ctx.Done():
					return
				default:
					userID := userIDs[index]
					balance, err := retrieveSingleBalance(ctx, client, config.BaseURL, userID)

					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("⚠️  Failed to get balance for %s: %v", userID, err)
						}
					} else {
						balances[index] = balance
						atomic.AddInt64(&retrieved, 1)
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&retrieved) + atomic.LoadInt64(&failed)
						ret := atomic.LoadInt64(&retrieved)
						fail := atomic.LoadInt64(&failed)

						log.Printf("💰 Balances: %d/%d retrieved (success: %d, failed: %d)",
							total, len(userIDs), ret, fail)
					}
				}
			}
		}()
	}

	// Send user indices to workers
	go func() {
		defer close(userChan)
		for i := range userIDs {
			select {
			case <-ctx.Done():
				return
			case userChan <- i:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Filter out empty entries (failed retrievals)
	validBalances := make([]Balance, 0, len(balances))
	for _, balance := range balances {
		if balance.UserID != "" { // Empty UserID indicates failed retrieval
			validBalances = append(validBalances, balance)
		}
	}

	// Update stats
	stats.BalancesRetrieved = len(validBalances)

	log.Printf(`✅ Balance retrieval completed:
   Retrieved: %d
   Failed: %d
`, len(validBalances), int(atomic.LoadInt64(&failed)))

	return validBalances, nil
}

// retrieveSingleBalance retrieves the balance for a single user.
func retrieveSingleBalance(ctx context.Context, client *HTTPClient, baseURL, userID string) (Balance, error) {
	url := fmt.Sprintf("%s/balance/%s", baseURL, userID)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return Balance{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return Balance{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return Balance{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var balance Balance
	if err := unmarshalJSON(body, &balance); err != nil {
		return Balance{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return balance, nil
}

// getTopEarners retrieves the top N earner board entries.
func getTopEarners(ctx context.Context, config *Config, stats *Stats) ([]Earner, error) {
	log.Printf("🥇 Getting top %d earner entries...", config.TopN)

	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/earners?limit=%d", config.BaseURL, config.TopN)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var earners []Earner
	if err := unmarshalJSON(body, &earners); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.EarnerEntries = len(earners)
	log.Printf("✅ Retrieved %d earner entries", len(earners))

	return earners, nil
}
