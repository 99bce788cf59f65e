package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	repository "github.com/airomo/payday/internal/adapters/repository"
	service "github.com/airomo/payday/internal/app"
	"github.com/airomo/payday/internal/domain/model"
	"github.com/airomo/payday/internal/domain/rewards"
	. "github.com/smartystreets/goconvey/convey"
)

// waitForBalance polls until the user's balance endpoint reports the expected
// session count or the deadline passes. Workers process events asynchronously.
func waitForBalance(ctx context.Context, svc *service.Service, userID string, sessions int64, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		b, err := svc.Balance(ctx, userID)
		if err == nil && b.Sessions >= sessions {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service with a known rate table", t, func() {
		svc := service.New(
			service.WithWorkerCount(4),
			service.WithRateTable(testRateTable()),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a mobile session is submitted and processed", func() {
			event := model.SessionEvent{
				EventID:  "evt-1",
				UserID:   "user-1",
				GameID:   "match3",
				Platform: "mobile",
				Score:    5000,
				TS:       time.Now(),
			}
			So(svc.SeenAndRecord(ctx, event.EventID), ShouldBeFalse)
			So(svc.Enqueue(ctx, event), ShouldBeTrue)
			So(waitForBalance(ctx, svc, "user-1", 1, 5*time.Second), ShouldBeTrue)

			Convey("Then the balance reflects the rate table", func() {
				b, err := svc.Balance(ctx, "user-1")
				So(err, ShouldBeNil)
				So(b.Balance, ShouldEqual, "5") // 5000 * 0.001
				So(b.TotalEarned, ShouldEqual, "5")
				So(b.Sessions, ShouldEqual, 1)
				So(b.Currency, ShouldEqual, "usd")
				So(b.Eligible, ShouldBeTrue)
			})

			Convey("And a payout quote splits the fee", func() {
				q, err := svc.QuotePayout(ctx, "user-1", "")
				So(err, ShouldBeNil)
				So(q.Eligible, ShouldBeTrue)
				So(q.Amount, ShouldEqual, "5")
				So(q.NetAmount, ShouldEqual, "4.5")
				So(q.FeeAmount, ShouldEqual, "0.5")
			})

			Convey("And executing the payout debits the balance", func() {
				r, err := svc.ExecutePayout(ctx, "user-1", "5")
				So(err, ShouldBeNil)
				So(r.Amount, ShouldEqual, "5")
				So(r.NetAmount, ShouldEqual, "4.5")
				So(r.FeeAmount, ShouldEqual, "0.5")
				So(r.Balance, ShouldEqual, "0")

				b, err := svc.Balance(ctx, "user-1")
				So(err, ShouldBeNil)
				So(b.Balance, ShouldEqual, "0")
				So(b.TotalEarned, ShouldEqual, "5") // lifetime total is untouched
			})
		})

		Convey("When a session carries a bonus tag", func() {
			event := model.SessionEvent{
				EventID:  "evt-bonus",
				UserID:   "user-bonus",
				GameID:   "runner",
				Platform: "mobile",
				Score:    1000,
				Bonuses:  []string{"daily_bonus"},
				TS:       time.Now(),
			}
			So(svc.Enqueue(ctx, event), ShouldBeTrue)
			So(waitForBalance(ctx, svc, "user-bonus", 1, 5*time.Second), ShouldBeTrue)

			Convey("Then the multiplier is applied", func() {
				b, err := svc.Balance(ctx, "user-bonus")
				So(err, ShouldBeNil)
				So(b.Balance, ShouldEqual, "1.5") // 1000 * 0.001 * 1.5
			})
		})

		Convey("When several users earn different amounts", func() {
			users := map[string]int64{
				"earner-a": 9000,
				"earner-b": 3000,
				"earner-c": 6000,
			}
			for user, score := range users {
				event := model.SessionEvent{
					EventID:  "evt-" + user,
					UserID:   user,
					GameID:   "match3",
					Platform: "mobile",
					Score:    score,
					TS:       time.Now(),
				}
				So(svc.Enqueue(ctx, event), ShouldBeTrue)
			}
			for user := range users {
				So(waitForBalance(ctx, svc, user, 1, 5*time.Second), ShouldBeTrue)
			}

			Convey("Then the top earners are ranked by lifetime earnings", func() {
				earners, err := svc.TopEarners(ctx, 3)
				So(err, ShouldBeNil)
				So(earners, ShouldHaveLength, 3)
				So(earners[0].UserID, ShouldEqual, "earner-a")
				So(earners[0].Rank, ShouldEqual, 1)
				So(earners[0].TotalEarned, ShouldEqual, "9")
				So(earners[1].UserID, ShouldEqual, "earner-c")
				So(earners[2].UserID, ShouldEqual, "earner-b")
			})
		})
	})
}

func TestServiceErrorHandling(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithRateTable(testRateTable()),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When querying the balance of an unknown user", func() {
			_, err := svc.Balance(ctx, "nobody")

			Convey("Then it reports not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When quoting a payout below the minimum", func() {
			event := model.SessionEvent{
				EventID:  "evt-small",
				UserID:   "user-small",
				GameID:   "match3",
				Platform: "mobile",
				Score:    1000, // earns 1.00, below the 5.00 minimum
				TS:       time.Now(),
			}
			So(svc.Enqueue(ctx, event), ShouldBeTrue)
			So(waitForBalance(ctx, svc, "user-small", 1, 5*time.Second), ShouldBeTrue)

			q, err := svc.QuotePayout(ctx, "user-small", "")

			Convey("Then the quote succeeds but is ineligible", func() {
				So(err, ShouldBeNil)
				So(q.Eligible, ShouldBeFalse)
				So(q.Amount, ShouldEqual, "1")
			})

			Convey("And executing that payout is rejected", func() {
				_, err := svc.ExecutePayout(ctx, "user-small", "")
				So(errors.Is(err, rewards.ErrBelowMinimum), ShouldBeTrue)
			})
		})

		Convey("When paying out more than the balance", func() {
			event := model.SessionEvent{
				EventID:  "evt-rich",
				UserID:   "user-rich",
				GameID:   "match3",
				Platform: "mobile",
				Score:    10000, // earns 10.00
				TS:       time.Now(),
			}
			So(svc.Enqueue(ctx, event), ShouldBeTrue)
			So(waitForBalance(ctx, svc, "user-rich", 1, 5*time.Second), ShouldBeTrue)

			_, err := svc.ExecutePayout(ctx, "user-rich", "20.00")

			Convey("Then the debit is rejected", func() {
				So(errors.Is(err, repository.ErrInsufficientFunds), ShouldBeTrue)
			})
		})

		Convey("When the payout amount is malformed", func() {
			event := model.SessionEvent{
				EventID:  "evt-fmt",
				UserID:   "user-fmt",
				GameID:   "match3",
				Platform: "mobile",
				Score:    10000,
				TS:       time.Now(),
			}
			So(svc.Enqueue(ctx, event), ShouldBeTrue)
			So(waitForBalance(ctx, svc, "user-fmt", 1, 5*time.Second), ShouldBeTrue)

			_, err := svc.QuotePayout(ctx, "user-fmt", "ten dollars")

			Convey("Then the amount is rejected", func() {
				So(errors.Is(err, rewards.ErrInvalidAmount), ShouldBeTrue)
			})
		})

		Convey("When a session names an unknown platform", func() {
			event := model.SessionEvent{
				EventID:  "evt-unknown",
				UserID:   "user-unknown",
				GameID:   "match3",
				Platform: "smartfridge",
				Score:    1000,
				TS:       time.Now(),
			}
			So(svc.Enqueue(ctx, event), ShouldBeTrue)
			time.Sleep(200 * time.Millisecond)

			Convey("Then no account is created for the user", func() {
				_, err := svc.Balance(ctx, "user-unknown")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a started service under concurrent load", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithRateTable(testRateTable()),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When many goroutines submit sessions for the same user", func() {
			const goroutines = 8
			const perGoroutine = 25

			var wg sync.WaitGroup
			for g := 0; g < goroutines; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for i := 0; i < perGoroutine; i++ {
						event := model.SessionEvent{
							EventID:  fmt.Sprintf("evt-%d-%d", g, i),
							UserID:   "user-hot",
							GameID:   "match3",
							Platform: "mobile",
							Score:    1000,
							TS:       time.Now(),
						}
						if !svc.Enqueue(ctx, event) {
							t.Error("enqueue failed")
							return
						}
					}
				}(g)
			}
			wg.Wait()

			total := int64(goroutines * perGoroutine)
			So(waitForBalance(ctx, svc, "user-hot", total, 10*time.Second), ShouldBeTrue)

			Convey("Then every session is credited exactly once", func() {
				b, err := svc.Balance(ctx, "user-hot")
				So(err, ShouldBeNil)
				So(b.Sessions, ShouldEqual, total)
				So(b.Balance, ShouldEqual, "200") // 200 * 1000 * 0.001
			})
		})
	})
}
