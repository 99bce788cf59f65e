package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	repository "github.com/airomo/payday/internal/adapters/repository"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestLedgerCredit(t *testing.T) {
	Convey("Given an empty ledger", t, func() {
		ctx := context.Background()
		ledger := repository.NewShardedLedger(ctx, repository.WithShardCount(4))
		defer func() { _ = ledger.Close() }()

		Convey("When crediting a new user", func() {
			acct, err := ledger.Credit(ctx, "user-1", dec("1.5000"), "evt-1", "match3")

			Convey("Then the account is created with the amount", func() {
				So(err, ShouldBeNil)
				So(acct.UserID, ShouldEqual, "user-1")
				So(acct.Balance.String(), ShouldEqual, "1.5")
				So(acct.TotalEarned.String(), ShouldEqual, "1.5")
				So(acct.Sessions, ShouldEqual, 1)
				So(acct.LastEventID, ShouldEqual, "evt-1")
				So(acct.LastGameID, ShouldEqual, "match3")
				So(ledger.Count(ctx), ShouldEqual, 1)
			})
		})

		Convey("When crediting the same user repeatedly", func() {
			_, err := ledger.Credit(ctx, "user-1", dec("1.5"), "evt-1", "match3")
			So(err, ShouldBeNil)
			acct, err := ledger.Credit(ctx, "user-1", dec("0.25"), "evt-2", "runner")

			Convey("Then balances and counters accumulate", func() {
				So(err, ShouldBeNil)
				So(acct.Balance.String(), ShouldEqual, "1.75")
				So(acct.TotalEarned.String(), ShouldEqual, "1.75")
				So(acct.Sessions, ShouldEqual, 2)
				So(acct.LastEventID, ShouldEqual, "evt-2")
				So(acct.LastGameID, ShouldEqual, "runner")
				So(ledger.Count(ctx), ShouldEqual, 1)
			})
		})

		Convey("When crediting a zero amount", func() {
			acct, err := ledger.Credit(ctx, "user-z", decimal.Zero, "evt-z", "idle")

			Convey("Then the session still counts", func() {
				So(err, ShouldBeNil)
				So(acct.Balance.IsZero(), ShouldBeTrue)
				So(acct.Sessions, ShouldEqual, 1)
			})
		})

		Convey("When crediting a negative amount", func() {
			_, err := ledger.Credit(ctx, "user-1", dec("-0.01"), "evt-bad", "match3")

			Convey("Then the credit is rejected", func() {
				So(err, ShouldEqual, repository.ErrNegativeAmount)
				So(ledger.Count(ctx), ShouldEqual, 0)
			})
		})
	})
}

func TestLedgerDebit(t *testing.T) {
	Convey("Given a ledger with a funded account", t, func() {
		ctx := context.Background()
		ledger := repository.NewShardedLedger(ctx)
		defer func() { _ = ledger.Close() }()
		_, err := ledger.Credit(ctx, "user-1", dec("10.00"), "evt-1", "match3")
		So(err, ShouldBeNil)

		Convey("When debiting within the balance", func() {
			acct, err := ledger.Debit(ctx, "user-1", dec("7.50"))

			Convey("Then the balance shrinks but total earned does not", func() {
				So(err, ShouldBeNil)
				So(acct.Balance.String(), ShouldEqual, "2.5")
				So(acct.TotalEarned.String(), ShouldEqual, "10")
			})
		})

		Convey("When debiting the entire balance", func() {
			acct, err := ledger.Debit(ctx, "user-1", dec("10.00"))

			Convey("Then the balance reaches exactly zero", func() {
				So(err, ShouldBeNil)
				So(acct.Balance.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When debiting more than the balance", func() {
			_, err := ledger.Debit(ctx, "user-1", dec("10.01"))

			Convey("Then the debit is rejected", func() {
				So(err, ShouldEqual, repository.ErrInsufficientFunds)
				acct, err := ledger.Account(ctx, "user-1")
				So(err, ShouldBeNil)
				So(acct.Balance.String(), ShouldEqual, "10")
			})
		})

		Convey("When debiting an unknown user", func() {
			_, err := ledger.Debit(ctx, "user-unknown", dec("1.00"))

			Convey("Then the account is not found", func() {
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When debiting a negative amount", func() {
			_, err := ledger.Debit(ctx, "user-1", dec("-5"))

			Convey("Then the debit is rejected", func() {
				So(err, ShouldEqual, repository.ErrNegativeAmount)
			})
		})
	})
}

func TestLedgerAccount(t *testing.T) {
	Convey("Given a ledger", t, func() {
		ctx := context.Background()
		ledger := repository.NewShardedLedger(ctx)
		defer func() { _ = ledger.Close() }()

		Convey("When looking up an unknown user", func() {
			_, err := ledger.Account(ctx, "nobody")

			Convey("Then it returns ErrNotFound", func() {
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When looking up a credited user", func() {
			_, err := ledger.Credit(ctx, "user-1", dec("3.1400"), "evt-1", "match3")
			So(err, ShouldBeNil)
			acct, err := ledger.Account(ctx, "user-1")

			Convey("Then the snapshot reflects the credit", func() {
				So(err, ShouldBeNil)
				So(acct.Balance.String(), ShouldEqual, "3.14")
				So(acct.Sessions, ShouldEqual, 1)
			})
		})
	})
}

func TestTopEarners(t *testing.T) {
	Convey("Given a ledger with several earners", t, func() {
		ctx := context.Background()
		ledger := repository.NewShardedLedger(ctx, repository.WithShardCount(3))
		defer func() { _ = ledger.Close() }()

		credit := func(user, amount string) {
			_, err := ledger.Credit(ctx, user, dec(amount), "evt-"+user, "match3")
			So(err, ShouldBeNil)
		}
		credit("alice", "10.00")
		credit("bob", "25.00")
		credit("carol", "10.00")
		credit("dave", "5.00")

		Convey("When asking for the top 3", func() {
			earners, err := ledger.TopEarners(ctx, 3)

			Convey("Then rows are ordered by total earned with ties sharing a rank", func() {
				So(err, ShouldBeNil)
				So(earners, ShouldHaveLength, 3)
				So(earners[0].UserID, ShouldEqual, "bob")
				So(earners[0].Rank, ShouldEqual, 1)
				So(earners[1].UserID, ShouldEqual, "alice")
				So(earners[1].Rank, ShouldEqual, 2)
				So(earners[2].UserID, ShouldEqual, "carol")
				So(earners[2].Rank, ShouldEqual, 2)
			})
		})

		Convey("When asking for more rows than accounts", func() {
			earners, err := ledger.TopEarners(ctx, 100)

			Convey("Then all accounts are returned ranked", func() {
				So(err, ShouldBeNil)
				So(earners, ShouldHaveLength, 4)
				So(earners[3].UserID, ShouldEqual, "dave")
				So(earners[3].Rank, ShouldEqual, 3)
			})
		})

		Convey("When asking for an invalid limit", func() {
			_, err := ledger.TopEarners(ctx, 0)

			Convey("Then the limit is rejected", func() {
				So(err, ShouldEqual, repository.ErrInvalidLimit)
			})
		})
	})
}

func TestLedgerConcurrency(t *testing.T) {
	Convey("Given a ledger credited from many goroutines", t, func() {
		ctx := context.Background()
		ledger := repository.NewShardedLedger(ctx, repository.WithShardCount(8))
		defer func() { _ = ledger.Close() }()

		Convey("When goroutines credit overlapping users", func() {
			const goroutines = 8
			const perGoroutine = 100

			var wg sync.WaitGroup
			for g := 0; g < goroutines; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for i := 0; i < perGoroutine; i++ {
						user := fmt.Sprintf("user-%d", i%10)
						_, err := ledger.Credit(ctx, user, dec("0.01"), fmt.Sprintf("evt-%d-%d", g, i), "match3")
						if err != nil {
							t.Error(err)
							return
						}
					}
				}(g)
			}
			wg.Wait()

			Convey("Then every credit lands exactly once", func() {
				So(ledger.Count(ctx), ShouldEqual, 10)
				total := decimal.Zero
				for i := 0; i < 10; i++ {
					acct, err := ledger.Account(ctx, fmt.Sprintf("user-%d", i))
					So(err, ShouldBeNil)
					total = total.Add(acct.Balance)
				}
				So(total.String(), ShouldEqual, "8") // 8 * 100 * 0.01
			})
		})
	})
}
