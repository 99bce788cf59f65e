package rewards_test

import (
	"context"
	"testing"

	"github.com/airomo/payday/internal/domain/rewards"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func mustTable(opts ...rewards.TableOption) *rewards.RateTable {
	table, err := rewards.NewRateTable(opts...)
	So(err, ShouldBeNil)
	return table
}

func TestEngineCalculateEarnings(t *testing.T) {
	Convey("Given an engine with mobile and web rates", t, func() {
		table := mustTable(
			rewards.WithBaseRates(map[string]string{
				"mobile": "0.001",
				"web":    "0.0008",
			}),
			rewards.WithBonusMultipliers(map[string]string{
				"daily_bonus": "1.5",
				"streak_week": "2.0",
			}),
		)
		engine := rewards.NewEngine(table)
		ctx := context.Background()

		Convey("When calculating without bonuses", func() {
			result, err := engine.CalculateEarnings(ctx, 1000, "mobile", nil)

			Convey("Then the amount is score times base rate", func() {
				So(err, ShouldBeNil)
				So(result.Amount.String(), ShouldEqual, "1")
				So(result.Currency, ShouldEqual, "usd")
			})
		})

		Convey("When calculating with a single bonus", func() {
			result, err := engine.CalculateEarnings(ctx, 1000, "mobile", []string{"daily_bonus"})

			Convey("Then the multiplier is applied", func() {
				So(err, ShouldBeNil)
				So(result.Amount.String(), ShouldEqual, "1.5")
			})
		})

		Convey("When the same bonus tag appears twice", func() {
			once, err := engine.CalculateEarnings(ctx, 1000, "mobile", []string{"daily_bonus"})
			So(err, ShouldBeNil)
			twice, err := engine.CalculateEarnings(ctx, 1000, "mobile", []string{"daily_bonus", "daily_bonus"})
			So(err, ShouldBeNil)

			Convey("Then the multiplier is applied once per occurrence", func() {
				expected := once.Amount.Mul(decimal.RequireFromString("1.5")).RoundBank(4)
				So(twice.Amount.Equal(expected), ShouldBeTrue)
			})
		})

		Convey("When bonuses compose", func() {
			result, err := engine.CalculateEarnings(ctx, 1000, "mobile", []string{"daily_bonus", "streak_week"})

			Convey("Then the factors multiply", func() {
				So(err, ShouldBeNil)
				So(result.Amount.String(), ShouldEqual, "3")
			})
		})

		Convey("When an unknown bonus tag is supplied", func() {
			plain, err := engine.CalculateEarnings(ctx, 1000, "mobile", nil)
			So(err, ShouldBeNil)
			tagged, err := engine.CalculateEarnings(ctx, 1000, "mobile", []string{"nonexistent"})
			So(err, ShouldBeNil)

			Convey("Then it is a no-op, not an error", func() {
				So(tagged.Amount.Equal(plain.Amount), ShouldBeTrue)
			})
		})

		Convey("When the score is zero", func() {
			result, err := engine.CalculateEarnings(ctx, 0, "web", []string{"daily_bonus"})

			Convey("Then the amount is zero", func() {
				So(err, ShouldBeNil)
				So(result.Amount.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When the score is negative", func() {
			_, err := engine.CalculateEarnings(ctx, -1, "mobile", nil)

			Convey("Then it fails with ErrInvalidScore", func() {
				So(err, ShouldNotBeNil)
				So(err, ShouldWrap, rewards.ErrInvalidScore)
			})
		})

		Convey("When the platform is not configured", func() {
			_, err := engine.CalculateEarnings(ctx, 100, "console", nil)

			Convey("Then it fails with ErrUnknownPlatform", func() {
				So(err, ShouldNotBeNil)
				So(err, ShouldWrap, rewards.ErrUnknownPlatform)
			})
		})

		Convey("When the context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := engine.CalculateEarnings(cancelled, 100, "mobile", nil)

			Convey("Then the cancellation is surfaced", func() {
				So(err, ShouldNotBeNil)
				So(err, ShouldWrap, context.Canceled)
			})
		})

		Convey("When amounts need rounding", func() {
			// 1234 * 0.0008 * 1.5 = 1.48080, exact at 4 digits
			result, err := engine.CalculateEarnings(ctx, 1234, "web", []string{"daily_bonus"})
			So(err, ShouldBeNil)
			So(result.Amount.String(), ShouldEqual, "1.4808")

			Convey("Then half-way values round to even", func() {
				fine := mustTable(rewards.WithBaseRates(map[string]string{"web": "0.00005"}))
				fineEngine := rewards.NewEngine(fine)

				// 3 * 0.00005 = 0.00015: ties to 0.0002 (even)
				r, err := fineEngine.CalculateEarnings(ctx, 3, "web", nil)
				So(err, ShouldBeNil)
				So(r.Amount.String(), ShouldEqual, "0.0002")

				// 5 * 0.00005 = 0.00025: ties to 0.0002 (even), not 0.0003
				r, err = fineEngine.CalculateEarnings(ctx, 5, "web", nil)
				So(err, ShouldBeNil)
				So(r.Amount.String(), ShouldEqual, "0.0002")
			})
		})
	})
}

func TestEnginePayoutEligible(t *testing.T) {
	Convey("Given an engine with a 5.00 minimum payout", t, func() {
		table := mustTable(
			rewards.WithBaseRates(map[string]string{"mobile": "0.001"}),
			rewards.WithMinimumPayout("5.00"),
		)
		engine := rewards.NewEngine(table)

		Convey("When the amount is below the minimum", func() {
			eligible, err := engine.PayoutEligible(decimal.RequireFromString("4.99"))

			Convey("Then it is not eligible", func() {
				So(err, ShouldBeNil)
				So(eligible, ShouldBeFalse)
			})
		})

		Convey("When the amount equals the minimum", func() {
			eligible, err := engine.PayoutEligible(decimal.RequireFromString("5.00"))

			Convey("Then the boundary is eligible", func() {
				So(err, ShouldBeNil)
				So(eligible, ShouldBeTrue)
			})
		})

		Convey("When the amount exceeds the minimum", func() {
			eligible, err := engine.PayoutEligible(decimal.RequireFromString("125.3301"))

			Convey("Then it is eligible", func() {
				So(err, ShouldBeNil)
				So(eligible, ShouldBeTrue)
			})
		})

		Convey("When the amount is negative", func() {
			_, err := engine.PayoutEligible(decimal.RequireFromString("-0.01"))

			Convey("Then it fails with ErrInvalidAmount", func() {
				So(err, ShouldNotBeNil)
				So(err, ShouldWrap, rewards.ErrInvalidAmount)
			})
		})
	})
}

func TestSplitFee(t *testing.T) {
	Convey("Given a gross amount and a fee percentage", t, func() {
		Convey("When splitting 100.00 at 10 percent", func() {
			net, fee, err := rewards.SplitFee(decimal.RequireFromString("100.00"), decimal.NewFromInt(10))

			Convey("Then the platform keeps 10.00 and the user gets 90.00", func() {
				So(err, ShouldBeNil)
				So(fee.String(), ShouldEqual, "10")
				So(net.String(), ShouldEqual, "90")
			})
		})

		Convey("When the fee does not divide evenly", func() {
			amount := decimal.RequireFromString("33.33")
			net, fee, err := rewards.SplitFee(amount, decimal.NewFromInt(7))

			Convey("Then net plus fee reassembles the gross amount", func() {
				So(err, ShouldBeNil)
				So(net.Add(fee).Equal(amount), ShouldBeTrue)
				So(fee.Exponent(), ShouldBeGreaterThanOrEqualTo, -2)
			})
		})

		Convey("When the fee percentage is zero", func() {
			amount := decimal.RequireFromString("12.3456")
			net, fee, err := rewards.SplitFee(amount, decimal.Zero)

			Convey("Then nothing is withheld", func() {
				So(err, ShouldBeNil)
				So(fee.IsZero(), ShouldBeTrue)
				So(net.Equal(amount), ShouldBeTrue)
			})
		})

		Convey("When the fee percentage is 100", func() {
			amount := decimal.RequireFromString("8.40")
			net, fee, err := rewards.SplitFee(amount, decimal.NewFromInt(100))

			Convey("Then everything is withheld", func() {
				So(err, ShouldBeNil)
				So(fee.Equal(amount), ShouldBeTrue)
				So(net.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When the amount is negative", func() {
			_, _, err := rewards.SplitFee(decimal.RequireFromString("-1"), decimal.NewFromInt(10))

			Convey("Then it fails with ErrInvalidAmount", func() {
				So(err, ShouldWrap, rewards.ErrInvalidAmount)
			})
		})

		Convey("When the fee percentage is out of range", func() {
			_, _, err := rewards.SplitFee(decimal.NewFromInt(10), decimal.NewFromInt(101))
			So(err, ShouldWrap, rewards.ErrInvalidAmount)

			_, _, err = rewards.SplitFee(decimal.NewFromInt(10), decimal.NewFromInt(-1))
			So(err, ShouldWrap, rewards.ErrInvalidAmount)
		})

		Convey("When splitting through an engine-bound table", func() {
			table := mustTable(
				rewards.WithBaseRates(map[string]string{"mobile": "0.001"}),
				rewards.WithFeePercent("10"),
			)
			engine := rewards.NewEngine(table)
			net, fee, err := engine.SplitFee(decimal.RequireFromString("100.00"))

			Convey("Then the table's percentage is applied", func() {
				So(err, ShouldBeNil)
				So(net.String(), ShouldEqual, "90")
				So(fee.String(), ShouldEqual, "10")
			})
		})
	})
}
