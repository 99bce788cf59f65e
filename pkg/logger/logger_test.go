package logger_test

import (
	"context"
	"testing"

	"github.com/airomo/payday/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given an uninitialized logging package", t, func() {
		Convey("When Init is called with text output", func() {
			err := logger.Init(false)

			Convey("Then the global logger becomes available", func() {
				So(err, ShouldBeNil)
				So(logger.Get(), ShouldNotBeNil)
			})
		})

		Convey("When Init is called with JSON output", func() {
			err := logger.Init(true)

			Convey("Then the global logger becomes available", func() {
				So(err, ShouldBeNil)
				So(logger.Get(), ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerLevels(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(logger.Init(false), ShouldBeNil)

		Convey("When setting a valid level string", func() {
			Convey("Then debug, info, warn and error are accepted", func() {
				So(logger.SetLevelString("debug"), ShouldBeNil)
				So(logger.SetLevelString("info"), ShouldBeNil)
				So(logger.SetLevelString("warn"), ShouldBeNil)
				So(logger.SetLevelString("warning"), ShouldBeNil)
				So(logger.SetLevelString("error"), ShouldBeNil)
				So(logger.SetLevelString(" INFO "), ShouldBeNil)
			})
		})

		Convey("When setting an invalid level string", func() {
			err := logger.SetLevelString("loud")

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When logging through named loggers", func() {
			log := logger.Named("ledger")

			Convey("Then logging does not panic", func() {
				So(func() {
					log.Info(context.Background(), "credited",
						logger.String("user_id", "u-1"),
						logger.Int64("score", 1000),
						logger.Float64("utilization", 0.5),
					)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestLoggerSync(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(logger.Init(false), ShouldBeNil)

		Convey("When Sync is called", func() {
			Convey("Then it returns without error", func() {
				So(logger.Sync(), ShouldBeNil)
			})
		})
	})
}
