package catalog

import (
	"context"
	"time"

	"github.com/jonwraymond/vendora/observe"
)

func logRetry(logger observe.Logger) func(attempt int, err error, delay time.Duration) {
	return func(attempt int, err error, delay time.Duration) {
		logger.Warn(context.Background(), "fetch failed, retrying",
			observe.Field{Key: "attempt", Value: attempt},
			observe.Field{Key: "delay", Value: delay.String()},
			observe.Err(err))
	}
}
