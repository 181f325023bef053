package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type Task func(ctx context.Context) error

// Every runs task now and then on each tick until ctx is done. Task errors
// are logged, never fatal.
func Every(ctx context.Context, log zerolog.Logger, interval time.Duration, name string, task Task) {
	t := time.NewTicker(interval)
	defer t.Stop()

	run := func() {
		if err := task(ctx); err != nil {
			log.Error().Err(err).Str("task", name).Msg("scheduled task failed")
		}
	}

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
