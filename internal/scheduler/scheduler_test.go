package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestEvery_RunsImmediatelyAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var n atomic.Int32

	done := make(chan struct{})
	go func() {
		Every(ctx, zerolog.Nop(), 10*time.Millisecond, "count", func(context.Context) error {
			if n.Add(1) == 2 {
				return errors.New("logged, not fatal")
			}
			return nil
		})
		close(done)
	}()

	assert.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Every did not return after cancel")
	}
}
