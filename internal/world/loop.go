package world

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// RunLoop steps w once per interval, as measured by clk, until ctx is
// canceled; onStep, if non-nil, is called after each step with that
// step's arrivals and how long w.Step() actually took to run (measured by
// the real wall clock regardless of clk, since that's what a caller
// publishing tick-duration metrics wants). Passing clock.New() wires a
// real wall-clock ticker for cmd/legiond's normal use; tests pass
// clock.NewMock() and call Add to deterministically advance ticks without
// sleeping in wall-clock time.
func RunLoop(ctx context.Context, clk clock.Clock, interval time.Duration, w *World, onStep func(arrivals []Arrival, elapsed time.Duration)) {
	ticker := clk.Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			arrivals := w.Step()
			if onStep != nil {
				onStep(arrivals, time.Since(start))
			}
		}
	}
}
