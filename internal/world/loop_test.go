package world

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestRunLoopStepsOncePerMockTick(t *testing.T) {
	w := New(1)
	mock := clock.NewMock()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var steps int32
	done := make(chan struct{})
	go func() {
		RunLoop(ctx, mock, time.Second, w, func(_ []Arrival, _ time.Duration) {
			atomic.AddInt32(&steps, 1)
		})
		close(done)
	}()

	// Give RunLoop's goroutine a chance to register its ticker with the
	// mock clock before advancing it.
	time.Sleep(20 * time.Millisecond)

	for i := 0; i < 3; i++ {
		mock.Add(time.Second)
		time.Sleep(5 * time.Millisecond)
	}
	waitForSteps(&steps, 3)

	if got := atomic.LoadInt32(&steps); got != 3 {
		t.Fatalf("steps = %d, want 3", got)
	}
	if w.Now() != 3 {
		t.Fatalf("Now() = %d, want 3", w.Now())
	}

	cancel()
	<-done
}

func waitForSteps(steps *int32, want int32) {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(steps) >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
}
