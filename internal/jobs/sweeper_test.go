package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeSweeper struct {
	calls atomic.Int64
	err   error
}

func (f *fakeSweeper) Sweep(_ context.Context) (int64, error) {
	f.calls.Add(1)
	return 3, f.err
}

func TestSweeperRunsImmediatelyAndOnTicks(t *testing.T) {
	t.Parallel()
	fake := &fakeSweeper{}
	sweeper := NewSweeper(fake, 20*time.Millisecond)

	sweeper.Start()
	time.Sleep(70 * time.Millisecond)
	sweeper.Stop()

	// One immediate pass plus at least two ticks.
	if got := fake.calls.Load(); got < 3 {
		t.Fatalf("expected at least 3 sweep passes, got %d", got)
	}
}

func TestSweeperStopIsClean(t *testing.T) {
	t.Parallel()
	fake := &fakeSweeper{}
	sweeper := NewSweeper(fake, time.Hour)

	sweeper.Start()
	sweeper.Stop()

	calls := fake.calls.Load()
	if calls != 1 {
		t.Fatalf("expected exactly the immediate pass, got %d", calls)
	}

	// No passes after Stop returns.
	time.Sleep(30 * time.Millisecond)
	if got := fake.calls.Load(); got != calls {
		t.Fatalf("sweeper ran after Stop: %d -> %d", calls, got)
	}
}

func TestSweeperKeepsRunningAfterErrors(t *testing.T) {
	t.Parallel()
	fake := &fakeSweeper{err: errors.New("db down")}
	sweeper := NewSweeper(fake, 15*time.Millisecond)

	sweeper.Start()
	time.Sleep(50 * time.Millisecond)
	sweeper.Stop()

	if got := fake.calls.Load(); got < 2 {
		t.Fatalf("expected sweeps to continue after errors, got %d", got)
	}
}
