// Package jobs contains in-process background workers.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/miro-4231/BackendSN/internal/middleware"
)

// sweepTimeout bounds one sweep pass.
const sweepTimeout = 30 * time.Second

// TokenSweeper is implemented by service.TokenService.
type TokenSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// Sweeper periodically deletes revoked and expired refresh-token records.
// Sweeping is pure hygiene: rotation and revocation are already correct
// without it, the table just grows unbounded.
type Sweeper struct {
	tokens   TokenSweeper
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper creates a Sweeper running every interval.
func NewSweeper(tokens TokenSweeper, interval time.Duration) *Sweeper {
	return &Sweeper{
		tokens:   tokens,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. One pass runs immediately so a restart
// after long downtime does not wait a full interval to catch up.
func (s *Sweeper) Start() {
	go func() {
		defer close(s.done)

		s.runOnce()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runOnce()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight pass to finish.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Sweeper) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	count, err := s.tokens.Sweep(ctx)
	if err != nil {
		middleware.Logger.Error("refresh token sweep failed",
			slog.String("error", err.Error()))
		return
	}
	if count > 0 {
		middleware.Logger.Info("refresh token sweep completed",
			slog.Int64("deleted", count))
	}
}
