package engine

import (
	"context"
	"log/slog"
	"time"

	"orb-trading-bot/internal/interfaces"
	"orb-trading-bot/internal/logger"
	"orb-trading-bot/internal/metrics"
)

// RunLoop drives an Engine until the context is cancelled. A failed tick is
// logged (rate-limited, errors repeat themselves) and followed by a short
// backoff; the loop never exits on a transient error.
func RunLoop(ctx context.Context, eng interfaces.Engine, poll, backoff time.Duration) error {
	lim := logger.NewLimiter()
	for {
		delay := poll
		if _, err := eng.Tick(ctx); err != nil {
			metrics.IncTickError()
			lim.Log(ctx, slog.LevelError, "tick_error", "Tick failed: "+err.Error(), 30*time.Second)
			delay = backoff
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
