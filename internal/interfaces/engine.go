package interfaces

import (
	"context"

	"orb-trading-bot/internal/types"
)

type Engine interface {
	Tick(ctx context.Context) (*types.TickResult, error)
}
