package interfaces

import (
	"context"

	"orb-trading-bot/internal/types"
)

// Gateway is the venue/price-feed boundary. Implementations: the zerodha live
// adapter and the sim dry-run venue.
type Gateway interface {
	// Start verifies connectivity and symbol tradability. Failure is fatal.
	Start(ctx context.Context, symbol string) error
	Stop(ctx context.Context)

	RecentCandles(ctx context.Context, symbol string, n int) ([]types.Candle, error)
	Quote(ctx context.Context, symbol string) (types.Quote, error)
	Instrument(ctx context.Context, symbol string) (types.Instrument, error)

	// HasSessionOrder reports whether an order, position or recent trade
	// tagged with the session tag already exists for the symbol.
	HasSessionOrder(ctx context.Context, symbol, tag string) (bool, error)

	PlaceStopOrder(ctx context.Context, intent types.OrderIntent) (types.OrderResp, error)

	// CancelTagged deletes resting orders whose tag starts with tagPrefix.
	CancelTagged(ctx context.Context, symbol, tagPrefix string) error
}
