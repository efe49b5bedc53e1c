package brokerobs

import (
	"context"
	"time"

	"orb-trading-bot/internal/interfaces"
	"orb-trading-bot/internal/logger"
	"orb-trading-bot/internal/trace"
	"orb-trading-bot/internal/types"
)

type observableGateway struct {
	gw interfaces.Gateway
}

var _ interfaces.Gateway = (*observableGateway)(nil)

func Wrap(gw interfaces.Gateway) interfaces.Gateway {
	return &observableGateway{gw: gw}
}

func (og *observableGateway) Start(ctx context.Context, symbol string) error {
	ctx, span := trace.StartSpan(ctx, "gateway.Start")
	defer span.End()

	if err := og.gw.Start(ctx, symbol); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Gateway start failed", err, "symbol", symbol)
		return err
	}
	logger.InfoSkip(ctx, 1, "Gateway started", "symbol", symbol)
	return nil
}

func (og *observableGateway) Stop(ctx context.Context) {
	og.gw.Stop(ctx)
}

func (og *observableGateway) RecentCandles(ctx context.Context, symbol string, n int) ([]types.Candle, error) {
	ctx, span := trace.StartSpan(ctx, "gateway.RecentCandles")
	defer span.End()

	start := time.Now()
	candles, err := og.gw.RecentCandles(ctx, symbol, n)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Candle fetch failed", err, "symbol", symbol)
		return nil, err
	}
	logger.DebugSkip(ctx, 1, "Candles fetched",
		"symbol", symbol, "count", len(candles), "duration_ms", time.Since(start).Milliseconds())
	return candles, nil
}

func (og *observableGateway) Quote(ctx context.Context, symbol string) (types.Quote, error) {
	ctx, span := trace.StartSpan(ctx, "gateway.Quote")
	defer span.End()

	q, err := og.gw.Quote(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Quote fetch failed", err, "symbol", symbol)
		return types.Quote{}, err
	}
	logger.DebugSkip(ctx, 1, "Quote fetched", "symbol", symbol, "bid", q.Bid, "ask", q.Ask)
	return q, nil
}

func (og *observableGateway) Instrument(ctx context.Context, symbol string) (types.Instrument, error) {
	ctx, span := trace.StartSpan(ctx, "gateway.Instrument")
	defer span.End()

	inst, err := og.gw.Instrument(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Instrument fetch failed", err, "symbol", symbol)
		return types.Instrument{}, err
	}
	return inst, nil
}

func (og *observableGateway) HasSessionOrder(ctx context.Context, symbol, tag string) (bool, error) {
	ctx, span := trace.StartSpan(ctx, "gateway.HasSessionOrder")
	defer span.End()

	found, err := og.gw.HasSessionOrder(ctx, symbol, tag)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Session order check failed", err, "symbol", symbol, "tag", tag)
		return false, err
	}
	return found, nil
}

func (og *observableGateway) PlaceStopOrder(ctx context.Context, intent types.OrderIntent) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "gateway.PlaceStopOrder")
	defer span.End()

	start := time.Now()
	resp, err := og.gw.PlaceStopOrder(ctx, intent)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Stop order submission failed", err,
			"symbol", intent.Symbol, "side", string(intent.Side), "entry", intent.Entry)
		return types.OrderResp{}, err
	}
	logger.InfoSkip(ctx, 1, "Stop order submitted",
		"symbol", intent.Symbol,
		"side", string(intent.Side),
		"order_id", resp.OrderID,
		"status", resp.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func (og *observableGateway) CancelTagged(ctx context.Context, symbol, tagPrefix string) error {
	ctx, span := trace.StartSpan(ctx, "gateway.CancelTagged")
	defer span.End()

	if err := og.gw.CancelTagged(ctx, symbol, tagPrefix); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Cancel by tag failed", err, "symbol", symbol, "tag_prefix", tagPrefix)
		return err
	}
	return nil
}
