// Package sim is the dry-run venue: synthetic candles and quotes, orders
// accepted in memory. Lets the full loop run without credentials.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"orb-trading-bot/internal/interfaces"
	"orb-trading-bot/internal/types"
)

type Gateway struct {
	mu     sync.Mutex
	orders []types.OrderIntent

	barIntervalMinutes int
	base               float64
}

var _ interfaces.Gateway = (*Gateway)(nil)

func New(barIntervalMinutes int) *Gateway {
	if barIntervalMinutes <= 0 {
		barIntervalMinutes = 5
	}
	return &Gateway{barIntervalMinutes: barIntervalMinutes, base: 1000}
}

func (g *Gateway) Start(ctx context.Context, symbol string) error { return nil }

func (g *Gateway) Stop(ctx context.Context) {}

func (g *Gateway) RecentCandles(ctx context.Context, symbol string, n int) ([]types.Candle, error) {
	cs := make([]types.Candle, 0, n)
	step := int64(g.barIntervalMinutes * 60)
	now := time.Now().Unix()
	now -= now % step

	for i := n; i > 0; i-- {
		c := g.base + (rand.Float64()-0.5)*5
		h := c + rand.Float64()*3
		l := c - rand.Float64()*3
		cs = append(cs, types.Candle{
			Ts:    now - int64(n-i+1)*step,
			Open:  c - 0.5,
			High:  h,
			Low:   l,
			Close: c,
			Vol:   rand.Float64() * 1000,
		})
	}
	return cs, nil
}

func (g *Gateway) Quote(ctx context.Context, symbol string) (types.Quote, error) {
	mid := g.base + (rand.Float64()-0.5)*10
	return types.Quote{Bid: mid - 0.05, Ask: mid + 0.05}, nil
}

// Instrument returns fabricated constraints with non-zero broker distances so
// the clamping paths get exercised in dry runs.
func (g *Gateway) Instrument(ctx context.Context, symbol string) (types.Instrument, error) {
	return types.Instrument{
		PointSize:     0.05,
		Digits:        2,
		MinStopPoints: 10,
		FreezePoints:  5,
		VolumeMin:     1,
		VolumeStep:    1,
		VolumeMax:     10000,
		Tradeable:     true,
	}, nil
}

func (g *Gateway) HasSessionOrder(ctx context.Context, symbol, tag string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, o := range g.orders {
		if o.Symbol == symbol && strings.Contains(o.Tag, tag) {
			return true, nil
		}
	}
	return false, nil
}

func (g *Gateway) PlaceStopOrder(ctx context.Context, intent types.OrderIntent) (types.OrderResp, error) {
	g.mu.Lock()
	g.orders = append(g.orders, intent)
	g.mu.Unlock()
	return types.OrderResp{
		OrderID: fmt.Sprintf("SIM-%d", time.Now().UnixNano()),
		Status:  "SIMULATED",
		Message: "dry-run",
	}, nil
}

func (g *Gateway) CancelTagged(ctx context.Context, symbol, tagPrefix string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	kept := g.orders[:0]
	for _, o := range g.orders {
		if o.Symbol == symbol && strings.HasPrefix(o.Tag, tagPrefix) {
			continue
		}
		kept = append(kept, o)
	}
	g.orders = kept
	return nil
}
