// Package zerodha adapts the Kite Connect REST API to the venue Gateway.
package zerodha

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"orb-trading-bot/internal/interfaces"
	"orb-trading-bot/internal/types"
)

type Params struct {
	APIKey      string
	AccessToken string
	Exchange    string
	// Kite publishes no per-instrument stop/freeze distances; these come
	// from config and are merged into the Instrument we hand out.
	MinStopPoints      float64
	FreezePoints       float64
	BarIntervalMinutes int
}

type Zerodha struct {
	p  Params
	kc *kiteconnect.Client

	token int
	inst  types.Instrument
}

var _ interfaces.Gateway = (*Zerodha)(nil)

func New(p Params) *Zerodha {
	if p.BarIntervalMinutes <= 0 {
		p.BarIntervalMinutes = 5
	}
	return &Zerodha{p: p}
}

// Start connects, resolves the instrument token and caches the static
// constraints. Any failure here is fatal for the process.
func (z *Zerodha) Start(ctx context.Context, symbol string) error {
	if z.p.APIKey == "" || z.p.AccessToken == "" {
		return errors.New("missing API key/access token")
	}
	z.kc = kiteconnect.New(z.p.APIKey)
	z.kc.SetAccessToken(z.p.AccessToken)

	instruments, err := z.kc.GetInstrumentsByExchange(z.p.Exchange)
	if err != nil {
		return fmt.Errorf("fetch instrument dump: %w", err)
	}
	for _, in := range instruments {
		if in.Tradingsymbol != symbol {
			continue
		}
		z.token = in.InstrumentToken
		z.inst = types.Instrument{
			PointSize:     in.TickSize,
			Digits:        digitsForTick(in.TickSize),
			MinStopPoints: z.p.MinStopPoints,
			FreezePoints:  z.p.FreezePoints,
			VolumeMin:     in.LotSize,
			VolumeStep:    in.LotSize,
			Tradeable:     true,
		}
		return nil
	}
	return fmt.Errorf("symbol %s not found on %s", symbol, z.p.Exchange)
}

func (z *Zerodha) Stop(ctx context.Context) {}

func (z *Zerodha) RecentCandles(ctx context.Context, symbol string, n int) ([]types.Candle, error) {
	interval := fmt.Sprintf("%dminute", z.p.BarIntervalMinutes)
	if z.p.BarIntervalMinutes == 1 {
		interval = "minute"
	}
	to := time.Now()
	from := to.Add(-time.Duration(n*z.p.BarIntervalMinutes) * time.Minute)

	data, err := z.kc.GetHistoricalData(z.token, interval, from, to, false, false)
	if err != nil {
		return nil, fmt.Errorf("historical data: %w", err)
	}

	cs := make([]types.Candle, 0, len(data))
	for _, d := range data {
		cs = append(cs, types.Candle{
			Ts:    d.Date.Unix(),
			Open:  d.Open,
			High:  d.High,
			Low:   d.Low,
			Close: d.Close,
			Vol:   float64(d.Volume),
		})
	}
	return cs, nil
}

func (z *Zerodha) Quote(ctx context.Context, symbol string) (types.Quote, error) {
	id := z.p.Exchange + ":" + symbol
	quotes, err := z.kc.GetQuote(id)
	if err != nil {
		return types.Quote{}, fmt.Errorf("quote: %w", err)
	}
	q, ok := quotes[id]
	if !ok {
		return types.Quote{}, fmt.Errorf("no quote for %s", id)
	}

	out := types.Quote{Bid: q.LastPrice, Ask: q.LastPrice}
	if len(q.Depth.Buy) > 0 && q.Depth.Buy[0].Price > 0 {
		out.Bid = q.Depth.Buy[0].Price
	}
	if len(q.Depth.Sell) > 0 && q.Depth.Sell[0].Price > 0 {
		out.Ask = q.Depth.Sell[0].Price
	}
	return out, nil
}

func (z *Zerodha) Instrument(ctx context.Context, symbol string) (types.Instrument, error) {
	if z.token == 0 {
		return types.Instrument{}, errors.New("gateway not started")
	}
	return z.inst, nil
}

// HasSessionOrder checks open orders for the session tag, and falls back to
// positions and today's trades on the symbol. Positions and trades carry no
// tags on Kite, so any of them on our symbol counts as already traded.
func (z *Zerodha) HasSessionOrder(ctx context.Context, symbol, tag string) (bool, error) {
	orders, err := z.kc.GetOrders()
	if err != nil {
		return false, fmt.Errorf("orders: %w", err)
	}
	for _, o := range orders {
		if o.TradingSymbol == symbol && strings.Contains(o.Tag, tag) {
			return true, nil
		}
	}

	positions, err := z.kc.GetPositions()
	if err != nil {
		return false, fmt.Errorf("positions: %w", err)
	}
	for _, p := range positions.Net {
		if p.Tradingsymbol == symbol && p.Quantity != 0 {
			return true, nil
		}
	}

	trades, err := z.kc.GetTrades()
	if err != nil {
		return false, fmt.Errorf("trades: %w", err)
	}
	for _, t := range trades {
		if t.TradingSymbol == symbol {
			return true, nil
		}
	}
	return false, nil
}

// PlaceStopOrder submits the entry as a day-validity SL order with the
// session tag. Stoploss/Squareoff carry the protective levels; Kite attaches
// them only on supported varieties, so they are also journaled upstream.
func (z *Zerodha) PlaceStopOrder(ctx context.Context, intent types.OrderIntent) (types.OrderResp, error) {
	side := kiteconnect.TransactionTypeBuy
	if intent.Side == types.SideShort {
		side = kiteconnect.TransactionTypeSell
	}

	resp, err := z.kc.PlaceOrder(kiteconnect.VarietyRegular, kiteconnect.OrderParams{
		Exchange:        z.p.Exchange,
		Tradingsymbol:   intent.Symbol,
		Validity:        kiteconnect.ValidityDay,
		Product:         kiteconnect.ProductMIS,
		OrderType:       kiteconnect.OrderTypeSL,
		TransactionType: side,
		Quantity:        int(intent.Volume),
		Price:           intent.Entry,
		TriggerPrice:    intent.Entry,
		Squareoff:       intent.TakeProfit,
		Stoploss:        intent.StopLoss,
		Tag:             intent.Tag,
	})
	if err != nil {
		return types.OrderResp{}, err
	}
	return types.OrderResp{OrderID: resp.OrderID, Status: "PLACED", Message: "ok"}, nil
}

func (z *Zerodha) CancelTagged(ctx context.Context, symbol, tagPrefix string) error {
	orders, err := z.kc.GetOrders()
	if err != nil {
		return fmt.Errorf("orders: %w", err)
	}
	for _, o := range orders {
		if o.TradingSymbol != symbol || !strings.HasPrefix(o.Tag, tagPrefix) {
			continue
		}
		if !isOpenStatus(o.Status) {
			continue
		}
		if _, err := z.kc.CancelOrder(o.Variety, o.OrderID, nil); err != nil {
			return fmt.Errorf("cancel %s: %w", o.OrderID, err)
		}
	}
	return nil
}

func isOpenStatus(status string) bool {
	switch status {
	case "OPEN", "TRIGGER PENDING", "AMO REQ RECEIVED":
		return true
	}
	return false
}

func digitsForTick(tick float64) int {
	if tick <= 0 {
		return 2
	}
	d := 0
	for tick < 1 && d < 8 {
		tick *= 10
		d++
	}
	if math.Abs(tick-math.Round(tick)) > 1e-9 {
		d++
	}
	return d
}
