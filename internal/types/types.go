package types

import "time"

// Candle is one OHLC bar as delivered by the venue. Ts is epoch seconds in
// venue time; callers convert to the reference timezone themselves.
type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

// Quote is a best bid/ask snapshot taken once per tick.
type Quote struct {
	Bid, Ask float64
}

// Instrument carries the venue constraints the decision engine must respect.
// Distance fields are in points (multiples of PointSize).
type Instrument struct {
	PointSize     float64
	Digits        int
	MinStopPoints float64
	FreezePoints  float64
	VolumeMin     float64
	VolumeStep    float64
	VolumeMax     float64
	Tradeable     bool
}

// Side of a prospective stop order.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// OrderIntent is the fully computed stop-order parameter set. Built fresh by
// the decision engine each tick, never mutated; either submitted or dropped.
type OrderIntent struct {
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	Entry      float64   `json:"entry"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	Volume     float64   `json:"volume"`
	Tag        string    `json:"tag"`
	ExpireAt   time.Time `json:"expire_at"`
}

type OrderResp struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TickResult summarizes one controller pass for logging and tests.
type TickResult struct {
	SessionID int        `json:"session_id"`
	State     string     `json:"state"`
	Note      string     `json:"note,omitempty"`
	Placed    *OrderResp `json:"placed,omitempty"`
}
