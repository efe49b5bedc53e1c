package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"orb-trading-bot/internal/interfaces"
	"orb-trading-bot/internal/logger"
	"orb-trading-bot/internal/metrics"
	"orb-trading-bot/internal/orb"
	"orb-trading-bot/internal/session"
	"orb-trading-bot/internal/store"
	"orb-trading-bot/internal/tradelog"
	"orb-trading-bot/internal/types"
)

// State of the current session, advanced once per tick.
type State int

const (
	StateAwaitingSession State = iota
	StateBuildingRange
	StateRangeReady
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitingSession:
		return "AWAITING_SESSION"
	case StateBuildingRange:
		return "BUILDING_RANGE"
	case StateRangeReady:
		return "RANGE_READY"
	case StateDone:
		return "DONE"
	}
	return "UNKNOWN"
}

// minWarmupCandles is the overall feed-health floor, independent of how many
// bars fall inside the window.
const minWarmupCandles = 20

// Controller drives the strategy: one Tick per poll interval, at most one
// order per session. All mutable state lives here and is touched only by the
// single loop goroutine.
type Controller struct {
	cfg *store.Config
	gw  interfaces.Gateway
	cal *session.Calculator
	lim *logger.Limiter
	loc *time.Location

	now func() time.Time

	state         State
	lastSessionID int
	rng           *orb.Range
}

var _ interfaces.Engine = (*Controller)(nil)

func New(cfg *store.Config, gw interfaces.Gateway) (*Controller, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	cal := &session.Calculator{
		Loc:            loc,
		WindowMinutes:  cfg.Session.WindowMinutes,
		WaitAfterBreak: time.Duration(cfg.Session.WaitAfterBreakMin) * time.Minute,
		UseOpenOffset:  cfg.Session.UseOpenOffset,
	}
	if cfg.Session.UseOpenOffset {
		off, err := store.ParseOpenTime(cfg.Session.OpenTime)
		if err != nil {
			return nil, err
		}
		cal.OpenOffset = off
	}

	return &Controller{
		cfg:   cfg,
		gw:    gw,
		cal:   cal,
		lim:   logger.NewLimiter(),
		loc:   loc,
		now:   time.Now,
		state: StateAwaitingSession,
	}, nil
}

func sessionTag(id int) string {
	return fmt.Sprintf("ORB%d", id)
}

// Tick runs one pass of the state machine. Errors are transient: the caller
// logs, backs off and calls again; session state survives a failed tick.
func (c *Controller) Tick(ctx context.Context) (*types.TickResult, error) {
	now := c.now().In(c.loc)
	w := c.cal.Window(now)
	tag := sessionTag(w.ID)
	metrics.IncTick()

	if c.lastSessionID != w.ID {
		c.rollover(ctx, w)
	}

	res := &types.TickResult{SessionID: w.ID, State: c.state.String()}

	if c.state == StateDone {
		res.Note = "session done"
		return res, nil
	}

	// Authoritative guard: the venue's own records decide whether this
	// session already traded, so a restart cannot re-enter it.
	traded, err := c.gw.HasSessionOrder(ctx, c.cfg.Symbol, tag)
	if err != nil {
		return nil, fmt.Errorf("session order check: %w", err)
	}
	if traded {
		logger.Info(ctx, "Session already traded on venue, standing down", "session_id", w.ID)
		c.finish(res, "already traded")
		metrics.IncSkip("already_traded")
		return res, nil
	}

	candles, err := c.gw.RecentCandles(ctx, c.cfg.Symbol, c.cfg.Broker.CandleCount)
	if err != nil {
		return nil, fmt.Errorf("fetch candles: %w", err)
	}
	if len(candles) < minWarmupCandles {
		res.Note = "feed warming up"
		c.lim.Log(ctx, slog.LevelInfo, "warmup", "Waiting for candle history", 60*time.Second,
			"have", len(candles), "need", minWarmupCandles)
		return res, nil
	}

	if now.Before(w.End) {
		c.state = StateBuildingRange
		res.State = c.state.String()
		c.buildRange(ctx, candles, w)
		res.Note = "building range"
		return res, nil
	}

	// Window closed; freeze the range, computing it once more if the close
	// happened between ticks.
	if c.rng == nil {
		c.buildRange(ctx, candles, w)
		if c.rng == nil {
			res.Note = "no valid range"
			c.lim.Log(ctx, slog.LevelInfo, "no_range", "No valid opening range computed, waiting", 60*time.Second)
			return res, nil
		}
	}

	inst, err := c.gw.Instrument(ctx, c.cfg.Symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch instrument: %w", err)
	}

	if !c.rng.Sane(inst.PointSize, c.cfg.Strategy.MinRangePoints, c.cfg.Strategy.MaxRangePoints) {
		logger.Info(ctx, "Range outside sanity limits, skipping today",
			"session_id", w.ID,
			"width_points", c.rng.Width(inst.PointSize),
			"min_points", c.cfg.Strategy.MinRangePoints,
			"max_points", c.cfg.Strategy.MaxRangePoints,
		)
		c.finish(res, "range rejected")
		metrics.IncSkip("range_insane")
		return res, nil
	}

	c.state = StateRangeReady
	res.State = c.state.String()

	if now.After(w.BreakDeadline) {
		logger.Info(ctx, "Post-break window timed out, skipping today", "session_id", w.ID)
		c.finish(res, "break deadline passed")
		metrics.IncSkip("break_timeout")
		return res, nil
	}

	quote, err := c.gw.Quote(ctx, c.cfg.Symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch quote: %w", err)
	}

	in := Decide(*c.rng, quote, inst, DecideParams{
		Symbol:       c.cfg.Symbol,
		RiskReward:   c.cfg.Strategy.RiskReward,
		BufferPoints: c.cfg.Strategy.BufferPoints,
		FixedVolume:  c.cfg.Strategy.FixedVolume,
		Tag:          tag,
		ExpireAt:     w.ExpireAt,
	})
	if in == nil {
		res.Note = "no break yet"
		c.lim.Log(ctx, slog.LevelInfo, "placement",
			"No break yet; inside range or blocked by broker distances", 60*time.Second,
			"bid", quote.Bid, "ask", quote.Ask, "high", c.rng.High, "low", c.rng.Low)
		return res, nil
	}

	resp, err := c.gw.PlaceStopOrder(ctx, *in)
	if err != nil {
		// Rejection is not terminal for the session; retry next tick.
		metrics.IncOrderFailed()
		c.lim.Log(ctx, slog.LevelWarn, "order_error",
			fmt.Sprintf("Stop order not placed: %v", err), 60*time.Second,
			"side", string(in.Side), "entry", in.Entry)
		res.Note = "order rejected"
		return res, nil
	}

	logger.Info(ctx, "Stop order placed",
		"session_id", w.ID,
		"side", string(in.Side),
		"order_id", resp.OrderID,
		"entry", in.Entry,
		"stop_loss", in.StopLoss,
		"take_profit", in.TakeProfit,
		"volume", in.Volume,
	)
	_ = tradelog.Append(tradelog.Entry{
		Symbol:     in.Symbol,
		Side:       string(in.Side),
		Entry:      in.Entry,
		StopLoss:   in.StopLoss,
		TakeProfit: in.TakeProfit,
		Volume:     in.Volume,
		OrderID:    resp.OrderID,
		Tag:        in.Tag,
	})
	metrics.IncOrderPlaced(string(in.Side))

	c.finish(res, "order placed")
	res.Placed = &resp
	return res, nil
}

// rollover starts tracking a new session and clears the old one, cancelling
// any resting orders still tagged with the superseded session id.
func (c *Controller) rollover(ctx context.Context, w session.Window) {
	if c.lastSessionID != 0 {
		if err := c.gw.CancelTagged(ctx, c.cfg.Symbol, sessionTag(c.lastSessionID)); err != nil {
			logger.Warn(ctx, "Failed to cancel orders from previous session",
				"session_id", c.lastSessionID, "error", err)
		}
	}
	logger.Info(ctx, "=== New session ===",
		"session_id", w.ID,
		"orb_start", w.Start.Format("15:04 MST"),
		"orb_end", w.End.Format("15:04 MST"),
		"expire_at", w.ExpireAt.Format("15:04 MST"),
	)
	c.lastSessionID = w.ID
	c.state = StateBuildingRange
	c.rng = nil
	metrics.ResetRange()
}

func (c *Controller) finish(res *types.TickResult, note string) {
	c.state = StateDone
	res.State = c.state.String()
	res.Note = note
}

func (c *Controller) buildRange(ctx context.Context, candles []types.Candle, w session.Window) {
	r, ok := orb.Build(candles, w, c.cfg.Session.BarIntervalMinutes, c.loc)
	if !ok {
		c.rng = nil
		c.lim.Log(ctx, slog.LevelInfo, "waiting_orb",
			"Waiting for opening-range bars", 120*time.Second,
			"orb_start", w.Start.Format("15:04"), "orb_end", w.End.Format("15:04"))
		return
	}
	c.rng = &r
	metrics.SetRange(r.High, r.Low)
	c.lim.Log(ctx, slog.LevelInfo, "building_orb",
		fmt.Sprintf("Building range hi=%.2f lo=%.2f", r.High, r.Low), 120*time.Second,
		"bars", r.Bars)
}
