package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"orb-trading-bot/internal/store"
	"orb-trading-bot/internal/types"
)

type fakeGateway struct {
	candles    []types.Candle
	candlesErr error
	quote      types.Quote
	quoteErr   error
	inst       types.Instrument
	traded     bool

	placed     []types.OrderIntent
	placeErr   error
	cancelled  []string
	quoteCalls int
}

func (f *fakeGateway) Start(ctx context.Context, symbol string) error { return nil }
func (f *fakeGateway) Stop(ctx context.Context)                       {}

func (f *fakeGateway) RecentCandles(ctx context.Context, symbol string, n int) ([]types.Candle, error) {
	return f.candles, f.candlesErr
}

func (f *fakeGateway) Quote(ctx context.Context, symbol string) (types.Quote, error) {
	f.quoteCalls++
	return f.quote, f.quoteErr
}

func (f *fakeGateway) Instrument(ctx context.Context, symbol string) (types.Instrument, error) {
	return f.inst, nil
}

func (f *fakeGateway) HasSessionOrder(ctx context.Context, symbol, tag string) (bool, error) {
	return f.traded, nil
}

func (f *fakeGateway) PlaceStopOrder(ctx context.Context, intent types.OrderIntent) (types.OrderResp, error) {
	if f.placeErr != nil {
		return types.OrderResp{}, f.placeErr
	}
	f.placed = append(f.placed, intent)
	return types.OrderResp{OrderID: "F-1", Status: "PLACED"}, nil
}

func (f *fakeGateway) CancelTagged(ctx context.Context, symbol, tagPrefix string) error {
	f.cancelled = append(f.cancelled, tagPrefix)
	return nil
}

func testConfig() *store.Config {
	cfg := &store.Config{
		Mode:        "DRY_RUN",
		Symbol:      "RELIANCE",
		Timezone:    "UTC",
		PollSeconds: 5,
	}
	cfg.Session.WindowMinutes = 30
	cfg.Session.BarIntervalMinutes = 5
	cfg.Session.WaitAfterBreakMin = 60
	cfg.Strategy.RiskReward = 2
	cfg.Strategy.FixedVolume = 1
	cfg.Strategy.MinRangePoints = 2
	cfg.Strategy.MaxRangePoints = 1000
	cfg.Broker.CandleCount = 500
	return cfg
}

var day = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

// sessionCandles fills the warmup quota with bars from the previous day and
// puts six in-window bars producing high 110 / low 100.
func sessionCandles() []types.Candle {
	cs := make([]types.Candle, 0, 30)
	for i := 24; i > 0; i-- {
		t := day.Add(-time.Duration(i) * 5 * time.Minute)
		cs = append(cs, types.Candle{Ts: t.Unix(), High: 106, Low: 104})
	}
	highs := []float64{105, 110, 108, 107, 106, 109}
	lows := []float64{101, 103, 100, 102, 104, 105}
	for i := 0; i < 6; i++ {
		t := day.Add(time.Duration(i) * 5 * time.Minute)
		cs = append(cs, types.Candle{Ts: t.Unix(), High: highs[i], Low: lows[i]})
	}
	return cs
}

func newController(t *testing.T, cfg *store.Config, gw *fakeGateway) *Controller {
	t.Helper()
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	c, err := New(cfg, gw)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func at(c *Controller, ts time.Time) {
	c.now = func() time.Time { return ts }
}

func TestControllerPlacesBreakoutOrder(t *testing.T) {
	gw := &fakeGateway{
		candles: sessionCandles(),
		quote:   types.Quote{Bid: 111.9, Ask: 112},
		inst:    types.Instrument{PointSize: 1, Digits: 2, VolumeMin: 1, VolumeStep: 1, VolumeMax: 100, Tradeable: true},
	}
	c := newController(t, testConfig(), gw)
	ctx := context.Background()

	at(c, day.Add(10*time.Minute))
	res, err := c.Tick(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.State != "BUILDING_RANGE" {
		t.Fatalf("expected BUILDING_RANGE inside window, got %s", res.State)
	}

	at(c, day.Add(35*time.Minute))
	res, err = c.Tick(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Placed == nil {
		t.Fatalf("expected an order, got state=%s note=%s", res.State, res.Note)
	}
	if res.State != "DONE" {
		t.Errorf("expected DONE after placement, got %s", res.State)
	}
	if len(gw.placed) != 1 {
		t.Fatalf("expected exactly one submission, got %d", len(gw.placed))
	}

	in := gw.placed[0]
	if in.Side != types.SideLong {
		t.Errorf("expected LONG, got %s", in.Side)
	}
	if in.Entry != 114 || in.StopLoss != 100 || in.TakeProfit != 142 {
		t.Errorf("unexpected levels: entry=%v sl=%v tp=%v", in.Entry, in.StopLoss, in.TakeProfit)
	}
	if in.Tag != "ORB20260901" {
		t.Errorf("expected tag ORB20260901, got %s", in.Tag)
	}
	if !in.ExpireAt.Equal(time.Date(2026, 9, 1, 23, 59, 0, 0, time.UTC)) {
		t.Errorf("expected 23:59 expiry, got %v", in.ExpireAt)
	}

	// Further ticks the same day do nothing.
	at(c, day.Add(40*time.Minute))
	res, err = c.Tick(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.State != "DONE" || len(gw.placed) != 1 {
		t.Errorf("expected session to stay done, got state=%s placed=%d", res.State, len(gw.placed))
	}
}

func TestControllerRejectsInsaneRange(t *testing.T) {
	cfg := testConfig()
	cfg.Strategy.MaxRangePoints = 5 // session range is 10 points wide
	gw := &fakeGateway{
		candles: sessionCandles(),
		quote:   types.Quote{Bid: 111.9, Ask: 112},
		inst:    types.Instrument{PointSize: 1, Digits: 2, VolumeMin: 1, VolumeStep: 1, Tradeable: true},
	}
	c := newController(t, cfg, gw)
	ctx := context.Background()

	at(c, day.Add(35*time.Minute))
	res, err := c.Tick(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.State != "DONE" {
		t.Fatalf("expected DONE on insane range, got %s", res.State)
	}
	if len(gw.placed) != 0 {
		t.Errorf("no order may be placed on an insane range")
	}
	if gw.quoteCalls != 0 {
		t.Errorf("quote must not be consulted once the range is rejected")
	}

	at(c, day.Add(40*time.Minute))
	if res, _ := c.Tick(ctx); res.State != "DONE" {
		t.Errorf("rejection is terminal for the session, got %s", res.State)
	}
}

func TestControllerTimesOutWithoutBreak(t *testing.T) {
	gw := &fakeGateway{
		candles: sessionCandles(),
		quote:   types.Quote{Bid: 104.9, Ask: 105}, // stays inside the range
		inst:    types.Instrument{PointSize: 1, Digits: 2, VolumeMin: 1, VolumeStep: 1, Tradeable: true},
	}
	c := newController(t, testConfig(), gw)
	ctx := context.Background()

	at(c, day.Add(35*time.Minute))
	res, err := c.Tick(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.State != "RANGE_READY" {
		t.Fatalf("expected RANGE_READY while waiting for a break, got %s", res.State)
	}

	// Deadline is orb_end + 60m = 01:30; one second past it.
	at(c, day.Add(90*time.Minute).Add(time.Second))
	res, err = c.Tick(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.State != "DONE" {
		t.Fatalf("expected DONE after break deadline, got %s", res.State)
	}
	if len(gw.placed) != 0 {
		t.Errorf("expected no order after timeout, got %d", len(gw.placed))
	}
}

func TestControllerDayRollover(t *testing.T) {
	gw := &fakeGateway{
		candles: sessionCandles(),
		quote:   types.Quote{Bid: 111.9, Ask: 112},
		inst:    types.Instrument{PointSize: 1, Digits: 2, VolumeMin: 1, VolumeStep: 1, Tradeable: true},
	}
	c := newController(t, testConfig(), gw)
	ctx := context.Background()

	at(c, day.Add(35*time.Minute))
	if _, err := c.Tick(ctx); err != nil {
		t.Fatal(err)
	}
	if c.state != StateDone {
		t.Fatalf("expected first session done, got %v", c.state)
	}

	at(c, day.Add(24*time.Hour).Add(10*time.Minute))
	res, err := c.Tick(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.SessionID != 20260902 {
		t.Errorf("expected new session id 20260902, got %d", res.SessionID)
	}
	if res.State == "DONE" {
		t.Error("done flag must reset on rollover")
	}
	found := false
	for _, tag := range gw.cancelled {
		if strings.Contains(tag, "20260901") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected previous session's orders cancelled, cancelled=%v", gw.cancelled)
	}
}

func TestControllerVenueIdempotencyGuard(t *testing.T) {
	gw := &fakeGateway{
		candles: sessionCandles(),
		quote:   types.Quote{Bid: 111.9, Ask: 112},
		inst:    types.Instrument{PointSize: 1, Digits: 2, VolumeMin: 1, VolumeStep: 1, Tradeable: true},
		traded:  true,
	}
	c := newController(t, testConfig(), gw)
	ctx := context.Background()

	at(c, day.Add(35*time.Minute))
	res, err := c.Tick(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.State != "DONE" {
		t.Fatalf("expected immediate DONE when venue shows a session order, got %s", res.State)
	}
	if len(gw.placed) != 0 {
		t.Error("must not place a second order for an already-traded session")
	}
}

func TestControllerSurvivesTransientErrors(t *testing.T) {
	gw := &fakeGateway{
		candles: sessionCandles(),
		quote:   types.Quote{Bid: 104.9, Ask: 105},
		inst:    types.Instrument{PointSize: 1, Digits: 2, VolumeMin: 1, VolumeStep: 1, Tradeable: true},
	}
	c := newController(t, testConfig(), gw)
	ctx := context.Background()

	at(c, day.Add(35*time.Minute))
	if _, err := c.Tick(ctx); err != nil {
		t.Fatal(err)
	}
	sessionBefore := c.lastSessionID
	rangeBefore := *c.rng

	gw.candlesErr = errors.New("feed hiccup")
	at(c, day.Add(36*time.Minute))
	if _, err := c.Tick(ctx); err == nil {
		t.Fatal("expected the tick to surface the fetch error")
	}
	if c.lastSessionID != sessionBefore {
		t.Error("a failed tick must not lose the session id")
	}
	if c.rng == nil || *c.rng != rangeBefore {
		t.Error("a failed tick must not lose the cached range")
	}

	gw.candlesErr = nil
	at(c, day.Add(37*time.Minute))
	res, err := c.Tick(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.State != "RANGE_READY" {
		t.Errorf("expected recovery to RANGE_READY, got %s", res.State)
	}
}

func TestControllerRejectedOrderRetries(t *testing.T) {
	gw := &fakeGateway{
		candles:  sessionCandles(),
		quote:    types.Quote{Bid: 111.9, Ask: 112},
		inst:     types.Instrument{PointSize: 1, Digits: 2, VolumeMin: 1, VolumeStep: 1, Tradeable: true},
		placeErr: errors.New("rejected: market closed"),
	}
	c := newController(t, testConfig(), gw)
	ctx := context.Background()

	at(c, day.Add(35*time.Minute))
	res, err := c.Tick(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.State == "DONE" {
		t.Fatal("a rejected order must not finish the session")
	}

	gw.placeErr = nil
	at(c, day.Add(36*time.Minute))
	res, err = c.Tick(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Placed == nil {
		t.Fatalf("expected retry to place the order, got state=%s note=%s", res.State, res.Note)
	}
}
