package engine

import (
	"math"
	"time"

	"orb-trading-bot/internal/orb"
	"orb-trading-bot/internal/types"
)

// DecideParams are the strategy-side inputs to a breakout decision.
type DecideParams struct {
	Symbol       string
	RiskReward   float64
	BufferPoints float64
	FixedVolume  float64
	Tag          string
	ExpireAt     time.Time
}

// Decide checks the quote against the validated range and, on a confirmed
// breakout, derives the full stop-order parameter set. Returns nil while no
// breakout has happened; the caller treats that as "try again next tick".
//
// Deterministic: equal inputs always produce an equal intent. When both
// breakout conditions hold in the same tick the long branch wins, matching
// the evaluation order the strategy has always used.
func Decide(r orb.Range, q types.Quote, inst types.Instrument, p DecideParams) *types.OrderIntent {
	point := inst.PointSize
	stopsGap := inst.MinStopPoints * point
	freezeGap := inst.FreezePoints * point
	pendGap := math.Max(stopsGap, freezeGap)
	tiny := 2 * point
	buf := p.BufferPoints * point

	if q.Ask >= r.High+buf {
		entry := math.Max(r.High+buf, q.Ask+pendGap+tiny)
		sl := r.Low
		if sl > entry-(stopsGap+tiny) {
			sl = entry - (stopsGap + tiny)
		}
		risk := math.Max(entry-sl, stopsGap+tiny)
		tp := entry + math.Max(p.RiskReward*risk, stopsGap+tiny)
		return intent(types.SideLong, entry, sl, tp, inst, p)
	}

	if q.Bid <= r.Low-buf {
		entry := math.Min(r.Low-buf, q.Bid-pendGap-tiny)
		sl := r.High
		if sl < entry+(stopsGap+tiny) {
			sl = entry + (stopsGap + tiny)
		}
		risk := math.Max(sl-entry, stopsGap+tiny)
		tp := entry - math.Max(p.RiskReward*risk, stopsGap+tiny)
		return intent(types.SideShort, entry, sl, tp, inst, p)
	}

	return nil
}

// intent rounds the computed prices to the instrument's display precision.
// Rounding happens exactly once, after all arithmetic, so the stop/target
// relationships are not disturbed by cumulative rounding.
func intent(side types.Side, entry, sl, tp float64, inst types.Instrument, p DecideParams) *types.OrderIntent {
	return &types.OrderIntent{
		Symbol:     p.Symbol,
		Side:       side,
		Entry:      roundPrice(entry, inst.Digits),
		StopLoss:   roundPrice(sl, inst.Digits),
		TakeProfit: roundPrice(tp, inst.Digits),
		Volume:     roundVolume(p.FixedVolume, inst.VolumeStep, inst.VolumeMin, inst.VolumeMax),
		Tag:        p.Tag,
		ExpireAt:   p.ExpireAt,
	}
}

func roundPrice(x float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.Round(x*scale) / scale
}

// roundVolume snaps vol to the instrument's step and clamps it to
// [vmin, vmax]. Non-positive vol falls back to the minimum tradeable size.
func roundVolume(vol, step, vmin, vmax float64) float64 {
	if vol <= 0 {
		vol = vmin
	}
	steps := math.Round(vol / step)
	if steps < 1 {
		steps = 1
	}
	v := math.Round(steps*step*1e8) / 1e8
	if v < vmin {
		v = vmin
	}
	if vmax > 0 && v > vmax {
		v = vmax
	}
	return v
}
