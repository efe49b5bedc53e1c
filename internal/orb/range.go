// Package orb reduces a bar series to the opening-range high/low and checks
// it against configured sanity bounds.
package orb

import (
	"time"

	"orb-trading-bot/internal/session"
	"orb-trading-bot/internal/types"
)

// Range is the opening-range high/low. Valid ranges always have High > Low;
// builders return ok=false instead of a degenerate range.
type Range struct {
	High, Low float64
	Bars      int
}

// Width returns the range size in points.
func (r Range) Width(pointSize float64) float64 {
	return (r.High - r.Low) / pointSize
}

// Sane rejects ranges narrower than minPoints or wider than maxPoints.
// A non-positive bound disables that side of the check.
func (r Range) Sane(pointSize, minPoints, maxPoints float64) bool {
	pts := r.Width(pointSize)
	if minPoints > 0 && pts < minPoints {
		return false
	}
	if maxPoints > 0 && pts > maxPoints {
		return false
	}
	return true
}

// minBars is the qualifying-bar floor: enough bars to cover the window at the
// configured interval, never fewer than two.
func minBars(windowMinutes, barIntervalMinutes int) int {
	need := windowMinutes / barIntervalMinutes
	if need < 2 {
		need = 2
	}
	return need
}

// Build filters candles to those inside [w.Start, w.End) in the window's
// timezone and reduces them to max(high)/min(low). Returns ok=false when too
// few bars qualify or the reduction is degenerate. Safe to call repeatedly
// while the window is still filling.
func Build(candles []types.Candle, w session.Window, barIntervalMinutes int, loc *time.Location) (Range, bool) {
	var hi, lo float64
	n := 0
	for _, c := range candles {
		t := time.Unix(c.Ts, 0).In(loc)
		if t.Before(w.Start) || !t.Before(w.End) {
			continue
		}
		if n == 0 || c.High > hi {
			hi = c.High
		}
		if n == 0 || c.Low < lo {
			lo = c.Low
		}
		n++
	}

	windowMinutes := int(w.End.Sub(w.Start) / time.Minute)
	if n < minBars(windowMinutes, barIntervalMinutes) {
		return Range{}, false
	}
	if hi <= lo {
		return Range{}, false
	}
	return Range{High: hi, Low: lo, Bars: n}, true
}
