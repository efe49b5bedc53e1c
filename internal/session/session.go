// Package session derives trading-day boundaries and the opening-range window
// in the strategy's reference timezone.
package session

import "time"

// Window bounds one session's observation and trading phase. ID is the
// calendar date encoded as YYYYMMDD, unique per day and order-preserving, and
// is embedded in order tags for idempotency.
type Window struct {
	ID            int
	Start         time.Time
	End           time.Time
	BreakDeadline time.Time
	ExpireAt      time.Time
}

// Calculator computes session windows. Pure: every method is a function of
// its arguments and the fixed configuration, so rollover detection works by
// re-deriving the window each tick and comparing IDs.
type Calculator struct {
	Loc            *time.Location
	WindowMinutes  int
	WaitAfterBreak time.Duration
	// OpenOffset shifts the window start away from midnight (e.g. to the
	// exchange open) when UseOpenOffset is set.
	OpenOffset    time.Duration
	UseOpenOffset bool
}

// DayStart truncates now to midnight in the reference timezone.
func (c *Calculator) DayStart(now time.Time) time.Time {
	n := now.In(c.Loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, c.Loc)
}

// Window returns the session window containing now.
func (c *Calculator) Window(now time.Time) Window {
	day := c.DayStart(now)

	start := day
	if c.UseOpenOffset {
		start = day.Add(c.OpenOffset)
	}
	end := start.Add(time.Duration(c.WindowMinutes) * time.Minute)

	return Window{
		ID:            day.Year()*10000 + int(day.Month())*100 + day.Day(),
		Start:         start,
		End:           end,
		BreakDeadline: end.Add(c.WaitAfterBreak),
		ExpireAt:      time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 0, 0, c.Loc),
	}
}
