package logger

import (
	"context"
	"log/slog"
	"time"
)

// Limiter suppresses repeated log lines: a message for a given key is emitted
// when its text differs from the last one emitted under that key, or when the
// per-call interval has elapsed since. Owned by a single goroutine, so no
// locking.
type Limiter struct {
	lastMsg  map[string]string
	lastTime map[string]time.Time
	now      func() time.Time
}

func NewLimiter() *Limiter {
	return &Limiter{
		lastMsg:  map[string]string{},
		lastTime: map[string]time.Time{},
		now:      time.Now,
	}
}

// NewLimiterAt uses the supplied clock. Tests inject a fake one.
func NewLimiterAt(now func() time.Time) *Limiter {
	l := NewLimiter()
	l.now = now
	return l
}

// Allow records and reports whether a message under key may be emitted now.
func (l *Limiter) Allow(key, msg string, minInterval time.Duration) bool {
	now := l.now()
	if msg == l.lastMsg[key] && now.Sub(l.lastTime[key]) < minInterval {
		return false
	}
	l.lastMsg[key] = msg
	l.lastTime[key] = now
	return true
}

// Log emits msg at level under key, subject to the suppression rule.
func (l *Limiter) Log(ctx context.Context, level slog.Level, key, msg string, minInterval time.Duration, args ...any) {
	if !l.Allow(key, msg, minInterval) {
		return
	}
	logWithTrace(ctx, level, msg, 3, args...)
}
