package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadConfigDefaults(t *testing.T) {
	p := writeConfig(t, `
mode: DRY_RUN
symbol: RELIANCE
strategy:
  risk_reward: 2
`)
	cfg, err := LoadConfig(p)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.PollSeconds != 5 {
		t.Errorf("expected default poll_seconds 5, got %d", cfg.PollSeconds)
	}
	if cfg.Timezone != "Europe/London" {
		t.Errorf("expected default timezone Europe/London, got %s", cfg.Timezone)
	}
	if cfg.Session.WindowMinutes != 30 {
		t.Errorf("expected default window 30, got %d", cfg.Session.WindowMinutes)
	}
	if cfg.Session.BarIntervalMinutes != 5 {
		t.Errorf("expected default bar interval 5, got %d", cfg.Session.BarIntervalMinutes)
	}
	if cfg.Broker.CandleCount != 500 {
		t.Errorf("expected default candle count 500, got %d", cfg.Broker.CandleCount)
	}
}

func TestLoadConfigRejectsBadMode(t *testing.T) {
	p := writeConfig(t, `
mode: PAPER
symbol: RELIANCE
`)
	if _, err := LoadConfig(p); err == nil {
		t.Fatal("expected error for invalid mode")
	}
}

func TestLoadConfigRequiresSymbol(t *testing.T) {
	p := writeConfig(t, `
mode: DRY_RUN
`)
	if _, err := LoadConfig(p); err == nil {
		t.Fatal("expected error for missing symbol")
	}
}

func TestLoadConfigRejectsBadOpenTime(t *testing.T) {
	p := writeConfig(t, `
mode: DRY_RUN
symbol: RELIANCE
session:
  use_open_offset: true
  open_time: "25:99"
`)
	if _, err := LoadConfig(p); err == nil {
		t.Fatal("expected error for out-of-range open_time")
	}
}

func TestParseOpenTime(t *testing.T) {
	d, err := ParseOpenTime("08:30")
	if err != nil {
		t.Fatal(err)
	}
	if d != 8*time.Hour+30*time.Minute {
		t.Errorf("expected 8h30m, got %v", d)
	}

	if _, err := ParseOpenTime("morning"); err == nil {
		t.Error("expected error for non-numeric open_time")
	}
}
