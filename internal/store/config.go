package store

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode        string `yaml:"mode"`
	Symbol      string `yaml:"symbol"`
	Exchange    string `yaml:"exchange"`
	PollSeconds int    `yaml:"poll_seconds"`
	Timezone    string `yaml:"timezone"`
	MetricsAddr string `yaml:"metrics_addr"`
	Session     struct {
		WindowMinutes      int    `yaml:"window_minutes"`
		BarIntervalMinutes int    `yaml:"bar_interval_minutes"`
		UseOpenOffset      bool   `yaml:"use_open_offset"`
		OpenTime           string `yaml:"open_time"`
		WaitAfterBreakMin  int    `yaml:"wait_after_break_min"`
	} `yaml:"session"`
	Strategy struct {
		RiskReward     float64 `yaml:"risk_reward"`
		FixedVolume    float64 `yaml:"fixed_volume"`
		BufferPoints   float64 `yaml:"buffer_points"`
		MinRangePoints float64 `yaml:"min_range_points"`
		MaxRangePoints float64 `yaml:"max_range_points"`
	} `yaml:"strategy"`
	Broker struct {
		MinStopPoints float64 `yaml:"min_stop_points"`
		FreezePoints  float64 `yaml:"freeze_points"`
		CandleCount   int     `yaml:"candle_count"`
	} `yaml:"broker"`
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.Symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if c.Session.WindowMinutes <= 0 {
		return fmt.Errorf("session.window_minutes must be positive, got %d", c.Session.WindowMinutes)
	}
	if c.Session.BarIntervalMinutes <= 0 {
		return fmt.Errorf("session.bar_interval_minutes must be positive, got %d", c.Session.BarIntervalMinutes)
	}
	if c.Strategy.RiskReward <= 0 {
		return fmt.Errorf("strategy.risk_reward must be positive, got %.2f", c.Strategy.RiskReward)
	}
	if c.Session.UseOpenOffset {
		if _, err := ParseOpenTime(c.Session.OpenTime); err != nil {
			return fmt.Errorf("session.open_time: %w", err)
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
	}
	return nil
}

// ParseOpenTime converts "HH:MM" to an offset from midnight.
func ParseOpenTime(s string) (time.Duration, error) {
	var hh, mm int
	if _, err := fmt.Sscanf(s, "%d:%d", &hh, &mm); err != nil {
		return 0, fmt.Errorf("expected HH:MM, got '%s'", s)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("out of range: '%s'", s)
	}
	return time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute, nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.PollSeconds == 0 {
		c.PollSeconds = 5
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/London"
	}
	if c.Session.WindowMinutes == 0 {
		c.Session.WindowMinutes = 30
	}
	if c.Session.BarIntervalMinutes == 0 {
		c.Session.BarIntervalMinutes = 5
	}
	if c.Session.WaitAfterBreakMin == 0 {
		c.Session.WaitAfterBreakMin = 120
	}
	if c.Strategy.RiskReward == 0 {
		c.Strategy.RiskReward = 2.0
	}
	if c.Broker.CandleCount == 0 {
		c.Broker.CandleCount = 500
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":9109"
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}
