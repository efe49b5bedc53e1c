package main

import (
	"context"
	"fmt"
	"os"

	"orb-trading-bot/internal/broker/brokerobs"
	"orb-trading-bot/internal/broker/sim"
	"orb-trading-bot/internal/broker/zerodha"
	"orb-trading-bot/internal/engine"
	"orb-trading-bot/internal/engine/engineobs"
	"orb-trading-bot/internal/interfaces"
	"orb-trading-bot/internal/logger"
	"orb-trading-bot/internal/metrics"
	"orb-trading-bot/internal/store"
	"orb-trading-bot/internal/trace"
	"orb-trading-bot/internal/tradelog"

	"github.com/joho/godotenv"
)

// initializeSystem initializes env, logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func loadConfig(ctx context.Context) (*store.Config, error) {
	path := os.Getenv("BOT_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs compresses old tradelog files if retention is configured
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("TRADER_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

func startMetrics(ctx context.Context, cfg *store.Config) {
	go func() {
		if err := metrics.Serve(cfg.MetricsAddr); err != nil {
			logger.Warn(ctx, "Metrics server stopped", "error", err, "addr", cfg.MetricsAddr)
		}
	}()
}

// initializeGateway picks the venue adapter by mode and wraps it with
// observability middleware.
func initializeGateway(ctx context.Context, cfg *store.Config) interfaces.Gateway {
	var gw interfaces.Gateway

	if cfg.Mode == "DRY_RUN" {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
		gw = sim.New(cfg.Session.BarIntervalMinutes)
	} else {
		gw = zerodha.New(zerodha.Params{
			APIKey:             os.Getenv("KITE_API_KEY"),
			AccessToken:        os.Getenv("KITE_ACCESS_TOKEN"),
			Exchange:           cfg.Exchange,
			MinStopPoints:      cfg.Broker.MinStopPoints,
			FreezePoints:       cfg.Broker.FreezePoints,
			BarIntervalMinutes: cfg.Session.BarIntervalMinutes,
		})
	}

	return brokerobs.Wrap(gw)
}

// initializeEngine builds the session controller and wraps it with
// observability middleware.
func initializeEngine(cfg *store.Config, gw interfaces.Gateway) (interfaces.Engine, error) {
	ctrl, err := engine.New(cfg, gw)
	if err != nil {
		return nil, err
	}
	return engineobs.Wrap(ctrl), nil
}
