package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orb-trading-bot/internal/engine"
	"orb-trading-bot/internal/logger"
	"orb-trading-bot/internal/trace"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := initializeSystem(); err != nil {
		os.Exit(1)
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		os.Exit(1)
	}

	compressOldLogs(ctx)
	startMetrics(ctx, cfg)

	gw := initializeGateway(ctx, cfg)
	if err := gw.Start(ctx, cfg.Symbol); err != nil {
		logger.ErrorWithErr(ctx, "Venue connection failed", err, "symbol", cfg.Symbol)
		os.Exit(1)
	}
	defer gw.Stop(ctx)

	eng, err := initializeEngine(cfg, gw)
	if err != nil {
		logger.ErrorWithErr(ctx, "Engine init failed", err)
		os.Exit(1)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		logger.Info(ctx, "Shutting down...")
		cancel()
	}()

	logger.Info(ctx, "Bot started",
		"symbol", cfg.Symbol,
		"mode", cfg.Mode,
		"window_minutes", cfg.Session.WindowMinutes,
		"risk_reward", cfg.Strategy.RiskReward,
		"volume", cfg.Strategy.FixedVolume,
	)

	err = engine.RunLoop(ctx,
		eng,
		time.Duration(cfg.PollSeconds)*time.Second,
		3*time.Second,
	)
	if err != nil && err != context.Canceled {
		logger.ErrorWithErr(ctx, "Run loop exited", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = trace.Shutdown(shutdownCtx)
}
