package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"parker-electrical/internal/app"
	"parker-electrical/internal/config"
	"parker-electrical/internal/logging"
	"parker-electrical/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Configuration ----
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.IsDevelopment(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// ---- Wiring ----
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build application", zap.Error(err))
	}
	defer func() { _ = a.Close() }()

	srv, err := server.New(a.Handler, server.Options{
		Addr:            net.JoinHostPort("", cfg.Port),
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Development:     cfg.IsDevelopment(),
		Gatherer:        a.Metrics,
		Logger:          logger,
	})
	if err != nil {
		logger.Fatal("failed to create server", zap.Error(err))
	}

	logger.Info("starting Parker Electrical API",
		zap.String("env", cfg.AppEnv),
		zap.String("provider", cfg.LLMProvider),
	)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
