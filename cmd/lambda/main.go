package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"parker-electrical/internal/app"
	"parker-electrical/internal/config"
	"parker-electrical/internal/logging"
)

func main() {
	ctx := context.Background()

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

	lambda.Start(a.Handler.Handle)
}
