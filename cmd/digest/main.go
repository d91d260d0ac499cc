// Package main runs one expiry digest pass and prints the result as JSON.
// It exits non-zero when the pass failed, so cron can alert on it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"stocky/internal/app"
	"stocky/internal/config"
	appctx "stocky/internal/core/context"
	"stocky/internal/domain/digest"
	"stocky/pkg/logger"
)

const jobName = "expiry-digest"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = appctx.WithTrace(ctx, appctx.NewTraceContext())

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}

	var res digest.Result
	err = a.Locker.Do(ctx, jobName, cfg.DigestLockTTL, func(ctx context.Context) error {
		var runErr error
		res, runErr = a.Digest.Run(ctx)
		return runErr
	})
	a.Close()

	if err != nil && res.Error == "" {
		res = digest.Result{Success: false, Error: err.Error()}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)

	if !res.Success {
		os.Exit(1)
	}
}
