// Package main is the entry point for the Stocky background worker. It
// sends the expiry digest once a day, and every hour it logs pool stats
// and prunes expired idempotency keys.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"stocky/internal/app"
	"stocky/internal/config"
	appctx "stocky/internal/core/context"
	"stocky/pkg/logger"
)

const (
	digestJob       = "expiry-digest"
	cleanupInterval = time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Infow("starting stocky worker", "digest_hour", cfg.DigestHour, "timezone", cfg.Location.String())

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer a.Close()

	w := &Worker{app: a, log: log.WithComponent("worker")}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w.runDigest(ctx)
	}()
	go func() {
		defer wg.Done()
		w.runCleanup(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker runs the scheduled jobs.
type Worker struct {
	app *app.App
	log *logger.Logger
}

func (w *Worker) runDigest(ctx context.Context) {
	for {
		next := nextRun(time.Now(), w.app.Config.DigestHour, w.app.Config.Location)
		w.log.Infow("next expiry digest scheduled", "at", next)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		jobCtx := appctx.WithTrace(ctx, appctx.NewTraceContext())
		err := w.app.Locker.Do(jobCtx, digestJob, w.app.Config.DigestLockTTL, func(ctx context.Context) error {
			res, err := w.app.Digest.Run(ctx)
			if err != nil {
				return err
			}
			w.log.Infow("expiry digest done", "notified", res.Notified, "sent", res.Sent, "failed", res.Failed)
			return nil
		})
		if err != nil {
			w.log.Errorw("expiry digest failed", "error", err)
		}
	}
}

// runCleanup logs pool stats and prunes expired idempotency keys hourly.
func (w *Worker) runCleanup(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	ctx = logger.WithLogger(ctx, w.log)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.app.Pool.LogStats(ctx)
			if w.app.Idempotency == nil {
				continue
			}
			n, err := w.app.Idempotency.CleanupExpired(ctx)
			if err != nil {
				w.log.Warnw("idempotency cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				w.log.Infow("cleaned up idempotency keys", "count", n)
			}
		}
	}
}

// nextRun is the next hour:00 in loc strictly after now.
func nextRun(now time.Time, hour int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
