package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"divemanager/internal/config"
	"divemanager/internal/database"
	"divemanager/internal/modules/sweeper"
	"divemanager/internal/repository"
)

// Cancels pending bookings whose payment deadline passed. Meant to run
// from cron; --dry-run reports the candidates without touching them.
func main() {
	dryRun := flag.Bool("dry-run", false, "report expired bookings without cancelling them")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall run timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	svc := sweeper.NewService(repository.NewBookingRepository(db), nil, logger)
	report, err := svc.Sweep(ctx, *dryRun)
	if err != nil {
		logger.Fatal("sweep failed", zap.Error(err))
	}

	logger.Info("sweep finished",
		zap.Int("candidates", len(report.Candidates)),
		zap.Int("cancelled", report.Cancelled),
		zap.Int("failures", len(report.Failures)),
		zap.Bool("dry_run", report.DryRun))
}
