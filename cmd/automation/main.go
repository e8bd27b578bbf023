package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"divemanager/internal/config"
	"divemanager/internal/database"
	"divemanager/internal/modules/automation"
	"divemanager/internal/pkg/mailer"
	"divemanager/internal/repository"
)

// Runs the scheduled marketing passes: lead nurture mails, payment
// reminders, review requests and no-show marking. Meant to run from
// cron a few times a day.
func main() {
	timeout := flag.Duration("timeout", 5*time.Minute, "overall run timeout")
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

	smtp := mailer.NewSMTPMailer(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.MailFrom,
	})

	svc := automation.NewService(
		repository.NewBookingRepository(db),
		repository.NewLeadRepository(db),
		repository.NewMemberRepository(db),
		smtp,
		cfg.AbandonedAfter,
		cfg.ReviewRequestDays,
		logger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	report := svc.Run(ctx)
	logger.Info("automation finished",
		zap.Int("leads_nurtured", report.LeadsNurtured),
		zap.Int("reminders_sent", report.RemindersSent),
		zap.Int("reviews_requested", report.ReviewsRequested),
		zap.Int("no_shows_marked", report.NoShowsMarked),
		zap.Int("failures", report.Failures))
}
