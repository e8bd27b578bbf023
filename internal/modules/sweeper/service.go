package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"divemanager/internal/domain"
)

// ExpiredReason is written as the cancellation reason on every booking
// the sweep cancels.
const ExpiredReason = "Automatically cancelled: Payment deadline exceeded"

type BookingRepository interface {
	FindExpired(ctx context.Context, now time.Time) ([]domain.Booking, error)
	Update(ctx context.Context, b *domain.Booking) error
}

type Notifier interface {
	NotifyBookingCancelled(tenantID int64, b domain.Booking, reason string)
}

type Failure struct {
	BookingID int64  `json:"booking_id"`
	Err       string `json:"error"`
}

type Report struct {
	Candidates []domain.Booking `json:"candidates"`
	Cancelled  int              `json:"cancelled"`
	Failures   []Failure        `json:"failures,omitempty"`
	DryRun     bool             `json:"dry_run"`
}

// Service cancels pending bookings whose payment deadline passed.
// Nothing was ever paid on a candidate, so there is no refund path. The
// job is idempotent: candidates are re-selected by the same query each
// run, and a cancelled booking no longer matches.
type Service struct {
	bookings BookingRepository
	notifs   Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(bookings BookingRepository, notifs Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		bookings: bookings,
		notifs:   notifs,
		logger:   logger,
		now:      time.Now,
	}
}

// Sweep processes every candidate independently: one row failing does
// not stop the rest, failures are aggregated into the report.
func (s *Service) Sweep(ctx context.Context, dryRun bool) (*Report, error) {
	now := s.now()
	candidates, err := s.bookings.FindExpired(ctx, now)
	if err != nil {
		return nil, err
	}

	report := &Report{Candidates: candidates, DryRun: dryRun}
	if dryRun {
		s.logger.Info("sweep dry run", zap.Int("candidates", len(candidates)))
		return report, nil
	}

	for _, b := range candidates {
		// the selection query can lag behind a concurrent payment;
		// re-check on the row itself before cancelling
		if !b.ExpiredForPayment(now) {
			continue
		}

		cancelled, err := b.Cancel(ExpiredReason, now)
		if err != nil {
			s.logger.Warn("sweep skipped booking",
				zap.Int64("booking_id", b.ID), zap.Error(err))
			report.Failures = append(report.Failures, Failure{BookingID: b.ID, Err: err.Error()})
			continue
		}
		if err := s.bookings.Update(ctx, &cancelled); err != nil {
			s.logger.Error("sweep update failed",
				zap.Int64("booking_id", b.ID), zap.Error(err))
			report.Failures = append(report.Failures, Failure{BookingID: b.ID, Err: err.Error()})
			continue
		}

		report.Cancelled++
		if s.notifs != nil {
			s.notifs.NotifyBookingCancelled(cancelled.TenantID, cancelled, ExpiredReason)
		}
	}

	s.logger.Info("sweep completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("cancelled", report.Cancelled),
		zap.Int("failures", len(report.Failures)))
	return report, nil
}
