package automation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// nurtureSequence maps the lead's next step to the day offset, counted
// from lead creation, at which that mail becomes due.
var nurtureSequence = []struct {
	dayOffset int
	subject   string
	body      string
}{
	{0, "Welcome to the dive center", "Thanks for your interest! Reply to this mail and we will help you pick a first dive."},
	{3, "Ready to get underwater?", "Our intro dives run every weekend. Spots fill up fast, book yours today."},
	{7, "Last call from the dive crew", "We would love to take you diving. This is the last mail from us unless you get in touch."},
}

type Report struct {
	LeadsNurtured    int `json:"leads_nurtured"`
	RemindersSent    int `json:"reminders_sent"`
	ReviewsRequested int `json:"reviews_requested"`
	NoShowsMarked    int `json:"no_shows_marked"`
	Failures         int `json:"failures"`
}

// Service runs the scheduled marketing and housekeeping passes: the
// lead nurture sequence, payment reminders for abandoned bookings,
// post-trip review requests, and no-show marking. Every pass is
// idempotent through sent-at stamps on the rows it touches.
type Service struct {
	bookings BookingRepository
	leads    LeadRepository
	members  MemberRepository
	mailer   Mailer
	logger   *zap.Logger

	abandonedAfter    time.Duration
	reviewRequestDays int
	now               func() time.Time
}

func NewService(
	bookings BookingRepository,
	leads LeadRepository,
	members MemberRepository,
	mailer Mailer,
	abandonedAfter time.Duration,
	reviewRequestDays int,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		bookings:          bookings,
		leads:             leads,
		members:           members,
		mailer:            mailer,
		logger:            logger,
		abandonedAfter:    abandonedAfter,
		reviewRequestDays: reviewRequestDays,
		now:               time.Now,
	}
}

// Run executes all passes. A pass failing wholesale is logged and the
// remaining passes still run.
func (s *Service) Run(ctx context.Context) *Report {
	report := &Report{}
	s.nurtureLeads(ctx, report)
	s.remindAbandoned(ctx, report)
	s.requestReviews(ctx, report)
	s.markNoShows(ctx, report)

	s.logger.Info("automation run completed",
		zap.Int("leads_nurtured", report.LeadsNurtured),
		zap.Int("reminders_sent", report.RemindersSent),
		zap.Int("reviews_requested", report.ReviewsRequested),
		zap.Int("no_shows_marked", report.NoShowsMarked),
		zap.Int("failures", report.Failures))
	return report
}

func (s *Service) nurtureLeads(ctx context.Context, report *Report) {
	leads, err := s.leads.FindOpen(ctx)
	if err != nil {
		s.logger.Error("lead selection failed", zap.Error(err))
		report.Failures++
		return
	}

	now := s.now()
	for _, lead := range leads {
		if lead.NurtureStep >= len(nurtureSequence) {
			continue
		}
		step := nurtureSequence[lead.NurtureStep]
		due := lead.CreatedAt.Add(time.Duration(step.dayOffset) * 24 * time.Hour)
		if now.Before(due) {
			continue
		}

		if err := s.mailer.Send(lead.Email, step.subject, step.body); err != nil {
			s.logger.Warn("nurture mail failed",
				zap.Int64("lead_id", lead.ID), zap.Error(err))
			report.Failures++
			continue
		}
		if err := s.leads.MarkNurtured(ctx, lead.ID, lead.NurtureStep+1, now); err != nil {
			s.logger.Error("nurture stamp failed",
				zap.Int64("lead_id", lead.ID), zap.Error(err))
			report.Failures++
			continue
		}
		report.LeadsNurtured++
	}
}

func (s *Service) remindAbandoned(ctx context.Context, report *Report) {
	now := s.now()
	bookings, err := s.bookings.FindAbandoned(ctx, now.Add(-s.abandonedAfter), now)
	if err != nil {
		s.logger.Error("abandoned selection failed", zap.Error(err))
		report.Failures++
		return
	}

	for _, b := range bookings {
		member, err := s.members.GetByID(ctx, b.MemberID)
		if err != nil {
			s.logger.Warn("reminder member lookup failed",
				zap.Int64("booking_id", b.ID), zap.Error(err))
			report.Failures++
			continue
		}

		subject := "Your booking is waiting for payment"
		body := fmt.Sprintf(
			"Hi %s, booking %s still has an outstanding balance of %s. Complete the payment to secure your spot.",
			member.Name, b.BookingNumber, b.BalanceDue().String())
		if err := s.mailer.Send(member.Email, subject, body); err != nil {
			s.logger.Warn("reminder mail failed",
				zap.Int64("booking_id", b.ID), zap.Error(err))
			report.Failures++
			continue
		}

		sentAt := now
		b.ReminderSentAt = &sentAt
		if err := s.bookings.Update(ctx, &b); err != nil {
			s.logger.Error("reminder stamp failed",
				zap.Int64("booking_id", b.ID), zap.Error(err))
			report.Failures++
			continue
		}
		report.RemindersSent++
	}
}

func (s *Service) requestReviews(ctx context.Context, report *Report) {
	now := s.now()
	window := time.Duration(s.reviewRequestDays) * 24 * time.Hour
	bookings, err := s.bookings.FindCompletedNeedingReview(ctx, now.Add(-window))
	if err != nil {
		s.logger.Error("review selection failed", zap.Error(err))
		report.Failures++
		return
	}

	for _, b := range bookings {
		member, err := s.members.GetByID(ctx, b.MemberID)
		if err != nil {
			s.logger.Warn("review member lookup failed",
				zap.Int64("booking_id", b.ID), zap.Error(err))
			report.Failures++
			continue
		}

		subject := "How was your dive?"
		body := fmt.Sprintf(
			"Hi %s, thanks for diving with us on %s! We would love a short review of your trip.",
			member.Name, b.BookingDate.Format("January 2"))
		if err := s.mailer.Send(member.Email, subject, body); err != nil {
			s.logger.Warn("review mail failed",
				zap.Int64("booking_id", b.ID), zap.Error(err))
			report.Failures++
			continue
		}

		requestedAt := now
		b.ReviewRequestedAt = &requestedAt
		if err := s.bookings.Update(ctx, &b); err != nil {
			s.logger.Error("review stamp failed",
				zap.Int64("booking_id", b.ID), zap.Error(err))
			report.Failures++
			continue
		}
		report.ReviewsRequested++
	}
}

// markNoShows flips confirmed bookings whose date passed a full day ago
// without a check-in. The grace day leaves room for staff to check
// someone in late.
func (s *Service) markNoShows(ctx context.Context, report *Report) {
	now := s.now()
	bookings, err := s.bookings.FindOverdueConfirmed(ctx, now.Add(-24*time.Hour))
	if err != nil {
		s.logger.Error("no-show selection failed", zap.Error(err))
		report.Failures++
		return
	}

	for _, b := range bookings {
		marked, err := b.MarkNoShow(now)
		if err != nil {
			s.logger.Warn("no-show transition rejected",
				zap.Int64("booking_id", b.ID), zap.Error(err))
			report.Failures++
			continue
		}
		if err := s.bookings.Update(ctx, &marked); err != nil {
			s.logger.Error("no-show update failed",
				zap.Int64("booking_id", b.ID), zap.Error(err))
			report.Failures++
			continue
		}
		report.NoShowsMarked++
		s.logger.Info("booking marked no-show",
			zap.Int64("booking_id", marked.ID),
			zap.String("booking_number", marked.BookingNumber))
	}
}
