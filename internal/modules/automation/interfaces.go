package automation

import (
	"context"
	"time"

	"divemanager/internal/domain"
)

type BookingRepository interface {
	FindAbandoned(ctx context.Context, createdBefore, now time.Time) ([]domain.Booking, error)
	FindCompletedNeedingReview(ctx context.Context, completedAfter time.Time) ([]domain.Booking, error)
	FindOverdueConfirmed(ctx context.Context, cutoff time.Time) ([]domain.Booking, error)
	Update(ctx context.Context, b *domain.Booking) error
}

type LeadRepository interface {
	FindOpen(ctx context.Context) ([]domain.Lead, error)
	MarkNurtured(ctx context.Context, leadID int64, step int, at time.Time) error
}

type MemberRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Member, error)
}

type Mailer interface {
	Send(to, subject, body string) error
}
