package booking

import (
	"context"

	"divemanager/internal/domain"
)

// BookingRepository defines the persistence operations the booking
// service needs.
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Booking, error)
	GetByNumber(ctx context.Context, tenantID int64, number string) (*domain.Booking, error)
	Update(ctx context.Context, b *domain.Booking) error
}

type Notifier interface {
	NotifyBookingCreated(tenantID int64, b domain.Booking)
	NotifyBookingStatusChanged(tenantID int64, b domain.Booking)
}
