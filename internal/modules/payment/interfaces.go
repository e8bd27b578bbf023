package payment

import (
	"context"

	"divemanager/internal/domain"
	"divemanager/internal/pkg/money"
)

type BookingRepository interface {
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Booking, error)
	Update(ctx context.Context, b *domain.Booking) error
}

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error)
	GetByGatewayChargeID(ctx context.Context, chargeID string) (*domain.Payment, error)
	AddRefundedAmount(ctx context.Context, paymentID int64, amount money.Money) error
}

type Notifier interface {
	NotifyPaymentReceived(tenantID int64, b domain.Booking, p domain.Payment)
}
