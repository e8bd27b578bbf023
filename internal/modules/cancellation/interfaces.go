package cancellation

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
	FindRefundableCharge(ctx context.Context, bookingID int64) (*domain.Payment, error)
	AddRefundedAmount(ctx context.Context, paymentID int64, amount money.Money) error
}

// PaymentGateway is the external processor. Refund returns the gateway
// refund id; failures never roll back an already committed cancellation.
type PaymentGateway interface {
	Refund(ctx context.Context, chargeRef string, amount money.Money) (string, error)
}

type TenantSettings interface {
	GetCancellationPolicy(ctx context.Context, tenantID int64) (*domain.CancellationPolicy, error)
}

type Notifier interface {
	NotifyBookingCancelled(tenantID int64, b domain.Booking, reason string)
}
