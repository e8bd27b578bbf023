package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"divemanager/internal/domain"
	"divemanager/internal/pkg/money"
	"divemanager/internal/repository"
)

// Service records payments against bookings and keeps booking payment
// state in step with them. Gateway-originated events arrive through the
// webhook handler; staff-entered cash and card payments go through
// RecordManualPayment. Both funnel into the same application path.
type Service struct {
	bookings BookingRepository
	payments PaymentRepository
	notifs   Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(bookings BookingRepository, payments PaymentRepository, notifs Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		bookings: bookings,
		payments: payments,
		notifs:   notifs,
		logger:   logger,
		now:      time.Now,
	}
}

// RecordManualPayment registers a payment taken outside the gateway,
// e.g. cash at the front desk.
func (s *Service) RecordManualPayment(ctx context.Context, tenantID, bookingID int64, req RecordPaymentRequest) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, tenantID, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	amount := money.FromFloat(req.Amount, b.TotalAmount.Currency)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !amount.LessThanOrEqual(b.BalanceDue()) {
		return nil, ErrOverpayment
	}

	reference := req.Reference
	if reference == "" {
		reference = uuid.NewString()
	}
	paidAt := s.now()
	record := domain.Payment{
		TenantID:  tenantID,
		BookingID: bookingID,
		Reference: reference,
		Amount:    amount,
		Method:    domain.PaymentMethod(req.Method),
		Status:    domain.PaymentRecordCompleted,
		Type:      domain.PaymentTypePayment,
		PaidAt:    &paidAt,
	}
	if req.Deposit {
		record.Type = domain.PaymentTypeDeposit
	}

	return s.apply(ctx, b, record)
}

// ListForBooking returns the payment history for one booking, scoped to
// the tenant through the booking lookup.
func (s *Service) ListForBooking(ctx context.Context, tenantID, bookingID int64) ([]domain.Payment, error) {
	if _, err := s.bookings.GetByID(ctx, tenantID, bookingID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.payments.ListByBooking(ctx, bookingID)
}

// ApplyGatewayPayment credits a successful gateway charge. Replayed
// webhook deliveries are detected by charge id and skipped.
func (s *Service) ApplyGatewayPayment(ctx context.Context, tenantID, bookingID int64, chargeID string, amount money.Money) (*domain.Booking, error) {
	existing, err := s.payments.GetByGatewayChargeID(ctx, chargeID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		s.logger.Info("duplicate gateway charge event ignored",
			zap.String("charge_id", chargeID),
			zap.Int64("booking_id", bookingID))
		b, err := s.bookings.GetByID(ctx, tenantID, bookingID)
		if err != nil {
			return nil, err
		}
		return b, nil
	}

	b, err := s.bookings.GetByID(ctx, tenantID, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	paidAt := s.now()
	record := domain.Payment{
		TenantID:        tenantID,
		BookingID:       bookingID,
		Reference:       uuid.NewString(),
		Amount:          amount,
		Method:          domain.MethodStripe,
		Status:          domain.PaymentRecordCompleted,
		Type:            domain.PaymentTypePayment,
		GatewayChargeID: chargeID,
		PaidAt:          &paidAt,
	}
	return s.apply(ctx, b, record)
}

// RecordGatewayFailure writes a failed payment row for the audit trail.
// The booking itself is left untouched; the member can retry.
func (s *Service) RecordGatewayFailure(ctx context.Context, tenantID, bookingID int64, chargeID, reason string) error {
	b, err := s.bookings.GetByID(ctx, tenantID, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	record := domain.Payment{
		TenantID:        tenantID,
		BookingID:       bookingID,
		Reference:       uuid.NewString(),
		Amount:          money.Zero(b.TotalAmount.Currency),
		Method:          domain.MethodStripe,
		Status:          domain.PaymentRecordFailed,
		Type:            domain.PaymentTypePayment,
		GatewayChargeID: chargeID,
		FailureReason:   reason,
	}
	if err := s.payments.Create(ctx, &record); err != nil {
		return err
	}
	s.logger.Warn("gateway payment failed",
		zap.Int64("booking_id", bookingID),
		zap.String("charge_id", chargeID),
		zap.String("reason", reason))
	return nil
}

// ApplyExternalRefund reconciles a refund issued directly on the
// gateway, e.g. from the Stripe dashboard. totalRefunded is the
// charge-lifetime refunded amount reported by the gateway; only the
// delta beyond what is already on record is applied.
func (s *Service) ApplyExternalRefund(ctx context.Context, chargeID string, totalRefunded money.Money) error {
	charge, err := s.payments.GetByGatewayChargeID(ctx, chargeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("refund event for unknown charge", zap.String("charge_id", chargeID))
			return nil
		}
		return err
	}
	if charge.Type == domain.PaymentTypeRefund {
		return nil
	}

	recorded := charge.RefundedAmount
	if recorded.Currency == "" {
		recorded = money.Zero(totalRefunded.Currency)
	}
	if totalRefunded.LessThanOrEqual(recorded) {
		return nil
	}
	delta, err := totalRefunded.Sub(recorded)
	if err != nil {
		return err
	}

	if err := s.payments.AddRefundedAmount(ctx, charge.ID, delta); err != nil {
		return err
	}

	b, err := s.bookings.GetByID(ctx, charge.TenantID, charge.BookingID)
	if err != nil {
		return err
	}
	refunded, err := b.ApplyRefund(delta)
	if err != nil {
		return err
	}
	if err := s.bookings.Update(ctx, &refunded); err != nil {
		return err
	}

	s.logger.Info("external refund reconciled",
		zap.Int64("booking_id", b.ID),
		zap.String("charge_id", chargeID),
		zap.String("delta", delta.String()))
	return nil
}

// apply writes the payment row, credits the booking, and confirms a
// pending booking on its first successful payment.
func (s *Service) apply(ctx context.Context, b *domain.Booking, record domain.Payment) (*domain.Booking, error) {
	if err := s.payments.Create(ctx, &record); err != nil {
		return nil, err
	}

	paid, err := b.ApplyPayment(record.Amount)
	if err != nil {
		return nil, err
	}
	if paid.Status == domain.BookingPending {
		confirmed, err := paid.Confirm()
		if err != nil {
			return nil, err
		}
		paid = confirmed
	}

	if err := s.bookings.Update(ctx, &paid); err != nil {
		return nil, err
	}

	s.logger.Info("payment applied",
		zap.Int64("booking_id", paid.ID),
		zap.String("amount", record.Amount.String()),
		zap.String("method", string(record.Method)),
		zap.String("payment_status", string(paid.PaymentStatus)))

	if s.notifs != nil {
		s.notifs.NotifyPaymentReceived(paid.TenantID, paid, record)
	}
	return &paid, nil
}
