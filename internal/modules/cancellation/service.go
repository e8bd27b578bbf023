package cancellation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"divemanager/internal/domain"
	"divemanager/internal/repository"
)

// Service runs the cancellation workflow: window guard, refund
// computation, status transition, then best-effort refund issuance. The
// transition commits before the gateway is touched, so a refund-side
// failure leaves a correctly cancelled booking flagged for manual
// follow-up rather than an un-cancelled one.
type Service struct {
	bookings BookingRepository
	payments PaymentRepository
	gateway  PaymentGateway
	settings TenantSettings
	notifs   Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(
	bookings BookingRepository,
	payments PaymentRepository,
	gateway PaymentGateway,
	settings TenantSettings,
	notifs Notifier,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		bookings: bookings,
		payments: payments,
		gateway:  gateway,
		settings: settings,
		notifs:   notifs,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) Cancel(ctx context.Context, tenantID, bookingID int64, req CancelRequest) (*CancellationResult, error) {
	res, err := s.cancelOnce(ctx, tenantID, bookingID, req)
	if errors.Is(err, ErrPersistenceConflict) {
		s.logger.Info("cancellation raced, retrying once",
			zap.Int64("booking_id", bookingID))
		res, err = s.cancelOnce(ctx, tenantID, bookingID, req)
	}
	return res, err
}

func (s *Service) cancelOnce(ctx context.Context, tenantID, bookingID int64, req CancelRequest) (*CancellationResult, error) {
	b, err := s.bookings.GetByID(ctx, tenantID, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// Another member's booking is indistinguishable from a missing one.
	if req.MemberID != 0 && b.MemberID != req.MemberID {
		return nil, ErrNotFound
	}

	// Precondition before any business-rule guard: only pending and
	// confirmed bookings are cancellable.
	if b.Status != domain.BookingPending && b.Status != domain.BookingConfirmed {
		return nil, domain.ErrInvalidStatusTransition
	}

	policy, err := s.settings.GetCancellationPolicy(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	hoursUntil := b.HoursUntilStart(now)
	if hoursUntil < float64(policy.CancellationHours) && !req.AllowOverride {
		return nil, ErrCancellationWindowExpired
	}

	info := ComputeRefund(*b, policy.Tiers, now)

	cancelled, err := b.Cancel(req.Reason, now)
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Update(ctx, &cancelled); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, s.classifyConflict(ctx, tenantID, bookingID)
		}
		return nil, err
	}

	s.logger.Info("booking cancelled",
		zap.Int64("booking_id", cancelled.ID),
		zap.String("booking_number", cancelled.BookingNumber),
		zap.String("initiated_by", req.InitiatedBy),
		zap.Int("refund_percent", info.RefundPercent),
		zap.String("refund_amount", info.RefundAmount.String()))

	result := &CancellationResult{Booking: cancelled, RefundInfo: info}

	if info.RefundAmount.IsPositive() {
		s.issueRefund(ctx, &cancelled, info, result)
		result.Booking = cancelled
	}

	if s.notifs != nil {
		s.notifs.NotifyBookingCancelled(tenantID, result.Booking, req.Reason)
	}
	return result, nil
}

// classifyConflict decides what a zero-row conditional update meant: the
// booking reached a terminal state under us (reject) or the write simply
// raced an unrelated update (retryable).
func (s *Service) classifyConflict(ctx context.Context, tenantID, bookingID int64) error {
	current, err := s.bookings.GetByID(ctx, tenantID, bookingID)
	if err != nil {
		return ErrPersistenceConflict
	}
	if current.IsTerminal() {
		return domain.ErrInvalidStatusTransition
	}
	return ErrPersistenceConflict
}

// issueRefund never fails the workflow. Gateway errors are recorded as a
// pending refund row and flagged on the result.
func (s *Service) issueRefund(ctx context.Context, b *domain.Booking, info RefundInfo, result *CancellationResult) {
	charge, err := s.payments.FindRefundableCharge(ctx, b.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.failRefund(ctx, b, info, result, "charge lookup failed: "+err.Error())
		return
	}

	refundRecord := domain.Payment{
		TenantID:  b.TenantID,
		BookingID: b.ID,
		Reference: uuid.NewString(),
		Amount:    info.RefundAmount,
		Method:    domain.MethodOther,
		Status:    domain.PaymentRecordCompleted,
		Type:      domain.PaymentTypeRefund,
	}

	if charge != nil {
		refundRecord.Method = charge.Method
		if charge.GatewayChargeID != "" {
			refundID, gerr := s.gateway.Refund(ctx, charge.GatewayChargeID, info.RefundAmount)
			if gerr != nil {
				s.failRefund(ctx, b, info, result, gerr.Error())
				return
			}
			refundRecord.GatewayChargeID = charge.GatewayChargeID
			refundRecord.GatewayRefundID = refundID
		}
	}

	paidAt := s.now()
	refundRecord.PaidAt = &paidAt
	if err := s.payments.Create(ctx, &refundRecord); err != nil {
		s.logger.Error("refund record write failed",
			zap.Int64("booking_id", b.ID), zap.Error(err))
		result.RefundPending = true
		result.RefundFailure = err.Error()
		return
	}

	if charge != nil {
		if err := s.payments.AddRefundedAmount(ctx, charge.ID, info.RefundAmount); err != nil {
			s.logger.Error("refund accumulation failed",
				zap.Int64("payment_id", charge.ID), zap.Error(err))
		}
	}

	refunded, err := b.ApplyRefund(info.RefundAmount)
	if err != nil {
		s.logger.Error("refund apply failed", zap.Int64("booking_id", b.ID), zap.Error(err))
		return
	}
	if err := s.bookings.Update(ctx, &refunded); err != nil {
		s.logger.Error("booking refund update failed",
			zap.Int64("booking_id", b.ID), zap.Error(err))
		return
	}
	*b = refunded
}

// failRefund records the unresolved refund so reconciliation can pick it
// up later.
func (s *Service) failRefund(ctx context.Context, b *domain.Booking, info RefundInfo, result *CancellationResult, reason string) {
	s.logger.Warn("refund requires manual follow-up",
		zap.Int64("booking_id", b.ID),
		zap.String("refund_amount", info.RefundAmount.String()),
		zap.String("reason", reason))

	pending := domain.Payment{
		TenantID:      b.TenantID,
		BookingID:     b.ID,
		Reference:     uuid.NewString(),
		Amount:        info.RefundAmount,
		Method:        domain.MethodStripe,
		Status:        domain.PaymentRecordPending,
		Type:          domain.PaymentTypeRefund,
		FailureReason: reason,
	}
	if err := s.payments.Create(ctx, &pending); err != nil {
		s.logger.Error("pending refund record write failed",
			zap.Int64("booking_id", b.ID), zap.Error(err))
	}

	result.RefundPending = true
	result.RefundFailure = reason
}
