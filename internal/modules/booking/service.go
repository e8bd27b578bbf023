package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"divemanager/internal/domain"
	"divemanager/internal/pkg/money"
	"divemanager/internal/repository"
)

// Service owns the non-cancellation half of the booking lifecycle:
// creation with a payment deadline, check-in, completion and no-show
// marking. All transitions go through the domain status graph.
type Service struct {
	bookings BookingRepository
	notifs   Notifier
	logger   *zap.Logger

	// paymentDueHours is how long an unpaid pending booking is held
	// before the expiration sweep may cancel it.
	paymentDueHours time.Duration
	now             func() time.Time
}

func NewService(bookings BookingRepository, notifs Notifier, paymentDueHours time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		bookings:        bookings,
		notifs:          notifs,
		logger:          logger,
		paymentDueHours: paymentDueHours,
		now:             time.Now,
	}
}

func (s *Service) Create(ctx context.Context, tenantID int64, req CreateBookingRequest) (*domain.Booking, error) {
	now := s.now()
	if !req.BookingDate.After(now) {
		return nil, fmt.Errorf("%w: booking date must be in the future", ErrValidation)
	}
	if req.TotalAmount < 0 {
		return nil, fmt.Errorf("%w: total amount cannot be negative", ErrValidation)
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	dueDate := now.Add(s.paymentDueHours)
	b := domain.Booking{
		TenantID:       tenantID,
		BookingNumber:  newBookingNumber(),
		MemberID:       req.MemberID,
		ActivityName:   req.ActivityName,
		Status:         domain.BookingPending,
		PaymentStatus:  domain.PaymentUnpaid,
		TotalAmount:    money.FromFloat(req.TotalAmount, currency),
		AmountPaid:     money.Zero(currency),
		BookingDate:    req.BookingDate,
		PaymentDueDate: &dueDate,
	}

	if err := s.bookings.Create(ctx, &b); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateNumber
		}
		return nil, err
	}

	s.logger.Info("booking created",
		zap.Int64("booking_id", b.ID),
		zap.String("booking_number", b.BookingNumber),
		zap.Int64("tenant_id", tenantID),
		zap.Time("payment_due", dueDate))

	if s.notifs != nil {
		s.notifs.NotifyBookingCreated(tenantID, b)
	}
	return &b, nil
}

func (s *Service) GetByID(ctx context.Context, tenantID, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *Service) GetByNumber(ctx context.Context, tenantID int64, number string) (*domain.Booking, error) {
	b, err := s.bookings.GetByNumber(ctx, tenantID, number)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *Service) CheckIn(ctx context.Context, tenantID, id int64) (*domain.Booking, error) {
	return s.applyTransition(ctx, tenantID, id, func(b domain.Booking) (domain.Booking, error) {
		return b.CheckIn(s.now())
	})
}

func (s *Service) Complete(ctx context.Context, tenantID, id int64) (*domain.Booking, error) {
	return s.applyTransition(ctx, tenantID, id, domain.Booking.Complete)
}

func (s *Service) MarkNoShow(ctx context.Context, tenantID, id int64) (*domain.Booking, error) {
	return s.applyTransition(ctx, tenantID, id, func(b domain.Booking) (domain.Booking, error) {
		return b.MarkNoShow(s.now())
	})
}

func (s *Service) applyTransition(ctx context.Context, tenantID, id int64, fn func(domain.Booking) (domain.Booking, error)) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	next, err := fn(*b)
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Update(ctx, &next); err != nil {
		return nil, err
	}

	s.logger.Info("booking status changed",
		zap.Int64("booking_id", next.ID),
		zap.String("from", string(b.Status)),
		zap.String("to", string(next.Status)))

	if s.notifs != nil {
		s.notifs.NotifyBookingStatusChanged(tenantID, next)
	}
	return &next, nil
}

// newBookingNumber derives a short human-quotable reference from a uuid.
func newBookingNumber() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "BK-" + raw[:10]
}
