package cancellation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"divemanager/internal/domain"
	"divemanager/internal/pkg/money"
	"divemanager/internal/repository"
)

// Mock collaborators

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) GetByID(ctx context.Context, tenantID, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	args := m.Called(ctx, p)
	if p != nil {
		p.ID = 555
	}
	return args.Error(0)
}

func (m *MockPaymentRepository) FindRefundableCharge(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) AddRefundedAmount(ctx context.Context, paymentID int64, amount money.Money) error {
	args := m.Called(ctx, paymentID, amount)
	return args.Error(0)
}

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) Refund(ctx context.Context, chargeRef string, amount money.Money) (string, error) {
	args := m.Called(ctx, chargeRef, amount)
	return args.String(0), args.Error(1)
}

type MockTenantSettings struct {
	mock.Mock
}

func (m *MockTenantSettings) GetCancellationPolicy(ctx context.Context, tenantID int64) (*domain.CancellationPolicy, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CancellationPolicy), args.Error(1)
}

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// matchAmount compares money by rendered value; decimal internals may
// carry different exponents for the same amount.
func matchAmount(want string) interface{} {
	return mock.MatchedBy(func(m money.Money) bool { return m.String() == want })
}

func testPolicy() *domain.CancellationPolicy {
	return &domain.CancellationPolicy{
		CancellationHours: 48,
		Tiers:             standardTiers,
	}
}

func paidBooking(hoursUntilStart int) *domain.Booking {
	return &domain.Booking{
		ID:            42,
		TenantID:      7,
		BookingNumber: "DV-2042",
		MemberID:      9,
		Status:        domain.BookingConfirmed,
		PaymentStatus: domain.PaymentPaid,
		TotalAmount:   money.FromFloat(200, "USD"),
		AmountPaid:    money.FromFloat(200, "USD"),
		BookingDate:   testNow.Add(time.Duration(hoursUntilStart) * time.Hour),
		Version:       1,
	}
}

func newTestService(bookings *MockBookingRepository, payments *MockPaymentRepository, gw *MockPaymentGateway, settings *MockTenantSettings) *Service {
	s := NewService(bookings, payments, gw, settings, nil, nil)
	s.now = func() time.Time { return testNow }
	return s
}

func TestCancel_FullRefundInsideWindow(t *testing.T) {
	bookings := new(MockBookingRepository)
	payments := new(MockPaymentRepository)
	gw := new(MockPaymentGateway)
	settings := new(MockTenantSettings)

	b := paidBooking(72)
	bookings.On("GetByID", mock.Anything, int64(7), int64(42)).Return(b, nil)
	settings.On("GetCancellationPolicy", mock.Anything, int64(7)).Return(testPolicy(), nil)
	bookings.On("Update", mock.Anything, mock.Anything).Return(nil)

	charge := &domain.Payment{
		ID:              100,
		BookingID:       42,
		Amount:          money.FromFloat(200, "USD"),
		Method:          domain.MethodStripe,
		Status:          domain.PaymentRecordCompleted,
		Type:            domain.PaymentTypePayment,
		GatewayChargeID: "pi_123",
	}
	payments.On("FindRefundableCharge", mock.Anything, int64(42)).Return(charge, nil)
	gw.On("Refund", mock.Anything, "pi_123", matchAmount("200.00 USD")).Return("re_1", nil)
	payments.On("Create", mock.Anything, mock.Anything).Return(nil)
	payments.On("AddRefundedAmount", mock.Anything, int64(100), matchAmount("200.00 USD")).Return(nil)

	svc := newTestService(bookings, payments, gw, settings)
	result, err := svc.Cancel(context.Background(), 7, 42, CancelRequest{Reason: "member request"})

	assert.NoError(t, err)
	assert.Equal(t, 100, result.RefundInfo.RefundPercent)
	assert.Equal(t, "200.00 USD", result.RefundInfo.RefundAmount.String())
	assert.Equal(t, domain.BookingCancelled, result.Booking.Status)
	assert.Equal(t, domain.PaymentRefunded, result.Booking.PaymentStatus)
	assert.False(t, result.RefundPending)
	gw.AssertExpectations(t)
	payments.AssertExpectations(t)
}

func TestCancel_InsideCutoffRejectedWithoutOverride(t *testing.T) {
	bookings := new(MockBookingRepository)
	payments := new(MockPaymentRepository)
	gw := new(MockPaymentGateway)
	settings := new(MockTenantSettings)

	bookings.On("GetByID", mock.Anything, int64(7), int64(42)).Return(paidBooking(30), nil)
	settings.On("GetCancellationPolicy", mock.Anything, int64(7)).Return(testPolicy(), nil)

	svc := newTestService(bookings, payments, gw, settings)
	_, err := svc.Cancel(context.Background(), 7, 42, CancelRequest{Reason: "too late"})

	assert.ErrorIs(t, err, ErrCancellationWindowExpired)
	bookings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCancel_OverrideBypassesCutoffWithTierRefund(t *testing.T) {
	bookings := new(MockBookingRepository)
	payments := new(MockPaymentRepository)
	gw := new(MockPaymentGateway)
	settings := new(MockTenantSettings)

	bookings.On("GetByID", mock.Anything, int64(7), int64(42)).Return(paidBooking(30), nil)
	settings.On("GetCancellationPolicy", mock.Anything, int64(7)).Return(testPolicy(), nil)
	bookings.On("Update", mock.Anything, mock.Anything).Return(nil)

	charge := &domain.Payment{
		ID:              100,
		BookingID:       42,
		Amount:          money.FromFloat(200, "USD"),
		Method:          domain.MethodStripe,
		Status:          domain.PaymentRecordCompleted,
		Type:            domain.PaymentTypePayment,
		GatewayChargeID: "pi_123",
	}
	payments.On("FindRefundableCharge", mock.Anything, int64(42)).Return(charge, nil)
	gw.On("Refund", mock.Anything, "pi_123", matchAmount("100.00 USD")).Return("re_2", nil)
	payments.On("Create", mock.Anything, mock.Anything).Return(nil)
	payments.On("AddRefundedAmount", mock.Anything, int64(100), matchAmount("100.00 USD")).Return(nil)

	svc := newTestService(bookings, payments, gw, settings)
	result, err := svc.Cancel(context.Background(), 7, 42, CancelRequest{Reason: "staff override", AllowOverride: true})

	assert.NoError(t, err)
	assert.Equal(t, 50, result.RefundInfo.RefundPercent)
	assert.Equal(t, "100.00 USD", result.RefundInfo.RefundAmount.String())
	assert.Equal(t, domain.BookingCancelled, result.Booking.Status)
	// half the payment remains, so payment_status is untouched
	assert.Equal(t, domain.PaymentPaid, result.Booking.PaymentStatus)
}

func TestCancel_AlreadyCancelledRejectedWithoutSideEffects(t *testing.T) {
	bookings := new(MockBookingRepository)
	payments := new(MockPaymentRepository)
	gw := new(MockPaymentGateway)
	settings := new(MockTenantSettings)

	b := paidBooking(72)
	cancelledAt := testNow.Add(-time.Hour)
	b.Status = domain.BookingCancelled
	b.CancelledAt = &cancelledAt
	bookings.On("GetByID", mock.Anything, int64(7), int64(42)).Return(b, nil)

	svc := newTestService(bookings, payments, gw, settings)
	_, err := svc.Cancel(context.Background(), 7, 42, CancelRequest{Reason: "again"})

	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
	bookings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancel_GatewayFailureKeepsCancellationCommitted(t *testing.T) {
	bookings := new(MockBookingRepository)
	payments := new(MockPaymentRepository)
	gw := new(MockPaymentGateway)
	settings := new(MockTenantSettings)

	bookings.On("GetByID", mock.Anything, int64(7), int64(42)).Return(paidBooking(72), nil)
	settings.On("GetCancellationPolicy", mock.Anything, int64(7)).Return(testPolicy(), nil)
	bookings.On("Update", mock.Anything, mock.Anything).Return(nil)

	charge := &domain.Payment{
		ID:              100,
		BookingID:       42,
		Amount:          money.FromFloat(200, "USD"),
		Method:          domain.MethodStripe,
		Status:          domain.PaymentRecordCompleted,
		Type:            domain.PaymentTypePayment,
		GatewayChargeID: "pi_123",
	}
	payments.On("FindRefundableCharge", mock.Anything, int64(42)).Return(charge, nil)
	gw.On("Refund", mock.Anything, "pi_123", mock.Anything).Return("", errors.New("gateway timeout"))

	var recorded *domain.Payment
	payments.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
		recorded = p
		return true
	})).Return(nil)

	svc := newTestService(bookings, payments, gw, settings)
	result, err := svc.Cancel(context.Background(), 7, 42, CancelRequest{Reason: "member request"})

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, result.Booking.Status)
	assert.True(t, result.RefundPending)
	assert.Contains(t, result.RefundFailure, "gateway timeout")
	// the recorded refund row is pending follow-up, never completed
	assert.NotNil(t, recorded)
	assert.Equal(t, domain.PaymentRecordPending, recorded.Status)
	// amounts untouched until the refund actually clears
	assert.Equal(t, "200.00 USD", result.Booking.AmountPaid.String())
	payments.AssertNotCalled(t, "AddRefundedAmount", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancel_ManualPaymentRefundedWithoutGateway(t *testing.T) {
	bookings := new(MockBookingRepository)
	payments := new(MockPaymentRepository)
	gw := new(MockPaymentGateway)
	settings := new(MockTenantSettings)

	bookings.On("GetByID", mock.Anything, int64(7), int64(42)).Return(paidBooking(72), nil)
	settings.On("GetCancellationPolicy", mock.Anything, int64(7)).Return(testPolicy(), nil)
	bookings.On("Update", mock.Anything, mock.Anything).Return(nil)

	cashCharge := &domain.Payment{
		ID:        101,
		BookingID: 42,
		Amount:    money.FromFloat(200, "USD"),
		Method:    domain.MethodCash,
		Status:    domain.PaymentRecordCompleted,
		Type:      domain.PaymentTypePayment,
	}
	payments.On("FindRefundableCharge", mock.Anything, int64(42)).Return(cashCharge, nil)

	var refundRow *domain.Payment
	payments.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
		refundRow = p
		return true
	})).Return(nil)
	payments.On("AddRefundedAmount", mock.Anything, int64(101), matchAmount("200.00 USD")).Return(nil)

	svc := newTestService(bookings, payments, gw, settings)
	result, err := svc.Cancel(context.Background(), 7, 42, CancelRequest{Reason: "member request"})

	assert.NoError(t, err)
	assert.False(t, result.RefundPending)
	assert.NotNil(t, refundRow)
	assert.Equal(t, domain.PaymentRecordCompleted, refundRow.Status)
	assert.Equal(t, domain.MethodCash, refundRow.Method)
	gw.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancel_RetriesOnceOnVersionConflict(t *testing.T) {
	bookings := new(MockBookingRepository)
	payments := new(MockPaymentRepository)
	gw := new(MockPaymentGateway)
	settings := new(MockTenantSettings)

	first := paidBooking(72)
	first.AmountPaid = money.Zero("USD")
	first.PaymentStatus = domain.PaymentUnpaid
	first.Status = domain.BookingPending

	// first attempt loses the version race against a still-active row,
	// second attempt sees the bumped version and wins
	raced := *first
	raced.Version = 2

	bookings.On("GetByID", mock.Anything, int64(7), int64(42)).Return(first, nil).Once()
	settings.On("GetCancellationPolicy", mock.Anything, int64(7)).Return(testPolicy(), nil)
	bookings.On("Update", mock.Anything, mock.Anything).Return(repository.ErrVersionConflict).Once()
	bookings.On("GetByID", mock.Anything, int64(7), int64(42)).Return(&raced, nil).Once()

	bookings.On("GetByID", mock.Anything, int64(7), int64(42)).Return(&raced, nil).Once()
	bookings.On("Update", mock.Anything, mock.Anything).Return(nil).Once()

	svc := newTestService(bookings, payments, gw, settings)
	result, err := svc.Cancel(context.Background(), 7, 42, CancelRequest{Reason: "retry me"})

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, result.Booking.Status)
	// nothing was paid, so no refund path at all
	assert.True(t, result.RefundInfo.RefundAmount.IsZero())
	bookings.AssertExpectations(t)
}

func TestCancel_ConflictAgainstTerminalStateIsInvalidTransition(t *testing.T) {
	bookings := new(MockBookingRepository)
	payments := new(MockPaymentRepository)
	gw := new(MockPaymentGateway)
	settings := new(MockTenantSettings)

	bookings.On("GetByID", mock.Anything, int64(7), int64(42)).Return(paidBooking(72), nil).Once()
	settings.On("GetCancellationPolicy", mock.Anything, int64(7)).Return(testPolicy(), nil)
	bookings.On("Update", mock.Anything, mock.Anything).Return(repository.ErrVersionConflict).Once()

	// re-read shows the other caller already cancelled it
	done := paidBooking(72)
	done.Status = domain.BookingCancelled
	done.Version = 2
	bookings.On("GetByID", mock.Anything, int64(7), int64(42)).Return(done, nil).Once()

	svc := newTestService(bookings, payments, gw, settings)
	_, err := svc.Cancel(context.Background(), 7, 42, CancelRequest{Reason: "raced"})

	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
	payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCancel_OwnerMismatchLooksLikeNotFound(t *testing.T) {
	bookings := new(MockBookingRepository)
	payments := new(MockPaymentRepository)
	gw := new(MockPaymentGateway)
	settings := new(MockTenantSettings)

	bookings.On("GetByID", mock.Anything, int64(7), int64(42)).Return(paidBooking(72), nil)

	svc := newTestService(bookings, payments, gw, settings)
	_, err := svc.Cancel(context.Background(), 7, 42, CancelRequest{Reason: "not mine", MemberID: 999})

	assert.ErrorIs(t, err, ErrNotFound)
	bookings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	settings.AssertNotCalled(t, "GetCancellationPolicy", mock.Anything, mock.Anything)
}
