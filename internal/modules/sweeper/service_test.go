package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"divemanager/internal/domain"
	"divemanager/internal/pkg/money"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) FindExpired(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

var sweepNow = time.Date(2026, 6, 5, 3, 0, 0, 0, time.UTC)

func expiredBooking(id int64) domain.Booking {
	due := sweepNow.Add(-2 * time.Hour)
	return domain.Booking{
		ID:             id,
		TenantID:       1,
		Status:         domain.BookingPending,
		PaymentStatus:  domain.PaymentUnpaid,
		TotalAmount:    money.FromFloat(150, "USD"),
		AmountPaid:     money.Zero("USD"),
		BookingDate:    sweepNow.Add(48 * time.Hour),
		PaymentDueDate: &due,
		Version:        1,
	}
}

func newTestService(bookings *MockBookingRepository) *Service {
	s := NewService(bookings, nil, nil)
	s.now = func() time.Time { return sweepNow }
	return s
}

func TestSweep_CancelsExpiredCandidates(t *testing.T) {
	bookings := new(MockBookingRepository)
	bookings.On("FindExpired", mock.Anything, sweepNow).
		Return([]domain.Booking{expiredBooking(1), expiredBooking(2)}, nil)

	var updated []domain.Booking
	bookings.On("Update", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
		updated = append(updated, *b)
		return true
	})).Return(nil)

	report, err := newTestService(bookings).Sweep(context.Background(), false)

	assert.NoError(t, err)
	assert.Equal(t, 2, report.Cancelled)
	assert.Len(t, report.Candidates, 2)
	assert.Empty(t, report.Failures)
	for _, b := range updated {
		assert.Equal(t, domain.BookingCancelled, b.Status)
		assert.Equal(t, ExpiredReason, b.CancellationReason)
		assert.NotNil(t, b.CancelledAt)
		assert.Equal(t, sweepNow, *b.CancelledAt)
		// nothing was ever paid, amounts untouched
		assert.True(t, b.AmountPaid.IsZero())
	}
}

func TestSweep_DryRunReportsWithoutMutating(t *testing.T) {
	bookings := new(MockBookingRepository)
	bookings.On("FindExpired", mock.Anything, sweepNow).
		Return([]domain.Booking{expiredBooking(1)}, nil)

	report, err := newTestService(bookings).Sweep(context.Background(), true)

	assert.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Len(t, report.Candidates, 1)
	assert.Equal(t, 0, report.Cancelled)
	bookings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestSweep_SecondRunCancelsNothingExtra(t *testing.T) {
	bookings := new(MockBookingRepository)
	bookings.On("FindExpired", mock.Anything, sweepNow).
		Return([]domain.Booking{expiredBooking(1)}, nil).Once()
	bookings.On("Update", mock.Anything, mock.Anything).Return(nil).Once()
	// the cancelled booking no longer matches the selection query
	bookings.On("FindExpired", mock.Anything, sweepNow).
		Return([]domain.Booking{}, nil).Once()

	svc := newTestService(bookings)

	first, err := svc.Sweep(context.Background(), false)
	assert.NoError(t, err)
	assert.Equal(t, 1, first.Cancelled)

	second, err := svc.Sweep(context.Background(), false)
	assert.NoError(t, err)
	assert.Equal(t, 0, second.Cancelled)
	assert.Empty(t, second.Candidates)
}

func TestSweep_RowFailureDoesNotAbortBatch(t *testing.T) {
	bookings := new(MockBookingRepository)
	bookings.On("FindExpired", mock.Anything, sweepNow).
		Return([]domain.Booking{expiredBooking(1), expiredBooking(2), expiredBooking(3)}, nil)

	bookings.On("Update", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool { return b.ID == 2 })).
		Return(errors.New("row locked"))
	bookings.On("Update", mock.Anything, mock.Anything).Return(nil)

	report, err := newTestService(bookings).Sweep(context.Background(), false)

	assert.NoError(t, err)
	assert.Equal(t, 2, report.Cancelled)
	assert.Len(t, report.Failures, 1)
	assert.Equal(t, int64(2), report.Failures[0].BookingID)
	assert.Contains(t, report.Failures[0].Err, "row locked")
}

func TestSweep_SkipsRowsThatStoppedMatching(t *testing.T) {
	bookings := new(MockBookingRepository)

	// paid in the window between selection and processing
	paid := expiredBooking(1)
	paid.PaymentStatus = domain.PaymentPartial
	bookings.On("FindExpired", mock.Anything, sweepNow).
		Return([]domain.Booking{paid}, nil)

	report, err := newTestService(bookings).Sweep(context.Background(), false)

	assert.NoError(t, err)
	assert.Equal(t, 0, report.Cancelled)
	bookings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
