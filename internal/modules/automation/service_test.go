package automation

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

func (m *MockBookingRepository) FindAbandoned(ctx context.Context, createdBefore, now time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, createdBefore, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindCompletedNeedingReview(ctx context.Context, completedAfter time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, completedAfter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindOverdueConfirmed(ctx context.Context, cutoff time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) FindOpen(ctx context.Context) ([]domain.Lead, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Lead), args.Error(1)
}

func (m *MockLeadRepository) MarkNurtured(ctx context.Context, leadID int64, step int, at time.Time) error {
	args := m.Called(ctx, leadID, step, at)
	return args.Error(0)
}

type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(to, subject, body string) error {
	args := m.Called(to, subject, body)
	return args.Error(0)
}

var testNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestService(bookings *MockBookingRepository, leads *MockLeadRepository, members *MockMemberRepository, mailer *MockMailer) *Service {
	s := NewService(bookings, leads, members, mailer, 24*time.Hour, 7, nil)
	s.now = func() time.Time { return testNow }
	return s
}

func noBookingWork(bookings *MockBookingRepository) {
	bookings.On("FindAbandoned", mock.Anything, mock.Anything, mock.Anything).Return([]domain.Booking{}, nil)
	bookings.On("FindCompletedNeedingReview", mock.Anything, mock.Anything).Return([]domain.Booking{}, nil)
	bookings.On("FindOverdueConfirmed", mock.Anything, mock.Anything).Return([]domain.Booking{}, nil)
}

func TestRun_NurturesDueLeads(t *testing.T) {
	bookings := new(MockBookingRepository)
	leads := new(MockLeadRepository)
	members := new(MockMemberRepository)
	mailer := new(MockMailer)
	s := newTestService(bookings, leads, members, mailer)

	noBookingWork(bookings)
	dueLead := domain.Lead{
		ID:          1,
		Email:       "diver@example.com",
		Status:      domain.LeadNew,
		CreatedAt:   testNow.Add(-4 * 24 * time.Hour),
		NurtureStep: 1,
	}
	notDue := domain.Lead{
		ID:          2,
		Email:       "fresh@example.com",
		Status:      domain.LeadNew,
		CreatedAt:   testNow.Add(-1 * time.Hour),
		NurtureStep: 1,
	}
	exhausted := domain.Lead{
		ID:          3,
		Email:       "done@example.com",
		CreatedAt:   testNow.Add(-30 * 24 * time.Hour),
		NurtureStep: 3,
	}
	leads.On("FindOpen", mock.Anything).Return([]domain.Lead{dueLead, notDue, exhausted}, nil)
	mailer.On("Send", "diver@example.com", mock.Anything, mock.Anything).Return(nil)
	leads.On("MarkNurtured", mock.Anything, int64(1), 2, testNow).Return(nil)

	report := s.Run(context.Background())

	assert.Equal(t, 1, report.LeadsNurtured)
	assert.Equal(t, 0, report.Failures)
	mailer.AssertNumberOfCalls(t, "Send", 1)
	leads.AssertExpectations(t)
}

func TestRun_SendsAbandonedReminders(t *testing.T) {
	bookings := new(MockBookingRepository)
	leads := new(MockLeadRepository)
	members := new(MockMemberRepository)
	mailer := new(MockMailer)
	s := newTestService(bookings, leads, members, mailer)

	leads.On("FindOpen", mock.Anything).Return([]domain.Lead{}, nil)
	abandoned := domain.Booking{
		ID:            42,
		TenantID:      7,
		BookingNumber: "BK-ABANDONED1",
		MemberID:      9,
		Status:        domain.BookingPending,
		PaymentStatus: domain.PaymentUnpaid,
		TotalAmount:   money.FromFloat(120, "USD"),
		AmountPaid:    money.Zero("USD"),
	}
	bookings.On("FindAbandoned", mock.Anything, testNow.Add(-24*time.Hour), testNow).
		Return([]domain.Booking{abandoned}, nil)
	bookings.On("FindCompletedNeedingReview", mock.Anything, mock.Anything).Return([]domain.Booking{}, nil)
	bookings.On("FindOverdueConfirmed", mock.Anything, mock.Anything).Return([]domain.Booking{}, nil)
	members.On("GetByID", mock.Anything, int64(9)).
		Return(&domain.Member{ID: 9, Email: "diver@example.com", Name: "Jo"}, nil)
	mailer.On("Send", "diver@example.com", mock.Anything, mock.MatchedBy(func(body string) bool {
		return len(body) > 0
	})).Return(nil)
	bookings.On("Update", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.ReminderSentAt != nil && b.ReminderSentAt.Equal(testNow)
	})).Return(nil)

	report := s.Run(context.Background())

	assert.Equal(t, 1, report.RemindersSent)
	assert.Equal(t, 0, report.Failures)
	bookings.AssertExpectations(t)
}

func TestRun_RequestsReviews(t *testing.T) {
	bookings := new(MockBookingRepository)
	leads := new(MockLeadRepository)
	members := new(MockMemberRepository)
	mailer := new(MockMailer)
	s := newTestService(bookings, leads, members, mailer)

	completed := domain.Booking{
		ID:          50,
		MemberID:    9,
		Status:      domain.BookingCompleted,
		BookingDate: testNow.Add(-2 * 24 * time.Hour),
	}
	leads.On("FindOpen", mock.Anything).Return([]domain.Lead{}, nil)
	bookings.On("FindAbandoned", mock.Anything, mock.Anything, mock.Anything).Return([]domain.Booking{}, nil)
	bookings.On("FindCompletedNeedingReview", mock.Anything, testNow.Add(-7*24*time.Hour)).
		Return([]domain.Booking{completed}, nil)
	bookings.On("FindOverdueConfirmed", mock.Anything, mock.Anything).Return([]domain.Booking{}, nil)
	members.On("GetByID", mock.Anything, int64(9)).
		Return(&domain.Member{ID: 9, Email: "diver@example.com", Name: "Jo"}, nil)
	mailer.On("Send", "diver@example.com", "How was your dive?", mock.Anything).Return(nil)
	bookings.On("Update", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.ReviewRequestedAt != nil
	})).Return(nil)

	report := s.Run(context.Background())

	assert.Equal(t, 1, report.ReviewsRequested)
	bookings.AssertExpectations(t)
}

func TestRun_MarksNoShows(t *testing.T) {
	bookings := new(MockBookingRepository)
	leads := new(MockLeadRepository)
	members := new(MockMemberRepository)
	mailer := new(MockMailer)
	s := newTestService(bookings, leads, members, mailer)

	leads.On("FindOpen", mock.Anything).Return([]domain.Lead{}, nil)
	overdue := domain.Booking{
		ID:          60,
		Status:      domain.BookingConfirmed,
		BookingDate: testNow.Add(-48 * time.Hour),
	}
	bookings.On("FindAbandoned", mock.Anything, mock.Anything, mock.Anything).Return([]domain.Booking{}, nil)
	bookings.On("FindCompletedNeedingReview", mock.Anything, mock.Anything).Return([]domain.Booking{}, nil)
	bookings.On("FindOverdueConfirmed", mock.Anything, testNow.Add(-24*time.Hour)).
		Return([]domain.Booking{overdue}, nil)
	bookings.On("Update", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.Status == domain.BookingNoShow
	})).Return(nil)

	report := s.Run(context.Background())

	assert.Equal(t, 1, report.NoShowsMarked)
	bookings.AssertExpectations(t)
}

func TestRun_MailFailureDoesNotStampLead(t *testing.T) {
	bookings := new(MockBookingRepository)
	leads := new(MockLeadRepository)
	members := new(MockMemberRepository)
	mailer := new(MockMailer)
	s := newTestService(bookings, leads, members, mailer)

	noBookingWork(bookings)
	lead := domain.Lead{
		ID:        1,
		Email:     "diver@example.com",
		CreatedAt: testNow.Add(-10 * 24 * time.Hour),
	}
	leads.On("FindOpen", mock.Anything).Return([]domain.Lead{lead}, nil)
	mailer.On("Send", "diver@example.com", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	report := s.Run(context.Background())

	assert.Equal(t, 0, report.LeadsNurtured)
	assert.Equal(t, 1, report.Failures)
	leads.AssertNotCalled(t, "MarkNurtured", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_SelectionFailureContinuesOtherPasses(t *testing.T) {
	bookings := new(MockBookingRepository)
	leads := new(MockLeadRepository)
	members := new(MockMemberRepository)
	mailer := new(MockMailer)
	s := newTestService(bookings, leads, members, mailer)

	leads.On("FindOpen", mock.Anything).Return(nil, errors.New("db down"))
	bookings.On("FindAbandoned", mock.Anything, mock.Anything, mock.Anything).Return([]domain.Booking{}, nil)
	bookings.On("FindCompletedNeedingReview", mock.Anything, mock.Anything).Return([]domain.Booking{}, nil)
	overdue := domain.Booking{
		ID:          60,
		Status:      domain.BookingConfirmed,
		BookingDate: testNow.Add(-48 * time.Hour),
	}
	bookings.On("FindOverdueConfirmed", mock.Anything, mock.Anything).Return([]domain.Booking{overdue}, nil)
	bookings.On("Update", mock.Anything, mock.Anything).Return(nil)

	report := s.Run(context.Background())

	assert.Equal(t, 1, report.Failures)
	assert.Equal(t, 1, report.NoShowsMarked)
}
