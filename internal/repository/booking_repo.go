package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"divemanager/internal/domain"
	"divemanager/internal/pkg/money"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID                 int64           `gorm:"column:id;primaryKey"`
	TenantID           int64           `gorm:"column:tenant_id;index"`
	BookingNumber      string          `gorm:"column:booking_number;uniqueIndex"`
	MemberID           int64           `gorm:"column:member_id;index"`
	ActivityName       *string         `gorm:"column:activity_name"`
	Status             string          `gorm:"column:status;index"`
	PaymentStatus      string          `gorm:"column:payment_status"`
	TotalAmount        decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2)"`
	AmountPaid         decimal.Decimal `gorm:"column:amount_paid;type:numeric(12,2)"`
	Currency           string          `gorm:"column:currency"`
	BookingDate        time.Time       `gorm:"column:booking_date;index"`
	PaymentDueDate     *time.Time      `gorm:"column:payment_due_date"`
	CancelledAt        *time.Time      `gorm:"column:cancelled_at"`
	CancellationReason *string         `gorm:"column:cancellation_reason"`
	ReminderSentAt     *time.Time      `gorm:"column:reminder_sent_at"`
	ReviewRequestedAt  *time.Time      `gorm:"column:review_requested_at"`
	Version            int64           `gorm:"column:version"`
	CreatedAt          time.Time       `gorm:"column:created_at"`
	UpdatedAt          time.Time       `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	var activity, reason string
	if m.ActivityName != nil {
		activity = *m.ActivityName
	}
	if m.CancellationReason != nil {
		reason = *m.CancellationReason
	}

	return &domain.Booking{
		ID:                 m.ID,
		TenantID:           m.TenantID,
		BookingNumber:      m.BookingNumber,
		MemberID:           m.MemberID,
		ActivityName:       activity,
		Status:             domain.BookingStatus(m.Status),
		PaymentStatus:      domain.PaymentStatus(m.PaymentStatus),
		TotalAmount:        money.New(m.TotalAmount, m.Currency),
		AmountPaid:         money.New(m.AmountPaid, m.Currency),
		BookingDate:        m.BookingDate,
		PaymentDueDate:     m.PaymentDueDate,
		CancelledAt:        m.CancelledAt,
		CancellationReason: reason,
		ReminderSentAt:     m.ReminderSentAt,
		ReviewRequestedAt:  m.ReviewRequestedAt,
		Version:            m.Version,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	var activity, reason *string
	if b.ActivityName != "" {
		v := b.ActivityName
		activity = &v
	}
	if b.CancellationReason != "" {
		v := b.CancellationReason
		reason = &v
	}

	return bookingModel{
		ID:                 b.ID,
		TenantID:           b.TenantID,
		BookingNumber:      b.BookingNumber,
		MemberID:           b.MemberID,
		ActivityName:       activity,
		Status:             string(b.Status),
		PaymentStatus:      string(b.PaymentStatus),
		TotalAmount:        b.TotalAmount.Amount,
		AmountPaid:         b.AmountPaid.Amount,
		Currency:           b.TotalAmount.Currency,
		BookingDate:        b.BookingDate,
		PaymentDueDate:     b.PaymentDueDate,
		CancelledAt:        b.CancelledAt,
		CancellationReason: reason,
		ReminderSentAt:     b.ReminderSentAt,
		ReviewRequestedAt:  b.ReviewRequestedAt,
		Version:            b.Version,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	m.Version = 1
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(tx.Error, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return tx.Error
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, tenantID, id int64) (*domain.Booking, error) {
	var m bookingModel
	tx := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&m, id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, tx.Error
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) GetByNumber(ctx context.Context, tenantID int64, number string) (*domain.Booking, error) {
	var m bookingModel
	tx := r.db.WithContext(ctx).
		Where("tenant_id = ? AND booking_number = ?", tenantID, number).
		First(&m)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, tx.Error
	}
	return toDomainBooking(m), nil
}

// Update writes b conditionally on the version it was read at. A raced
// writer leaves zero rows matched and the caller gets ErrVersionConflict;
// re-reading decides whether the booking moved to a terminal state.
func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	tx := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("id = ? AND version = ?", b.ID, b.Version).
		Updates(map[string]any{
			"status":              m.Status,
			"payment_status":      m.PaymentStatus,
			"amount_paid":         m.AmountPaid,
			"cancelled_at":        m.CancelledAt,
			"cancellation_reason": m.CancellationReason,
			"reminder_sent_at":    m.ReminderSentAt,
			"review_requested_at": m.ReviewRequestedAt,
			"version":             b.Version + 1,
			"updated_at":          time.Now().UTC(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrVersionConflict
	}
	b.Version++
	return nil
}

// FindExpired selects the expiration-sweep candidates across all
// tenants: pending, unpaid, payment deadline passed.
func (r *BookingRepository) FindExpired(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	var rows []bookingModel
	tx := r.db.WithContext(ctx).
		Where("status = ? AND payment_status = ? AND payment_due_date IS NOT NULL AND payment_due_date < ?",
			string(domain.BookingPending), string(domain.PaymentUnpaid), now).
		Order("payment_due_date ASC").
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBookings(rows), nil
}

// FindAbandoned selects pending unpaid bookings created before the
// cutoff that never got a payment reminder and whose deadline has not
// passed yet.
func (r *BookingRepository) FindAbandoned(ctx context.Context, createdBefore, now time.Time) ([]domain.Booking, error) {
	var rows []bookingModel
	tx := r.db.WithContext(ctx).
		Where("status = ? AND payment_status = ? AND created_at < ? AND reminder_sent_at IS NULL AND (payment_due_date IS NULL OR payment_due_date >= ?)",
			string(domain.BookingPending), string(domain.PaymentUnpaid), createdBefore, now).
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBookings(rows), nil
}

// FindCompletedNeedingReview selects bookings completed within the
// window that were never asked for a review.
func (r *BookingRepository) FindCompletedNeedingReview(ctx context.Context, completedAfter time.Time) ([]domain.Booking, error) {
	var rows []bookingModel
	tx := r.db.WithContext(ctx).
		Where("status = ? AND review_requested_at IS NULL AND booking_date >= ?",
			string(domain.BookingCompleted), completedAfter).
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBookings(rows), nil
}

// FindOverdueConfirmed selects confirmed bookings whose date passed
// before the cutoff and that were never checked in: no-show candidates.
func (r *BookingRepository) FindOverdueConfirmed(ctx context.Context, cutoff time.Time) ([]domain.Booking, error) {
	var rows []bookingModel
	tx := r.db.WithContext(ctx).
		Where("status = ? AND booking_date < ?", string(domain.BookingConfirmed), cutoff).
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBookings(rows), nil
}

func toDomainBookings(rows []bookingModel) []domain.Booking {
	out := make([]domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out
}
