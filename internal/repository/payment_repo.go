package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"divemanager/internal/domain"
	"divemanager/internal/pkg/money"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

type paymentModel struct {
	ID              int64           `gorm:"column:id;primaryKey"`
	TenantID        int64           `gorm:"column:tenant_id;index"`
	BookingID       int64           `gorm:"column:booking_id;index"`
	Reference       string          `gorm:"column:reference;uniqueIndex"`
	Amount          decimal.Decimal `gorm:"column:amount;type:numeric(12,2)"`
	Currency        string          `gorm:"column:currency"`
	Method          string          `gorm:"column:method"`
	Status          string          `gorm:"column:status"`
	Type            string          `gorm:"column:type"`
	GatewayChargeID *string         `gorm:"column:gateway_charge_id;index"`
	GatewayRefundID *string         `gorm:"column:gateway_refund_id"`
	RefundedAmount  decimal.Decimal `gorm:"column:refunded_amount;type:numeric(12,2)"`
	FailureReason   *string         `gorm:"column:failure_reason"`
	PaidAt          *time.Time      `gorm:"column:paid_at"`
	CreatedAt       time.Time       `gorm:"column:created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at"`
}

func (paymentModel) TableName() string { return "payments" }

func toDomainPayment(m paymentModel) *domain.Payment {
	var chargeID, refundID, failure string
	if m.GatewayChargeID != nil {
		chargeID = *m.GatewayChargeID
	}
	if m.GatewayRefundID != nil {
		refundID = *m.GatewayRefundID
	}
	if m.FailureReason != nil {
		failure = *m.FailureReason
	}

	return &domain.Payment{
		ID:              m.ID,
		TenantID:        m.TenantID,
		BookingID:       m.BookingID,
		Reference:       m.Reference,
		Amount:          money.New(m.Amount, m.Currency),
		Method:          domain.PaymentMethod(m.Method),
		Status:          domain.PaymentRecordStatus(m.Status),
		Type:            domain.PaymentType(m.Type),
		GatewayChargeID: chargeID,
		GatewayRefundID: refundID,
		RefundedAmount:  money.New(m.RefundedAmount, m.Currency),
		FailureReason:   failure,
		PaidAt:          m.PaidAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toPaymentModel(p *domain.Payment) paymentModel {
	strPtr := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}

	return paymentModel{
		ID:              p.ID,
		TenantID:        p.TenantID,
		BookingID:       p.BookingID,
		Reference:       p.Reference,
		Amount:          p.Amount.Amount,
		Currency:        p.Amount.Currency,
		Method:          string(p.Method),
		Status:          string(p.Status),
		Type:            string(p.Type),
		GatewayChargeID: strPtr(p.GatewayChargeID),
		GatewayRefundID: strPtr(p.GatewayRefundID),
		RefundedAmount:  p.RefundedAmount.Amount,
		FailureReason:   strPtr(p.FailureReason),
		PaidAt:          p.PaidAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	m := toPaymentModel(p)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*p = *toDomainPayment(m)
	return nil
}

func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	var rows []paymentModel
	tx := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Payment, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainPayment(m))
	}
	return out, nil
}

// FindRefundableCharge returns the most recent completed charge for a
// booking, with gateway-backed charges preferred over manual ones.
func (r *PaymentRepository) FindRefundableCharge(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	var m paymentModel
	tx := r.db.WithContext(ctx).
		Where("booking_id = ? AND type IN ? AND status = ?",
			bookingID,
			[]string{string(domain.PaymentTypePayment), string(domain.PaymentTypeDeposit)},
			string(domain.PaymentRecordCompleted)).
		Order("CASE WHEN gateway_charge_id IS NULL THEN 1 ELSE 0 END, created_at DESC").
		First(&m)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, tx.Error
	}
	return toDomainPayment(m), nil
}

// GetByGatewayChargeID is the webhook idempotency lookup: an intent id
// already recorded means the event was applied before.
func (r *PaymentRepository) GetByGatewayChargeID(ctx context.Context, chargeID string) (*domain.Payment, error) {
	var m paymentModel
	tx := r.db.WithContext(ctx).Where("gateway_charge_id = ?", chargeID).First(&m)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, tx.Error
	}
	return toDomainPayment(m), nil
}

// AddRefundedAmount accumulates a refund against a completed charge row
// and flips its status to refunded / partial_refund.
func (r *PaymentRepository) AddRefundedAmount(ctx context.Context, paymentID int64, amount money.Money) error {
	var m paymentModel
	if err := r.db.WithContext(ctx).First(&m, paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	refunded := m.RefundedAmount.Add(amount.Amount)
	status := string(domain.PaymentRecordPartialRefund)
	if refunded.GreaterThanOrEqual(m.Amount) {
		status = string(domain.PaymentRecordRefunded)
	}

	return r.db.WithContext(ctx).
		Model(&paymentModel{}).
		Where("id = ?", paymentID).
		Updates(map[string]any{
			"refunded_amount": refunded,
			"status":          status,
			"updated_at":      time.Now().UTC(),
		}).Error
}
