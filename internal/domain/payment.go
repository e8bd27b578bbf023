package domain

import (
	"time"

	"divemanager/internal/pkg/money"
)

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodCard         PaymentMethod = "card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodStripe       PaymentMethod = "stripe"
	MethodOther        PaymentMethod = "other"
)

type PaymentRecordStatus string

const (
	PaymentRecordPending       PaymentRecordStatus = "pending"
	PaymentRecordCompleted     PaymentRecordStatus = "completed"
	PaymentRecordFailed        PaymentRecordStatus = "failed"
	PaymentRecordRefunded      PaymentRecordStatus = "refunded"
	PaymentRecordPartialRefund PaymentRecordStatus = "partial_refund"
)

type PaymentType string

const (
	PaymentTypePayment PaymentType = "payment"
	PaymentTypeDeposit PaymentType = "deposit"
	PaymentTypeRefund  PaymentType = "refund"
)

// Payment is one monetary event against a booking: a charge, a manually
// recorded payment, or a refund. Completed rows are immutable except for
// RefundedAmount accumulation on charges.
type Payment struct {
	ID        int64  `json:"id"`
	TenantID  int64  `json:"tenant_id"`
	BookingID int64  `json:"booking_id"`
	Reference string `json:"reference"`

	Amount money.Money         `json:"amount"`
	Method PaymentMethod       `json:"method"`
	Status PaymentRecordStatus `json:"status"`
	Type   PaymentType         `json:"type"`

	GatewayChargeID string `json:"gateway_charge_id,omitempty"`
	GatewayRefundID string `json:"gateway_refund_id,omitempty"`

	RefundedAmount money.Money `json:"refunded_amount"`
	FailureReason  string      `json:"failure_reason,omitempty"`
	PaidAt         *time.Time  `json:"paid_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}
