package cancellation

import "divemanager/internal/domain"

type CancelRequest struct {
	Reason string `json:"reason" binding:"required"`
	// AllowOverride bypasses the cancellation window guard; handlers set
	// it only for staff-initiated cancellations.
	AllowOverride bool   `json:"-"`
	InitiatedBy   string `json:"-"`
	// MemberID restricts cancellation to the booking's owner. Portal
	// handlers set it from the token; staff requests leave it zero.
	MemberID int64 `json:"-"`
}

type CancellationResult struct {
	Booking    domain.Booking `json:"booking"`
	RefundInfo RefundInfo     `json:"refund_info"`
	// RefundPending flags a gateway-side refund failure needing manual
	// follow-up; the cancellation itself has committed.
	RefundPending bool   `json:"refund_pending"`
	RefundFailure string `json:"refund_failure,omitempty"`
}
