package cancellation

import (
	"sort"
	"time"

	"divemanager/internal/domain"
	"divemanager/internal/pkg/money"
)

type RefundInfo struct {
	RefundAmount  money.Money `json:"refund_amount"`
	RefundPercent int         `json:"refund_percent"`
}

// RefundPercentFor evaluates the tenant's tier table: tiers are checked
// in descending threshold order and the first tier whose threshold is
// at or below hoursUntilStart wins, so cancelling earlier never pays
// out less. A start already in the past refunds nothing.
func RefundPercentFor(hoursUntilStart float64, tiers []domain.RefundTier) int {
	if hoursUntilStart < 0 {
		return 0
	}

	sorted := make([]domain.RefundTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].HoursBefore > sorted[j].HoursBefore
	})

	for _, t := range sorted {
		if float64(t.HoursBefore) <= hoursUntilStart {
			return clampPercent(t.RefundPercent)
		}
	}
	return 0
}

// ComputeRefund derives the refundable slice of what was actually paid.
func ComputeRefund(b domain.Booking, tiers []domain.RefundTier, now time.Time) RefundInfo {
	percent := RefundPercentFor(b.HoursUntilStart(now), tiers)
	if !b.AmountPaid.IsPositive() {
		return RefundInfo{
			RefundAmount:  money.Zero(b.TotalAmount.Currency),
			RefundPercent: percent,
		}
	}
	return RefundInfo{
		RefundAmount:  b.AmountPaid.Percent(percent),
		RefundPercent: percent,
	}
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
