package domain

import "time"

type Tenant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RefundTier maps "at least HoursBefore hours until the activity start"
// to a refund percentage.
type RefundTier struct {
	HoursBefore   int `json:"hours_before"`
	RefundPercent int `json:"refund_percent"`
}

// CancellationPolicy is per-tenant configuration: below CancellationHours
// self-service cancellation is disallowed entirely; Tiers decide the
// refund percentage above it.
type CancellationPolicy struct {
	CancellationHours int          `json:"cancellation_hours"`
	Tiers             []RefundTier `json:"tiers"`
}

// DefaultRefundTiers is the policy applied to tenants that never
// configured their own: full refund at 48h, half at 24h, nothing below.
var DefaultRefundTiers = []RefundTier{
	{HoursBefore: 48, RefundPercent: 100},
	{HoursBefore: 24, RefundPercent: 50},
	{HoursBefore: 0, RefundPercent: 0},
}
