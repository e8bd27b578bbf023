package domain

import "time"

type LeadStatus string

const (
	LeadNew       LeadStatus = "new"
	LeadContacted LeadStatus = "contacted"
	LeadConverted LeadStatus = "converted"
	LeadClosed    LeadStatus = "closed"
)

// Lead is a marketing contact moving through the nurture sequence.
// NurtureStep counts how many sequence mails were already sent.
type Lead struct {
	ID            int64      `json:"id"`
	TenantID      int64      `json:"tenant_id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Status        LeadStatus `json:"status"`
	NurtureStep   int        `json:"nurture_step"`
	LastNurtureAt *time.Time `json:"last_nurture_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
