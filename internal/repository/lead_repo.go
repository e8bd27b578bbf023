package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"divemanager/internal/domain"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

type leadModel struct {
	ID            int64      `gorm:"column:id;primaryKey"`
	TenantID      int64      `gorm:"column:tenant_id;uniqueIndex:idx_leads_tenant_email"`
	Email         string     `gorm:"column:email;uniqueIndex:idx_leads_tenant_email"`
	Name          string     `gorm:"column:name"`
	Status        string     `gorm:"column:status;index"`
	NurtureStep   int        `gorm:"column:nurture_step"`
	LastNurtureAt *time.Time `gorm:"column:last_nurture_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (leadModel) TableName() string { return "leads" }

func toDomainLead(m leadModel) domain.Lead {
	return domain.Lead{
		ID:            m.ID,
		TenantID:      m.TenantID,
		Email:         m.Email,
		Name:          m.Name,
		Status:        domain.LeadStatus(m.Status),
		NurtureStep:   m.NurtureStep,
		LastNurtureAt: m.LastNurtureAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	m := leadModel{
		TenantID:    lead.TenantID,
		Email:       lead.Email,
		Name:        lead.Name,
		Status:      string(lead.Status),
		NurtureStep: lead.NurtureStep,
	}
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(tx.Error, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return tx.Error
	}
	*lead = toDomainLead(m)
	return nil
}

// FindOpen returns leads still in the nurture funnel.
func (r *LeadRepository) FindOpen(ctx context.Context) ([]domain.Lead, error) {
	var rows []leadModel
	tx := r.db.WithContext(ctx).
		Where("status IN ?", []string{string(domain.LeadNew), string(domain.LeadContacted)}).
		Order("created_at ASC").
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Lead, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainLead(m))
	}
	return out, nil
}

func (r *LeadRepository) MarkNurtured(ctx context.Context, leadID int64, step int, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&leadModel{}).
		Where("id = ?", leadID).
		Updates(map[string]any{
			"nurture_step":    step,
			"status":          string(domain.LeadContacted),
			"last_nurture_at": at,
			"updated_at":      at,
		}).Error
}
