package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"divemanager/internal/domain"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

type tenantModel struct {
	ID                int64     `gorm:"column:id;primaryKey"`
	Name              string    `gorm:"column:name"`
	Slug              string    `gorm:"column:slug;uniqueIndex"`
	Currency          string    `gorm:"column:currency"`
	CancellationHours int       `gorm:"column:cancellation_hours"`
	RefundTiers       []byte    `gorm:"column:refund_tiers;type:jsonb"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (tenantModel) TableName() string { return "tenants" }

func (r *TenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	m := tenantModel{
		Name:     tenant.Name,
		Slug:     tenant.Slug,
		Currency: tenant.Currency,
	}
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	tenant.ID = m.ID
	tenant.CreatedAt = m.CreatedAt
	tenant.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *TenantRepository) GetByID(ctx context.Context, id int64) (*domain.Tenant, error) {
	var m tenantModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, tx.Error
	}
	return &domain.Tenant{
		ID:        m.ID,
		Name:      m.Name,
		Slug:      m.Slug,
		Currency:  m.Currency,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

// GetCancellationPolicy reads the tenant's refund tier table. Tenants
// without configured tiers get the default policy.
func (r *TenantRepository) GetCancellationPolicy(ctx context.Context, tenantID int64) (*domain.CancellationPolicy, error) {
	var m tenantModel
	tx := r.db.WithContext(ctx).First(&m, tenantID)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, tx.Error
	}

	policy := &domain.CancellationPolicy{
		CancellationHours: m.CancellationHours,
		Tiers:             domain.DefaultRefundTiers,
	}
	if len(m.RefundTiers) > 0 {
		var tiers []domain.RefundTier
		if err := json.Unmarshal(m.RefundTiers, &tiers); err != nil {
			return nil, fmt.Errorf("tenant %d refund tiers: %w", tenantID, err)
		}
		if len(tiers) > 0 {
			policy.Tiers = tiers
		}
	}
	return policy, nil
}

func (r *TenantRepository) UpdateCancellationPolicy(ctx context.Context, tenantID int64, policy domain.CancellationPolicy) error {
	tiers, err := json.Marshal(policy.Tiers)
	if err != nil {
		return err
	}
	tx := r.db.WithContext(ctx).
		Model(&tenantModel{}).
		Where("id = ?", tenantID).
		Updates(map[string]any{
			"cancellation_hours": policy.CancellationHours,
			"refund_tiers":       tiers,
			"updated_at":         time.Now().UTC(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
