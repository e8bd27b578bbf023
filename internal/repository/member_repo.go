package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"divemanager/internal/domain"
)

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

type memberModel struct {
	ID           int64     `gorm:"column:id;primaryKey"`
	TenantID     int64     `gorm:"column:tenant_id;uniqueIndex:idx_members_tenant_email"`
	Email        string    `gorm:"column:email;uniqueIndex:idx_members_tenant_email"`
	Name         string    `gorm:"column:name"`
	Phone        *string   `gorm:"column:phone"`
	Role         string    `gorm:"column:role"`
	PasswordHash string    `gorm:"column:password_hash"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (memberModel) TableName() string { return "members" }

func toDomainMember(m memberModel) *domain.Member {
	var phone string
	if m.Phone != nil {
		phone = *m.Phone
	}
	return &domain.Member{
		ID:           m.ID,
		TenantID:     m.TenantID,
		Email:        m.Email,
		Name:         m.Name,
		Phone:        phone,
		Role:         domain.MemberRole(m.Role),
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func (r *MemberRepository) Create(ctx context.Context, member *domain.Member) error {
	var phone *string
	if member.Phone != "" {
		v := member.Phone
		phone = &v
	}
	m := memberModel{
		TenantID:     member.TenantID,
		Email:        member.Email,
		Name:         member.Name,
		Phone:        phone,
		Role:         string(member.Role),
		PasswordHash: member.PasswordHash,
	}
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(tx.Error, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return tx.Error
	}
	*member = *toDomainMember(m)
	return nil
}

func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	var m memberModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, tx.Error
	}
	return toDomainMember(m), nil
}

func (r *MemberRepository) GetByEmail(ctx context.Context, tenantID int64, email string) (*domain.Member, error) {
	var m memberModel
	tx := r.db.WithContext(ctx).
		Where("tenant_id = ? AND email = ?", tenantID, email).
		First(&m)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, tx.Error
	}
	return toDomainMember(m), nil
}
