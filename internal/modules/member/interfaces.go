package member

import (
	"context"

	"divemanager/internal/domain"
)

type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	GetByEmail(ctx context.Context, tenantID int64, email string) (*domain.Member, error)
}

type TokenIssuer interface {
	GenerateToken(memberID, tenantID int64, role string) (string, error)
}
