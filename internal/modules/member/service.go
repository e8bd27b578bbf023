package member

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"divemanager/internal/domain"
	"divemanager/internal/repository"
)

type Service struct {
	members MemberRepository
	tokens  TokenIssuer
	logger  *zap.Logger
}

func NewService(members MemberRepository, tokens TokenIssuer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{members: members, tokens: tokens, logger: logger}
}

func (s *Service) Register(ctx context.Context, tenantID int64, req RegisterRequest) (*AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	m := domain.Member{
		TenantID:     tenantID,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         req.Name,
		Phone:        req.Phone,
		Role:         domain.RoleMember,
		PasswordHash: string(hash),
	}
	if err := s.members.Create(ctx, &m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	token, err := s.tokens.GenerateToken(m.ID, tenantID, string(m.Role))
	if err != nil {
		return nil, err
	}

	s.logger.Info("member registered",
		zap.Int64("member_id", m.ID),
		zap.Int64("tenant_id", tenantID))
	return &AuthResponse{Token: token, Member: &m}, nil
}

func (s *Service) Login(ctx context.Context, tenantID int64, req LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	m, err := s.members.GetByEmail(ctx, tenantID, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(m.ID, m.TenantID, string(m.Role))
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, Member: m}, nil
}
