package lead

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"divemanager/internal/domain"
	"divemanager/internal/repository"
)

var ErrAlreadyCaptured = errors.New("lead already captured")

type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) error
}

type CaptureRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"`
}

// Service captures marketing leads from the public site. Captured leads
// enter the nurture sequence run by the automation job.
type Service struct {
	leads  LeadRepository
	logger *zap.Logger
}

func NewService(leads LeadRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{leads: leads, logger: logger}
}

func (s *Service) Capture(ctx context.Context, tenantID int64, req CaptureRequest) (*domain.Lead, error) {
	l := domain.Lead{
		TenantID: tenantID,
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Name:     req.Name,
		Status:   domain.LeadNew,
	}
	if err := s.leads.Create(ctx, &l); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyCaptured
		}
		return nil, err
	}

	s.logger.Info("lead captured",
		zap.Int64("lead_id", l.ID),
		zap.Int64("tenant_id", tenantID))
	return &l, nil
}
