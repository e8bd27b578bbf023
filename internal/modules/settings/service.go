package settings

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"divemanager/internal/domain"
)

type TenantRepository interface {
	GetCancellationPolicy(ctx context.Context, tenantID int64) (*domain.CancellationPolicy, error)
	UpdateCancellationPolicy(ctx context.Context, tenantID int64, policy domain.CancellationPolicy) error
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context, tenantID int64)
}

// Service manages the per-tenant cancellation policy. Writes go to the
// database and drop the cached copy.
type Service struct {
	tenants TenantRepository
	cache   CacheInvalidator
	logger  *zap.Logger
}

func NewService(tenants TenantRepository, cache CacheInvalidator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{tenants: tenants, cache: cache, logger: logger}
}

func (s *Service) GetCancellationPolicy(ctx context.Context, tenantID int64) (*domain.CancellationPolicy, error) {
	return s.tenants.GetCancellationPolicy(ctx, tenantID)
}

func (s *Service) UpdateCancellationPolicy(ctx context.Context, tenantID int64, policy domain.CancellationPolicy) error {
	if err := validatePolicy(policy); err != nil {
		return err
	}

	// store tiers sorted strictest-first so reads never depend on
	// client ordering
	sort.Slice(policy.Tiers, func(i, j int) bool {
		return policy.Tiers[i].HoursBefore > policy.Tiers[j].HoursBefore
	})

	if err := s.tenants.UpdateCancellationPolicy(ctx, tenantID, policy); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, tenantID)
	}

	s.logger.Info("cancellation policy updated",
		zap.Int64("tenant_id", tenantID),
		zap.Int("cancellation_hours", policy.CancellationHours),
		zap.Int("tiers", len(policy.Tiers)))
	return nil
}

func validatePolicy(policy domain.CancellationPolicy) error {
	if policy.CancellationHours < 0 {
		return fmt.Errorf("%w: cancellation hours cannot be negative", ErrInvalidPolicy)
	}
	if len(policy.Tiers) == 0 {
		return fmt.Errorf("%w: at least one refund tier is required", ErrInvalidPolicy)
	}
	for _, tier := range policy.Tiers {
		if tier.HoursBefore < 0 {
			return fmt.Errorf("%w: tier hours cannot be negative", ErrInvalidPolicy)
		}
		if tier.RefundPercent < 0 || tier.RefundPercent > 100 {
			return fmt.Errorf("%w: refund percent must be between 0 and 100", ErrInvalidPolicy)
		}
	}
	return nil
}
