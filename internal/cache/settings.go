package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"divemanager/internal/domain"
)

// PolicySource is the authoritative lookup behind the cache, normally the
// tenant repository.
type PolicySource interface {
	GetCancellationPolicy(ctx context.Context, tenantID int64) (*domain.CancellationPolicy, error)
}

// SettingsCache is a cache-aside wrapper for tenant cancellation
// policies. Cache failures degrade to direct source reads.
type SettingsCache struct {
	source PolicySource
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewSettingsCache(source PolicySource, client *redis.Client, ttl time.Duration, logger *zap.Logger) *SettingsCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsCache{source: source, client: client, ttl: ttl, logger: logger}
}

func policyKey(tenantID int64) string {
	return fmt.Sprintf("tenant:%d:cancellation_policy", tenantID)
}

func (c *SettingsCache) GetCancellationPolicy(ctx context.Context, tenantID int64) (*domain.CancellationPolicy, error) {
	key := policyKey(tenantID)

	if data, err := c.client.Get(ctx, key).Result(); err == nil {
		var policy domain.CancellationPolicy
		if json.Unmarshal([]byte(data), &policy) == nil {
			return &policy, nil
		}
	}

	policy, err := c.source.GetCancellationPolicy(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(policy); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("settings cache write failed", zap.Int64("tenant_id", tenantID), zap.Error(err))
		}
	}
	return policy, nil
}

// Invalidate drops the cached policy after a settings update.
func (c *SettingsCache) Invalidate(ctx context.Context, tenantID int64) {
	if err := c.client.Del(ctx, policyKey(tenantID)).Err(); err != nil {
		c.logger.Warn("settings cache invalidate failed", zap.Int64("tenant_id", tenantID), zap.Error(err))
	}
}
