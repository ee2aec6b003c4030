package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chatnil/compliancehub/internal/domain"
)

// DefaultDashboardTTL applies when NewDashboardCache is given a non-positive TTL.
const DefaultDashboardTTL = 60 * time.Second

// DashboardCache implements domain.DashboardCache as JSON strings keyed by
// institution.
//
// Key schema:
//
//	compliancehub:dashboard:{institutionID} - JSON DashboardSummary
type DashboardCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewDashboardCache creates a DashboardCache whose entries expire after ttl.
func NewDashboardCache(c *Client, ttl time.Duration) *DashboardCache {
	if ttl <= 0 {
		ttl = DefaultDashboardTTL
	}
	return &DashboardCache{rdb: c.Underlying(), ttl: ttl}
}

func dashboardKey(institutionID string) string {
	return "compliancehub:dashboard:" + institutionID
}

// Get returns the cached summary, or domain.ErrCacheMiss.
func (dc *DashboardCache) Get(ctx context.Context, institutionID string) (domain.DashboardSummary, error) {
	data, err := dc.rdb.Get(ctx, dashboardKey(institutionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.DashboardSummary{}, domain.ErrCacheMiss
		}
		return domain.DashboardSummary{}, fmt.Errorf("redis: get dashboard %s: %w", institutionID, err)
	}

	var summary domain.DashboardSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return domain.DashboardSummary{}, fmt.Errorf("redis: unmarshal dashboard %s: %w", institutionID, err)
	}
	return summary, nil
}

// Set stores summary with the configured TTL.
func (dc *DashboardCache) Set(ctx context.Context, institutionID string, summary domain.DashboardSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("redis: marshal dashboard %s: %w", institutionID, err)
	}
	if err := dc.rdb.Set(ctx, dashboardKey(institutionID), data, dc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set dashboard %s: %w", institutionID, err)
	}
	return nil
}

// Invalidate drops the cached summary for an institution.
func (dc *DashboardCache) Invalidate(ctx context.Context, institutionID string) error {
	if err := dc.rdb.Del(ctx, dashboardKey(institutionID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate dashboard %s: %w", institutionID, err)
	}
	return nil
}

var _ domain.DashboardCache = (*DashboardCache)(nil)
