package domain

import (
	"context"
	"time"
)

// DashboardCache holds recently computed summaries per institution.
type DashboardCache interface {
	Get(ctx context.Context, institutionID string) (DashboardSummary, error)
	Set(ctx context.Context, institutionID string, summary DashboardSummary) error
	Invalidate(ctx context.Context, institutionID string) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides pub/sub fan-out of compliance events.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
