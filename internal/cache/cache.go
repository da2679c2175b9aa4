package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dilshand3/SubsFlow/internal/logger"
	"github.com/dilshand3/SubsFlow/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// TTLs carried over from the original deployment.
const (
	UserTTL      = time.Hour
	PlanListTTL  = time.Hour
	UserSubsTTL  = 5 * time.Minute
	StatsTTL     = 5 * time.Minute
	AuditLogsTTL = time.Minute
)

func UserKey(customerID string) string     { return "user:" + customerID }
func UserSubsKey(customerID string) string { return "user_subs:" + customerID }
func AuditLogsUserKey(customerID string) string {
	return "audit_logs:user:" + customerID
}

const (
	AllPlansListKey      = "all_plans_list"
	PlansListForAdminKey = "plans_listForAdmin"
	AdminStatsKey        = "admin:stats"
	AuditLogsAllKey      = "audit_logs:all"
)

type Cache struct {
	rdb *redis.Client
}

func New(addr string) *Cache {
	return &Cache{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// NewFromClient wraps an existing client; used by tests with redismock.
func NewFromClient(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}

// GetJSON loads key into dest. Returns false on a miss; cache absence always
// falls back to the durable store.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("bad cache payload for %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// Invalidate deletes keys best-effort after a committed mutation. Failures
// are logged and counted but never surfaced to the caller.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		metrics.RecordCacheInvalidationFailure()
		logger.Errorf("Cache invalidation failed for %v: %v", keys, err)
	}
}

// InvalidateSubscriptionViews drops every cached read a committed
// purchase/cancel/switch/reconcile can have staled.
func (c *Cache) InvalidateSubscriptionViews(ctx context.Context, customerID string) {
	c.Invalidate(ctx,
		UserSubsKey(customerID),
		AllPlansListKey,
		PlansListForAdminKey,
		AdminStatsKey,
		AuditLogsAllKey,
		AuditLogsUserKey(customerID),
	)
}

// InvalidatePlanViews drops the cached plan listings after admin plan
// mutations.
func (c *Cache) InvalidatePlanViews(ctx context.Context) {
	c.Invalidate(ctx,
		AllPlansListKey,
		PlansListForAdminKey,
		AdminStatsKey,
	)
}
