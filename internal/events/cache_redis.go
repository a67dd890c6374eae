package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/redis/go-redis/v9"

	"shiftledger/internal/domain"
)

// RedisCache is a read-through/write-through decorator over another Store.
// Each tenant's events live in one hash keyed by event id, so List can serve
// warm reads without touching the inner store. Cache failures degrade to the
// inner store; they never fail the caller's operation.
type RedisCache struct {
	inner  Store
	client *redis.Client
	logger *slog.Logger
}

func NewRedisCache(inner Store, client *redis.Client, logger *slog.Logger) *RedisCache {
	return &RedisCache{inner: inner, client: client, logger: logger}
}

func cacheKey(tenantID string) string {
	return "shiftledger:events:" + tenantID
}

func (c *RedisCache) Append(ctx context.Context, tenantID string, events ...domain.TimeEvent) ([]domain.TimeEvent, error) {
	appended, err := c.inner.Append(ctx, tenantID, events...)
	if err != nil {
		return nil, err
	}
	c.put(ctx, tenantID, appended...)
	return appended, nil
}

func (c *RedisCache) List(ctx context.Context, tenantID string) ([]domain.TimeEvent, error) {
	raw, err := c.client.HGetAll(ctx, cacheKey(tenantID)).Result()
	if err == nil && len(raw) > 0 {
		out := make([]domain.TimeEvent, 0, len(raw))
		for id, payload := range raw {
			var ev domain.TimeEvent
			if err := json.Unmarshal([]byte(payload), &ev); err != nil {
				c.logger.Warn("dropping undecodable cached event", "tenant_id", tenantID, "event_id", id, "error", err)
				continue
			}
			out = append(out, ev)
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
		return out, nil
	}
	if err != nil {
		c.logger.Warn("event cache read failed, falling back", "tenant_id", tenantID, "error", err)
	}

	listed, err := c.inner.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	c.put(ctx, tenantID, listed...)
	return listed, nil
}

func (c *RedisCache) Remove(ctx context.Context, tenantID, id string) error {
	if err := c.inner.Remove(ctx, tenantID, id); err != nil {
		return err
	}
	if err := c.client.HDel(ctx, cacheKey(tenantID), id).Err(); err != nil {
		c.logger.Warn("event cache eviction failed", "tenant_id", tenantID, "event_id", id, "error", err)
	}
	return nil
}

func (c *RedisCache) Patch(ctx context.Context, tenantID, id string, patch domain.EventPatch) (domain.TimeEvent, error) {
	patched, err := c.inner.Patch(ctx, tenantID, id, patch)
	if err != nil {
		return domain.TimeEvent{}, err
	}
	c.put(ctx, tenantID, patched)
	return patched, nil
}

func (c *RedisCache) put(ctx context.Context, tenantID string, events ...domain.TimeEvent) {
	if len(events) == 0 {
		return
	}
	fields := make(map[string]any, len(events))
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			c.logger.Warn("event cache encode failed", "tenant_id", tenantID, "event_id", ev.ID, "error", err)
			continue
		}
		fields[ev.ID] = payload
	}
	if len(fields) == 0 {
		return
	}
	if err := c.client.HSet(ctx, cacheKey(tenantID), fields).Err(); err != nil {
		c.logger.Warn(fmt.Sprintf("event cache write failed for %d event(s)", len(fields)),
			"tenant_id", tenantID, "error", err)
	}
}
