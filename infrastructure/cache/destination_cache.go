package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"postqueue/domain/model"

	"github.com/redis/go-redis/v9"
)

const destinationTTL = 60 * time.Second

// DestinationCache is a read-through cache over the recent-destinations
// query. Misses and Redis outages are both silent; the store stays
// authoritative.
type DestinationCache struct {
	client *redis.Client
}

func NewDestinationCache(client *redis.Client) *DestinationCache {
	return &DestinationCache{client: client}
}

func key(userID string, platform model.Platform, limit int) string {
	return fmt.Sprintf("recent_destinations:%s:%s:%d", userID, platform, limit)
}

func (c *DestinationCache) Get(ctx context.Context, userID string, platform model.Platform, limit int) []*model.RecentDestination {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, key(userID, platform, limit)).Result()
	if err != nil {
		return nil
	}
	var list []*model.RecentDestination
	if json.Unmarshal([]byte(raw), &list) != nil {
		return nil
	}
	return list
}

func (c *DestinationCache) Set(ctx context.Context, userID string, platform model.Platform, limit int, list []*model.RecentDestination) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key(userID, platform, limit), raw, destinationTTL).Err()
}

// Invalidate drops every cached list for the user/platform pair. Limits are
// few in practice; a scan keeps the write path simple.
func (c *DestinationCache) Invalidate(ctx context.Context, userID string, platform model.Platform) {
	if c == nil || c.client == nil {
		return
	}
	pattern := fmt.Sprintf("recent_destinations:%s:%s:*", userID, platform)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		_ = c.client.Del(ctx, iter.Val()).Err()
	}
}
