package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Noe001/work-optimizer-sub001/internal/database"
)

const (
	// CacheKeyPrefix namespaces every cached derived view in Redis.
	CacheKeyPrefix = "cache:"

	// TTLs per derived view. Short windows: staleness inside them is accepted.
	AccessibilityTTL = 30 * time.Second
	UnreadCountTTL   = 30 * time.Second
	OnlineCountTTL   = 30 * time.Second
	LastMessageTTL   = 1 * time.Minute
	MemberListTTL    = 5 * time.Minute
	RoomStatsTTL     = 10 * time.Minute
)

// CacheService provides read-through caching of derived chat views on Redis.
type CacheService struct{}

// Get retrieves a value from cache. A miss is reported as (false, nil).
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, err := database.RedisClient.Get(ctx, CacheKeyPrefix+key).Result()
	if err != nil {
		return false, nil // Cache miss, not an error
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetWithTTL stores a value in cache with the given TTL.
func (c *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return database.RedisClient.Set(ctx, CacheKeyPrefix+key, jsonData, ttl).Err()
}

// GetOrCompute returns the cached value for key, computing and storing it on
// a miss. dest receives the value either way. Store failures are ignored:
// the computed value is still returned and the next read recomputes.
func (c *CacheService) GetOrCompute(ctx context.Context, key string, ttl time.Duration, dest interface{}, compute func() (interface{}, error)) error {
	hit, err := c.Get(ctx, key, dest)
	if err == nil && hit {
		return nil
	}

	value, err := compute()
	if err != nil {
		return err
	}
	_ = c.SetWithTTL(ctx, key, value, ttl)

	// Round-trip through JSON so dest is filled regardless of compute's
	// concrete return type.
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Delete removes a single cache entry.
func (c *CacheService) Delete(ctx context.Context, key string) error {
	return database.RedisClient.Del(ctx, CacheKeyPrefix+key).Err()
}

// DeleteByPrefix evicts every cache entry whose key starts with prefix,
// regardless of user-specific suffixes. SCAN keeps it non-blocking on large
// keyspaces; eviction need not be atomic, only complete.
func (c *CacheService) DeleteByPrefix(ctx context.Context, prefix string) error {
	pattern := CacheKeyPrefix + prefix + "*"
	var cursor uint64
	for {
		keys, next, err := database.RedisClient.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := database.RedisClient.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Room-scoped cache keys. Everything derived from one room shares the
// RoomCachePrefix so a room mutation can evict the whole family at once.

func RoomCachePrefix(roomID string) string {
	return "chat_room:" + roomID + ":"
}

func RoomAccessKey(roomID, userID string) string {
	return RoomCachePrefix(roomID) + "access:" + userID
}

func RoomUnreadKey(roomID, userID string) string {
	return RoomCachePrefix(roomID) + "unread:" + userID
}

func RoomMembersKey(roomID string) string {
	return RoomCachePrefix(roomID) + "members"
}

func RoomLastMessageKey(roomID string) string {
	return RoomCachePrefix(roomID) + "last_message"
}

func RoomStatsKey(roomID string) string {
	return RoomCachePrefix(roomID) + "stats"
}

func RoomOnlineKey(roomID string) string {
	return RoomCachePrefix(roomID) + "online"
}

// Global cache service instance
var Cache = &CacheService{}
