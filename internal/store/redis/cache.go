package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/komiku/internal/cache"
)

const flushBatch = 256

// Cache is a cache.Cache shared by every komiku instance pointing at the
// same Redis. Entries expire on their own once past their grace window;
// tag sets are left to InvalidateTags and Flush.
type Cache struct {
	client *redis.Client
	grace  time.Duration
}

// NewCache creates a Redis response cache.
func NewCache(client *redis.Client, grace time.Duration) *Cache {
	return &Cache{
		client: client,
		grace:  grace,
	}
}

func (c *Cache) Get(ctx context.Context, key string) (cache.Entry, bool, error) {
	data, err := c.client.Get(ctx, CacheKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return cache.Entry{}, false, nil // Cache miss
		}
		return cache.Entry{}, false, fmt.Errorf("failed to get cached response: %w", err)
	}

	var entry cache.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return cache.Entry{}, false, fmt.Errorf("failed to unmarshal cached response: %w", err)
	}
	return entry, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, entry cache.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cached response: %w", err)
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, CacheKey(key), data, entry.TTL+c.grace)
		for _, tag := range entry.Tags {
			pipe.SAdd(ctx, TagKey(tag), key)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to cache response: %w", err)
	}
	return nil
}

func (c *Cache) InvalidateTags(ctx context.Context, tags ...string) (int, error) {
	removed := 0
	for _, tag := range tags {
		members, err := c.client.SMembers(ctx, TagKey(tag)).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to read tag %s: %w", tag, err)
		}

		keys := make([]string, 0, len(members)+1)
		for _, m := range members {
			keys = append(keys, CacheKey(m))
		}

		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("failed to invalidate tag %s: %w", tag, err)
			}
			removed += int(n)
		}

		if err := c.client.Del(ctx, TagKey(tag)).Err(); err != nil {
			return removed, fmt.Errorf("failed to delete tag %s: %w", tag, err)
		}
	}
	return removed, nil
}

// Flush removes every cached response and tag set.
func (c *Cache) Flush(ctx context.Context) error {
	for _, pattern := range []string{KeyPrefixCache + "*", KeyPrefixTag + "*"} {
		if err := c.deleteMatching(ctx, pattern); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) deleteMatching(ctx context.Context, pattern string) error {
	batch := make([]string, 0, flushBatch)
	iter := c.client.Scan(ctx, 0, pattern, flushBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == flushBatch {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to flush cache: %w", err)
	}
	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to delete cache keys: %w", err)
		}
	}
	return nil
}
