package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"domainscout/internal/availability"
	"domainscout/internal/availability/metrics"
)

// Redis key prefix for availability records.
const recordKeyPrefix = "avail:"

// RedisStore is the production freshness cache. Records are stored as JSON
// with a TTL; expiry is handled entirely by Redis.
type RedisStore struct {
	client  *redis.Client
	metrics *metrics.Metrics
}

// NewRedisStore constructs a Redis-backed freshness cache. The client
// lifecycle is managed by the caller.
func NewRedisStore(client *redis.Client, m *metrics.Metrics) *RedisStore {
	return &RedisStore{client: client, metrics: m}
}

func (s *RedisStore) Get(ctx context.Context, domain string) (availability.Record, bool, error) {
	raw, err := s.client.Get(ctx, recordKeyPrefix+domain).Bytes()
	if errors.Is(err, redis.Nil) {
		s.metrics.RecordCacheMiss()
		return availability.Record{}, false, nil
	}
	if err != nil {
		return availability.Record{}, false, fmt.Errorf("get cached record: %w", err)
	}

	var rec availability.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		// A corrupt entry is equivalent to a miss; the next oracle answer
		// overwrites it.
		s.metrics.RecordCacheMiss()
		return availability.Record{}, false, nil
	}
	s.metrics.RecordCacheHit()
	return rec, true, nil
}

func (s *RedisStore) Set(ctx context.Context, domain string, rec availability.Record, ttl time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := s.client.Set(ctx, recordKeyPrefix+domain, raw, ttl).Err(); err != nil {
		return fmt.Errorf("set cached record: %w", err)
	}
	return nil
}
