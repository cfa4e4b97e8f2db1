package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skimlab/deepresearch/internal/models"
)

const redisKeyPrefix = "report:"

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

// RedisStore keeps reports as JSON values in Redis with per-key expiry.
// Capacity is delegated to Redis memory policy; the TTL bounds retention.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Put(ctx context.Context, r *models.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report %s: %w", r.ID, err)
	}
	return s.rdb.Set(ctx, redisKeyPrefix+r.ID, data, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Report, error) {
	val, err := s.rdb.Get(ctx, redisKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var r models.Report
	if err := json.Unmarshal(val, &r); err != nil {
		return nil, fmt.Errorf("unmarshal report %s: %w", id, err)
	}
	return &r, nil
}
