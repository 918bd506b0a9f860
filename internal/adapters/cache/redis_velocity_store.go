package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisVelocityStore counts clicks per ip×relationship in Redis so the
// velocity heuristic holds across replicas. Keys are bucketed by window start,
// which keeps the counter a single INCR instead of a sorted-set scan.
type RedisVelocityStore struct {
	client *redis.Client
}

func NewRedisVelocityStore(client *redis.Client) *RedisVelocityStore {
	return &RedisVelocityStore{client: client}
}

func (s *RedisVelocityStore) IncrementAndCount(ctx context.Context, clientIP, relationshipID string, window time.Duration) (int, error) {
	if window <= 0 {
		window = time.Minute
	}
	bucket := time.Now().UTC().Truncate(window).Unix()
	key := fmt.Sprintf("tracking:velocity:%s:%s:%d", relationshipID, clientIP, bucket)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		// TTL double the window so a bucket read near its boundary still resolves.
		_ = s.client.Expire(ctx, key, 2*window).Err()
	}
	return int(count), nil
}
