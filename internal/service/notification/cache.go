package notification

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	unreadCountTTL = 5 * time.Minute
	generationTTL  = 24 * time.Hour
)

// unreadCache stores unread counts under a per-user generation. Invalidation bumps the
// generation instead of deleting, so a count computed before the bump is written to a key
// nobody reads anymore.
type unreadCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value int64, ttl time.Duration) error
	Incr(ctx context.Context, key string, ttl time.Duration) error
}

type redisCache struct {
	client *redis.Client
}

func (c redisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c redisCache) Set(ctx context.Context, key string, value int64, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c redisCache) Incr(ctx context.Context, key string, ttl time.Duration) error {
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func generationKey(userID uuid.UUID) string {
	return "notifications:unread:" + userID.String() + ":gen"
}

func unreadKey(userID uuid.UUID, generation string) string {
	return "notifications:unread:" + userID.String() + ":" + generation
}

// cachedKey resolves the count key for the user's current generation.
func (s *service) cachedKey(ctx context.Context, userID uuid.UUID) (string, error) {
	gen, found, err := s.cache.Get(ctx, generationKey(userID))
	if err != nil {
		return "", err
	}
	if !found {
		gen = "0"
	}
	return unreadKey(userID, gen), nil
}

func parseCount(raw string) (int64, bool) {
	count, err := strconv.ParseInt(raw, 10, 64)
	return count, err == nil
}
