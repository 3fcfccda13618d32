package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"handcrafted-haven/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	reviewKeyPrefix     = "reviews:product"
	generationKeyPrefix = "reviews:generation"
)

// ReviewCache holds the public review list of a product. Every cached list
// belongs to a generation; Invalidate starts a new one, so a list read from
// the store before a concurrent write can never be served after it.
type ReviewCache interface {
	// Get returns the cached list on a hit. On a miss it returns the current
	// generation, which the caller hands back to Set with the fresh list.
	Get(ctx context.Context, productID uuid.UUID) (reviews []*domain.Review, generation int64, hit bool, err error)
	Set(ctx context.Context, productID uuid.UUID, generation int64, reviews []*domain.Review) error
	Invalidate(ctx context.Context, productID uuid.UUID) error
}

type redisReviewCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisReviewCache stores review lists as JSON under a per-product,
// per-generation key
func NewRedisReviewCache(client *redis.Client, ttl time.Duration) ReviewCache {
	return &redisReviewCache{
		client: client,
		ttl:    ttl,
	}
}

func reviewKey(productID uuid.UUID, generation int64) string {
	return fmt.Sprintf("%s:%s:%d", reviewKeyPrefix, productID, generation)
}

func generationKey(productID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", generationKeyPrefix, productID)
}

func (c *redisReviewCache) generation(ctx context.Context, productID uuid.UUID) (int64, error) {
	generation, err := c.client.Get(ctx, generationKey(productID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read review cache generation: %w", err)
	}
	return generation, nil
}

func (c *redisReviewCache) Get(ctx context.Context, productID uuid.UUID) ([]*domain.Review, int64, bool, error) {
	generation, err := c.generation(ctx, productID)
	if err != nil {
		return nil, 0, false, err
	}

	data, err := c.client.Get(ctx, reviewKey(productID, generation)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, generation, false, nil
	}
	if err != nil {
		return nil, generation, false, fmt.Errorf("failed to read cached reviews: %w", err)
	}

	var reviews []*domain.Review
	if err := json.Unmarshal(data, &reviews); err != nil {
		return nil, generation, false, fmt.Errorf("failed to decode cached reviews: %w", err)
	}

	return reviews, generation, true, nil
}

// Set is a no-op when generation is no longer current
func (c *redisReviewCache) Set(ctx context.Context, productID uuid.UUID, generation int64, reviews []*domain.Review) error {
	current, err := c.generation(ctx, productID)
	if err != nil {
		return err
	}
	if current != generation {
		return nil
	}

	data, err := json.Marshal(reviews)
	if err != nil {
		return fmt.Errorf("failed to encode reviews: %w", err)
	}

	// A write racing past the check above lands on a key no reader asks for
	// once the generation has moved on.
	if err := c.client.Set(ctx, reviewKey(productID, generation), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache reviews: %w", err)
	}
	return nil
}

func (c *redisReviewCache) Invalidate(ctx context.Context, productID uuid.UUID) error {
	generation, err := c.client.Incr(ctx, generationKey(productID)).Result()
	if err != nil {
		return fmt.Errorf("failed to invalidate cached reviews: %w", err)
	}

	// The superseded list is unreachable now; drop it instead of waiting for the ttl
	if err := c.client.Del(ctx, reviewKey(productID, generation-1)).Err(); err != nil {
		return fmt.Errorf("failed to drop superseded reviews: %w", err)
	}
	return nil
}

type noopReviewCache struct{}

// NewNoopReviewCache is used when Redis is disabled; every read misses
func NewNoopReviewCache() ReviewCache {
	return noopReviewCache{}
}

func (noopReviewCache) Get(context.Context, uuid.UUID) ([]*domain.Review, int64, bool, error) {
	return nil, 0, false, nil
}

func (noopReviewCache) Set(context.Context, uuid.UUID, int64, []*domain.Review) error { return nil }

func (noopReviewCache) Invalidate(context.Context, uuid.UUID) error { return nil }
