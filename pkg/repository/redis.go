package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"github.com/go-redis/redis/v8"
)

const profileTTL = 30 * time.Minute

type RedisRepository struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisRepository) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

func (r *RedisRepository) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

// Reserve claims key for the given window. It returns false when the key was
// already claimed, which is how order-creation idempotency keys are
// deduplicated.
func (r *RedisRepository) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, 1, ttl).Result()
}

// Release frees a claimed key, undoing Reserve when the guarded operation
// fails.
func (r *RedisRepository) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// InvalidateOrder drops the cached order entry after a status change.
func (r *RedisRepository) InvalidateOrder(ctx context.Context, orderID string) error {
	return r.client.Del(ctx, fmt.Sprintf("order:%s", orderID)).Err()
}

// CacheProfile stores the resolved user keyed by external uid.
func (r *RedisRepository) CacheProfile(ctx context.Context, user *models.User) error {
	key := fmt.Sprintf("profile:%s", user.FirebaseUID)
	return r.SetJSON(ctx, key, user, profileTTL)
}

// Profile returns the cached user, or (nil, nil) on a cache miss.
func (r *RedisRepository) Profile(ctx context.Context, firebaseUID string) (*models.User, error) {
	key := fmt.Sprintf("profile:%s", firebaseUID)
	var user models.User
	if err := r.GetJSON(ctx, key, &user); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// EvictProfile removes the cached user after a profile mutation.
func (r *RedisRepository) EvictProfile(ctx context.Context, firebaseUID string) error {
	return r.client.Del(ctx, fmt.Sprintf("profile:%s", firebaseUID)).Err()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}
