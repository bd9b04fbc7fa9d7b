package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ratthapon/storefront/internal/core/domain"
)

const (
	productKeyPrefix  = "product:"
	defaultProductTTL = 5 * time.Minute
)

// RedisAdapter caches catalog products as JSON values under product:<id>
// with a TTL, so a catalog update is picked up after at most one TTL
// window.
type RedisAdapter struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAdapter(client *redis.Client, ttl time.Duration) *RedisAdapter {
	if ttl <= 0 {
		ttl = defaultProductTTL
	}
	return &RedisAdapter{client: client, ttl: ttl}
}

func (r *RedisAdapter) GetProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, []int64, error) {
	products := make(map[int64]domain.Product, len(ids))
	if len(ids) == 0 {
		return products, nil, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("mget products: %w", err)
	}

	var missing []int64
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}

		var p domain.Product
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			// Treat an undecodable entry as a miss so the catalog
			// remains the source of truth.
			missing = append(missing, ids[i])
			continue
		}
		products[p.ID] = p
	}

	return products, missing, nil
}

func (r *RedisAdapter) SetProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for _, p := range products {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal product %d: %w", p.ID, err)
		}
		pipe.Set(ctx, productKey(p.ID), data, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set products: %w", err)
	}
	return nil
}

func (r *RedisAdapter) InvalidateAll(ctx context.Context) error {
	keys, err := r.client.Keys(ctx, productKeyPrefix+"*").Result()
	if err != nil {
		return fmt.Errorf("list product keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete product keys: %w", err)
	}
	return nil
}

func productKey(id int64) string {
	return productKeyPrefix + strconv.FormatInt(id, 10)
}
