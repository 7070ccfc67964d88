package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/usecase"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 商品詳細のread-throughキャッシュ（値はJSON）
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

var _ usecase.ProductCache = (*ProductCache)(nil)

func NewRedisClient(ctx context.Context, addr string, password string, db int, log *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("redis connected", zap.String("addr", addr))
	return rdb, nil
}

func NewProductCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *ProductCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProductCache{client: client, ttl: ttl, log: log}
}

func productKey(slug string) string {
	return fmt.Sprintf("product:slug:%s", slug)
}

// キャッシュが無い・壊れている・Redisが落ちている場合はfalse（DBから読む）
func (c *ProductCache) GetProduct(ctx context.Context, slug string, dst *usecase.ProductDetailOutput) bool {
	raw, err := c.client.Get(ctx, productKey(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.log.Warn("cache get failed", zap.String("slug", slug), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.Warn("cache decode failed", zap.String("slug", slug), zap.Error(err))
		return false
	}
	return true
}

func (c *ProductCache) SetProduct(ctx context.Context, slug string, v usecase.ProductDetailOutput) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cache encode failed", zap.String("slug", slug), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, productKey(slug), raw, c.ttl).Err(); err != nil {
		c.log.Warn("cache set failed", zap.String("slug", slug), zap.Error(err))
	}
}

func (c *ProductCache) InvalidateProduct(ctx context.Context, slug string) {
	if err := c.client.Del(ctx, productKey(slug)).Err(); err != nil {
		c.log.Warn("cache del failed", zap.String("slug", slug), zap.Error(err))
	}
}
