package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"tabeya-be/internal/logger"
	"tabeya-be/internal/product"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ product.Cache = (*CatalogCache)(nil)

// CatalogCache holds the projected storefront catalog for a short TTL.
type CatalogCache struct {
	kv  KV
	ttl time.Duration
}

func NewCatalogCache(kv KV, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = TTLCatalogCache
	}
	return &CatalogCache{kv: kv, ttl: ttl}
}

func (c *CatalogCache) Get(ctx context.Context) ([]product.AvailableProduct, bool) {
	raw, err := c.kv.Get(ctx, KeyCatalogAvailable).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.FromCtx(ctx).Warn("catalog cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var items []product.AvailableProduct
	if err := json.Unmarshal(raw, &items); err != nil {
		logger.FromCtx(ctx).Warn("catalog cache entry unreadable", zap.Error(err))
		return nil, false
	}
	return items, true
}

func (c *CatalogCache) Set(ctx context.Context, items []product.AvailableProduct) {
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := c.kv.Set(ctx, KeyCatalogAvailable, raw, c.ttl).Err(); err != nil {
		logger.FromCtx(ctx).Warn("catalog cache write failed", zap.Error(err))
	}
}
