package places

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"store-map/internal/logger"
	"store-map/internal/metrics"
)

// Cache：搜索结果 Redis 缓存，键为 places:<规范化查询>[@偏置视窗]
type Cache struct {
	rc  *redis.Client
	ttl time.Duration
}

// NewCache：rc 为空时返回 nil（调用方按未启用缓存处理）
func NewCache(rc *redis.Client, ttl time.Duration) *Cache {
	if rc == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{rc: rc, ttl: ttl}
}

// cacheKey：小写并折叠空白；有偏置时追加保留两位小数的视窗
func cacheKey(q Query) string {
	k := "places:" + strings.Join(strings.Fields(strings.ToLower(q.Text)), " ")
	if b := q.Bias; b != nil {
		k += fmt.Sprintf("@%.2f,%.2f,%.2f,%.2f", b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat())
	}
	return k
}

// Get：未命中或 Redis 异常时 ok=false
func (c *Cache) Get(ctx context.Context, q Query) ([]Place, bool) {
	if c == nil {
		return nil, false
	}
	s, err := c.rc.Get(ctx, cacheKey(q)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.L().Warn("places_cache_get_error", "err", err)
		}
		metrics.SearchCacheMissesTotal.Inc()
		return nil, false
	}
	var cs []cachedPlace
	if err := json.Unmarshal([]byte(s), &cs); err != nil {
		logger.L().Warn("places_cache_decode_error", "err", err)
		metrics.SearchCacheMissesTotal.Inc()
		return nil, false
	}
	metrics.SearchCacheHitsTotal.Inc()
	return fromCached(cs), true
}

func (c *Cache) Set(ctx context.Context, q Query, ps []Place) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(toCached(ps))
	if err != nil {
		return err
	}
	return c.rc.Set(ctx, cacheKey(q), string(b), c.ttl).Err()
}
