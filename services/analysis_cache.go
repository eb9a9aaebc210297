package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// AnalysisCache stores vision results keyed by image hash, so a re-upload
// of the same photo skips the model call.
type AnalysisCache interface {
	Get(ctx context.Context, key string) (*MealAnalysis, bool)
	Set(ctx context.Context, key string, a *MealAnalysis)
}

type RedisAnalysisCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logrus.Entry
}

func NewRedisAnalysisCache(ctx context.Context, url string, ttl time.Duration, log *logrus.Logger) (*RedisAnalysisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisAnalysisCache{rdb: rdb, ttl: ttl, log: log.WithField("component", "analysis_cache")}, nil
}

func cacheKey(hash string) string { return "analysis:v1:" + hash }

func (c *RedisAnalysisCache) Get(ctx context.Context, key string) (*MealAnalysis, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).Warn("cache get failed")
		}
		return nil, false
	}
	var a MealAnalysis
	if err := json.Unmarshal(raw, &a); err != nil {
		c.log.WithError(err).Warn("cache entry unreadable")
		return nil, false
	}
	return &a, true
}

func (c *RedisAnalysisCache) Set(ctx context.Context, key string, a *MealAnalysis) {
	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(key), raw, c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("cache set failed")
	}
}

func (c *RedisAnalysisCache) Close() error { return c.rdb.Close() }
