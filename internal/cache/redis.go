package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MikeHotel0815/casa-belegung-app/config"
	"github.com/MikeHotel0815/casa-belegung-app/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client      *redis.Client
	segmentsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, segmentsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:      redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		segmentsTTL: segmentsTTL,
	}
}

func (c *RedisCache) GetSegments(ctx context.Context) ([]domain.Segment, error) {
	data, err := c.client.Get(ctx, segmentsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var segments []domain.Segment
	if err := json.Unmarshal(data, &segments); err != nil {
		return nil, err
	}
	return segments, nil
}

func (c *RedisCache) SetSegments(ctx context.Context, segments []domain.Segment) error {
	payload, err := json.Marshal(segments)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, segmentsKey(), payload, c.segmentsTTL).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, segmentsKey()).Err()
}

func segmentsKey() string {
	return "cache:belegung:segments"
}
