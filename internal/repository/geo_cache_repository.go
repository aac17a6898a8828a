package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/visitor-analytics/internal/models"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// GeoCacheRepository кэш результатов геолокации по IP
type GeoCacheRepository interface {
	Get(ctx context.Context, ip string) (*models.Location, error)
	Set(ctx context.Context, ip string, loc models.Location, ttl time.Duration) error
}

type geoCacheRepository struct {
	redis *RedisDB
}

func NewGeoCacheRepository(redis *RedisDB) GeoCacheRepository {
	return &geoCacheRepository{redis: redis}
}

func (r *geoCacheRepository) Get(ctx context.Context, ip string) (*models.Location, error) {
	data, err := r.redis.Client.Get(ctx, r.key(ip)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read geo cache: %w", err)
	}

	var loc models.Location
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal location: %w", err)
	}

	return &loc, nil
}

func (r *geoCacheRepository) Set(ctx context.Context, ip string, loc models.Location, ttl time.Duration) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("failed to marshal location: %w", err)
	}

	return r.redis.Client.Set(ctx, r.key(ip), data, ttl).Err()
}

func (r *geoCacheRepository) key(ip string) string {
	return "geo:" + ip
}
