package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss — ключа нет в кеше.
var ErrMiss = errors.New("cache: miss")

// Cache — минимальный порт k/v кеша со временем жизни.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Close() error
}
