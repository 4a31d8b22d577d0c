package repository

import (
	"context"
	"time"
)

// CacheRepository описывает кеш поверх Redis. Промах GetJSON возвращает
// apperrors.ErrNotFound, остальные ошибки означают недоступность кеша.
type CacheRepository interface {
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	// SetNX возвращает false, если ключ уже был занят
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
}
