package repository

import (
	"context"
)

// ChatRepository определяет методы для учета чатов и курсора опроса обновлений
type ChatRepository interface {
	// Register добавляет чат или заново активирует его
	Register(ctx context.Context, chatID int64) error
	Deactivate(ctx context.Context, chatID int64) error
	// IsActive возвращает true и для неизвестных чатов: бот мог быть добавлен до запуска
	IsActive(ctx context.Context, chatID int64) (bool, error)
	SaveOffset(ctx context.Context, chatID int64, offset int64) error
	// LastOffset возвращает максимальный сохраненный курсор или 0
	LastOffset(ctx context.Context) (int64, error)
}
