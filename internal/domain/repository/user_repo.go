package repository

import (
	"context"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	// GetLeaderboard возвращает пользователей по убыванию счета и общее количество
	GetLeaderboard(ctx context.Context, limit, offset int) ([]entity.User, int64, error)
}
