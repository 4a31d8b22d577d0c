package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
	apperrors "github.com/glushul/SmartGuysSmartGirls/internal/pkg/errors"
)

// ChatRepo реализует repository.ChatRepository
type ChatRepo struct {
	db *gorm.DB
}

// NewChatRepo создает новый репозиторий чатов
func NewChatRepo(db *gorm.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// Register добавляет чат или заново активирует существующий
func (r *ChatRepo) Register(ctx context.Context, chatID int64) error {
	chat := entity.Chat{ID: chatID, Active: true}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"active":     true,
				"updated_at": time.Now(),
			}),
		}).
		Create(&chat).Error
}

// Deactivate помечает чат неактивным
func (r *ChatRepo) Deactivate(ctx context.Context, chatID int64) error {
	chat := entity.Chat{ID: chatID, Active: false}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"active":     false,
				"updated_at": time.Now(),
			}),
		}).
		Create(&chat).Error
}

// IsActive проверяет, активен ли чат
func (r *ChatRepo) IsActive(ctx context.Context, chatID int64) (bool, error) {
	var chat entity.Chat
	err := translateError(r.db.WithContext(ctx).First(&chat, chatID).Error)
	if err == apperrors.ErrNotFound {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return chat.Active, nil
}

// SaveOffset сохраняет курсор опроса для чата
func (r *ChatRepo) SaveOffset(ctx context.Context, chatID int64, offset int64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"update_offset": gorm.Expr("GREATEST(chat_updates.update_offset, ?)", offset)}),
		}).
		Create(&entity.ChatUpdate{ChatID: chatID, Offset: offset}).Error
}

// LastOffset возвращает максимальный сохраненный курсор
func (r *ChatRepo) LastOffset(ctx context.Context) (int64, error) {
	var offset int64
	err := r.db.WithContext(ctx).
		Model(&entity.ChatUpdate{}).
		Select("COALESCE(MAX(update_offset), 0)").
		Scan(&offset).Error
	if err != nil {
		return 0, err
	}
	return offset, nil
}
