package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
	apperrors "github.com/glushul/SmartGuysSmartGirls/internal/pkg/errors"
)

// GameRepo реализует repository.GameRepository
type GameRepo struct {
	db *gorm.DB
}

// NewGameRepo создает новый репозиторий игр
func NewGameRepo(db *gorm.DB) *GameRepo {
	return &GameRepo{db: db}
}

// Create создает новую игру
func (r *GameRepo) Create(ctx context.Context, game *entity.Game) error {
	return translateError(r.db.WithContext(ctx).Create(game).Error)
}

// GetByID возвращает игру по ID
func (r *GameRepo) GetByID(ctx context.Context, id uint) (*entity.Game, error) {
	var game entity.Game
	if err := r.db.WithContext(ctx).First(&game, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &game, nil
}

// GetLatestByChat возвращает последнюю игру чата
func (r *GameRepo) GetLatestByChat(ctx context.Context, chatID int64) (*entity.Game, error) {
	var game entity.Game
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC, id DESC").
		First(&game).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &game, nil
}

// Save сохраняет игру целиком. Ассоциации не трогаются: участниками владеет ParticipantRepo.
func (r *GameRepo) Save(ctx context.Context, game *entity.Game) error {
	result := r.db.WithContext(ctx).Omit("Participants").Save(game)
	if result.Error != nil {
		return fmt.Errorf("save game #%d failed: %w", game.ID, translateError(result.Error))
	}
	return nil
}

// List возвращает все игры, новые первыми
func (r *GameRepo) List(ctx context.Context) ([]entity.Game, error) {
	var games []entity.Game
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&games).Error
	if err != nil {
		return nil, err
	}
	return games, nil
}

// ListByState возвращает игры в перечисленных состояниях
func (r *GameRepo) ListByState(ctx context.Context, states ...entity.GameState) ([]entity.Game, error) {
	var games []entity.Game
	err := r.db.WithContext(ctx).Where("state IN ?", states).Order("id").Find(&games).Error
	if err != nil {
		return nil, err
	}
	return games, nil
}

// Finish атомарно завершает игру и начисляет очки победителю.
// Условие state <> GAME_ENDED гарантирует, что очки начисляются один раз.
func (r *GameRepo) Finish(ctx context.Context, game *entity.Game, winner *entity.Participant) (bool, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"state":          entity.GameStateEnded,
		"ended_at":       now,
		"last_update_id": game.LastUpdateID,
	}
	var winnerID *int64
	if winner != nil {
		id := winner.UserID
		winnerID = &id
		updates["winner_user_id"] = id
	}

	finished := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Game{}).
			Where("id = ? AND state <> ?", game.ID, entity.GameStateEnded).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		finished = true
		if winner == nil || winner.CorrectAnswers == 0 {
			return nil
		}
		return tx.Model(&entity.User{}).
			Where("id = ?", winner.UserID).
			Update("score", gorm.Expr("score + ?", winner.CorrectAnswers)).Error
	})
	if err != nil {
		return false, fmt.Errorf("finish game #%d failed: %w", game.ID, err)
	}

	game.State = entity.GameStateEnded
	if finished {
		game.EndedAt = &now
		game.WinnerUserID = winnerID
	}
	return finished, nil
}

// Delete удаляет игру; участники и журнал вопросов удаляются каскадно
func (r *GameRepo) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entity.Game{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
