package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
	"github.com/glushul/SmartGuysSmartGirls/internal/domain/repository"
	apperrors "github.com/glushul/SmartGuysSmartGirls/internal/pkg/errors"
)

// ParticipantRepo реализует repository.ParticipantRepository
type ParticipantRepo struct {
	db *gorm.DB
}

// NewParticipantRepo создает новый репозиторий участников
func NewParticipantRepo(db *gorm.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

// Create добавляет участника в игру
func (r *ParticipantRepo) Create(ctx context.Context, participant *entity.Participant) error {
	return translateError(r.db.WithContext(ctx).Create(participant).Error)
}

// Get возвращает участника игры
func (r *ParticipantRepo) Get(ctx context.Context, gameID uint, userID int64) (*entity.Participant, error) {
	return r.first(ctx, "game_id = ? AND user_id = ?", gameID, userID)
}

// GetByLevel возвращает участника игры на указанном уровне
func (r *ParticipantRepo) GetByLevel(ctx context.Context, gameID uint, level int) (*entity.Participant, error) {
	return r.first(ctx, "game_id = ? AND level = ?", gameID, level)
}

// GetCurrent возвращает участника, который сейчас отвечает
func (r *ParticipantRepo) GetCurrent(ctx context.Context, gameID uint) (*entity.Participant, error) {
	return r.first(ctx, "game_id = ? AND current = ?", gameID, true)
}

func (r *ParticipantRepo) first(ctx context.Context, query string, args ...interface{}) (*entity.Participant, error) {
	var participant entity.Participant
	if err := r.db.WithContext(ctx).Where(query, args...).First(&participant).Error; err != nil {
		return nil, translateError(err)
	}
	return &participant, nil
}

// ListByGame возвращает участников игры по убыванию уровня
func (r *ParticipantRepo) ListByGame(ctx context.Context, gameID uint) ([]entity.Participant, error) {
	var participants []entity.Participant
	err := r.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("level DESC").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

// ApplyAnswer сохраняет итог хода. Строка игры блокируется, и ход применяется,
// только если игра все еще ждет ответа на res.QuestionID: ответ и таймаут одного
// вопроса не могут засчитаться оба.
func (r *ParticipantRepo) ApplyAnswer(ctx context.Context, res repository.AnswerResolution) (*entity.Game, error) {
	column := "incorrect_answers"
	if res.Correct {
		column = "correct_answers"
	}

	var game entity.Game
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&game, res.GameID).Error; err != nil {
			return err
		}
		if game.State != entity.GameStateWaitingForAnswer || !game.IsCurrentQuestion(res.QuestionID) {
			return apperrors.ErrConflict
		}

		result := tx.Model(&entity.Participant{}).
			Where("game_id = ? AND user_id = ?", res.GameID, res.UserID).
			Update(column, gorm.Expr(column+" + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}

		if res.UpdateID > game.LastUpdateID {
			game.LastUpdateID = res.UpdateID
		}
		game.CurrentQuestionID = nil
		updates := map[string]interface{}{
			"current_question_id": nil,
			"last_update_id":      game.LastUpdateID,
		}

		if res.Ends() {
			now := time.Now()
			game.State = entity.GameStateEnded
			game.EndedAt = &now
			updates["ended_at"] = now
			if res.Won {
				winner := res.UserID
				game.WinnerUserID = &winner
				updates["winner_user_id"] = winner
			}
		} else {
			game.State = entity.GameStateQuestionAsked
			if err := passTurn(tx, res.GameID, res.NextUserID); err != nil {
				return err
			}
		}
		updates["state"] = game.State

		if err := tx.Model(&entity.Game{}).Where("id = ?", game.ID).Updates(updates).Error; err != nil {
			return err
		}
		if res.Won && res.Points > 0 {
			return tx.Model(&entity.User{}).
				Where("id = ?", res.UserID).
				Update("score", gorm.Expr("score + ?", res.Points)).Error
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("apply answer game #%d user %d failed: %w", res.GameID, res.UserID, translateError(err))
	}
	return &game, nil
}

// passTurn снимает флаг хода со всех участников и ставит его userID;
// nil означает, что ход не передается никому
func passTurn(tx *gorm.DB, gameID uint, userID *int64) error {
	if err := tx.Model(&entity.Participant{}).
		Where("game_id = ? AND current = ?", gameID, true).
		Update("current", false).Error; err != nil {
		return err
	}
	if userID == nil {
		return nil
	}
	result := tx.Model(&entity.Participant{}).
		Where("game_id = ? AND user_id = ?", gameID, *userID).
		Update("current", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
