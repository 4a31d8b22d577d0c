package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
	apperrors "github.com/glushul/SmartGuysSmartGirls/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий тем, вопросов и ответов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// CreateTheme создает тему; дубликат названия возвращает ErrConflict
func (r *QuestionRepo) CreateTheme(ctx context.Context, theme *entity.Theme) error {
	return translateError(r.db.WithContext(ctx).Create(theme).Error)
}

// ListThemes возвращает все темы
func (r *QuestionRepo) ListThemes(ctx context.Context) ([]entity.Theme, error) {
	var themes []entity.Theme
	if err := r.db.WithContext(ctx).Order("id").Find(&themes).Error; err != nil {
		return nil, err
	}
	return themes, nil
}

// CreateQuestion создает вопрос вместе с ответами в одной транзакции
func (r *QuestionRepo) CreateQuestion(ctx context.Context, question *entity.Question) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entity.Theme{}).Where("id = ?", question.ThemeID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("theme #%d: %w", question.ThemeID, apperrors.ErrNotFound)
		}
		return translateError(tx.Create(question).Error)
	})
}

// ListAvailable возвращает вопросы темы, которые еще не задавались в игре
func (r *QuestionRepo) ListAvailable(ctx context.Context, themeID uint, gameID uint) ([]entity.Question, error) {
	var questions []entity.Question
	asked := r.db.Model(&entity.GameQuestion{}).Select("question_id").Where("game_id = ?", gameID)
	err := r.db.WithContext(ctx).
		Where("theme_id = ?", themeID).
		Where("id NOT IN (?)", asked).
		Order("id").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// ListAnswers возвращает варианты ответа на вопрос
func (r *QuestionRepo) ListAnswers(ctx context.Context, questionID uint) ([]entity.Answer, error) {
	var answers []entity.Answer
	err := r.db.WithContext(ctx).Where("question_id = ?", questionID).Order("id").Find(&answers).Error
	if err != nil {
		return nil, err
	}
	return answers, nil
}

// GetAnswer возвращает ответ по ID
func (r *QuestionRepo) GetAnswer(ctx context.Context, answerID uint) (*entity.Answer, error) {
	var answer entity.Answer
	if err := r.db.WithContext(ctx).First(&answer, answerID).Error; err != nil {
		return nil, translateError(err)
	}
	return &answer, nil
}

// MarkAsked записывает вопрос в журнал игры; повторная запись игнорируется
func (r *QuestionRepo) MarkAsked(ctx context.Context, gameID uint, questionID uint) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.GameQuestion{GameID: gameID, QuestionID: questionID}).Error
}
