package repository

import (
	"context"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с темами, вопросами и ответами
type QuestionRepository interface {
	CreateTheme(ctx context.Context, theme *entity.Theme) error
	ListThemes(ctx context.Context) ([]entity.Theme, error)
	// CreateQuestion создает вопрос вместе с вариантами ответа
	CreateQuestion(ctx context.Context, question *entity.Question) error
	// ListAvailable возвращает вопросы темы, которые еще не задавались в игре
	ListAvailable(ctx context.Context, themeID uint, gameID uint) ([]entity.Question, error)
	ListAnswers(ctx context.Context, questionID uint) ([]entity.Answer, error)
	GetAnswer(ctx context.Context, answerID uint) (*entity.Answer, error)
	// MarkAsked записывает вопрос в журнал заданных вопросов игры
	MarkAsked(ctx context.Context, gameID uint, questionID uint) error
}
