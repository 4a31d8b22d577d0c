package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
	"github.com/glushul/SmartGuysSmartGirls/internal/domain/repository"
	"github.com/glushul/SmartGuysSmartGirls/internal/handler/dto"
)

// Ограничения совпадают с размерами колонок
const (
	maxThemeTitle    = 100
	maxQuestionTitle = 500
	maxAnswerTitle   = 200
	minAnswers       = 2
)

// QuestionService наполняет каталог тем и вопросов
type QuestionService struct {
	questionRepo repository.QuestionRepository
	log          *logrus.Entry
}

// NewQuestionService создает новый сервис каталога
func NewQuestionService(questionRepo repository.QuestionRepository, log *logrus.Entry) *QuestionService {
	return &QuestionService{questionRepo: questionRepo, log: log.WithField("component", "question_service")}
}

// CreateTheme создает тему; повтор названия дает ErrConflict
func (s *QuestionService) CreateTheme(ctx context.Context, title string) (*entity.Theme, error) {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > maxThemeTitle {
		return nil, validationError("theme title must be 1..%d characters", maxThemeTitle)
	}

	theme := &entity.Theme{Title: title}
	if err := s.questionRepo.CreateTheme(ctx, theme); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"theme_id": theme.ID, "title": title}).Info("[QuestionService] Создана тема")
	return theme, nil
}

// ListThemes возвращает все темы
func (s *QuestionService) ListThemes(ctx context.Context) ([]entity.Theme, error) {
	return s.questionRepo.ListThemes(ctx)
}

// CreateQuestions проверяет весь пакет и затем создает вопросы по одному.
// Неизвестная тема дает ErrNotFound; уже созданные вопросы пакета остаются.
func (s *QuestionService) CreateQuestions(ctx context.Context, inputs []dto.QuestionInput) ([]uint, error) {
	if len(inputs) == 0 {
		return nil, validationError("questions must not be empty")
	}

	questions := make([]*entity.Question, 0, len(inputs))
	for i, in := range inputs {
		q, err := buildQuestion(in)
		if err != nil {
			return nil, validationError("question #%d: %v", i+1, err)
		}
		questions = append(questions, q)
	}

	ids := make([]uint, 0, len(questions))
	for _, q := range questions {
		if err := s.questionRepo.CreateQuestion(ctx, q); err != nil {
			s.log.WithError(err).WithField("theme_id", q.ThemeID).Warn("[QuestionService] Не удалось создать вопрос")
			return nil, err
		}
		ids = append(ids, q.ID)
	}
	s.log.WithField("count", len(ids)).Info("[QuestionService] Созданы вопросы")
	return ids, nil
}

func buildQuestion(in dto.QuestionInput) (*entity.Question, error) {
	title := strings.TrimSpace(in.Title)
	if in.ThemeID == 0 {
		return nil, errors.New("theme_id is required")
	}
	if title == "" || utf8.RuneCountInString(title) > maxQuestionTitle {
		return nil, fmt.Errorf("title must be 1..%d characters", maxQuestionTitle)
	}
	if len(in.Answers) < minAnswers {
		return nil, fmt.Errorf("at least %d answers are required", minAnswers)
	}

	q := &entity.Question{ThemeID: in.ThemeID, Title: title}
	correct := 0
	for _, a := range in.Answers {
		answerTitle := strings.TrimSpace(a.Title)
		if answerTitle == "" || utf8.RuneCountInString(answerTitle) > maxAnswerTitle {
			return nil, fmt.Errorf("answer title must be 1..%d characters", maxAnswerTitle)
		}
		if a.IsCorrect {
			correct++
		}
		q.Answers = append(q.Answers, entity.Answer{Title: answerTitle, IsCorrect: a.IsCorrect})
	}
	if correct != 1 {
		return nil, errors.New("exactly one correct answer is required")
	}
	return q, nil
}
