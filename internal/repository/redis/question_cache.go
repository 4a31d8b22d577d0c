package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
	"github.com/glushul/SmartGuysSmartGirls/internal/domain/repository"
	apperrors "github.com/glushul/SmartGuysSmartGirls/internal/pkg/errors"
)

const (
	themesKey      = "catalog:themes"
	answersKeyFmt  = "catalog:answers:%d"
	defaultCatalog = 10 * time.Minute
)

// CachedQuestionRepo кеширует редко меняющиеся данные каталога (темы и варианты ответов).
// Журнал заданных вопросов и выборка доступных вопросов всегда идут в базу.
type CachedQuestionRepo struct {
	repository.QuestionRepository
	cache repository.CacheRepository
	ttl   time.Duration
	log   *logrus.Entry
}

// NewCachedQuestionRepo оборачивает репозиторий вопросов кешем
func NewCachedQuestionRepo(inner repository.QuestionRepository, cache repository.CacheRepository, ttl time.Duration, log *logrus.Entry) *CachedQuestionRepo {
	if ttl <= 0 {
		ttl = defaultCatalog
	}
	return &CachedQuestionRepo{
		QuestionRepository: inner,
		cache:              cache,
		ttl:                ttl,
		log:                log.WithField("component", "question_cache"),
	}
}

// ListThemes возвращает темы из кеша или из базы
func (r *CachedQuestionRepo) ListThemes(ctx context.Context) ([]entity.Theme, error) {
	var themes []entity.Theme
	if err := r.cache.GetJSON(ctx, themesKey, &themes); err == nil {
		return themes, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		r.log.WithError(err).Warn("[QuestionCache] Не удалось прочитать темы из кеша")
	}

	themes, err := r.QuestionRepository.ListThemes(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.cache.SetJSON(ctx, themesKey, themes, r.ttl); err != nil {
		r.log.WithError(err).Warn("[QuestionCache] Не удалось сохранить темы в кеш")
	}
	return themes, nil
}

// ListAnswers возвращает варианты ответа из кеша или из базы
func (r *CachedQuestionRepo) ListAnswers(ctx context.Context, questionID uint) ([]entity.Answer, error) {
	key := fmt.Sprintf(answersKeyFmt, questionID)
	var answers []entity.Answer
	if err := r.cache.GetJSON(ctx, key, &answers); err == nil {
		return answers, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		r.log.WithError(err).WithField("question_id", questionID).Warn("[QuestionCache] Не удалось прочитать ответы из кеша")
	}

	answers, err := r.QuestionRepository.ListAnswers(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if err := r.cache.SetJSON(ctx, key, answers, r.ttl); err != nil {
		r.log.WithError(err).WithField("question_id", questionID).Warn("[QuestionCache] Не удалось сохранить ответы в кеш")
	}
	return answers, nil
}

// CreateTheme создает тему и сбрасывает кеш списка тем
func (r *CachedQuestionRepo) CreateTheme(ctx context.Context, theme *entity.Theme) error {
	if err := r.QuestionRepository.CreateTheme(ctx, theme); err != nil {
		return err
	}
	r.invalidate(ctx, themesKey)
	return nil
}

// CreateQuestion создает вопрос и сбрасывает кеш его ответов
func (r *CachedQuestionRepo) CreateQuestion(ctx context.Context, question *entity.Question) error {
	if err := r.QuestionRepository.CreateQuestion(ctx, question); err != nil {
		return err
	}
	r.invalidate(ctx, fmt.Sprintf(answersKeyFmt, question.ID))
	return nil
}

func (r *CachedQuestionRepo) invalidate(ctx context.Context, key string) {
	if err := r.cache.Delete(ctx, key); err != nil {
		r.log.WithError(err).WithField("key", key).Warn("[QuestionCache] Не удалось сбросить кеш")
	}
}
