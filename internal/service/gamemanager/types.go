package gamemanager

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
	"github.com/glushul/SmartGuysSmartGirls/internal/domain/repository"
	"github.com/glushul/SmartGuysSmartGirls/internal/pkg/metrics"
)

// Config содержит настройки движка игр
type Config struct {
	DefaultAnswerTime int    // Время на ответ для новой игры, секунды
	MaxAnswerTime     int    // Верхняя граница времени на ответ, секунды
	Shards            int    // Количество шардов диспетчера
	QueueSize         int    // Размер очереди одного шарда
	BotName           string // Имя бота для текстов приветствия
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		DefaultAnswerTime: entity.DefaultAnswerTime,
		MaxAnswerTime:     entity.MaxAnswerTime,
		Shards:            8,
		QueueSize:         256,
	}
}

// AnswerTimeout переводит время ответа игры в длительность таймера
func (c *Config) AnswerTimeout(game *entity.Game) time.Duration {
	seconds := game.AnswerTime
	if seconds < entity.MinAnswerTime || seconds > c.MaxAnswerTime {
		seconds = c.DefaultAnswerTime
	}
	return time.Duration(seconds) * time.Second
}

// Option - вариант ответа, который транспорт показывает кнопкой
type Option struct {
	Label    string
	AnswerID uint
}

// Messenger - исходящий канал в чат
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendOptions(ctx context.Context, chatID int64, text string, options []Option) error
	// AckSelection подтверждает нажатие кнопки; text показывается всплывающей подсказкой
	AckSelection(ctx context.Context, callbackID string, text string) error
}

// Random - источник случайности для выбора уровней, тем, вопросов и порядка ответов
type Random interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Dependencies содержит зависимости движка
type Dependencies struct {
	GameRepo        repository.GameRepository
	ParticipantRepo repository.ParticipantRepository
	UserRepo        repository.UserRepository
	QuestionRepo    repository.QuestionRepository
	ChatRepo        repository.ChatRepository
	Messenger       Messenger
	Random          Random
	Metrics         *metrics.Metrics // может быть nil
	Logger          *logrus.Entry
}
