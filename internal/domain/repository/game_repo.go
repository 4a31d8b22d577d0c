package repository

import (
	"context"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
)

// GameRepository определяет методы для работы с играми
type GameRepository interface {
	Create(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id uint) (*entity.Game, error)
	// GetLatestByChat возвращает последнюю созданную игру чата или ErrNotFound
	GetLatestByChat(ctx context.Context, chatID int64) (*entity.Game, error)
	// Save сохраняет все поля игры, включая LastUpdateID
	Save(ctx context.Context, game *entity.Game) error
	List(ctx context.Context) ([]entity.Game, error)
	// ListByState возвращает игры в перечисленных состояниях
	ListByState(ctx context.Context, states ...entity.GameState) ([]entity.Game, error)
	// Finish переводит игру в GAME_ENDED и, если указан победитель, начисляет ему
	// очки за правильные ответы. Все делается в одной транзакции и только если игра
	// еще не завершена; false означает, что игра уже была завершена ранее.
	Finish(ctx context.Context, game *entity.Game, winner *entity.Participant) (bool, error)
	Delete(ctx context.Context, id uint) error
}

// ParticipantRepository определяет методы для работы с участниками игры
type ParticipantRepository interface {
	// Create возвращает ErrConflict, если пользователь уже участвует в игре
	Create(ctx context.Context, participant *entity.Participant) error
	Get(ctx context.Context, gameID uint, userID int64) (*entity.Participant, error)
	GetByLevel(ctx context.Context, gameID uint, level int) (*entity.Participant, error)
	GetCurrent(ctx context.Context, gameID uint) (*entity.Participant, error)
	// ListByGame возвращает участников, отсортированных по убыванию уровня
	ListByGame(ctx context.Context, gameID uint) ([]entity.Participant, error)
	// ApplyAnswer сохраняет итог хода одной транзакцией: счетчик участника,
	// выход игры из WAITING_FOR_ANSWER, передачу хода или завершение игры и
	// updateID как последнее примененное обновление. ErrConflict означает, что
	// вопрос уже не ждет ответа и ход засчитан раньше.
	ApplyAnswer(ctx context.Context, res AnswerResolution) (*entity.Game, error)
}

// AnswerResolution - итог одного хода, вычисленный движком
type AnswerResolution struct {
	GameID     uint
	QuestionID uint
	UserID     int64
	Correct    bool
	UpdateID   int64 // 0 у таймаута
	// Won завершает игру победой UserID, Points начисляются ему в рейтинг
	Won    bool
	Points int
	// NextUserID получает ход; nil без победы завершает игру без победителя
	NextUserID *int64
}

// Ends сообщает, завершает ли ход игру
func (r AnswerResolution) Ends() bool {
	return r.Won || r.NextUserID == nil
}
