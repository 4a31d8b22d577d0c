package entity

import (
	"time"
)

// GameState описывает этап жизненного цикла игры в чате
type GameState string

// Состояния игры. GameStateNone не хранится в БД: он означает, что для чата нет ни одной игры.
const (
	GameStateNone                 GameState = "NONE"
	GameStateWaitingForAnswerTime GameState = "WAITING_FOR_ANSWER_TIME"
	GameStateWaitingForPlayers    GameState = "WAITING_FOR_PLAYERS"
	GameStateQuestionAsked        GameState = "QUESTION_ASKED"
	GameStateWaitingForAnswer     GameState = "WAITING_FOR_ANSWER"
	GameStateEnded                GameState = "GAME_ENDED"
)

// Ограничения времени на ответ (в секундах)
const (
	DefaultAnswerTime = 30
	MinAnswerTime     = 1
	MaxAnswerTime     = 180
)

// Game представляет одну игру, привязанную к чату
type Game struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	ChatID            int64      `gorm:"not null;index" json:"chat_id"`
	State             GameState  `gorm:"size:32;not null;index" json:"state"`
	AnswerTime        int        `gorm:"not null;default:30" json:"answer_time"`
	ThemeID           *uint      `json:"theme_id"`
	CurrentQuestionID *uint      `json:"current_question_id"`
	WinnerUserID      *int64     `json:"winner_user_id,omitempty"`
	LastUpdateID      int64      `gorm:"not null;default:0" json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	EndedAt           *time.Time `json:"ended_at,omitempty"`

	Participants []Participant `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (Game) TableName() string {
	return "games"
}

// IsEnded проверяет, завершена ли игра
func (g *Game) IsEnded() bool {
	return g.State == GameStateEnded
}

// IsCurrentQuestion проверяет, что вопрос с questionID сейчас задан в игре
func (g *Game) IsCurrentQuestion(questionID uint) bool {
	return g.CurrentQuestionID != nil && *g.CurrentQuestionID == questionID
}

// HasProcessed сообщает, было ли обновление транспорта уже применено к игре.
// Синтетические события (updateID == 0) никогда не считаются обработанными.
func (g *Game) HasProcessed(updateID int64) bool {
	return updateID != 0 && updateID <= g.LastUpdateID
}

// ValidAnswerTime проверяет, что время ответа попадает в допустимый диапазон
func ValidAnswerTime(seconds int) bool {
	return seconds >= MinAnswerTime && seconds <= MaxAnswerTime
}
