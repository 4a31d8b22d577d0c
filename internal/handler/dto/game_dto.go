package dto

import "github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"

// Итог участника завершенной игры
const (
	ParticipantStateWinner = "winner"
	ParticipantStateLoser  = "loser"
)

// GameDTO - игра в ответах админки
type GameDTO struct {
	ID                uint             `json:"id"`
	ChatID            int64            `json:"chat_id"`
	ThemeID           *uint            `json:"theme_id"`
	AnswerTime        int              `json:"answer_time"`
	State             entity.GameState `json:"state"`
	CurrentQuestionID *uint            `json:"current_question_id"`
}

// GamesResponse разделяет игры на идущие и завершенные
type GamesResponse struct {
	ActiveGames []GameDTO `json:"active_games"`
	EndedGames  []GameDTO `json:"ended_games"`
}

// ParticipantDTO - участник игры; State заполняется только для завершенных игр
type ParticipantDTO struct {
	GameID           uint   `json:"game_id"`
	UserID           int64  `json:"user_id"`
	Name             string `json:"name"`
	Level            int    `json:"level"`
	CorrectAnswers   int    `json:"correct_answers"`
	IncorrectAnswers int    `json:"incorrect_answers"`
	State            string `json:"state,omitempty"`
}

// ParticipantsResponse - список участников игры
type ParticipantsResponse struct {
	GameID       uint             `json:"game_id"`
	GameState    entity.GameState `json:"game_state"`
	Participants []ParticipantDTO `json:"participants"`
}
