package entity

// Уровни сложности («дорожки»). Уровень задает и число вопросов, и запас штрафов (уровень-2).
const (
	LevelRed    = 2
	LevelYellow = 3
	LevelGreen  = 4
)

// Levels перечисляет уровни в порядке передачи хода
var Levels = []int{LevelGreen, LevelYellow, LevelRed}

// PlayersPerGame - число участников, при котором игра начинается
const PlayersPerGame = 3

// Participant хранит положение игрока внутри одной игры
type Participant struct {
	GameID           uint  `gorm:"primaryKey" json:"game_id"`
	UserID           int64 `gorm:"primaryKey" json:"user_id"`
	Level            int   `gorm:"not null" json:"level"`
	CorrectAnswers   int   `gorm:"not null;default:0" json:"correct_answers"`
	IncorrectAnswers int   `gorm:"not null;default:0" json:"incorrect_answers"`
	Current          bool  `gorm:"not null;default:false" json:"current"`
}

// TableName определяет имя таблицы для GORM
func (Participant) TableName() string {
	return "participants"
}

// PenaltyBudget возвращает допустимое число ошибок
func (p *Participant) PenaltyBudget() int {
	return p.Level - 2
}

// IsEliminated - игрок исчерпал штрафные очки
func (p *Participant) IsEliminated() bool {
	return p.IncorrectAnswers > p.PenaltyBudget()
}

// HasWon - игрок ответил на все свои вопросы, уложившись в запас штрафов
func (p *Participant) HasWon() bool {
	return p.CorrectAnswers+p.IncorrectAnswers == p.Level && p.IncorrectAnswers <= p.PenaltyBudget()
}

// LevelTitle возвращает название дорожки для уровня
func LevelTitle(level int) string {
	switch level {
	case LevelRed:
		return "Красная дорожка🔴"
	case LevelYellow:
		return "Желтая дорожка🟡"
	case LevelGreen:
		return "Зеленая дорожка🟢"
	default:
		return ""
	}
}
