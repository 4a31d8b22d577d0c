package entity

// Theme - тема вопросов; одна тема выбирается на всю игру
type Theme struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Title string `gorm:"size:100;not null;uniqueIndex" json:"title"`
}

// TableName определяет имя таблицы для GORM
func (Theme) TableName() string {
	return "themes"
}

// Question представляет вопрос темы
type Question struct {
	ID      uint     `gorm:"primaryKey" json:"id"`
	ThemeID uint     `gorm:"not null;index" json:"theme_id"`
	Title   string   `gorm:"size:500;not null" json:"title"`
	Answers []Answer `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// HasCorrectAnswer проверяет, что среди вариантов есть хотя бы один правильный
func (q *Question) HasCorrectAnswer() bool {
	for _, a := range q.Answers {
		if a.IsCorrect {
			return true
		}
	}
	return false
}

// Answer - вариант ответа на вопрос
type Answer struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	Title      string `gorm:"size:200;not null" json:"title"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"is_correct"`
}

// TableName определяет имя таблицы для GORM
func (Answer) TableName() string {
	return "answers"
}

// GameQuestion - журнал заданных в игре вопросов, исключает повторы
type GameQuestion struct {
	GameID     uint `gorm:"primaryKey" json:"game_id"`
	QuestionID uint `gorm:"primaryKey" json:"question_id"`
}

// TableName определяет имя таблицы для GORM
func (GameQuestion) TableName() string {
	return "game_questions"
}
