package entity

import "time"

// Chat - групповой чат, в который добавлен бот
type Chat struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Chat) TableName() string {
	return "chats"
}

// ChatUpdate хранит курсор long polling для чата.
// При старте опрос продолжается с максимального сохраненного значения.
type ChatUpdate struct {
	ChatID int64 `gorm:"primaryKey;autoIncrement:false" json:"chat_id"`
	Offset int64 `gorm:"column:update_offset;not null" json:"offset"`
}

// TableName определяет имя таблицы для GORM
func (ChatUpdate) TableName() string {
	return "chat_updates"
}
