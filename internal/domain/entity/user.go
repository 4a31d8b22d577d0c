package entity

import "time"

// User - игрок, идентифицируется Telegram ID и накапливает очки между играми
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username  string    `gorm:"size:64;not null;default:''" json:"username"`
	Name      string    `gorm:"size:128;not null;default:''" json:"name"`
	Score     int64     `gorm:"not null;default:0;index" json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// DisplayName возвращает имя для обращения в чате
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return "Игрок"
}
