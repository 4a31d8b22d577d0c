package dto

// LeaderboardUserDTO представляет одного пользователя в лидерборде
type LeaderboardUserDTO struct {
	Rank     int    `json:"rank"`     // Место пользователя в рейтинге
	UserID   int64  `json:"user_id"`  // Telegram ID пользователя
	Username string `json:"username"` // @username, может быть пустым
	Name     string `json:"name"`
	Score    int64  `json:"score"`
}

// PaginatedLeaderboardResponse представляет пагинированный ответ для лидерборда
type PaginatedLeaderboardResponse struct {
	Users   []*LeaderboardUserDTO `json:"users"`
	Total   int64                 `json:"total"` // Общее количество пользователей в лидерборде
	Page    int                   `json:"page"`
	PerPage int                   `json:"per_page"`
}
