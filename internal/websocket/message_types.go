package websocket

// Типы сообщений ленты игры
const (
	// FEED_TEXT - текстовое сообщение бота в чат
	FEED_TEXT = "FEED_TEXT"

	// FEED_QUESTION - вопрос с вариантами ответа
	FEED_QUESTION = "FEED_QUESTION"
)

// FeedOption - вариант ответа в сообщении ленты
type FeedOption struct {
	Label    string `json:"label"`
	AnswerID uint   `json:"answer_id"`
}

// FeedMessage - сообщение, которое получают подписчики чата
type FeedMessage struct {
	Type    string       `json:"type"`
	ChatID  int64        `json:"chat_id"`
	Text    string       `json:"text"`
	Options []FeedOption `json:"options,omitempty"`
}
