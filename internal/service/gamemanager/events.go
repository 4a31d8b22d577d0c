package gamemanager

// Команды чата
const (
	CommandStart = "start"
	CommandJoin  = "join"
	CommandScore = "score"
	CommandInfo  = "info"
)

// Event - входящее событие, привязанное к одному чату
type Event interface {
	ChatID() int64
	// UpdateID - идентификатор обновления транспорта; 0 у синтетических событий
	UpdateID() int64
	Kind() string
}

// Envelope содержит общие для всех событий поля
type Envelope struct {
	Update int64
	Chat   int64
}

func (e Envelope) ChatID() int64   { return e.Chat }
func (e Envelope) UpdateID() int64 { return e.Update }

// Sender - автор сообщения или нажатия кнопки
type Sender struct {
	ID       int64
	Username string
	Name     string
}

// CommandEvent - команда вида /start, уже без префикса и @botname
type CommandEvent struct {
	Envelope
	From    Sender
	Command string
	Args    string
}

func (CommandEvent) Kind() string { return "command" }

// TextEvent - обычное текстовое сообщение
type TextEvent struct {
	Envelope
	From Sender
	Text string
}

func (TextEvent) Kind() string { return "text" }

// AnswerEvent - нажатие кнопки с вариантом ответа
type AnswerEvent struct {
	Envelope
	From       Sender
	CallbackID string
	AnswerID   uint
}

func (AnswerEvent) Kind() string { return "answer" }

// TimeoutEvent - истекло время на ответ для вопроса QuestionID игры GameID
type TimeoutEvent struct {
	Envelope
	GameID     uint
	QuestionID uint
}

func (TimeoutEvent) Kind() string { return "timeout" }

// MembershipEvent - бота добавили в чат или удалили из него
type MembershipEvent struct {
	Envelope
	Added bool
}

func (MembershipEvent) Kind() string { return "membership" }

// ResumeEvent продолжает игру, прерванную между вопросами (после перезапуска)
type ResumeEvent struct {
	Envelope
	GameID uint
}

func (ResumeEvent) Kind() string { return "resume" }
