package dto

// CreateThemeRequest - запрос на создание темы
type CreateThemeRequest struct {
	Title string `json:"title" binding:"required"`
}

// ThemeResponse - созданная тема
type ThemeResponse struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

// AnswerInput - вариант ответа в запросе на создание вопроса
type AnswerInput struct {
	Title     string `json:"title"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionInput - вопрос с вариантами ответа
type QuestionInput struct {
	ThemeID uint          `json:"theme_id"`
	Title   string        `json:"title"`
	Answers []AnswerInput `json:"answers"`
}

// CreateQuestionsRequest - пакетное создание вопросов
type CreateQuestionsRequest struct {
	Questions []QuestionInput `json:"questions" binding:"required"`
}

// CreateQuestionsResponse содержит ID созданных вопросов в порядке запроса
type CreateQuestionsResponse struct {
	QuestionIDs []uint `json:"question_ids"`
}
