package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
	"github.com/glushul/SmartGuysSmartGirls/internal/handler/dto"
)

// QuestionCatalog наполняет каталог тем и вопросов
type QuestionCatalog interface {
	ListThemes(ctx context.Context) ([]entity.Theme, error)
	CreateTheme(ctx context.Context, title string) (*entity.Theme, error)
	CreateQuestions(ctx context.Context, inputs []dto.QuestionInput) ([]uint, error)
}

// QuestionHandler обрабатывает запросы каталога
type QuestionHandler struct {
	catalog QuestionCatalog
	log     *logrus.Entry
}

// NewQuestionHandler создает новый обработчик каталога
func NewQuestionHandler(catalog QuestionCatalog, log *logrus.Entry) *QuestionHandler {
	return &QuestionHandler{catalog: catalog, log: log.WithField("component", "question_handler")}
}

// ListThemes возвращает темы каталога
func (h *QuestionHandler) ListThemes(c *gin.Context) {
	themes, err := h.catalog.ListThemes(c.Request.Context())
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	resp := make([]dto.ThemeResponse, 0, len(themes))
	for _, t := range themes {
		resp = append(resp, dto.ThemeResponse{ID: t.ID, Title: t.Title})
	}
	c.JSON(http.StatusOK, gin.H{"themes": resp})
}

// CreateTheme создает тему
func (h *QuestionHandler) CreateTheme(c *gin.Context) {
	var req dto.CreateThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "bad_request"})
		return
	}

	theme, err := h.catalog.CreateTheme(c.Request.Context(), req.Title)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ThemeResponse{ID: theme.ID, Title: theme.Title})
}

// CreateQuestions создает пакет вопросов с вариантами ответа
func (h *QuestionHandler) CreateQuestions(c *gin.Context) {
	var req dto.CreateQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "bad_request"})
		return
	}

	ids, err := h.catalog.CreateQuestions(c.Request.Context(), req.Questions)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CreateQuestionsResponse{QuestionIDs: ids})
}
