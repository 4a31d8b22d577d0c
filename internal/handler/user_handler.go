package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/glushul/SmartGuysSmartGirls/internal/handler/dto"
)

// LeaderboardProvider предоставляет рейтинг игроков
type LeaderboardProvider interface {
	GetLeaderboard(ctx context.Context, page, pageSize int) (*dto.PaginatedLeaderboardResponse, error)
	ExportLeaderboard(ctx context.Context) ([]*dto.LeaderboardUserDTO, error)
}

// UserHandler обрабатывает запросы рейтинга
type UserHandler struct {
	users LeaderboardProvider
	log   *logrus.Entry
}

// NewUserHandler создает новый обработчик пользователей
func NewUserHandler(users LeaderboardProvider, log *logrus.Entry) *UserHandler {
	return &UserHandler{users: users, log: log.WithField("component", "user_handler")}
}

// GetLeaderboard обрабатывает запрос на получение лидерборда
func (h *UserHandler) GetLeaderboard(c *gin.Context) {
	// Некорректные значения заменяет сервис
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	leaderboard, err := h.users.GetLeaderboard(c.Request.Context(), page, pageSize)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, leaderboard)
}

// ExportLeaderboard отдает весь рейтинг файлом Excel
func (h *UserHandler) ExportLeaderboard(c *gin.Context) {
	rows, err := h.users.ExportLeaderboard(c.Request.Context())
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Рейтинг"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		handleError(c, h.log, err)
		return
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		h.log.WithError(err).Error("[UserHandler] Ошибка создания StreamWriter")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	if err := sw.SetRow("A1", []interface{}{"Место", "ID", "Username", "Имя", "Очки"}); err != nil {
		h.log.WithError(err).Error("[UserHandler] Ошибка записи заголовков")
	}
	for i, r := range rows {
		cell := fmt.Sprintf("A%d", i+2) // 1 - заголовки
		row := []interface{}{r.Rank, r.UserID, sanitizeForExcel(r.Username), sanitizeForExcel(r.Name), r.Score}
		if err := sw.SetRow(cell, row); err != nil {
			h.log.WithError(err).WithField("row", i+2).Error("[UserHandler] Ошибка записи строки")
		}
	}
	if err := sw.Flush(); err != nil {
		h.log.WithError(err).Error("[UserHandler] Ошибка при Flush")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	filename := fmt.Sprintf("leaderboard_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		h.log.WithError(err).Error("[UserHandler] Ошибка записи Excel в response")
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
