package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/glushul/SmartGuysSmartGirls/internal/handler/dto"
)

// ContextKeyGameID - ключ контекста с ID игры из URL
const ContextKeyGameID = "gameID"

// GameReader предоставляет данные об играх
type GameReader interface {
	ListGames(ctx context.Context) (*dto.GamesResponse, error)
	ListParticipants(ctx context.Context, gameID uint) (*dto.ParticipantsResponse, error)
}

// GameHandler обрабатывает запросы об играх
type GameHandler struct {
	games GameReader
	log   *logrus.Entry
}

// NewGameHandler создает новый обработчик игр
func NewGameHandler(games GameReader, log *logrus.Entry) *GameHandler {
	return &GameHandler{games: games, log: log.WithField("component", "game_handler")}
}

// ListGames возвращает идущие и завершенные игры
func (h *GameHandler) ListGames(c *gin.Context) {
	resp, err := h.games.ListGames(c.Request.Context())
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListParticipants возвращает участников игры; ID кладет ExtractUintParam
func (h *GameHandler) ListParticipants(c *gin.Context) {
	gameID := c.MustGet(ContextKeyGameID).(uint)

	resp, err := h.games.ListParticipants(c.Request.Context(), gameID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
