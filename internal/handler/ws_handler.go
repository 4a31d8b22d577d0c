package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/glushul/SmartGuysSmartGirls/internal/middleware"
	"github.com/glushul/SmartGuysSmartGirls/internal/websocket"
)

// WSHandler подключает админку к живой ленте сообщений чата
type WSHandler struct {
	hub      *websocket.Hub
	upgrader gorillaws.Upgrader
	log      *logrus.Entry
}

// NewWSHandler создает обработчик; allowedOrigins синхронизирован с CORS
func NewWSHandler(hub *websocket.Hub, allowedOrigins []string, log *logrus.Entry) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &WSHandler{
		hub: hub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Пустой Origin - не браузерный клиент
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		log: log.WithField("component", "ws_handler"),
	}
}

// ContextKeyChatID ключ контекста с ID чата из пути
const ContextKeyChatID = "chatID"

// HandleFeed переводит соединение в WebSocket и подписывает его на чат :chat_id
func (h *WSHandler) HandleFeed(c *gin.Context) {
	chatID := c.MustGet(ContextKeyChatID).(int64)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.log.WithError(err).WithField("chat_id", chatID).Warn("[WSHandler] Не удалось установить соединение")
		return
	}

	client := h.hub.Serve(conn, chatID)
	h.log.WithFields(logrus.Fields{
		"chat_id":       chatID,
		"connection_id": client.ConnectionID,
		"admin":         c.GetString(middleware.ContextKeyAdmin),
	}).Info("[WSHandler] Подключен подписчик ленты")
}
