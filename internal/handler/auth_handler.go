package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/glushul/SmartGuysSmartGirls/internal/handler/dto"
)

// Authenticator проверяет учетные данные администратора
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*dto.TokenResponse, error)
}

// AuthHandler обрабатывает вход администратора
type AuthHandler struct {
	auth Authenticator
	log  *logrus.Entry
}

// NewAuthHandler создает новый обработчик аутентификации
func NewAuthHandler(auth Authenticator, log *logrus.Entry) *AuthHandler {
	return &AuthHandler{auth: auth, log: log.WithField("component", "auth_handler")}
}

// Login выдает токен по логину и паролю
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "bad_request"})
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	h.log.WithField("username", req.Username).Info("[AuthHandler] Администратор вошел в систему")
	c.JSON(http.StatusOK, resp)
}
