package service

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/glushul/SmartGuysSmartGirls/internal/handler/dto"
	apperrors "github.com/glushul/SmartGuysSmartGirls/internal/pkg/errors"
)

// TokenIssuer выпускает токены администратора
type TokenIssuer interface {
	GenerateToken(username string) (string, time.Time, error)
}

// AuthService проверяет учетные данные единственного администратора
type AuthService struct {
	username     string
	passwordHash []byte
	tokens       TokenIssuer
	log          *logrus.Entry
}

// NewAuthService создает сервис; passwordHash - bcrypt-хеш из конфигурации
func NewAuthService(username, passwordHash string, tokens TokenIssuer, log *logrus.Entry) *AuthService {
	return &AuthService{
		username:     username,
		passwordHash: []byte(passwordHash),
		tokens:       tokens,
		log:          log.WithField("component", "auth_service"),
	}
}

// Login возвращает токен при верных учетных данных, иначе ErrUnauthorized
func (s *AuthService) Login(_ context.Context, username, password string) (*dto.TokenResponse, error) {
	if s.username == "" || len(s.passwordHash) == 0 {
		s.log.Warn("[AuthService] Администратор не настроен, вход запрещен")
		return nil, apperrors.ErrUnauthorized
	}

	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	// bcrypt выполняется всегда, чтобы время ответа не выдавало имя пользователя
	passwordErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !usernameOK || passwordErr != nil {
		s.log.WithField("username", username).Info("[AuthService] Неудачная попытка входа")
		return nil, apperrors.ErrUnauthorized
	}

	token, expiresAt, err := s.tokens.GenerateToken(s.username)
	if err != nil {
		s.log.WithError(err).Error("[AuthService] Не удалось выпустить токен")
		return nil, err
	}

	return &dto.TokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}
