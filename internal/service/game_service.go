package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
	"github.com/glushul/SmartGuysSmartGirls/internal/domain/repository"
	"github.com/glushul/SmartGuysSmartGirls/internal/handler/dto"
	apperrors "github.com/glushul/SmartGuysSmartGirls/internal/pkg/errors"
)

// GameService предоставляет админке просмотр игр и участников
type GameService struct {
	gameRepo        repository.GameRepository
	participantRepo repository.ParticipantRepository
	userRepo        repository.UserRepository
	log             *logrus.Entry
}

// NewGameService создает новый сервис игр
func NewGameService(
	gameRepo repository.GameRepository,
	participantRepo repository.ParticipantRepository,
	userRepo repository.UserRepository,
	log *logrus.Entry,
) *GameService {
	return &GameService{
		gameRepo:        gameRepo,
		participantRepo: participantRepo,
		userRepo:        userRepo,
		log:             log.WithField("component", "game_service"),
	}
}

// ListGames возвращает все игры, разделенные на идущие и завершенные
func (s *GameService) ListGames(ctx context.Context) (*dto.GamesResponse, error) {
	games, err := s.gameRepo.List(ctx)
	if err != nil {
		s.log.WithError(err).Error("[GameService] Ошибка при получении списка игр")
		return nil, err
	}

	resp := &dto.GamesResponse{ActiveGames: []dto.GameDTO{}, EndedGames: []dto.GameDTO{}}
	for _, g := range games {
		item := dto.GameDTO{
			ID:                g.ID,
			ChatID:            g.ChatID,
			ThemeID:           g.ThemeID,
			AnswerTime:        g.AnswerTime,
			State:             g.State,
			CurrentQuestionID: g.CurrentQuestionID,
		}
		if g.IsEnded() {
			resp.EndedGames = append(resp.EndedGames, item)
		} else {
			resp.ActiveGames = append(resp.ActiveGames, item)
		}
	}
	return resp, nil
}

// ListParticipants возвращает участников игры; для завершенной игры у каждого есть итог
func (s *GameService) ListParticipants(ctx context.Context, gameID uint) (*dto.ParticipantsResponse, error) {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	participants, err := s.participantRepo.ListByGame(ctx, gameID)
	if err != nil {
		s.log.WithError(err).WithField("game_id", gameID).Error("[GameService] Ошибка при получении участников")
		return nil, err
	}

	resp := &dto.ParticipantsResponse{
		GameID:       game.ID,
		GameState:    game.State,
		Participants: make([]dto.ParticipantDTO, 0, len(participants)),
	}
	for _, p := range participants {
		item := dto.ParticipantDTO{
			GameID:           p.GameID,
			UserID:           p.UserID,
			Name:             s.displayName(ctx, p.UserID),
			Level:            p.Level,
			CorrectAnswers:   p.CorrectAnswers,
			IncorrectAnswers: p.IncorrectAnswers,
		}
		if game.IsEnded() {
			item.State = dto.ParticipantStateLoser
			if game.WinnerUserID != nil && *game.WinnerUserID == p.UserID {
				item.State = dto.ParticipantStateWinner
			}
		}
		resp.Participants = append(resp.Participants, item)
	}
	return resp, nil
}

func (s *GameService) displayName(ctx context.Context, userID int64) string {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.log.WithError(err).WithField("user_id", userID).Warn("[GameService] Не удалось получить пользователя")
		}
		return (&entity.User{}).DisplayName()
	}
	return user.DisplayName()
}
