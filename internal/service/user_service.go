package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
	"github.com/glushul/SmartGuysSmartGirls/internal/domain/repository"
	"github.com/glushul/SmartGuysSmartGirls/internal/handler/dto"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	exportBatchSize = 500
)

// UserService предоставляет рейтинг игроков
type UserService struct {
	userRepo repository.UserRepository
	log      *logrus.Entry
}

// NewUserService создает новый сервис пользователей
func NewUserService(userRepo repository.UserRepository, log *logrus.Entry) *UserService {
	return &UserService{userRepo: userRepo, log: log.WithField("component", "user_service")}
}

// GetLeaderboard возвращает пагинированный список пользователей по убыванию счета
func (s *UserService) GetLeaderboard(ctx context.Context, page, pageSize int) (*dto.PaginatedLeaderboardResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	} else if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	offset := (page - 1) * pageSize

	users, total, err := s.userRepo.GetLeaderboard(ctx, pageSize, offset)
	if err != nil {
		s.log.WithError(err).Error("[UserService] Ошибка при получении лидерборда из репозитория")
		return nil, err
	}

	return &dto.PaginatedLeaderboardResponse{
		Users:   toLeaderboardDTOs(users, offset),
		Total:   total,
		Page:    page,
		PerPage: pageSize,
	}, nil
}

// ExportLeaderboard возвращает весь рейтинг, читая его порциями
func (s *UserService) ExportLeaderboard(ctx context.Context) ([]*dto.LeaderboardUserDTO, error) {
	var result []*dto.LeaderboardUserDTO
	for offset := 0; ; offset += exportBatchSize {
		users, _, err := s.userRepo.GetLeaderboard(ctx, exportBatchSize, offset)
		if err != nil {
			s.log.WithError(err).WithField("offset", offset).Error("[UserService] Ошибка при выгрузке лидерборда")
			return nil, err
		}
		result = append(result, toLeaderboardDTOs(users, offset)...)
		if len(users) < exportBatchSize {
			return result, nil
		}
	}
}

func toLeaderboardDTOs(users []entity.User, offset int) []*dto.LeaderboardUserDTO {
	out := make([]*dto.LeaderboardUserDTO, len(users))
	for i, user := range users {
		out[i] = &dto.LeaderboardUserDTO{
			Rank:     offset + i + 1,
			UserID:   user.ID,
			Username: user.Username,
			Name:     user.Name,
			Score:    user.Score,
		}
	}
	return out
}
