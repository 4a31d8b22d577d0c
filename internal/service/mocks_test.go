package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
	"github.com/glushul/SmartGuysSmartGirls/internal/domain/repository"
)

// ============================================================================
// Моки репозиториев для сервисов админки
// ============================================================================

type MockUserRepoForService struct {
	mock.Mock
}

func (m *MockUserRepoForService) Create(ctx context.Context, user *entity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepoForService) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepoForService) GetLeaderboard(ctx context.Context, limit, offset int) ([]entity.User, int64, error) {
	args := m.Called(ctx, limit, offset)
	users, _ := args.Get(0).([]entity.User)
	return users, args.Get(1).(int64), args.Error(2)
}

type MockGameRepoForService struct {
	mock.Mock
}

func (m *MockGameRepoForService) Create(ctx context.Context, game *entity.Game) error {
	return m.Called(ctx, game).Error(0)
}

func (m *MockGameRepoForService) GetByID(ctx context.Context, id uint) (*entity.Game, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Game), args.Error(1)
}

func (m *MockGameRepoForService) GetLatestByChat(ctx context.Context, chatID int64) (*entity.Game, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Game), args.Error(1)
}

func (m *MockGameRepoForService) Save(ctx context.Context, game *entity.Game) error {
	return m.Called(ctx, game).Error(0)
}

func (m *MockGameRepoForService) List(ctx context.Context) ([]entity.Game, error) {
	args := m.Called(ctx)
	games, _ := args.Get(0).([]entity.Game)
	return games, args.Error(1)
}

func (m *MockGameRepoForService) ListByState(ctx context.Context, states ...entity.GameState) ([]entity.Game, error) {
	args := m.Called(ctx, states)
	games, _ := args.Get(0).([]entity.Game)
	return games, args.Error(1)
}

func (m *MockGameRepoForService) Finish(ctx context.Context, game *entity.Game, winner *entity.Participant) (bool, error) {
	args := m.Called(ctx, game, winner)
	return args.Bool(0), args.Error(1)
}

func (m *MockGameRepoForService) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

type MockParticipantRepoForService struct {
	mock.Mock
}

func (m *MockParticipantRepoForService) Create(ctx context.Context, participant *entity.Participant) error {
	return m.Called(ctx, participant).Error(0)
}

func (m *MockParticipantRepoForService) Get(ctx context.Context, gameID uint, userID int64) (*entity.Participant, error) {
	args := m.Called(ctx, gameID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Participant), args.Error(1)
}

func (m *MockParticipantRepoForService) GetByLevel(ctx context.Context, gameID uint, level int) (*entity.Participant, error) {
	args := m.Called(ctx, gameID, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Participant), args.Error(1)
}

func (m *MockParticipantRepoForService) GetCurrent(ctx context.Context, gameID uint) (*entity.Participant, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Participant), args.Error(1)
}

func (m *MockParticipantRepoForService) ListByGame(ctx context.Context, gameID uint) ([]entity.Participant, error) {
	args := m.Called(ctx, gameID)
	participants, _ := args.Get(0).([]entity.Participant)
	return participants, args.Error(1)
}

func (m *MockParticipantRepoForService) ApplyAnswer(ctx context.Context, res repository.AnswerResolution) (*entity.Game, error) {
	args := m.Called(ctx, res)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Game), args.Error(1)
}

type MockQuestionRepoForService struct {
	mock.Mock
}

func (m *MockQuestionRepoForService) CreateTheme(ctx context.Context, theme *entity.Theme) error {
	return m.Called(ctx, theme).Error(0)
}

func (m *MockQuestionRepoForService) ListThemes(ctx context.Context) ([]entity.Theme, error) {
	args := m.Called(ctx)
	themes, _ := args.Get(0).([]entity.Theme)
	return themes, args.Error(1)
}

func (m *MockQuestionRepoForService) CreateQuestion(ctx context.Context, question *entity.Question) error {
	return m.Called(ctx, question).Error(0)
}

func (m *MockQuestionRepoForService) ListAvailable(ctx context.Context, themeID uint, gameID uint) ([]entity.Question, error) {
	args := m.Called(ctx, themeID, gameID)
	questions, _ := args.Get(0).([]entity.Question)
	return questions, args.Error(1)
}

func (m *MockQuestionRepoForService) ListAnswers(ctx context.Context, questionID uint) ([]entity.Answer, error) {
	args := m.Called(ctx, questionID)
	answers, _ := args.Get(0).([]entity.Answer)
	return answers, args.Error(1)
}

func (m *MockQuestionRepoForService) GetAnswer(ctx context.Context, answerID uint) (*entity.Answer, error) {
	args := m.Called(ctx, answerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Answer), args.Error(1)
}

func (m *MockQuestionRepoForService) MarkAsked(ctx context.Context, gameID uint, questionID uint) error {
	return m.Called(ctx, gameID, questionID).Error(0)
}
