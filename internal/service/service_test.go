package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
	"github.com/glushul/SmartGuysSmartGirls/internal/handler/dto"
	apperrors "github.com/glushul/SmartGuysSmartGirls/internal/pkg/errors"
	"github.com/glushul/SmartGuysSmartGirls/internal/pkg/logger"
)

type stubIssuer struct {
	calls int
}

func (s *stubIssuer) GenerateToken(username string) (string, time.Time, error) {
	s.calls++
	return "token-for-" + username, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

func TestAuthService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	issuer := &stubIssuer{}
	s := NewAuthService("admin", string(hash), issuer, logger.Discard())

	resp, err := s.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "token-for-admin", resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)

	_, err = s.Login(context.Background(), "admin", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = s.Login(context.Background(), "root", "s3cret")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	assert.Equal(t, 1, issuer.calls)
}

func TestAuthService_LoginWithoutConfiguredAdmin(t *testing.T) {
	s := NewAuthService("", "", &stubIssuer{}, logger.Discard())
	_, err := s.Login(context.Background(), "", "")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestUserService_GetLeaderboard(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepoForService)
	s := NewUserService(repo, logger.Discard())

	repo.On("GetLeaderboard", ctx, 10, 20).Return([]entity.User{
		{ID: 7, Username: "anya", Name: "Аня", Score: 12},
		{ID: 8, Score: 9},
	}, int64(22), nil).Once()

	resp, err := s.GetLeaderboard(ctx, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(22), resp.Total)
	require.Len(t, resp.Users, 2)
	assert.Equal(t, 21, resp.Users[0].Rank)
	assert.Equal(t, int64(7), resp.Users[0].UserID)
	assert.Equal(t, 22, resp.Users[1].Rank)

	repo.AssertExpectations(t)
}

func TestUserService_GetLeaderboardClampsPagination(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepoForService)
	s := NewUserService(repo, logger.Discard())

	repo.On("GetLeaderboard", ctx, 10, 0).Return([]entity.User{}, int64(0), nil).Once()
	repo.On("GetLeaderboard", ctx, 100, 0).Return([]entity.User{}, int64(0), nil).Once()

	resp, err := s.GetLeaderboard(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 10, resp.PerPage)

	resp, err = s.GetLeaderboard(ctx, -1, 1000)
	require.NoError(t, err)
	assert.Equal(t, 100, resp.PerPage)

	repo.AssertExpectations(t)
}

func TestUserService_ExportLeaderboardReadsAllBatches(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepoForService)
	s := NewUserService(repo, logger.Discard())

	full := make([]entity.User, exportBatchSize)
	for i := range full {
		full[i] = entity.User{ID: int64(i + 1)}
	}
	repo.On("GetLeaderboard", ctx, exportBatchSize, 0).Return(full, int64(exportBatchSize+1), nil).Once()
	repo.On("GetLeaderboard", ctx, exportBatchSize, exportBatchSize).
		Return([]entity.User{{ID: 999}}, int64(exportBatchSize+1), nil).Once()

	rows, err := s.ExportLeaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, rows, exportBatchSize+1)
	assert.Equal(t, exportBatchSize+1, rows[exportBatchSize].Rank)
	assert.Equal(t, int64(999), rows[exportBatchSize].UserID)

	repo.AssertExpectations(t)
}

func TestGameService_ListGames(t *testing.T) {
	ctx := context.Background()
	games := new(MockGameRepoForService)
	s := NewGameService(games, new(MockParticipantRepoForService), new(MockUserRepoForService), logger.Discard())

	games.On("List", ctx).Return([]entity.Game{
		{ID: 1, ChatID: -1, State: entity.GameStateWaitingForAnswer, AnswerTime: 30},
		{ID: 2, ChatID: -2, State: entity.GameStateEnded, AnswerTime: 10},
		{ID: 3, ChatID: -3, State: entity.GameStateWaitingForPlayers, AnswerTime: 20},
	}, nil)

	resp, err := s.ListGames(ctx)
	require.NoError(t, err)
	require.Len(t, resp.ActiveGames, 2)
	require.Len(t, resp.EndedGames, 1)
	assert.Equal(t, uint(2), resp.EndedGames[0].ID)
	assert.Equal(t, 10, resp.EndedGames[0].AnswerTime)
}

func TestGameService_ListParticipants(t *testing.T) {
	ctx := context.Background()
	winner := int64(11)

	tests := []struct {
		name   string
		game   *entity.Game
		states []string
	}{
		{
			name:   "идущая игра без итогов",
			game:   &entity.Game{ID: 5, State: entity.GameStateWaitingForAnswer},
			states: []string{"", ""},
		},
		{
			name:   "завершенная игра с победителем",
			game:   &entity.Game{ID: 5, State: entity.GameStateEnded, WinnerUserID: &winner},
			states: []string{dto.ParticipantStateWinner, dto.ParticipantStateLoser},
		},
		{
			name:   "завершенная игра без победителя",
			game:   &entity.Game{ID: 5, State: entity.GameStateEnded},
			states: []string{dto.ParticipantStateLoser, dto.ParticipantStateLoser},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			games := new(MockGameRepoForService)
			participants := new(MockParticipantRepoForService)
			users := new(MockUserRepoForService)
			s := NewGameService(games, participants, users, logger.Discard())

			games.On("GetByID", ctx, uint(5)).Return(tt.game, nil)
			participants.On("ListByGame", ctx, uint(5)).Return([]entity.Participant{
				{GameID: 5, UserID: 11, Level: entity.LevelGreen, CorrectAnswers: 2},
				{GameID: 5, UserID: 12, Level: entity.LevelYellow, IncorrectAnswers: 2},
			}, nil)
			users.On("GetByID", ctx, int64(11)).Return(&entity.User{ID: 11, Name: "Аня"}, nil)
			users.On("GetByID", ctx, int64(12)).Return(nil, apperrors.ErrNotFound)

			resp, err := s.ListParticipants(ctx, 5)
			require.NoError(t, err)
			require.Len(t, resp.Participants, 2)
			assert.Equal(t, "Аня", resp.Participants[0].Name)
			assert.Equal(t, "Игрок", resp.Participants[1].Name)
			for i, want := range tt.states {
				assert.Equal(t, want, resp.Participants[i].State)
			}
		})
	}
}

func TestGameService_ListParticipantsUnknownGame(t *testing.T) {
	ctx := context.Background()
	games := new(MockGameRepoForService)
	participants := new(MockParticipantRepoForService)
	s := NewGameService(games, participants, new(MockUserRepoForService), logger.Discard())

	games.On("GetByID", ctx, uint(404)).Return(nil, apperrors.ErrNotFound)

	_, err := s.ListParticipants(ctx, 404)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	participants.AssertNotCalled(t, "ListByGame", mock.Anything, mock.Anything)
}

func TestQuestionService_CreateTheme(t *testing.T) {
	ctx := context.Background()
	repo := new(MockQuestionRepoForService)
	s := NewQuestionService(repo, logger.Discard())

	repo.On("CreateTheme", ctx, mock.MatchedBy(func(th *entity.Theme) bool { return th.Title == "История" })).
		Run(func(args mock.Arguments) { args.Get(1).(*entity.Theme).ID = 3 }).
		Return(nil).Once()

	theme, err := s.CreateTheme(ctx, "  История ")
	require.NoError(t, err)
	assert.Equal(t, uint(3), theme.ID)

	_, err = s.CreateTheme(ctx, "   ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	repo.AssertExpectations(t)
}

func validQuestion(themeID uint, title string) dto.QuestionInput {
	return dto.QuestionInput{
		ThemeID: themeID,
		Title:   title,
		Answers: []dto.AnswerInput{{Title: "да", IsCorrect: true}, {Title: "нет"}},
	}
}

func TestQuestionService_CreateQuestions(t *testing.T) {
	ctx := context.Background()
	repo := new(MockQuestionRepoForService)
	s := NewQuestionService(repo, logger.Discard())

	nextID := uint(100)
	repo.On("CreateQuestion", ctx, mock.AnythingOfType("*entity.Question")).
		Run(func(args mock.Arguments) {
			q := args.Get(1).(*entity.Question)
			nextID++
			q.ID = nextID
		}).Return(nil)

	ids, err := s.CreateQuestions(ctx, []dto.QuestionInput{validQuestion(1, "Вопрос 1"), validQuestion(1, "Вопрос 2")})
	require.NoError(t, err)
	assert.Equal(t, []uint{101, 102}, ids)

	created := repo.Calls[0].Arguments.Get(1).(*entity.Question)
	require.Len(t, created.Answers, 2)
	assert.True(t, created.HasCorrectAnswer())
}

func TestQuestionService_CreateQuestionsValidation(t *testing.T) {
	ctx := context.Background()

	noCorrect := validQuestion(1, "q")
	noCorrect.Answers[0].IsCorrect = false
	twoCorrect := validQuestion(1, "q")
	twoCorrect.Answers[1].IsCorrect = true
	oneAnswer := validQuestion(1, "q")
	oneAnswer.Answers = oneAnswer.Answers[:1]
	emptyAnswer := validQuestion(1, "q")
	emptyAnswer.Answers[1].Title = " "

	tests := []struct {
		name  string
		input []dto.QuestionInput
	}{
		{"пустой пакет", nil},
		{"без темы", []dto.QuestionInput{validQuestion(0, "q")}},
		{"пустой текст", []dto.QuestionInput{validQuestion(1, "")}},
		{"нет правильного ответа", []dto.QuestionInput{noCorrect}},
		{"два правильных ответа", []dto.QuestionInput{twoCorrect}},
		{"один вариант", []dto.QuestionInput{oneAnswer}},
		{"пустой вариант", []dto.QuestionInput{emptyAnswer}},
		{"ошибка во втором вопросе", []dto.QuestionInput{validQuestion(1, "ok"), noCorrect}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockQuestionRepoForService)
			s := NewQuestionService(repo, logger.Discard())

			_, err := s.CreateQuestions(ctx, tt.input)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			repo.AssertNotCalled(t, "CreateQuestion", mock.Anything, mock.Anything)
		})
	}
}

func TestQuestionService_CreateQuestionsUnknownTheme(t *testing.T) {
	ctx := context.Background()
	repo := new(MockQuestionRepoForService)
	s := NewQuestionService(repo, logger.Discard())

	repo.On("CreateQuestion", ctx, mock.Anything).Return(errors.Join(errors.New("theme #9"), apperrors.ErrNotFound))

	_, err := s.CreateQuestions(ctx, []dto.QuestionInput{validQuestion(9, "q")})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
