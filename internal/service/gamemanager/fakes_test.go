package gamemanager

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
	"github.com/glushul/SmartGuysSmartGirls/internal/domain/repository"
	apperrors "github.com/glushul/SmartGuysSmartGirls/internal/pkg/errors"
)

// memStore - хранилище в памяти, реализующее все репозитории движка
type memStore struct {
	mu           sync.Mutex
	games        map[uint]entity.Game
	nextGameID   uint
	participants map[uint]map[int64]entity.Participant
	users        map[int64]entity.User
	themes       []entity.Theme
	questions    []entity.Question
	answers      map[uint]entity.Answer
	asked        map[uint]map[uint]bool
	chats        map[int64]bool
	offsets      map[int64]int64
}

func newMemStore() *memStore {
	return &memStore{
		games:        make(map[uint]entity.Game),
		participants: make(map[uint]map[int64]entity.Participant),
		users:        make(map[int64]entity.User),
		answers:      make(map[uint]entity.Answer),
		asked:        make(map[uint]map[uint]bool),
		chats:        make(map[int64]bool),
		offsets:      make(map[int64]int64),
	}
}

// seedTheme добавляет тему с count вопросами. У вопроса N правильный ответ
// имеет ID N*10+1, неправильный N*10+2.
func (s *memStore) seedTheme(themeID uint, title string, questionIDs ...uint) {
	s.themes = append(s.themes, entity.Theme{ID: themeID, Title: title})
	for _, qid := range questionIDs {
		s.questions = append(s.questions, entity.Question{ID: qid, ThemeID: themeID, Title: "Вопрос " + string(rune('A'+qid))})
		s.answers[qid*10+1] = entity.Answer{ID: qid*10 + 1, QuestionID: qid, Title: "верно", IsCorrect: true}
		s.answers[qid*10+2] = entity.Answer{ID: qid*10 + 2, QuestionID: qid, Title: "неверно"}
	}
}

// GameRepository

func (s *memStore) Create(ctx context.Context, game *entity.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextGameID++
	game.ID = s.nextGameID
	game.CreatedAt = time.Now()
	s.games[game.ID] = *game
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id uint) (*entity.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &g, nil
}

func (s *memStore) GetLatestByChat(ctx context.Context, chatID int64) (*entity.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *entity.Game
	for _, g := range s.games {
		if g.ChatID != chatID {
			continue
		}
		if latest == nil || g.ID > latest.ID {
			g := g
			latest = &g
		}
	}
	if latest == nil {
		return nil, apperrors.ErrNotFound
	}
	return latest, nil
}

func (s *memStore) Save(ctx context.Context, game *entity.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = *game
	return nil
}

func (s *memStore) List(ctx context.Context) ([]entity.Game, error) {
	return s.ListByState(ctx)
}

func (s *memStore) ListByState(ctx context.Context, states ...entity.GameState) ([]entity.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Game
	for _, g := range s.games {
		if len(states) == 0 {
			out = append(out, g)
			continue
		}
		for _, st := range states {
			if g.State == st {
				out = append(out, g)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) Finish(ctx context.Context, game *entity.Game, winner *entity.Participant) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.games[game.ID]
	game.State = entity.GameStateEnded
	if stored.State == entity.GameStateEnded {
		return false, nil
	}
	now := time.Now()
	game.EndedAt = &now
	if winner != nil {
		id := winner.UserID
		game.WinnerUserID = &id
		u := s.users[winner.UserID]
		u.Score += int64(winner.CorrectAnswers)
		s.users[winner.UserID] = u
	}
	s.games[game.ID] = *game
	return true, nil
}

func (s *memStore) Delete(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
	delete(s.participants, id)
	return nil
}

// participantStore реализует ParticipantRepository поверх memStore
type participantStore struct{ *memStore }

func (s participantStore) Create(ctx context.Context, p *entity.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.participants[p.GameID] == nil {
		s.participants[p.GameID] = make(map[int64]entity.Participant)
	}
	if _, ok := s.participants[p.GameID][p.UserID]; ok {
		return apperrors.ErrConflict
	}
	s.participants[p.GameID][p.UserID] = *p
	return nil
}

func (s participantStore) Get(ctx context.Context, gameID uint, userID int64) (*entity.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[gameID][userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &p, nil
}

func (s participantStore) find(gameID uint, match func(entity.Participant) bool) (*entity.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.participants[gameID] {
		if match(p) {
			p := p
			return &p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s participantStore) GetByLevel(ctx context.Context, gameID uint, level int) (*entity.Participant, error) {
	return s.find(gameID, func(p entity.Participant) bool { return p.Level == level })
}

func (s participantStore) GetCurrent(ctx context.Context, gameID uint) (*entity.Participant, error) {
	return s.find(gameID, func(p entity.Participant) bool { return p.Current })
}

func (s participantStore) ListByGame(ctx context.Context, gameID uint) ([]entity.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Participant, 0, len(s.participants[gameID]))
	for _, p := range s.participants[gameID] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level > out[j].Level })
	return out, nil
}

func (s participantStore) ApplyAnswer(ctx context.Context, res repository.AnswerResolution) (*entity.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.games[res.GameID]
	if g.State != entity.GameStateWaitingForAnswer || !g.IsCurrentQuestion(res.QuestionID) {
		return nil, apperrors.ErrConflict
	}
	p, ok := s.participants[res.GameID][res.UserID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if res.Correct {
		p.CorrectAnswers++
	} else {
		p.IncorrectAnswers++
	}
	s.participants[res.GameID][res.UserID] = p

	if res.UpdateID > g.LastUpdateID {
		g.LastUpdateID = res.UpdateID
	}
	g.CurrentQuestionID = nil
	if res.Ends() {
		now := time.Now()
		g.State = entity.GameStateEnded
		g.EndedAt = &now
		if res.Won {
			winner := res.UserID
			g.WinnerUserID = &winner
			u := s.users[res.UserID]
			u.Score += int64(res.Points)
			s.users[res.UserID] = u
		}
	} else {
		g.State = entity.GameStateQuestionAsked
		for id, other := range s.participants[res.GameID] {
			other.Current = id == *res.NextUserID
			s.participants[res.GameID][id] = other
		}
	}
	s.games[res.GameID] = g
	return &g, nil
}

// userStore реализует UserRepository
type userStore struct{ *memStore }

func (s userStore) Create(ctx context.Context, u *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return apperrors.ErrConflict
	}
	s.users[u.ID] = *u
	return nil
}

func (s userStore) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (s userStore) GetLeaderboard(ctx context.Context, limit, offset int) ([]entity.User, int64, error) {
	return nil, 0, nil
}

// questionStore реализует QuestionRepository
type questionStore struct{ *memStore }

func (s questionStore) CreateTheme(ctx context.Context, t *entity.Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.themes = append(s.themes, *t)
	return nil
}

func (s questionStore) ListThemes(ctx context.Context) ([]entity.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.Theme(nil), s.themes...), nil
}

func (s questionStore) CreateQuestion(ctx context.Context, q *entity.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = append(s.questions, *q)
	return nil
}

func (s questionStore) ListAvailable(ctx context.Context, themeID uint, gameID uint) ([]entity.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Question
	for _, q := range s.questions {
		if q.ThemeID == themeID && !s.asked[gameID][q.ID] {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s questionStore) ListAnswers(ctx context.Context, questionID uint) ([]entity.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Answer
	for _, a := range s.answers {
		if a.QuestionID == questionID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s questionStore) GetAnswer(ctx context.Context, answerID uint) (*entity.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[answerID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &a, nil
}

func (s questionStore) MarkAsked(ctx context.Context, gameID uint, questionID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.asked[gameID] == nil {
		s.asked[gameID] = make(map[uint]bool)
	}
	s.asked[gameID][questionID] = true
	return nil
}

// chatStore реализует ChatRepository
type chatStore struct{ *memStore }

func (s chatStore) Register(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[chatID] = true
	return nil
}

func (s chatStore) Deactivate(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[chatID] = false
	return nil
}

func (s chatStore) IsActive(ctx context.Context, chatID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active, ok := s.chats[chatID]
	return !ok || active, nil
}

func (s chatStore) SaveOffset(ctx context.Context, chatID int64, offset int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offsets[chatID] = offset
	return nil
}

func (s chatStore) LastOffset(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var max int64
	for _, o := range s.offsets {
		if o > max {
			max = o
		}
	}
	return max, nil
}

// MockMessengerForEngine записывает исходящие сообщения
type MockMessengerForEngine struct {
	mock.Mock
}

func (m *MockMessengerForEngine) SendText(ctx context.Context, chatID int64, text string) error {
	return m.Called(chatID, text).Error(0)
}

func (m *MockMessengerForEngine) SendOptions(ctx context.Context, chatID int64, text string, options []Option) error {
	return m.Called(chatID, text, options).Error(0)
}

func (m *MockMessengerForEngine) AckSelection(ctx context.Context, callbackID string, text string) error {
	return m.Called(callbackID, text).Error(0)
}

func newMessenger() *MockMessengerForEngine {
	return stubMessenger(new(MockMessengerForEngine))
}

// stubMessenger разрешает любые отправки. Ожидания, заданные до вызова,
// проверяются раньше общих.
func stubMessenger(m *MockMessengerForEngine) *MockMessengerForEngine {
	m.On("SendText", mock.Anything, mock.Anything).Return(nil)
	m.On("SendOptions", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.On("AckSelection", mock.Anything, mock.Anything).Return(nil)
	return m
}

// texts возвращает тексты всех вызовов method по порядку
func (m *MockMessengerForEngine) texts(method string) []string {
	var out []string
	for _, c := range m.Calls {
		if c.Method != method {
			continue
		}
		out = append(out, c.Arguments.String(1))
	}
	return out
}

func (m *MockMessengerForEngine) lastText(method string) string {
	texts := m.texts(method)
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

// scriptedRandom возвращает заранее заданные значения Intn, а после них 0.
// Shuffle сохраняет порядок или, при reverse, разворачивает его.
type scriptedRandom struct {
	mu      sync.Mutex
	values  []int
	reverse bool
}

func (r *scriptedRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v % n
}

func (r *scriptedRandom) Shuffle(n int, swap func(i, j int)) {
	if !r.reverse {
		return
	}
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		swap(i, j)
	}
}
