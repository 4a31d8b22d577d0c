package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/repository"
	"github.com/glushul/SmartGuysSmartGirls/internal/pkg/logger"
	"github.com/glushul/SmartGuysSmartGirls/internal/pkg/metrics"
	"github.com/glushul/SmartGuysSmartGirls/internal/service/gamemanager"
)

const botID int64 = 777

// MockChatRepoForPoller - мок для ChatRepository
type MockChatRepoForPoller struct {
	mock.Mock
}

func (m *MockChatRepoForPoller) Register(ctx context.Context, chatID int64) error {
	return m.Called(chatID).Error(0)
}

func (m *MockChatRepoForPoller) Deactivate(ctx context.Context, chatID int64) error {
	return m.Called(chatID).Error(0)
}

func (m *MockChatRepoForPoller) IsActive(ctx context.Context, chatID int64) (bool, error) {
	args := m.Called(chatID)
	return args.Bool(0), args.Error(1)
}

func (m *MockChatRepoForPoller) SaveOffset(ctx context.Context, chatID int64, offset int64) error {
	return m.Called(chatID, offset).Error(0)
}

func (m *MockChatRepoForPoller) LastOffset(ctx context.Context) (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

// memCache - кеш в памяти с семантикой SETNX
type memCache struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemCache() *memCache { return &memCache{keys: map[string]bool{}} }

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keys, key)
	return nil
}

func (c *memCache) SetJSON(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	return errors.New("not used")
}

func (c *memCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	return errors.New("not used")
}

func (c *memCache) SetNX(_ context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys[key] {
		return false, nil
	}
	c.keys[key] = true
	return true, nil
}

// fakeSubmitter сразу возвращает результат из fail
type fakeSubmitter struct {
	mu     sync.Mutex
	events []gamemanager.Event
	fail   map[int64]error
}

func (s *fakeSubmitter) SubmitWait(ctx context.Context, ev gamemanager.Event) <-chan error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	res := make(chan error, 1)
	res <- s.fail[ev.UpdateID()]
	return res
}

func newTestPoller(t *testing.T, api *fakeBotAPI, sub Submitter, chats *MockChatRepoForPoller, cache repository.CacheRepository) (*Poller, *metrics.Metrics) {
	cfg := DefaultPollerConfig()
	cfg.BotID = botID
	cfg.BotName = "SmartGuysBot"
	cfg.Timeout = 0
	m := metrics.New(prometheus.NewRegistry())
	return NewPoller(api.client(), sub, chats, cache, cfg, m, logger.Discard()), m
}

func TestPoller_Convert(t *testing.T) {
	p := NewPoller(nil, nil, nil, nil, PollerConfig{BotID: botID, BotName: "SmartGuysBot"}, nil, logger.Discard())
	from := &User{ID: 1, FirstName: "Аня", LastName: "Умная", Username: "anya"}
	chat := Chat{ID: -5}

	tests := []struct {
		name   string
		update Update
		want   gamemanager.Event
	}{
		{
			name:   "command",
			update: Update{UpdateID: 1, Message: &Message{Chat: chat, From: from, Text: "/start"}},
			want: gamemanager.CommandEvent{
				Envelope: gamemanager.Envelope{Update: 1, Chat: -5},
				From:     gamemanager.Sender{ID: 1, Username: "anya", Name: "Аня Умная"},
				Command:  "start",
			},
		},
		{
			name:   "command addressed to this bot",
			update: Update{UpdateID: 2, Message: &Message{Chat: chat, From: from, Text: "/Join@smartguysbot now"}},
			want: gamemanager.CommandEvent{
				Envelope: gamemanager.Envelope{Update: 2, Chat: -5},
				From:     gamemanager.Sender{ID: 1, Username: "anya", Name: "Аня Умная"},
				Command:  "join",
				Args:     "now",
			},
		},
		{
			name:   "command to another bot",
			update: Update{UpdateID: 3, Message: &Message{Chat: chat, From: from, Text: "/start@OtherBot"}},
		},
		{
			name:   "plain text",
			update: Update{UpdateID: 4, Message: &Message{Chat: chat, From: from, Text: " 45 "}},
			want: gamemanager.TextEvent{
				Envelope: gamemanager.Envelope{Update: 4, Chat: -5},
				From:     gamemanager.Sender{ID: 1, Username: "anya", Name: "Аня Умная"},
				Text:     "45",
			},
		},
		{
			name: "answer button",
			update: Update{UpdateID: 5, CallbackQuery: &CallbackQuery{
				ID: "cb", From: *from, Data: "answer:31", Message: &Message{Chat: chat},
			}},
			want: gamemanager.AnswerEvent{
				Envelope:   gamemanager.Envelope{Update: 5, Chat: -5},
				From:       gamemanager.Sender{ID: 1, Username: "anya", Name: "Аня Умная"},
				CallbackID: "cb",
				AnswerID:   31,
			},
		},
		{
			name:   "foreign button",
			update: Update{UpdateID: 6, CallbackQuery: &CallbackQuery{ID: "cb", From: *from, Data: "like", Message: &Message{Chat: chat}}},
		},
		{
			name:   "bot added",
			update: Update{UpdateID: 7, Message: &Message{Chat: chat, From: from, NewChatMembers: []User{{ID: 5}, {ID: botID, IsBot: true}}}},
			want:   gamemanager.MembershipEvent{Envelope: gamemanager.Envelope{Update: 7, Chat: -5}, Added: true},
		},
		{
			name:   "bot removed",
			update: Update{UpdateID: 8, Message: &Message{Chat: chat, From: from, LeftChatMember: &User{ID: botID, IsBot: true}}},
			want:   gamemanager.MembershipEvent{Envelope: gamemanager.Envelope{Update: 8, Chat: -5}, Added: false},
		},
		{
			name:   "someone else left",
			update: Update{UpdateID: 9, Message: &Message{Chat: chat, From: from, LeftChatMember: &User{ID: 5}}},
		},
		{
			name:   "message from bot",
			update: Update{UpdateID: 10, Message: &Message{Chat: chat, From: &User{ID: 9, IsBot: true}, Text: "/start"}},
		},
		{
			name:   "empty update",
			update: Update{UpdateID: 11},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := p.Convert(tt.update)
			if tt.want == nil {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, ev)
		})
	}
}

const batchJSON = `{"ok":true,"result":[
	{"update_id":100,"message":{"message_id":1,"chat":{"id":-5},"from":{"id":1,"first_name":"Аня"},"text":"/start"}},
	{"update_id":101,"message":{"message_id":2,"chat":{"id":-6},"from":{"id":2,"first_name":"Борис"},"text":"/join"}},
	{"update_id":102,"message":{"message_id":3,"chat":{"id":-5},"from":{"id":1,"first_name":"Аня"},"text":"30"}},
	{"update_id":103,"message":{"message_id":4,"chat":{"id":-5},"from":{"id":1,"first_name":"Аня"}}}
]}`

func TestPoller_PollOnceSavesOffsetsPerChat(t *testing.T) {
	api := newFakeBotAPI(t)
	api.responses["getUpdates"] = batchJSON
	chats := new(MockChatRepoForPoller)
	chats.On("SaveOffset", int64(-5), int64(103)).Return(nil).Once()
	chats.On("SaveOffset", int64(-6), int64(102)).Return(nil).Once()
	sub := &fakeSubmitter{}
	p, _ := newTestPoller(t, api, sub, chats, newMemCache())

	next, err := p.PollOnce(context.Background(), 100)

	require.NoError(t, err)
	assert.Equal(t, int64(104), next)
	require.Len(t, sub.events, 3)
	assert.Equal(t, int64(100), sub.events[0].UpdateID())
	assert.Equal(t, int64(102), sub.events[2].UpdateID())
	chats.AssertExpectations(t)
}

func TestPoller_DropsRedeliveredUpdates(t *testing.T) {
	api := newFakeBotAPI(t)
	api.responses["getUpdates"] = batchJSON
	chats := new(MockChatRepoForPoller)
	chats.On("SaveOffset", mock.Anything, mock.Anything).Return(nil)
	sub := &fakeSubmitter{}
	p, m := newTestPoller(t, api, sub, chats, newMemCache())

	_, err := p.PollOnce(context.Background(), 100)
	require.NoError(t, err)
	_, err = p.PollOnce(context.Background(), 100)
	require.NoError(t, err)

	assert.Len(t, sub.events, 3)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.UpdatesDropped))
}

func TestPoller_FailedUpdateIsRetried(t *testing.T) {
	api := newFakeBotAPI(t)
	api.responses["getUpdates"] = batchJSON
	chats := new(MockChatRepoForPoller)
	chats.On("SaveOffset", mock.Anything, mock.Anything).Return(nil)
	sub := &fakeSubmitter{fail: map[int64]error{102: errors.New("db down")}}
	p, _ := newTestPoller(t, api, sub, chats, newMemCache())

	next, err := p.PollOnce(context.Background(), 100)
	require.Error(t, err)
	assert.Equal(t, int64(104), next)
	chats.AssertNotCalled(t, "SaveOffset", mock.Anything, mock.Anything)

	// Повторная доставка: успешно обработанные отброшены, упавшее обрабатывается заново
	sub.fail = nil
	_, err = p.PollOnce(context.Background(), 100)
	require.NoError(t, err)

	require.Len(t, sub.events, 4)
	assert.Equal(t, int64(102), sub.events[3].UpdateID())
	chats.AssertCalled(t, "SaveOffset", int64(-5), int64(103))
}

func TestPoller_EmptyBatchKeepsOffset(t *testing.T) {
	api := newFakeBotAPI(t)
	api.responses["getUpdates"] = `{"ok":true,"result":[]}`
	chats := new(MockChatRepoForPoller)
	p, _ := newTestPoller(t, api, &fakeSubmitter{}, chats, nil)

	next, err := p.PollOnce(context.Background(), 55)

	require.NoError(t, err)
	assert.Equal(t, int64(55), next)
	chats.AssertNotCalled(t, "SaveOffset", mock.Anything, mock.Anything)
}

func TestPoller_RunResumesFromLastOffset(t *testing.T) {
	api := newFakeBotAPI(t)
	api.responses["getUpdates"] = `{"ok":true,"result":[]}`
	chats := new(MockChatRepoForPoller)
	chats.On("LastOffset").Return(int64(42), nil)
	p, _ := newTestPoller(t, api, &fakeSubmitter{}, chats, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	call := api.next(t)
	assert.Equal(t, "getUpdates", call.Method)
	assert.Equal(t, float64(42), call.Body["offset"])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
}
