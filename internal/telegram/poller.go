package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/repository"
	"github.com/glushul/SmartGuysSmartGirls/internal/pkg/metrics"
	"github.com/glushul/SmartGuysSmartGirls/internal/service/gamemanager"
)

// Submitter принимает события движка и сообщает результат их обработки
type Submitter interface {
	SubmitWait(ctx context.Context, ev gamemanager.Event) <-chan error
}

// PollerConfig содержит настройки опроса обновлений
type PollerConfig struct {
	BotID       int64
	BotName     string
	Limit       int
	Timeout     int           // секунды long polling
	DedupeTTL   time.Duration // время жизни ключа дедупликации в Redis
	RetryDelay  time.Duration
	MaxAttempts int // попыток обработать одну пачку, после чего она пропускается
}

// DefaultPollerConfig возвращает конфигурацию по умолчанию
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Limit:       100,
		Timeout:     50,
		DedupeTTL:   24 * time.Hour,
		RetryDelay:  3 * time.Second,
		MaxAttempts: 5,
	}
}

// Poller получает обновления через getUpdates, превращает их в события
// движка и сохраняет курсор только после обработки всей пачки
type Poller struct {
	client    *Client
	submitter Submitter
	chats     repository.ChatRepository
	cache     repository.CacheRepository // может быть nil
	config    PollerConfig
	metrics   *metrics.Metrics // может быть nil
	log       *logrus.Entry
}

func NewPoller(
	client *Client,
	submitter Submitter,
	chats repository.ChatRepository,
	cache repository.CacheRepository,
	config PollerConfig,
	m *metrics.Metrics,
	log *logrus.Entry,
) *Poller {
	return &Poller{
		client:    client,
		submitter: submitter,
		chats:     chats,
		cache:     cache,
		config:    config,
		metrics:   m,
		log:       log.WithField("component", "poller"),
	}
}

// Run опрашивает Bot API до отмены ctx
func (p *Poller) Run(ctx context.Context) error {
	offset, err := p.chats.LastOffset(ctx)
	if err != nil {
		return fmt.Errorf("load last offset: %w", err)
	}
	p.log.Infof("[Poller] Опрос обновлений начат с offset %d", offset)

	attempts := 0
	for {
		if ctx.Err() != nil {
			p.log.Info("[Poller] Опрос обновлений остановлен")
			return nil
		}

		next, err := p.PollOnce(ctx, offset)
		switch {
		case err == nil:
			offset = next
			attempts = 0
			continue
		case ctx.Err() != nil:
			continue
		}

		attempts++
		entry := p.log.WithError(err).WithFields(logrus.Fields{"offset": offset, "attempt": attempts})
		if p.config.MaxAttempts > 0 && attempts >= p.config.MaxAttempts && next > offset {
			entry.Error("[Poller] Пачка обновлений пропущена после повторных ошибок")
			offset = next
			attempts = 0
			continue
		}
		entry.Warn("[Poller] Ошибка обработки обновлений, повтор")

		select {
		case <-ctx.Done():
		case <-time.After(p.config.RetryDelay):
		}
	}
}

type pendingUpdate struct {
	updateID int64
	chatID   int64
	result   <-chan error
}

// PollOnce обрабатывает одну пачку обновлений и возвращает следующий offset.
// При ошибке возвращается и ошибка, и offset за пачкой: вызывающий решает,
// повторять ли ее.
func (p *Poller) PollOnce(ctx context.Context, offset int64) (int64, error) {
	updates, err := p.client.GetUpdates(ctx, offset, p.config.Limit, p.config.Timeout)
	if err != nil {
		return offset, fmt.Errorf("get updates: %w", err)
	}
	if len(updates) == 0 {
		return offset, nil
	}

	next := offset
	var pending []pendingUpdate
	for _, u := range updates {
		if u.UpdateID >= next {
			next = u.UpdateID + 1
		}

		ev, ok := p.Convert(u)
		if !ok {
			continue
		}
		if !p.claim(ctx, u.UpdateID) {
			if p.metrics != nil {
				p.metrics.UpdatesDropped.Inc()
			}
			p.log.WithField("update_id", u.UpdateID).Debug("[Poller] Повторное обновление отброшено")
			continue
		}
		pending = append(pending, pendingUpdate{
			updateID: u.UpdateID,
			chatID:   ev.ChatID(),
			result:   p.submitter.SubmitWait(ctx, ev),
		})
	}

	var errs []error
	offsets := make(map[int64]int64)
	for _, pu := range pending {
		if err := <-pu.result; err != nil {
			errs = append(errs, fmt.Errorf("update %d: %w", pu.updateID, err))
			p.release(context.WithoutCancel(ctx), pu.updateID)
			continue
		}
		if pu.updateID+1 > offsets[pu.chatID] {
			offsets[pu.chatID] = pu.updateID + 1
		}
	}
	if len(errs) > 0 {
		return next, errors.Join(errs...)
	}

	for chatID, chatOffset := range offsets {
		if err := p.chats.SaveOffset(ctx, chatID, chatOffset); err != nil {
			return next, fmt.Errorf("save offset of chat %d: %w", chatID, err)
		}
	}
	return next, nil
}

func dedupeKey(updateID int64) string {
	return fmt.Sprintf("tg:update:%d", updateID)
}

// claim помечает обновление как принятое. Без Redis или при его ошибке
// обновление пропускается дальше: повтор отсечет токен игры.
func (p *Poller) claim(ctx context.Context, updateID int64) bool {
	if p.cache == nil {
		return true
	}
	ok, err := p.cache.SetNX(ctx, dedupeKey(updateID), 1, p.config.DedupeTTL)
	if err != nil {
		p.log.WithError(err).Warn("[Poller] Redis недоступен, дедупликация пропущена")
		return true
	}
	return ok
}

// release снимает отметку, чтобы обновление обработалось при повторной доставке
func (p *Poller) release(ctx context.Context, updateID int64) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Delete(ctx, dedupeKey(updateID)); err != nil {
		p.log.WithError(err).WithField("update_id", updateID).Warn("[Poller] Не удалось снять отметку обновления")
	}
}

// Convert превращает обновление Bot API в событие движка.
// false означает, что обновление игре не интересно.
func (p *Poller) Convert(u Update) (gamemanager.Event, bool) {
	if cq := u.CallbackQuery; cq != nil {
		if cq.Message == nil {
			return nil, false
		}
		answerID, ok := parseAnswerData(cq.Data)
		if !ok {
			return nil, false
		}
		return gamemanager.AnswerEvent{
			Envelope:   gamemanager.Envelope{Update: u.UpdateID, Chat: cq.Message.Chat.ID},
			From:       sender(&cq.From),
			CallbackID: cq.ID,
			AnswerID:   answerID,
		}, true
	}

	msg := u.Message
	if msg == nil {
		return nil, false
	}
	env := gamemanager.Envelope{Update: u.UpdateID, Chat: msg.Chat.ID}

	if left := msg.LeftChatMember; left != nil {
		if left.ID == p.config.BotID {
			return gamemanager.MembershipEvent{Envelope: env, Added: false}, true
		}
		return nil, false
	}
	for _, member := range msg.NewChatMembers {
		if member.ID == p.config.BotID {
			return gamemanager.MembershipEvent{Envelope: env, Added: true}, true
		}
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" || msg.From == nil || msg.From.IsBot {
		return nil, false
	}
	from := sender(msg.From)

	if strings.HasPrefix(text, "/") {
		command, args, ok := p.parseCommand(text)
		if !ok {
			return nil, false
		}
		return gamemanager.CommandEvent{Envelope: env, From: from, Command: command, Args: args}, true
	}
	return gamemanager.TextEvent{Envelope: env, From: from, Text: text}, true
}

// parseCommand разбирает "/cmd@botname args". Команды другим ботам отбрасываются.
func (p *Poller) parseCommand(text string) (command, args string, ok bool) {
	head, args, _ := strings.Cut(text[1:], " ")
	command, target, addressed := strings.Cut(head, "@")
	if addressed && p.config.BotName != "" && !strings.EqualFold(target, p.config.BotName) {
		return "", "", false
	}
	command = strings.ToLower(command)
	if command == "" {
		return "", "", false
	}
	return command, strings.TrimSpace(args), true
}

func sender(u *User) gamemanager.Sender {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	return gamemanager.Sender{ID: u.ID, Username: u.Username, Name: name}
}
