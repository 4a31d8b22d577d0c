package websocket

import (
	"context"

	"github.com/glushul/SmartGuysSmartGirls/internal/service/gamemanager"
)

// FeedMessenger дублирует исходящие сообщения бота подписчикам ленты чата.
// Сообщение попадает в ленту только после успешной отправки в чат.
type FeedMessenger struct {
	inner gamemanager.Messenger
	hub   *Hub
}

func NewFeedMessenger(inner gamemanager.Messenger, hub *Hub) *FeedMessenger {
	return &FeedMessenger{inner: inner, hub: hub}
}

func (f *FeedMessenger) SendText(ctx context.Context, chatID int64, text string) error {
	if err := f.inner.SendText(ctx, chatID, text); err != nil {
		return err
	}
	f.mirror(FeedMessage{Type: FEED_TEXT, ChatID: chatID, Text: text})
	return nil
}

func (f *FeedMessenger) SendOptions(ctx context.Context, chatID int64, text string, options []gamemanager.Option) error {
	if err := f.inner.SendOptions(ctx, chatID, text, options); err != nil {
		return err
	}
	feed := make([]FeedOption, len(options))
	for i, o := range options {
		feed[i] = FeedOption{Label: o.Label, AnswerID: o.AnswerID}
	}
	f.mirror(FeedMessage{Type: FEED_QUESTION, ChatID: chatID, Text: text, Options: feed})
	return nil
}

// AckSelection видит только нажавший кнопку, в ленту не попадает
func (f *FeedMessenger) AckSelection(ctx context.Context, callbackID string, text string) error {
	return f.inner.AckSelection(ctx, callbackID, text)
}

func (f *FeedMessenger) mirror(msg FeedMessage) {
	if _, err := f.hub.Broadcast(msg.ChatID, msg); err != nil {
		f.hub.log.WithError(err).Warn("[FeedHub] Не удалось отправить сообщение в ленту")
	}
}
