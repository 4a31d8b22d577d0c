package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/glushul/SmartGuysSmartGirls/internal/service/gamemanager"
)

const answerPrefix = "answer:"

// Messenger реализует gamemanager.Messenger через Bot API
type Messenger struct {
	client *Client
}

func NewMessenger(client *Client) *Messenger {
	return &Messenger{client: client}
}

func (m *Messenger) SendText(ctx context.Context, chatID int64, text string) error {
	if err := m.client.SendMessage(ctx, chatID, text, nil); err != nil {
		return fmt.Errorf("send text to chat %d: %w", chatID, err)
	}
	return nil
}

// SendOptions отправляет вопрос с вариантами ответа, по одной кнопке в ряд
func (m *Messenger) SendOptions(ctx context.Context, chatID int64, text string, options []gamemanager.Option) error {
	markup := &InlineKeyboardMarkup{InlineKeyboard: make([][]InlineKeyboardButton, 0, len(options))}
	for _, o := range options {
		markup.InlineKeyboard = append(markup.InlineKeyboard, []InlineKeyboardButton{
			{Text: o.Label, CallbackData: answerData(o.AnswerID)},
		})
	}
	if err := m.client.SendMessage(ctx, chatID, text, markup); err != nil {
		return fmt.Errorf("send options to chat %d: %w", chatID, err)
	}
	return nil
}

func (m *Messenger) AckSelection(ctx context.Context, callbackID string, text string) error {
	if err := m.client.AnswerCallbackQuery(ctx, callbackID, text); err != nil {
		return fmt.Errorf("answer callback %s: %w", callbackID, err)
	}
	return nil
}

func answerData(answerID uint) string {
	return answerPrefix + strconv.FormatUint(uint64(answerID), 10)
}

// parseAnswerData извлекает ID ответа из callback_data кнопки
func parseAnswerData(data string) (uint, bool) {
	raw, ok := strings.CutPrefix(data, answerPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
