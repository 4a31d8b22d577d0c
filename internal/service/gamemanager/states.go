package gamemanager

import (
	"context"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
)

// gameState - поведение игры в одном состоянии. Набор реализаций закрыт:
// новые состояния появляются только в этом файле и в stateOf.
type gameState interface {
	name() entity.GameState
	// handle обрабатывает событие; game == nil только в noneState
	handle(ctx context.Context, e *Engine, game *entity.Game, ev Event) error
}

type (
	noneState                 struct{}
	waitingForAnswerTimeState struct{}
	waitingForPlayersState    struct{}
	questionAskedState        struct{}
	waitingForAnswerState     struct{}
	endedState                struct{}
)

// stateOf сопоставляет сохраненное состояние игры с его поведением
func stateOf(game *entity.Game) gameState {
	if game == nil {
		return noneState{}
	}
	switch game.State {
	case entity.GameStateWaitingForAnswerTime:
		return waitingForAnswerTimeState{}
	case entity.GameStateWaitingForPlayers:
		return waitingForPlayersState{}
	case entity.GameStateQuestionAsked:
		return questionAskedState{}
	case entity.GameStateWaitingForAnswer:
		return waitingForAnswerState{}
	case entity.GameStateEnded:
		return endedState{}
	default:
		// Неизвестное значение в БД считаем завершенной игрой: в чате можно начать новую
		return endedState{}
	}
}

func (noneState) name() entity.GameState { return entity.GameStateNone }

func (noneState) handle(ctx context.Context, e *Engine, _ *entity.Game, ev Event) error {
	switch ev := ev.(type) {
	case CommandEvent:
		if ev.Command == CommandStart || ev.Command == CommandJoin {
			return e.createGame(ctx, ev)
		}
	case AnswerEvent:
		return e.ack(ctx, ev, textQuestionInactive)
	}
	return nil
}

func (waitingForAnswerTimeState) name() entity.GameState {
	return entity.GameStateWaitingForAnswerTime
}

func (waitingForAnswerTimeState) handle(ctx context.Context, e *Engine, game *entity.Game, ev Event) error {
	switch ev := ev.(type) {
	case TextEvent:
		return e.setAnswerTime(ctx, game, ev)
	case AnswerEvent:
		return e.ack(ctx, ev, textQuestionInactive)
	}
	return nil
}

func (waitingForPlayersState) name() entity.GameState { return entity.GameStateWaitingForPlayers }

func (waitingForPlayersState) handle(ctx context.Context, e *Engine, game *entity.Game, ev Event) error {
	switch ev := ev.(type) {
	case CommandEvent:
		if ev.Command == CommandJoin {
			return e.join(ctx, game, ev)
		}
	case AnswerEvent:
		return e.ack(ctx, ev, textQuestionInactive)
	}
	return nil
}

func (questionAskedState) name() entity.GameState { return entity.GameStateQuestionAsked }

// В QUESTION_ASKED игра задерживается только если прошлый обработчик прервался
// между ходами. Любое событие чата, кроме текста и команд, продолжает игру.
func (questionAskedState) handle(ctx context.Context, e *Engine, game *entity.Game, ev Event) error {
	switch ev := ev.(type) {
	case ResumeEvent:
		if ev.GameID != game.ID {
			return nil
		}
	case TimeoutEvent:
		if ev.GameID != game.ID {
			return nil
		}
	case AnswerEvent:
		if err := e.ack(ctx, ev, textQuestionInactive); err != nil {
			return err
		}
	default:
		return nil
	}
	e.touch(game, ev)
	return e.askQuestion(ctx, game)
}

func (waitingForAnswerState) name() entity.GameState { return entity.GameStateWaitingForAnswer }

func (waitingForAnswerState) handle(ctx context.Context, e *Engine, game *entity.Game, ev Event) error {
	switch ev := ev.(type) {
	case AnswerEvent:
		return e.answer(ctx, game, ev)
	case TimeoutEvent:
		if ev.GameID != game.ID || !game.IsCurrentQuestion(ev.QuestionID) {
			e.log.WithFields(logrus.Fields{"game_id": game.ID, "question_id": ev.QuestionID}).
				Debug("[Engine] Устаревший таймер проигнорирован")
			return nil
		}
		return e.timeout(ctx, game)
	}
	return nil
}

func (endedState) name() entity.GameState { return entity.GameStateEnded }

func (endedState) handle(ctx context.Context, e *Engine, _ *entity.Game, ev Event) error {
	switch ev := ev.(type) {
	case CommandEvent:
		if ev.Command == CommandStart {
			return e.createGame(ctx, ev)
		}
	case AnswerEvent:
		return e.ack(ctx, ev, textQuestionInactive)
	}
	return nil
}

// parseAnswerTime разбирает ввод времени ответа.
// ok == false означает нечисловой ввод; число вне диапазона проверяет вызывающий.
func parseAnswerTime(text string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	return n, true
}
