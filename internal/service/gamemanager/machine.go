package gamemanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
	"github.com/glushul/SmartGuysSmartGirls/internal/domain/repository"
	apperrors "github.com/glushul/SmartGuysSmartGirls/internal/pkg/errors"
)

// Engine - конечный автомат игр. Engine не хранит состояние игр в памяти:
// каждое событие читает игру из репозитория, и все события одного чата
// приходят последовательно через Dispatcher.
type Engine struct {
	config *Config
	deps   *Dependencies
	timers *TimerRegistry
	log    *logrus.Entry
}

// NewEngine создает движок игр
func NewEngine(config *Config, deps *Dependencies, timers *TimerRegistry) *Engine {
	return &Engine{
		config: config,
		deps:   deps,
		timers: timers,
		log:    deps.Logger.WithField("component", "engine"),
	}
}

// HandleEvent - единственная точка входа движка
func (e *Engine) HandleEvent(ctx context.Context, ev Event) (err error) {
	started := time.Now()
	defer func() {
		if e.deps.Metrics != nil {
			e.deps.Metrics.ObserveEvent(ev.Kind(), started, err)
		}
	}()

	if m, ok := ev.(MembershipEvent); ok {
		return e.membership(ctx, m)
	}

	active, err := e.deps.ChatRepo.IsActive(ctx, ev.ChatID())
	if err != nil {
		return fmt.Errorf("check chat %d: %w", ev.ChatID(), err)
	}
	if !active {
		e.log.WithField("chat_id", ev.ChatID()).Debug("[Engine] Чат неактивен, событие пропущено")
		return nil
	}

	game, err := e.latestGame(ctx, ev.ChatID())
	if err != nil {
		return err
	}

	if game != nil && game.HasProcessed(ev.UpdateID()) {
		if game.State == entity.GameStateQuestionAsked {
			// Ход сохранен, но следующий вопрос задать не удалось
			e.log.WithField("game_id", game.ID).Info("[Engine] Продолжение игры после повторной доставки")
			return e.askQuestion(ctx, game)
		}
		e.log.WithFields(logrus.Fields{"game_id": game.ID, "update_id": ev.UpdateID()}).
			Info("[Engine] Повторно доставленное обновление пропущено")
		return nil
	}

	if cmd, ok := ev.(CommandEvent); ok {
		switch cmd.Command {
		case CommandScore:
			return e.sendScore(ctx, cmd.ChatID(), game)
		case CommandInfo:
			return e.deps.Messenger.SendText(ctx, cmd.ChatID(), textGreeting(e.config.BotName))
		}
	}

	state := stateOf(game)
	e.log.WithFields(logrus.Fields{
		"chat_id": ev.ChatID(),
		"state":   state.name(),
		"kind":    ev.Kind(),
	}).Debug("[Engine] Обработка события")

	return state.handle(ctx, e, game, ev)
}

func (e *Engine) latestGame(ctx context.Context, chatID int64) (*entity.Game, error) {
	game, err := e.deps.GameRepo.GetLatestByChat(ctx, chatID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load game of chat %d: %w", chatID, err)
	}
	return game, nil
}

// touch переносит токен обновления в игру перед сохранением
func (e *Engine) touch(game *entity.Game, ev Event) {
	if id := ev.UpdateID(); id > game.LastUpdateID {
		game.LastUpdateID = id
	}
}

func (e *Engine) save(ctx context.Context, game *entity.Game) error {
	if err := e.deps.GameRepo.Save(ctx, game); err != nil {
		return fmt.Errorf("save game #%d: %w", game.ID, err)
	}
	return nil
}

func (e *Engine) ack(ctx context.Context, ev AnswerEvent, text string) error {
	return e.deps.Messenger.AckSelection(ctx, ev.CallbackID, text)
}

func (e *Engine) membership(ctx context.Context, ev MembershipEvent) error {
	entry := e.log.WithField("chat_id", ev.ChatID())

	if !ev.Added {
		if err := e.deps.ChatRepo.Deactivate(ctx, ev.ChatID()); err != nil {
			return fmt.Errorf("deactivate chat %d: %w", ev.ChatID(), err)
		}
		game, err := e.latestGame(ctx, ev.ChatID())
		if err != nil {
			return err
		}
		if game != nil {
			e.timers.Disarm(game.ID)
		}
		entry.Info("[Engine] Бот удален из чата")
		return nil
	}

	if err := e.deps.ChatRepo.Register(ctx, ev.ChatID()); err != nil {
		return fmt.Errorf("register chat %d: %w", ev.ChatID(), err)
	}
	entry.Info("[Engine] Бот добавлен в чат")

	// Игра, прерванная удалением бота, продолжается с полным временем на ответ
	game, err := e.latestGame(ctx, ev.ChatID())
	if err != nil {
		return err
	}
	if game != nil && game.State == entity.GameStateWaitingForAnswer && game.CurrentQuestionID != nil {
		e.timers.Arm(game.ID, game.ChatID, *game.CurrentQuestionID, e.config.AnswerTimeout(game))
	}

	return e.deps.Messenger.SendText(ctx, ev.ChatID(), textGreeting(e.config.BotName))
}

func (e *Engine) createGame(ctx context.Context, ev CommandEvent) error {
	game := &entity.Game{
		ChatID:       ev.ChatID(),
		State:        entity.GameStateWaitingForAnswerTime,
		AnswerTime:   e.config.DefaultAnswerTime,
		LastUpdateID: ev.UpdateID(),
	}
	if err := e.deps.GameRepo.Create(ctx, game); err != nil {
		return fmt.Errorf("create game in chat %d: %w", ev.ChatID(), err)
	}
	e.log.WithFields(logrus.Fields{"game_id": game.ID, "chat_id": game.ChatID}).Info("[Engine] Создана новая игра")

	return e.deps.Messenger.SendText(ctx, game.ChatID, textAskAnswerTime(e.config.MaxAnswerTime))
}

func (e *Engine) setAnswerTime(ctx context.Context, game *entity.Game, ev TextEvent) error {
	seconds, ok := parseAnswerTime(ev.Text)
	switch {
	case !ok || seconds < entity.MinAnswerTime:
		return e.deps.Messenger.SendText(ctx, game.ChatID, textInvalidNumber)
	case seconds > e.config.MaxAnswerTime:
		return e.deps.Messenger.SendText(ctx, game.ChatID, textTooLarge(e.config.MaxAnswerTime))
	}

	game.AnswerTime = seconds
	game.State = entity.GameStateWaitingForPlayers
	e.touch(game, ev)
	if err := e.save(ctx, game); err != nil {
		return err
	}
	return e.deps.Messenger.SendText(ctx, game.ChatID, textWaitingPlayers)
}

func (e *Engine) getOrCreateUser(ctx context.Context, from Sender) (*entity.User, error) {
	user, err := e.deps.UserRepo.GetByID(ctx, from.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("load user %d: %w", from.ID, err)
	}

	user = &entity.User{ID: from.ID, Username: from.Username, Name: from.Name}
	err = e.deps.UserRepo.Create(ctx, user)
	if errors.Is(err, apperrors.ErrConflict) {
		return e.deps.UserRepo.GetByID(ctx, from.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("create user %d: %w", from.ID, err)
	}
	return user, nil
}

func (e *Engine) join(ctx context.Context, game *entity.Game, ev CommandEvent) error {
	roster, err := e.deps.ParticipantRepo.ListByGame(ctx, game.ID)
	if err != nil {
		return fmt.Errorf("list participants of game #%d: %w", game.ID, err)
	}
	free := freeLevels(roster)
	if len(free) == 0 {
		// Все места заняты, а игра еще не стартовала: прошлый старт прервался
		return e.startGame(ctx, game, roster, ev)
	}

	user, err := e.getOrCreateUser(ctx, ev.From)
	if err != nil {
		return err
	}

	_, err = e.deps.ParticipantRepo.Get(ctx, game.ID, user.ID)
	if err == nil {
		return e.deps.Messenger.SendText(ctx, game.ChatID, textAlreadyJoined)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("load participant: %w", err)
	}

	level := free[e.deps.Random.Intn(len(free))]
	participant := entity.Participant{
		GameID:  game.ID,
		UserID:  user.ID,
		Level:   level,
		Current: level == entity.LevelGreen,
	}
	err = e.deps.ParticipantRepo.Create(ctx, &participant)
	if errors.Is(err, apperrors.ErrConflict) {
		return e.deps.Messenger.SendText(ctx, game.ChatID, textAlreadyJoined)
	}
	if err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	roster = append(roster, participant)

	e.log.WithFields(logrus.Fields{"game_id": game.ID, "user_id": user.ID, "level": level}).
		Info("[Engine] Игрок присоединился")

	if len(roster) < entity.PlayersPerGame {
		e.touch(game, ev)
		if err := e.save(ctx, game); err != nil {
			return err
		}
		return e.deps.Messenger.SendText(ctx, game.ChatID, textJoinProgress(len(roster)))
	}
	return e.startGame(ctx, game, roster, ev)
}

func (e *Engine) startGame(ctx context.Context, game *entity.Game, roster []entity.Participant, ev Event) error {
	e.touch(game, ev)

	themes, err := e.deps.QuestionRepo.ListThemes(ctx)
	if err != nil {
		return fmt.Errorf("list themes: %w", err)
	}
	if len(themes) == 0 {
		if err := e.deps.Messenger.SendText(ctx, game.ChatID, textNoThemes); err != nil {
			return err
		}
		return e.endGame(ctx, game, nil)
	}
	theme := themes[e.deps.Random.Intn(len(themes))]

	lines := make([]string, 0, len(roster))
	for i := range roster {
		user, err := e.deps.UserRepo.GetByID(ctx, roster[i].UserID)
		if err != nil {
			return fmt.Errorf("load user %d: %w", roster[i].UserID, err)
		}
		lines = append(lines, fmt.Sprintf("%s: %s", user.DisplayName(), entity.LevelTitle(roster[i].Level)))
	}

	game.ThemeID = &theme.ID
	game.State = entity.GameStateQuestionAsked
	if err := e.save(ctx, game); err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{"game_id": game.ID, "theme_id": theme.ID}).Info("[Engine] Игра началась")

	if err := e.deps.Messenger.SendText(ctx, game.ChatID, textGameStarted(theme.Title, lines)); err != nil {
		return err
	}
	return e.askQuestion(ctx, game)
}

// askQuestion - действие при входе в QUESTION_ASKED
func (e *Engine) askQuestion(ctx context.Context, game *entity.Game) error {
	current, err := e.deps.ParticipantRepo.GetCurrent(ctx, game.ID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return e.endGame(ctx, game, nil)
	}
	if err != nil {
		return fmt.Errorf("load current participant: %w", err)
	}
	if game.ThemeID == nil {
		return e.endGame(ctx, game, nil)
	}

	available, err := e.deps.QuestionRepo.ListAvailable(ctx, *game.ThemeID, game.ID)
	if err != nil {
		return fmt.Errorf("list available questions: %w", err)
	}
	if len(available) == 0 {
		e.log.WithField("game_id", game.ID).Info("[Engine] Вопросы темы закончились")
		return e.endGame(ctx, game, nil)
	}
	question := available[e.deps.Random.Intn(len(available))]

	answers, err := e.deps.QuestionRepo.ListAnswers(ctx, question.ID)
	if err != nil {
		return fmt.Errorf("list answers of question #%d: %w", question.ID, err)
	}
	options := make([]Option, len(answers))
	for i, a := range answers {
		options[i] = Option{Label: a.Title, AnswerID: a.ID}
	}
	e.deps.Random.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	user, err := e.deps.UserRepo.GetByID(ctx, current.UserID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", current.UserID, err)
	}

	if err := e.deps.QuestionRepo.MarkAsked(ctx, game.ID, question.ID); err != nil {
		return fmt.Errorf("mark question #%d asked: %w", question.ID, err)
	}
	questionID := question.ID
	game.CurrentQuestionID = &questionID
	game.State = entity.GameStateWaitingForAnswer
	if err := e.save(ctx, game); err != nil {
		return err
	}

	// Таймер взводится до отправки: если отправка упадет, игра продолжится по таймауту
	e.timers.Arm(game.ID, game.ChatID, question.ID, e.config.AnswerTimeout(game))

	return e.deps.Messenger.SendOptions(ctx, game.ChatID, textQuestion(user.DisplayName(), question.Title), options)
}

func (e *Engine) answer(ctx context.Context, game *entity.Game, ev AnswerEvent) error {
	answer, err := e.deps.QuestionRepo.GetAnswer(ctx, ev.AnswerID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return e.ack(ctx, ev, textQuestionInactive)
	}
	if err != nil {
		return fmt.Errorf("load answer #%d: %w", ev.AnswerID, err)
	}
	if !game.IsCurrentQuestion(answer.QuestionID) {
		return e.ack(ctx, ev, textQuestionInactive)
	}

	current, err := e.deps.ParticipantRepo.GetCurrent(ctx, game.ID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return e.ack(ctx, ev, textQuestionInactive)
	}
	if err != nil {
		return fmt.Errorf("load current participant: %w", err)
	}
	if current.UserID != ev.From.ID {
		return e.ack(ctx, ev, textNotYourTurn)
	}

	if err := e.ack(ctx, ev, textAnswerAccepted); err != nil {
		return err
	}

	verdict := textIncorrect(answer.Title)
	if answer.IsCorrect {
		verdict = textCorrect(answer.Title)
	}
	return e.resolve(ctx, game, current, answer.IsCorrect, verdict, ev.UpdateID())
}

func (e *Engine) timeout(ctx context.Context, game *entity.Game) error {
	current, err := e.deps.ParticipantRepo.GetCurrent(ctx, game.ID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return e.endGame(ctx, game, nil)
	}
	if err != nil {
		return fmt.Errorf("load current participant: %w", err)
	}
	return e.resolve(ctx, game, current, false, textTimeIsUp, 0)
}

// resolve засчитывает ответ текущего участника и передает ход. Итог хода
// сохраняется одной записью до любых сообщений в чат.
func (e *Engine) resolve(ctx context.Context, game *entity.Game, current *entity.Participant, correct bool, verdict string, updateID int64) error {
	if game.CurrentQuestionID == nil {
		return nil
	}
	roster, err := e.deps.ParticipantRepo.ListByGame(ctx, game.ID)
	if err != nil {
		return fmt.Errorf("list participants of game #%d: %w", game.ID, err)
	}

	answered := *current
	if correct {
		answered.CorrectAnswers++
	} else {
		answered.IncorrectAnswers++
	}
	for i := range roster {
		if roster[i].UserID == answered.UserID {
			roster[i] = answered
		}
	}

	res := repository.AnswerResolution{
		GameID:     game.ID,
		QuestionID: *game.CurrentQuestionID,
		UserID:     answered.UserID,
		Correct:    correct,
		UpdateID:   updateID,
	}
	if answered.HasWon() {
		res.Won = true
		res.Points = answered.CorrectAnswers
	} else if next := NextCurrent(roster, &answered); next != nil {
		nextID := next.UserID
		res.NextUserID = &nextID
	}

	saved, err := e.deps.ParticipantRepo.ApplyAnswer(ctx, res)
	if errors.Is(err, apperrors.ErrConflict) {
		e.log.WithFields(logrus.Fields{"game_id": game.ID, "question_id": res.QuestionID}).
			Info("[Engine] Ход по вопросу уже засчитан")
		return nil
	}
	if err != nil {
		return err
	}
	*game = *saved
	e.timers.Disarm(game.ID)

	e.log.WithFields(logrus.Fields{
		"game_id":   game.ID,
		"user_id":   answered.UserID,
		"correct":   correct,
		"score":     answered.CorrectAnswers,
		"penalties": answered.IncorrectAnswers,
	}).Info("[Engine] Ответ засчитан")

	if err := e.deps.Messenger.SendText(ctx, game.ChatID, verdict); err != nil {
		return err
	}

	if res.Won {
		return e.announceEnd(ctx, game, &answered)
	}

	if !correct && answered.IsEliminated() {
		user, err := e.deps.UserRepo.GetByID(ctx, answered.UserID)
		if err != nil {
			return fmt.Errorf("load user %d: %w", answered.UserID, err)
		}
		if err := e.deps.Messenger.SendText(ctx, game.ChatID, textEliminated(user.DisplayName())); err != nil {
			return err
		}
	}

	if res.Ends() {
		return e.announceEnd(ctx, game, nil)
	}
	return e.askQuestion(ctx, game)
}

// endGame завершает игру; winner == nil - игра без победителя
func (e *Engine) endGame(ctx context.Context, game *entity.Game, winner *entity.Participant) error {
	finished, err := e.deps.GameRepo.Finish(ctx, game, winner)
	if err != nil {
		return err
	}
	e.timers.Disarm(game.ID)
	if !finished {
		return nil
	}
	return e.announceEnd(ctx, game, winner)
}

// announceEnd сообщает итог уже сохраненной завершенной игры
func (e *Engine) announceEnd(ctx context.Context, game *entity.Game, winner *entity.Participant) error {
	outcome := "no_winner"
	text := textNoWinner
	if winner != nil {
		outcome = "winner"
		user, err := e.deps.UserRepo.GetByID(ctx, winner.UserID)
		if err != nil {
			return fmt.Errorf("load user %d: %w", winner.UserID, err)
		}
		text = textWinner(user.DisplayName(), winner.CorrectAnswers)
	}
	if e.deps.Metrics != nil {
		e.deps.Metrics.GamesFinished.WithLabelValues(outcome).Inc()
	}
	e.log.WithFields(logrus.Fields{"game_id": game.ID, "outcome": outcome}).Info("[Engine] Игра завершена")

	return e.deps.Messenger.SendText(ctx, game.ChatID, text)
}

func (e *Engine) sendScore(ctx context.Context, chatID int64, game *entity.Game) error {
	if game == nil {
		return e.deps.Messenger.SendText(ctx, chatID, textNoGames)
	}

	roster, err := e.deps.ParticipantRepo.ListByGame(ctx, game.ID)
	if err != nil {
		return fmt.Errorf("list participants of game #%d: %w", game.ID, err)
	}
	lines := make([]string, 0, len(roster))
	for i := range roster {
		user, err := e.deps.UserRepo.GetByID(ctx, roster[i].UserID)
		if err != nil {
			return fmt.Errorf("load user %d: %w", roster[i].UserID, err)
		}
		lines = append(lines, textScoreLine(user.DisplayName(), &roster[i], user.Score))
	}
	return e.deps.Messenger.SendText(ctx, chatID, textScore(game, lines))
}
