package gamemanager

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/glushul/SmartGuysSmartGirls/internal/domain/entity"
)

// Manager связывает движок, реестр таймеров и диспетчер
type Manager struct {
	config     *Config
	deps       *Dependencies
	engine     *Engine
	timers     *TimerRegistry
	dispatcher *Dispatcher
	log        *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager создает менеджер игр
func NewManager(config *Config, deps *Dependencies) *Manager {
	if config == nil {
		config = DefaultConfig()
	}

	m := &Manager{
		config: config,
		deps:   deps,
		log:    deps.Logger.WithField("component", "game_manager"),
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())

	var gauge prometheus.Gauge
	var fired prometheus.Counter
	if deps.Metrics != nil {
		gauge = deps.Metrics.PendingTimers
		fired = deps.Metrics.TimeoutsFired
	}
	m.timers = NewTimerRegistry(m.onTimeout, gauge, fired, deps.Logger)
	m.engine = NewEngine(config, deps, m.timers)
	m.dispatcher = NewDispatcher(config.Shards, config.QueueSize, m.engine, deps.Logger)
	return m
}

// Start запускает диспетчер и восстанавливает прерванные игры
func (m *Manager) Start(ctx context.Context) error {
	m.dispatcher.Run(m.ctx)
	if err := m.recover(ctx); err != nil {
		return fmt.Errorf("recover games: %w", err)
	}
	m.log.Info("[GameManager] Менеджер игр запущен")
	return nil
}

// Stop снимает таймеры и останавливает диспетчер
func (m *Manager) Stop() {
	m.timers.Stop()
	m.cancel()
	m.dispatcher.Stop()
	m.log.Info("[GameManager] Менеджер игр остановлен")
}

// Submit передает событие в диспетчер без ожидания
func (m *Manager) Submit(ctx context.Context, ev Event) error {
	return m.dispatcher.Submit(ctx, ev)
}

// SubmitWait передает событие в диспетчер; канал получит результат обработки
func (m *Manager) SubmitWait(ctx context.Context, ev Event) <-chan error {
	return m.dispatcher.SubmitWait(ctx, ev)
}

// Timers возвращает реестр таймеров
func (m *Manager) Timers() *TimerRegistry {
	return m.timers
}

func (m *Manager) onTimeout(ev TimeoutEvent) {
	if err := m.dispatcher.Submit(m.ctx, ev); err != nil {
		m.log.WithError(err).WithField("game_id", ev.GameID).Warn("[GameManager] Не удалось передать таймаут в диспетчер")
	}
}

// recover взводит таймеры игр, ожидающих ответа, и продолжает игры,
// остановившиеся между вопросами. Время ответа отсчитывается заново.
func (m *Manager) recover(ctx context.Context) error {
	games, err := m.deps.GameRepo.ListByState(ctx, entity.GameStateWaitingForAnswer, entity.GameStateQuestionAsked)
	if err != nil {
		return err
	}

	for i := range games {
		game := &games[i]
		active, err := m.deps.ChatRepo.IsActive(ctx, game.ChatID)
		if err != nil {
			return err
		}
		if !active {
			continue
		}

		switch {
		case game.State == entity.GameStateWaitingForAnswer && game.CurrentQuestionID != nil:
			m.timers.Arm(game.ID, game.ChatID, *game.CurrentQuestionID, m.config.AnswerTimeout(game))
		default:
			if err := m.dispatcher.Submit(ctx, ResumeEvent{Envelope: Envelope{Chat: game.ChatID}, GameID: game.ID}); err != nil {
				return err
			}
		}
	}

	if len(games) > 0 {
		m.log.Infof("[GameManager] Восстановлено игр: %d", len(games))
	}
	return nil
}
