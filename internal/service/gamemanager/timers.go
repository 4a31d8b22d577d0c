package gamemanager

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// PendingTimer описывает взведенный таймер ответа
type PendingTimer struct {
	GameID     uint
	ChatID     int64
	QuestionID uint
	Deadline   time.Time
}

type armedTimer struct {
	generation uint64
	timer      *time.Timer
	info       PendingTimer
}

// TimerRegistry владеет таймерами ответа: не больше одного на игру.
// Сработавший таймер передает TimeoutEvent в fire, если за это время его
// не заменили и не сняли.
type TimerRegistry struct {
	mu         sync.Mutex
	timers     map[uint]*armedTimer
	generation uint64
	fire       func(TimeoutEvent)
	gauge      prometheus.Gauge
	fired      prometheus.Counter
	log        *logrus.Entry
}

// NewTimerRegistry создает реестр таймеров; gauge и fired могут быть nil
func NewTimerRegistry(fire func(TimeoutEvent), gauge prometheus.Gauge, fired prometheus.Counter, log *logrus.Entry) *TimerRegistry {
	return &TimerRegistry{
		timers: make(map[uint]*armedTimer),
		fire:   fire,
		gauge:  gauge,
		fired:  fired,
		log:    log.WithField("component", "timers"),
	}
}

// Arm заменяет таймер игры новым
func (r *TimerRegistry) Arm(gameID uint, chatID int64, questionID uint, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLocked(gameID)

	r.generation++
	generation := r.generation
	armed := &armedTimer{
		generation: generation,
		info: PendingTimer{
			GameID:     gameID,
			ChatID:     chatID,
			QuestionID: questionID,
			Deadline:   time.Now().Add(d),
		},
	}
	armed.timer = time.AfterFunc(d, func() { r.expire(gameID, generation) })
	r.timers[gameID] = armed
	r.updateGauge()

	r.log.WithFields(logrus.Fields{"game_id": gameID, "question_id": questionID, "duration": d}).
		Debug("[Timers] Таймер ответа взведен")
}

// Disarm снимает таймер игры; false, если таймера не было
func (r *TimerRegistry) Disarm(gameID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := r.stopLocked(gameID)
	r.updateGauge()
	return removed
}

// Pending возвращает взведенные таймеры, отсортированные по ID игры
func (r *TimerRegistry) Pending() []PendingTimer {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending := make([]PendingTimer, 0, len(r.timers))
	for _, t := range r.timers {
		pending = append(pending, t.info)
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].GameID < pending[j].GameID })
	return pending
}

// Stop снимает все таймеры
func (r *TimerRegistry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for gameID := range r.timers {
		r.stopLocked(gameID)
	}
	r.updateGauge()
}

func (r *TimerRegistry) expire(gameID uint, generation uint64) {
	r.mu.Lock()
	armed, ok := r.timers[gameID]
	if !ok || armed.generation != generation {
		// Таймер уже заменен или снят
		r.mu.Unlock()
		return
	}
	delete(r.timers, gameID)
	r.updateGauge()
	r.mu.Unlock()

	if r.fired != nil {
		r.fired.Inc()
	}
	r.log.WithFields(logrus.Fields{"game_id": gameID, "question_id": armed.info.QuestionID}).
		Info("[Timers] Время на ответ истекло")

	r.fire(TimeoutEvent{
		Envelope:   Envelope{Chat: armed.info.ChatID},
		GameID:     gameID,
		QuestionID: armed.info.QuestionID,
	})
}

func (r *TimerRegistry) stopLocked(gameID uint) bool {
	armed, ok := r.timers[gameID]
	if !ok {
		return false
	}
	armed.timer.Stop()
	delete(r.timers, gameID)
	return true
}

func (r *TimerRegistry) updateGauge() {
	if r.gauge != nil {
		r.gauge.Set(float64(len(r.timers)))
	}
}
