package gamemanager

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrDispatcherStopped возвращается для событий, принятых после остановки
var ErrDispatcherStopped = errors.New("dispatcher stopped")

// EventHandler обрабатывает одно событие
type EventHandler interface {
	HandleEvent(ctx context.Context, ev Event) error
}

type job struct {
	ctx     context.Context
	ev      Event
	traceID string
	result  chan error // nil для Submit
}

func (j job) reply(err error) {
	if j.result != nil {
		j.result <- err
	}
}

// Dispatcher распределяет события по шардам по ID чата.
// Один шард обрабатывает события последовательно, поэтому события одного
// чата никогда не выполняются параллельно и идут в порядке поступления.
type Dispatcher struct {
	handler EventHandler
	shards  []chan job

	wg           sync.WaitGroup
	done         chan struct{}
	stopOnce     sync.Once
	shuttingDown int32 // атомарный флаг остановки

	log *logrus.Entry
}

// NewDispatcher создает диспетчер с shardCount шардами
func NewDispatcher(shardCount, queueSize int, handler EventHandler, log *logrus.Entry) *Dispatcher {
	if shardCount < 1 {
		shardCount = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	shards := make([]chan job, shardCount)
	for i := range shards {
		shards[i] = make(chan job, queueSize)
	}

	return &Dispatcher{
		handler: handler,
		shards:  shards,
		done:    make(chan struct{}),
		log:     log.WithField("component", "dispatcher"),
	}
}

// Run запускает воркеры шардов. Воркеры завершаются по ctx или Stop.
func (d *Dispatcher) Run(ctx context.Context) {
	d.wg.Add(len(d.shards))
	for i := range d.shards {
		go d.worker(ctx, i)
	}
	d.log.Infof("[Dispatcher] Запущено %d шардов", len(d.shards))
}

// Stop останавливает воркеры и ждет их завершения.
// События, оставшиеся в очередях, получают ErrDispatcherStopped.
func (d *Dispatcher) Stop() {
	d.markStopped()
	d.wg.Wait()
	for _, queue := range d.shards {
		d.drain(queue)
	}
	d.log.Info("[Dispatcher] Все шарды остановлены")
}

func (d *Dispatcher) markStopped() {
	d.stopOnce.Do(func() {
		atomic.StoreInt32(&d.shuttingDown, 1)
		close(d.done)
	})
}

// Submit ставит событие в очередь без ожидания результата
func (d *Dispatcher) Submit(ctx context.Context, ev Event) error {
	return d.enqueue(job{ctx: ctx, ev: ev, traceID: uuid.NewString()})
}

// SubmitWait ставит событие в очередь; канал получит результат обработки
func (d *Dispatcher) SubmitWait(ctx context.Context, ev Event) <-chan error {
	result := make(chan error, 1)
	if err := d.enqueue(job{ctx: ctx, ev: ev, traceID: uuid.NewString(), result: result}); err != nil {
		result <- err
	}
	return result
}

// ShardFor возвращает номер шарда для чата
func (d *Dispatcher) ShardFor(chatID int64) int {
	hasher := fnv.New32a()
	hasher.Write([]byte(strconv.FormatInt(chatID, 10)))
	return int(hasher.Sum32() % uint32(len(d.shards)))
}

func (d *Dispatcher) enqueue(j job) error {
	if atomic.LoadInt32(&d.shuttingDown) == 1 {
		return ErrDispatcherStopped
	}
	if j.ctx == nil {
		j.ctx = context.Background()
	}

	select {
	case d.shards[d.ShardFor(j.ev.ChatID())] <- j:
		return nil
	case <-j.ctx.Done():
		return j.ctx.Err()
	case <-d.done:
		return ErrDispatcherStopped
	}
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	queue := d.shards[id]

	for {
		select {
		case <-d.done:
			d.drain(queue)
			return
		case <-ctx.Done():
			d.markStopped()
			d.drain(queue)
			return
		case j := <-queue:
			j.reply(d.process(id, j))
		}
	}
}

func (d *Dispatcher) drain(queue chan job) {
	for {
		select {
		case j := <-queue:
			j.reply(ErrDispatcherStopped)
		default:
			return
		}
	}
}

// process вызывает обработчик с защитой от паники
func (d *Dispatcher) process(shard int, j job) (err error) {
	entry := d.log.WithFields(logrus.Fields{
		"shard":     shard,
		"trace_id":  j.traceID,
		"chat_id":   j.ev.ChatID(),
		"update_id": j.ev.UpdateID(),
		"kind":      j.ev.Kind(),
	})

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while handling %s event: %v", j.ev.Kind(), r)
			entry.WithField("stack", string(debug.Stack())).Errorf("[Dispatcher] Восстановление после паники: %v", r)
		}
	}()

	if err = d.handler.HandleEvent(j.ctx, j.ev); err != nil {
		entry.WithError(err).Error("[Dispatcher] Ошибка обработки события")
	}
	return err
}
