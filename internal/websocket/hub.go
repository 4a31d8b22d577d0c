package websocket

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Hub хранит подписчиков лент, сгруппированных по ID чата
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
	gauge   prometheus.Gauge // может быть nil
	log     *logrus.Entry
}

// NewHub создает хаб; gauge получает текущее число подписчиков
func NewHub(gauge prometheus.Gauge, log *logrus.Entry) *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
		gauge:   gauge,
		log:     log.WithField("component", "feed_hub"),
	}
}

// Serve регистрирует соединение как подписчика чата и запускает его горутины
func (h *Hub) Serve(conn *websocket.Conn, chatID int64) *Client {
	client := newClient(h, conn, chatID)
	h.register(client)
	go client.writePump()
	go client.readPump()
	return client
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.clients[c.ChatID]
	if !ok {
		subs = make(map[*Client]struct{})
		h.clients[c.ChatID] = subs
	}
	subs[c] = struct{}{}
	h.updateGauge()
	c.log.Info("[FeedHub] Подписчик подключен")
}

// Unregister удаляет клиента и закрывает его канал
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	subs, ok := h.clients[c.ChatID]
	if !ok {
		return
	}
	if _, ok := subs[c]; !ok {
		return
	}
	delete(subs, c)
	if len(subs) == 0 {
		delete(h.clients, c.ChatID)
	}
	c.CloseSend()
	h.updateGauge()
	c.log.Info("[FeedHub] Подписчик отключен")
}

// Broadcast рассылает сообщение подписчикам чата. Клиенты с переполненным
// буфером отключаются. Возвращает число получателей.
func (h *Hub) Broadcast(chatID int64, v interface{}) (int, error) {
	message, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("marshal feed message: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for client := range h.clients[chatID] {
		select {
		case client.send <- message:
			delivered++
		default:
			client.log.Warn("[FeedHub] Буфер подписчика переполнен, отключаем")
			h.removeLocked(client)
			if client.conn != nil {
				client.conn.Close()
			}
		}
	}
	return delivered, nil
}

// ClientCount возвращает число подписчиков чата
func (h *Hub) ClientCount(chatID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[chatID])
}

// Close отключает всех подписчиков
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, subs := range h.clients {
		for client := range subs {
			h.removeLocked(client)
		}
	}
}

func (h *Hub) updateGauge() {
	if h.gauge == nil {
		return
	}
	total := 0
	for _, subs := range h.clients {
		total += len(subs)
	}
	h.gauge.Set(float64(total))
}
