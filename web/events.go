// ABOUTME: Websocket change feed for store mutations
// ABOUTME: Fans out each persisted Change to subscribers and drops clients that fall behind
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/crmd/db"
	"nhooyr.io/websocket"
)

const (
	subscriberBuffer = 16
	writeTimeout     = 5 * time.Second
)

// Hub broadcasts store changes to websocket clients.
type Hub struct {
	logger *log.Logger

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	done        chan struct{}
	closeOnce   sync.Once
}

type subscriber struct {
	msgs      chan []byte
	closeSlow func()
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		logger:      logger.WithPrefix("events"),
		subscribers: make(map[*subscriber]struct{}),
		done:        make(chan struct{}),
	}
}

// Publish queues change for every subscriber without blocking.
func (h *Hub) Publish(change db.Change) {
	data, err := json.Marshal(change)
	if err != nil {
		h.logger.Error("failed to encode change", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subscribers {
		select {
		case s.msgs <- data:
		default:
			go s.closeSlow()
		}
	}
}

// Subscribers reports how many clients are connected.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusInternalError, "") }()

	// Clients only listen; CloseRead handles their control frames.
	ctx := conn.CloseRead(r.Context())

	s := &subscriber{
		msgs: make(chan []byte, subscriberBuffer),
		closeSlow: func() {
			_ = conn.Close(websocket.StatusPolicyViolation, "connection too slow to keep up with changes")
		},
	}
	h.add(s)
	defer h.remove(s)

	for {
		select {
		case msg := <-s.msgs:
			if err := writeWithTimeout(ctx, conn, msg); err != nil {
				return
			}
		case <-h.done:
			_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) add(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[s] = struct{}{}
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers, s)
}

func writeWithTimeout(ctx context.Context, conn *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, msg)
}
