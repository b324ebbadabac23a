// Package events fans refresh and write notifications out to websocket clients.
package events

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Event types.
const (
	TypeRefreshed   = "refreshed"
	TypeWritten     = "written"
	TypeInvalidated = "invalidated"
)

// Event describes a change to a dataset.
type Event struct {
	Type    string    `json:"type"`
	Dataset string    `json:"dataset"`
	Source  string    `json:"source,omitempty"`
	Rows    int       `json:"rows"`
	WriteID string    `json:"write_id,omitempty"`
	At      time.Time `json:"at"`
}

const (
	subscriberBuffer = 16
	writeTimeout     = 5 * time.Second
)

// Hub broadcasts events to subscribers. Slow subscribers drop events
// rather than block publishers.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Hub{
		subs:   make(map[chan Event]struct{}),
		logger: logger,
	}
}

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.logger.Warn("event dropped for slow subscriber", "type", ev.Type, "dataset", ev.Dataset)
		}
	}
}

// Subscribe registers a listener. The returned func unregisters it.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
		})
	}
}

// Subscribers returns the number of registered listeners.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// ServeHTTP upgrades the request to a websocket and streams events as JSON
// until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	events, unsubscribe := h.Subscribe()
	defer unsubscribe()

	ctx := conn.CloseRead(r.Context())
	h.logger.Debug("event subscriber connected", "remote", r.RemoteAddr)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if err := writeEvent(ctx, conn, ev); err != nil {
				h.logger.Debug("event subscriber gone", "error", err)
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev Event) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, ev)
}
