package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
)

// Hub manages WebSocket clients and fans out every published bot state.
// It implements model.StatePublisher, so the driver loop treats it like
// any other state sink.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]bool
	latest  latestEntry
	seq     int64

	// Recent envelopes for reconnect backfill
	replay *ReplayBuffer

	now func() time.Time
}

type latestEntry struct {
	State    model.BotState
	Envelope []byte
	TS       time.Time
	Seq      int64
}

// NewHub creates a Hub. replaySize bounds the reconnect backfill window.
func NewHub(logger *slog.Logger, replaySize int) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger.With("component", "gateway"),
		clients: make(map[*Client]bool),
		replay:  NewReplayBuffer(replaySize),
		now:     time.Now,
	}
}

// Name identifies the hub in sink error logs.
func (h *Hub) Name() string { return "websocket" }

// PublishState stores state as the latest snapshot and pushes it to every
// connected client. Slow clients drop messages rather than block the bot.
func (h *Hub) PublishState(_ context.Context, state model.BotState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("gateway: marshal state: %w", err)
	}
	now := h.now().UTC()

	h.mu.Lock()
	h.seq++
	seq := h.seq
	env := buildEnvelope("state", data, now, seq)
	h.latest = latestEntry{State: state, Envelope: env, TS: now, Seq: seq}
	h.mu.Unlock()

	h.replay.Push(seq, env)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- env:
		default:
		}
	}
	return nil
}

// Latest returns the most recently published state.
func (h *Hub) Latest() (model.BotState, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest.State, h.latest.Seq > 0
}

// Seq returns the sequence number of the latest publish.
func (h *Hub) Seq() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.seq
}

// HandleWSRequest registers an upgraded connection. lastSeq > 0 replays the
// buffered envelopes the client missed; otherwise it receives the latest.
func (h *Hub) HandleWSRequest(conn *websocket.Conn, lastSeq int64) {
	client := newClient(conn, h)

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("ws client connected", "clients", count, "last_seq", lastSeq)

	client.sendInitialState(lastSeq)
	go client.writePump()
	go client.readPump()
}

// RemoveClient removes a client from the hub.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	return nil
}

// buildEnvelope hand-crafts {"type":...,"data":...,"ts":"...","seq":N}.
// data must already be valid JSON.
func buildEnvelope(kind string, data []byte, now time.Time, seq int64) []byte {
	buf := make([]byte, 0, len(kind)+len(data)+96)
	buf = append(buf, `{"type":"`...)
	buf = append(buf, kind...)
	buf = append(buf, `","data":`...)
	buf = append(buf, data...)
	buf = append(buf, `,"ts":"`...)
	buf = now.AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, `","seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	buf = append(buf, '}')
	return buf
}
