// Package gateway serves the dashboard API: the latest bot state over REST
// and WebSocket, and the trade ledger over REST.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
)

const (
	defaultTradeLimit = 200
	maxTradeLimit     = 1000
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// TradeReader loads ledger rows, newest limit rows in trade-number order.
type TradeReader interface {
	ReadTrades(ctx context.Context, limit int) ([]model.TradeRow, error)
}

// Server is the dashboard HTTP server.
type Server struct {
	hub        *Hub
	trades     TradeReader
	totpSecret string
	logger     *slog.Logger
	start      time.Time
	srv        *http.Server
}

// NewServer builds the dashboard server. trades may be nil, in which case
// /api/v1/trades answers 503. An empty totpSecret leaves the API open.
func NewServer(addr string, hub *Hub, trades TradeReader, totpSecret string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		hub:        hub,
		trades:     trades,
		totpSecret: totpSecret,
		logger:     logger.With("component", "gateway"),
		start:      time.Now(),
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router registers all routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(RequireTOTP(s.totpSecret))
	api.HandleFunc("/state", s.handleState).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/trades", s.handleTrades).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/system", s.handleSystem).Methods(http.MethodGet, http.MethodOptions)

	r.Handle("/ws", RequireTOTP(s.totpSecret)(http.HandlerFunc(s.handleWS))).Methods(http.MethodGet)
	return r
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info("dashboard listening", "addr", s.srv.Addr, "totp", s.totpSecret != "")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("dashboard server error", "error", err)
		}
	}()
}

// Stop gracefully shuts down the server and disconnects WS clients.
func (s *Server) Stop(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	s.hub.Close()
	return err
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+TOTPHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	lastSeq, _ := strconv.ParseInt(r.URL.Query().Get("last_seq"), 10, 64)
	s.hub.HandleWSRequest(conn, lastSeq)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state, ok := s.hub.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no state published yet")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if s.trades == nil {
		writeError(w, http.StatusServiceUnavailable, "trade ledger unavailable")
		return
	}
	limit := defaultTradeLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l <= 0 || l > maxTradeLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = l
	}

	rows, err := s.trades.ReadTrades(r.Context(), limit)
	if err != nil {
		s.logger.Warn("read trades failed", "error", err)
		writeError(w, http.StatusInternalServerError, "read trades failed")
		return
	}
	if rows == nil {
		rows = []model.TradeRow{}
	}

	resp := TradesResponse{Trades: rows, Count: len(rows)}
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Closed {
			resp.TotalProfit = rows[i].CumulativeProfit
			break
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	m := CollectMetrics(s.start)
	m.WSClients = s.hub.ClientCount()
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, published := s.hub.Latest()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"state_published": published,
		"ws_clients":      s.hub.ClientCount(),
		"uptime_sec":      int64(time.Since(s.start).Seconds()),
		"ts":              time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg})
}
