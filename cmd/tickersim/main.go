// cmd/tickersim serves simulated Delta Exchange tickers for running the bot
// offline:
//
//	go run ./cmd/tickersim &
//	FEED_URL=http://localhost:9001/v2/tickers go run ./cmd/tradebot run
//
// Config (env vars):
//
//	TICK_SERVER_ADDR  listen address (default ":9001")
//	TICK_SYMBOLS      comma-separated SYMBOL:START_PRICE pairs (default "BTCUSD:65000")
//	TICK_MAX_STEP     largest fractional move per request (default "0.001")
//	LOG_LEVEL         debug, info, warn or error (default "info")
package main

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/logger"
	"github.com/nsahay2509/crypto-trade-dashboard/pkg/deltaex"
)

func main() {
	var level slog.Level
	if err := level.UnmarshalText([]byte(envOrDefault("LOG_LEVEL", "info"))); err != nil {
		level = slog.LevelInfo
	}
	log, closer, err := logger.New(logger.Options{Service: "tickersim", RunID: logger.NewRunID(), Level: level})
	if err != nil {
		slog.Error("init logger", "error", err)
		os.Exit(1)
	}
	defer closer.Close()

	addr := envOrDefault("TICK_SERVER_ADDR", ":9001")
	start := parseSymbols(log, envOrDefault("TICK_SYMBOLS", "BTCUSD:65000"))

	sim := deltaex.NewSimulator(time.Now().UnixNano(), start)
	if v, err := strconv.ParseFloat(os.Getenv("TICK_MAX_STEP"), 64); err == nil && v > 0 {
		sim.MaxStep = v
	}

	log.Info("ticker simulator listening", "addr", addr, "symbols", start, "max_step", sim.MaxStep)
	srv := &http.Server{Addr: addr, Handler: sim.Handler(), ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func parseSymbols(log *slog.Logger, s string) map[string]float64 {
	out := make(map[string]float64)
	for _, part := range strings.Split(s, ",") {
		seg := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(seg) != 2 {
			log.Warn("skipping invalid symbol entry", "entry", part)
			continue
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(seg[1]), 64)
		if err != nil || p <= 0 {
			log.Warn("skipping invalid start price", "entry", part)
			continue
		}
		out[strings.TrimSpace(seg[0])] = p
	}
	return out
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
