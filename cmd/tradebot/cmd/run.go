package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/nsahay2509/crypto-trade-dashboard/config"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/bot"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/export"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/gateway"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/logger"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/metrics"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/notification"
	redisstore "github.com/nsahay2509/crypto-trade-dashboard/internal/store/redis"
	sqlitestore "github.com/nsahay2509/crypto-trade-dashboard/internal/store/sqlite"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/store/statefile"
	"github.com/nsahay2509/crypto-trade-dashboard/pkg/deltaex"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading loop",
	Long: `Start the bot: restore the ledger and the last checkpoint, then poll the
ticker until interrupted (SIGINT/SIGTERM). A final checkpoint is written on
shutdown.

Example:
  SYMBOL=BTCUSD tradebot run --strategy strategy.yaml`,
	Args: cobra.NoArgs,
	RunE: runBot,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	runID := logger.NewRunID()
	log, closer, err := logger.New(logger.Options{
		Service:      "tradebot",
		RunID:        runID,
		Level:        cfg.SlogLevel(),
		TradeLogPath: cfg.LogPath,
		DebugLogPath: cfg.DebugLogPath,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Metrics ----
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := metrics.NewMetrics(reg)
	health := metrics.NewHealthStatus(3 * maxPause(cfg.Pacing))

	// ---- Stores ----
	store, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer store.Close()
	health.SetSQLiteOK(true)

	hub := gateway.NewHub(log, 64)
	publishers := []model.StatePublisher{statefile.New(cfg.StatePath), hub}

	var rdb *goredis.Client
	if cfg.RedisAddr != "" {
		health.SetRedisEnabled(true)
		pub, err := redisstore.New(redisstore.PublisherConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Key:      cfg.RedisKey,
			Channel:  cfg.RedisChannel,
		})
		if err != nil {
			log.Warn("redis unavailable, continuing without state publish", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer pub.Close()
			watchBreaker(pub.Breaker(), prom)
			publishers = append(publishers, pub)
			rdb = pub.Client()
		}
	}

	sinks := []model.LedgerSink{store, export.NewXLSXWriter(cfg.XLSXPath, cfg.Location())}

	// ---- Alerts ----
	notifiers := []notification.Notifier{notification.NewLogNotifier(log)}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		notifiers = append(notifiers, notification.NewTelegramNotifier(notification.TelegramConfig{
			Token: cfg.TelegramToken, ChatID: cfg.TelegramChatID, Logger: log,
		}))
	}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notification.NewWebhookNotifier(notification.WebhookConfig{URL: cfg.WebhookURL, Logger: log}))
	}

	feed := deltaex.NewClient(deltaex.Config{
		BaseURL:   cfg.FeedURL,
		Timeout:   cfg.FeedTimeout,
		UserAgent: "tradebot/" + version,
	})

	b, err := bot.New(cfg, bot.Deps{
		Feed:       feed,
		Publishers: publishers,
		Sinks:      sinks,
		Snapshots:  store,
		History:    store,
		Notifier:   notification.NewMulti(10*time.Second, notifiers...),
		Metrics:    prom,
		Health:     health,
		Logger:     log,
		RunID:      runID,
	})
	if err != nil {
		return err
	}
	if err := b.Restore(ctx); err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	// ---- HTTP ----
	health.StartLivenessChecker(ctx, rdb, store.DB(), 15*time.Second)
	if cfg.MetricsAddr != "" {
		ms := metrics.NewServer(cfg.MetricsAddr, health, reg)
		ms.Start()
		defer shutdownWith(ms.Stop)
	}
	if cfg.DashboardAddr != "" {
		dash := gateway.NewServer(cfg.DashboardAddr, hub, store, cfg.DashboardTOTP, log)
		dash.Start()
		defer shutdownWith(func(ctx context.Context) { dash.Stop(ctx) })
	}

	log.Info("tradebot starting", "version", version, "symbol", cfg.Symbol,
		"feed", cfg.FeedURL, "sqlite", cfg.SQLitePath, "redis", rdb != nil,
		"notifiers", len(notifiers))
	return b.Run(ctx)
}

// watchBreaker mirrors the Redis breaker state into metrics.
func watchBreaker(cb *redisstore.CircuitBreaker, prom *metrics.Metrics) {
	prev := cb.OnStateChange
	cb.OnStateChange = func(from, to redisstore.State) {
		if prev != nil {
			prev(from, to)
		}
		prom.RedisCircuitBreakerState.Set(float64(to))
		if to == redisstore.StateOpen {
			prom.RedisCircuitBreakerTrips.Inc()
		}
	}
}

func shutdownWith(stop func(context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	stop(ctx)
}

func maxPause(p config.Pacing) time.Duration {
	m := p.AfterTrade + p.WhenFlat
	for _, d := range []time.Duration{p.WhenOpen} {
		if d > m {
			m = d
		}
	}
	if m <= 0 {
		m = 25 * time.Second
	}
	return m
}
