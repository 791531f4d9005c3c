// Package bot runs the per-tick driver loop: fetch a tick, update the
// indicators, evaluate an entry or step the open position, record the
// ledger, publish the state snapshot and pause.
//
// All decision state (indicator windows, the position, the ledger) is owned
// by one goroutine. Sinks, publishers and notifiers are collaborators whose
// failures are logged and counted but never stop the loop.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nsahay2509/crypto-trade-dashboard/config"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/indicator"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/ledger"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/logger"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/metrics"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/notification"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/portfolio"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/strategy"
)

// TradeHistory loads persisted ledger rows on startup.
type TradeHistory interface {
	ReadTrades(ctx context.Context, limit int) ([]model.TradeRow, error)
}

// Deps are the bot's I/O collaborators. Only Feed is required.
type Deps struct {
	Feed       model.TickSource
	Publishers []model.StatePublisher
	Sinks      []model.LedgerSink
	Snapshots  model.SnapshotStore
	History    TradeHistory
	Notifier   notification.Notifier
	Metrics    *metrics.Metrics
	Health     *metrics.HealthStatus
	Logger     *slog.Logger
	RunID      string

	// Now overrides the wall clock used for state timestamps.
	Now func() time.Time
}

// Bot is the single-instrument trading loop.
type Bot struct {
	symbol   string
	pacing   config.Pacing
	strategy strategy.Config
	loc      *time.Location
	interval time.Duration
	runID    string

	engine  *indicator.Engine
	ledger  *ledger.Ledger
	tracker *portfolio.Tracker

	feed       model.TickSource
	publishers []model.StatePublisher
	sinks      *ledger.MultiSink
	snapshots  model.SnapshotStore
	history    TradeHistory
	notifier   notification.Notifier
	prom       *metrics.Metrics
	health     *metrics.HealthStatus
	logger     *slog.Logger
	now        func() time.Time

	alerts         sync.WaitGroup
	lastCheckpoint time.Time
	lastState      model.BotState
}

// New wires a bot from cfg and deps. cfg is assumed validated.
func New(cfg *config.Config, deps Deps) (*Bot, error) {
	if deps.Feed == nil {
		return nil, fmt.Errorf("bot: feed is required")
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	l := ledger.New()
	b := &Bot{
		symbol:     cfg.Symbol,
		pacing:     cfg.Pacing,
		strategy:   cfg.StrategyConfig(),
		loc:        cfg.Location(),
		interval:   cfg.SnapshotInterval,
		runID:      deps.RunID,
		engine:     indicator.NewEngine(cfg.IndicatorConfig()),
		ledger:     l,
		tracker:    portfolio.NewTracker(cfg.TradeParams(), l, deps.RunID, log),
		feed:       deps.Feed,
		publishers: deps.Publishers,
		sinks:      ledger.NewMultiSink(log, deps.Sinks...),
		snapshots:  deps.Snapshots,
		history:    deps.History,
		notifier:   deps.Notifier,
		prom:       deps.Metrics,
		health:     deps.Health,
		logger:     log.With("component", "bot", "symbol", cfg.Symbol),
		now:        now,
	}
	if b.prom != nil {
		b.sinks.OnError(func(sink string, _ error) {
			b.prom.SinkErrors.WithLabelValues(sink).Inc()
		})
	}
	return b, nil
}

// Ledger returns the authoritative in-memory ledger.
func (b *Bot) Ledger() *ledger.Ledger { return b.ledger }

// Position returns the open position or nil.
func (b *Bot) Position() *model.Position { return b.tracker.Position() }

// LastState returns the most recently published snapshot.
func (b *Bot) LastState() model.BotState { return b.lastState }

// Run processes ticks until ctx is cancelled, then writes a final
// checkpoint and waits for in-flight alerts.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("bot started", "run_id", b.runID,
		"pause_after_trade", b.pacing.AfterTrade, "pause_when_flat", b.pacing.WhenFlat,
		"pause_when_open", b.pacing.WhenOpen)
	b.lastCheckpoint = b.now()

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		pause := b.Step(ctx)
		b.maybeCheckpoint(ctx)

		timer.Reset(pause)
		select {
		case <-ctx.Done():
			b.shutdown()
			return nil
		case <-timer.C:
		}
	}
}

func (b *Bot) shutdown() {
	b.logger.Info("shutdown signal received, saving final checkpoint")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.SaveCheckpoint(ctx); err != nil {
		b.logger.Warn("final checkpoint failed", "error", err)
	}
	b.alerts.Wait()
	b.logger.Info("bot stopped", "total_profit", b.ledger.CumulativeProfit())
}

// Step processes one tick and returns the pause before the next one.
func (b *Bot) Step(ctx context.Context) time.Duration {
	sample, err := b.feed.FetchTick(ctx, b.symbol)
	if err != nil {
		b.logger.Debug("tick unavailable", "error", err)
		if b.prom != nil {
			b.prom.FeedErrors.Inc()
		}
		if b.health != nil {
			b.health.RecordFeedError()
		}
		return b.idlePause()
	}

	start := time.Now()
	ctx = logger.WithTraceID(ctx, logger.GenerateTraceID(b.symbol, sample.TS))
	price := sample.Price
	snap := b.engine.Update(sample)
	b.logger.Debug("watching price", append(logger.LogWithTrace(ctx),
		"price", price, "volume", sample.Volume,
		"tick_time", sample.TS.In(b.loc).Format(time.DateTime))...)

	pause := b.pacing.WhenFlat
	var res *portfolio.StepResult

	if !b.tracker.IsOpen() {
		if b.enter(ctx, price, sample.TS, snap) {
			pause = b.pacing.WhenOpen
		}
	} else {
		r, err := b.tracker.Step(price, sample.TS)
		if err != nil {
			b.logger.Error("position step failed", "error", err)
		}
		res = &r
		pause = b.pacing.WhenOpen
		if r.TrailingUpdated && b.prom != nil {
			b.prom.TrailingUpdates.Inc()
		}
		if r.Exit != nil {
			b.onExit(ctx, r.Exit)
			pause = b.pacing.AfterTrade + b.pacing.WhenFlat
		}
	}

	state := b.buildState(sample, snap, res)
	b.publish(ctx, state)

	if b.prom != nil {
		b.observe(price, snap, state)
		b.prom.TickDuration.Observe(time.Since(start).Seconds())
	}
	if b.health != nil {
		b.health.RecordTick(b.now(), b.tracker.IsOpen())
	}
	return pause
}

// enter evaluates the entry signal while flat and opens a position on BUY
// or SELL. The entry tick does not also step the new position.
func (b *Bot) enter(ctx context.Context, price float64, at time.Time, snap model.IndicatorSnapshot) bool {
	action, crit := strategy.Evaluate(price, snap, &b.strategy)
	if b.prom != nil {
		b.prom.Signals.WithLabelValues(string(action)).Inc()
	}

	var dir model.Direction
	switch action {
	case strategy.ActionBuy:
		dir = model.Long
	case strategy.ActionSell:
		dir = model.Short
	default:
		b.logger.Debug("no entry", "price", price, "criteria", crit.String())
		return false
	}

	pos, err := b.tracker.Open(dir, price, at)
	if err != nil {
		b.logger.Error("entry failed", "direction", dir, "error", err)
		return false
	}
	b.logger.Debug("entry criteria", append(logger.LogWithTrace(ctx),
		"trade_no", pos.TradeNo, "criteria", crit.String())...)
	if b.prom != nil {
		b.prom.Entries.WithLabelValues(string(dir)).Inc()
	}

	b.exportLedger(ctx)
	b.alert(notification.EntryAlert(b.symbol, pos))
	return true
}

func (b *Bot) onExit(ctx context.Context, exit *portfolio.Exit) {
	if b.prom != nil {
		b.prom.Exits.WithLabelValues(string(exit.Reason)).Inc()
	}
	b.logger.Info(fmt.Sprintf("Total Profit: $%.2f", b.ledger.CumulativeProfit()),
		"trade_no", exit.Trade.TradeNo)
	b.exportLedger(ctx)
	b.alert(notification.ExitAlert(b.symbol, exit.Trade, exit.Message))
}

func (b *Bot) exportLedger(ctx context.Context) {
	if b.sinks.Len() == 0 {
		return
	}
	start := time.Now()
	// Failures are logged per sink; the in-memory ledger stays authoritative.
	_ = b.sinks.ExportLedger(ctx, b.ledger.Rows())
	if b.prom != nil {
		b.prom.ExportDuration.Observe(time.Since(start).Seconds())
	}
}

func (b *Bot) publish(ctx context.Context, state model.BotState) {
	b.lastState = state
	start := time.Now()
	for _, p := range b.publishers {
		if err := p.PublishState(ctx, state); err != nil {
			name := publisherName(p)
			b.logger.Warn("state publish failed", "publisher", name, "error", err)
			if b.prom != nil {
				b.prom.PublishErrors.WithLabelValues(name).Inc()
			}
		}
	}
	if b.prom != nil && len(b.publishers) > 0 {
		b.prom.PublishDuration.Observe(time.Since(start).Seconds())
	}
}

// alert delivers asynchronously so a slow notifier never delays a tick.
func (b *Bot) alert(a notification.Alert) {
	if b.notifier == nil {
		return
	}
	b.alerts.Add(1)
	go func() {
		defer b.alerts.Done()
		if err := b.notifier.Send(context.Background(), a); err != nil {
			b.logger.Warn("alert delivery failed", "title", a.Title, "error", err)
			if b.prom != nil {
				b.prom.NotifyErrors.Inc()
			}
		}
	}()
}

func (b *Bot) observe(price float64, snap model.IndicatorSnapshot, state model.BotState) {
	b.prom.TicksTotal.Inc()
	b.prom.LastPrice.Set(price)
	b.prom.TotalProfit.Set(b.ledger.CumulativeProfit())
	if b.tracker.IsOpen() {
		b.prom.PositionOpen.Set(1)
		b.prom.UnrealizedPnL.Set(state.Position.PnL)
	} else {
		b.prom.PositionOpen.Set(0)
		b.prom.UnrealizedPnL.Set(0)
	}
	for name, r := range map[string]model.Reading{
		model.IndEMA:  snap.EMA,
		model.IndMACD: snap.MACD,
		"MACD_SIGNAL": snap.MACDSignal,
		model.IndRSI:  snap.RSI,
		model.IndVWAP: snap.VWAP,
	} {
		b.prom.ObserveIndicator(name, r.Value, r.Ready)
	}
}

func (b *Bot) idlePause() time.Duration {
	if b.tracker.IsOpen() {
		return b.pacing.WhenOpen
	}
	return b.pacing.WhenFlat
}

type named interface{ Name() string }

func publisherName(p model.StatePublisher) string {
	if n, ok := p.(named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", p)
}
