// Package metrics exposes Prometheus metrics and a health endpoint for the
// trading bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the bot.
type Metrics struct {
	TicksTotal   prometheus.Counter
	FeedErrors   prometheus.Counter
	TickDuration prometheus.Histogram
	LastPrice    prometheus.Gauge

	// Decision engine
	Signals         *prometheus.CounterVec // labels: action
	Entries         *prometheus.CounterVec // labels: direction
	Exits           *prometheus.CounterVec // labels: reason
	TrailingUpdates prometheus.Counter
	PositionOpen    prometheus.Gauge
	UnrealizedPnL   prometheus.Gauge
	TotalProfit     prometheus.Gauge
	IndicatorValue  *prometheus.GaugeVec // labels: indicator
	IndicatorReady  *prometheus.GaugeVec // labels: indicator

	// Sinks and publishers
	SinkErrors      *prometheus.CounterVec // labels: sink
	PublishErrors   *prometheus.CounterVec // labels: publisher
	NotifyErrors    prometheus.Counter
	SnapshotsSaved  prometheus.Counter
	SnapshotErrors  prometheus.Counter
	ExportDuration  prometheus.Histogram
	PublishDuration prometheus.Histogram

	// Circuit breaker
	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter
}

// NewMetrics creates all metrics and registers them with reg. A nil reg
// uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_ticks_total",
			Help: "Total ticks processed",
		}),
		FeedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_feed_errors_total",
			Help: "Ticker fetches that returned no usable tick",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradebot_tick_duration_seconds",
			Help:    "Time to process one tick after fetch, including sinks",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		LastPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradebot_last_price",
			Help: "Last observed price",
		}),

		Signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_signals_total",
			Help: "Entry signals evaluated while flat",
		}, []string{"action"}),
		Entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_entries_total",
			Help: "Positions opened",
		}, []string{"direction"}),
		Exits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_exits_total",
			Help: "Positions closed by exit reason",
		}, []string{"reason"}),
		TrailingUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_trailing_updates_total",
			Help: "Trailing stop ratchet advances",
		}),
		PositionOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradebot_position_open",
			Help: "1 when a position is open",
		}),
		UnrealizedPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradebot_unrealized_pnl",
			Help: "Live P&L of the open position",
		}),
		TotalProfit: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradebot_total_profit",
			Help: "Cumulative net profit of finalized trades",
		}),
		IndicatorValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tradebot_indicator_value",
			Help: "Latest indicator value (MACD_SIGNAL for the signal line)",
		}, []string{"indicator"}),
		IndicatorReady: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tradebot_indicator_ready",
			Help: "1 when the indicator has enough history",
		}, []string{"indicator"}),

		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_ledger_sink_errors_total",
			Help: "Ledger export failures",
		}, []string{"sink"}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_state_publish_errors_total",
			Help: "State publish failures",
		}, []string{"publisher"}),
		NotifyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_notify_errors_total",
			Help: "Trade alert delivery failures",
		}),
		SnapshotsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_snapshots_saved_total",
			Help: "Bot checkpoints written",
		}),
		SnapshotErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_snapshot_errors_total",
			Help: "Bot checkpoint write failures",
		}),
		ExportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradebot_ledger_export_duration_seconds",
			Help:    "Time to export the ledger to every sink",
			Buckets: prometheus.DefBuckets,
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradebot_state_publish_duration_seconds",
			Help:    "Time to publish one state snapshot to every publisher",
			Buckets: prometheus.DefBuckets,
		}),

		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradebot_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),
	}

	reg.MustRegister(
		m.TicksTotal,
		m.FeedErrors,
		m.TickDuration,
		m.LastPrice,
		m.Signals,
		m.Entries,
		m.Exits,
		m.TrailingUpdates,
		m.PositionOpen,
		m.UnrealizedPnL,
		m.TotalProfit,
		m.IndicatorValue,
		m.IndicatorReady,
		m.SinkErrors,
		m.PublishErrors,
		m.NotifyErrors,
		m.SnapshotsSaved,
		m.SnapshotErrors,
		m.ExportDuration,
		m.PublishDuration,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
	)

	return m
}

// ObserveIndicator records one indicator reading.
func (m *Metrics) ObserveIndicator(name string, value float64, ready bool) {
	if ready {
		m.IndicatorValue.WithLabelValues(name).Set(value)
		m.IndicatorReady.WithLabelValues(name).Set(1)
		return
	}
	m.IndicatorReady.WithLabelValues(name).Set(0)
}
