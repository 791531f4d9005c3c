// Package config loads the bot's immutable per-run configuration from a
// .env file, environment variables and an optional YAML strategy file.
package config

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/indicator"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/strategy"
)

// Config holds all application configuration. It is read once at startup
// and not reloaded.
type Config struct {
	// Instrument and feed
	Symbol      string        `yaml:"symbol"`
	FeedURL     string        `yaml:"feed_url"`
	FeedTimeout time.Duration `yaml:"feed_timeout"`
	Timezone    string        `yaml:"timezone"`

	// Decision engine
	Trade      model.TradeParams `yaml:"trade"`
	Strategy   strategy.Config   `yaml:"strategy"`
	Indicators indicator.Config  `yaml:"indicators"`
	Pacing     Pacing            `yaml:"pacing"`

	// Persistence and exports
	SQLitePath       string        `yaml:"sqlite_path"`
	StatePath        string        `yaml:"state_path"`
	XLSXPath         string        `yaml:"xlsx_path"`
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`

	// Logging
	LogLevel     string `yaml:"log_level"`
	LogPath      string `yaml:"log_path"`
	DebugLogPath string `yaml:"debug_log_path"`

	// Infrastructure
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"-"`
	RedisKey      string `yaml:"redis_key"`
	RedisChannel  string `yaml:"redis_channel"`
	DashboardAddr string `yaml:"dashboard_addr"`
	DashboardTOTP string `yaml:"-"`
	MetricsAddr   string `yaml:"metrics_addr"`

	// Alerts
	TelegramToken  string `yaml:"-"`
	TelegramChatID string `yaml:"telegram_chat_id"`
	WebhookURL     string `yaml:"webhook_url"`

	StrategyFile string `yaml:"strategy_file"`
}

// Pacing holds the inter-tick pauses.
type Pacing struct {
	AfterTrade time.Duration `yaml:"after_trade"`
	WhenFlat   time.Duration `yaml:"when_flat"`
	WhenOpen   time.Duration `yaml:"when_open"`
}

// strategyFile is the subset of Config a YAML strategy file may override.
type strategyFile struct {
	Symbol     string            `yaml:"symbol"`
	Trade      model.TradeParams `yaml:"trade"`
	Strategy   strategy.Config   `yaml:"strategy"`
	Indicators indicator.Config  `yaml:"indicators"`
	Pacing     Pacing            `yaml:"pacing"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Symbol:      "BTCUSD",
		FeedURL:     "https://cdn.india.deltaex.org/v2/tickers",
		FeedTimeout: 10 * time.Second,
		Timezone:    "Asia/Kolkata",

		Trade: model.TradeParams{
			TakeProfitPct:      0.02,
			StopLossPct:        0.005,
			TrailingTriggerPct: 0.002,
			TrailingMarginPct:  0.005,
			FeeRatePct:         0.0005,
			GSTRate:            0.18,
			LotSize:            100,
			LotsPerUnit:        1000,
		},
		Strategy:   strategy.DefaultConfig(),
		Indicators: indicator.DefaultConfig(),
		Pacing: Pacing{
			AfterTrade: 20 * time.Second,
			WhenFlat:   5 * time.Second,
			WhenOpen:   8 * time.Second,
		},

		SQLitePath:       "data/tradebot.db",
		StatePath:        "state.json",
		XLSXPath:         "logs/trades.xlsx",
		SnapshotInterval: time.Minute,

		LogLevel:     "info",
		LogPath:      "logs/trade.log",
		DebugLogPath: "logs/debug.log",

		RedisKey:      "tradebot:state",
		RedisChannel:  "tradebot:state",
		DashboardAddr: ":8080",
		MetricsAddr:   ":9090",
	}
}

// Load reads configuration: .env (if present), then environment variables
// over the defaults, then the YAML strategy file named by STRATEGY_FILE.
// The result is validated.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	c := Defaults()
	var errs []error
	str := func(key string, dst *string) { *dst = getEnv(key, *dst) }
	flt := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := parseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("SYMBOL", &c.Symbol)
	str("FEED_URL", &c.FeedURL)
	dur("FEED_TIMEOUT", &c.FeedTimeout)
	str("TIMEZONE", &c.Timezone)

	flt("TAKE_PROFIT_PERCENT", &c.Trade.TakeProfitPct)
	flt("STOP_LOSS_PERCENT", &c.Trade.StopLossPct)
	flt("TRAILING_TRIGGER_PERCENT", &c.Trade.TrailingTriggerPct)
	flt("TRAILING_MARGIN_PERCENT", &c.Trade.TrailingMarginPct)
	flt("TRADE_COST_PERCENT", &c.Trade.FeeRatePct)
	flt("GST_RATE", &c.Trade.GSTRate)
	flt("LOT_SIZE", &c.Trade.LotSize)
	flt("LOTS_PER_UNIT", &c.Trade.LotsPerUnit)

	boolean("USE_EMA", &c.Strategy.UseEMA)
	boolean("USE_MACD", &c.Strategy.UseMACD)
	boolean("USE_RSI", &c.Strategy.UseRSI)
	boolean("USE_VWAP", &c.Strategy.UseVWAP)
	flt("RSI_HIGH_LEVEL", &c.Strategy.RSIHigh)
	flt("RSI_LOW_LEVEL", &c.Strategy.RSILow)
	boolean("ALLOW_UNFILTERED_ENTRY", &c.Strategy.AllowUnfiltered)

	dur("PAUSE_AFTER_TRADE", &c.Pacing.AfterTrade)
	dur("PAUSE_WHEN_FLAT", &c.Pacing.WhenFlat)
	dur("PAUSE_WHEN_OPEN", &c.Pacing.WhenOpen)

	str("SQLITE_PATH", &c.SQLitePath)
	str("STATE_PATH", &c.StatePath)
	str("EXCEL_PATH", &c.XLSXPath)
	dur("SNAPSHOT_INTERVAL", &c.SnapshotInterval)

	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_PATH", &c.LogPath)
	str("DEBUG_LOG_PATH", &c.DebugLogPath)

	str("REDIS_ADDR", &c.RedisAddr)
	str("REDIS_PASSWORD", &c.RedisPassword)
	str("REDIS_STATE_KEY", &c.RedisKey)
	str("REDIS_STATE_CHANNEL", &c.RedisChannel)
	str("DASHBOARD_ADDR", &c.DashboardAddr)
	str("DASHBOARD_TOTP_SECRET", &c.DashboardTOTP)
	str("METRICS_ADDR", &c.MetricsAddr)

	str("TELEGRAM_BOT_TOKEN", &c.TelegramToken)
	str("TELEGRAM_CHAT_ID", &c.TelegramChatID)
	str("WEBHOOK_URL", &c.WebhookURL)

	str("STRATEGY_FILE", &c.StrategyFile)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if c.StrategyFile != "" {
		if err := c.applyStrategyFile(c.StrategyFile); err != nil {
			return nil, err
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func (c *Config) applyStrategyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read strategy file: %w", err)
	}
	sf := strategyFile{
		Symbol:     c.Symbol,
		Trade:      c.Trade,
		Strategy:   c.Strategy,
		Indicators: c.Indicators,
		Pacing:     c.Pacing,
	}
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("parse strategy file %s: %w", path, err)
	}
	c.Symbol = sf.Symbol
	c.Trade = sf.Trade
	c.Strategy = sf.Strategy
	c.Indicators = sf.Indicators
	c.Pacing = sf.Pacing
	log.Printf("[config] applied strategy file %s", path)
	return nil
}

// Validate checks the parameter bundle for values the decision engine
// cannot work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Symbol) == "" {
		return errors.New("symbol is required")
	}
	t := c.Trade
	for name, v := range map[string]float64{
		"take_profit_pct":      t.TakeProfitPct,
		"stop_loss_pct":        t.StopLossPct,
		"trailing_trigger_pct": t.TrailingTriggerPct,
		"trailing_margin_pct":  t.TrailingMarginPct,
		"lot_size":             t.LotSize,
		"lots_per_unit":        t.LotsPerUnit,
	} {
		if v <= 0 {
			return fmt.Errorf("trade.%s must be > 0, got %v", name, v)
		}
	}
	if t.FeeRatePct < 0 || t.GSTRate < 0 {
		return fmt.Errorf("fee rate and GST must be >= 0")
	}
	if c.Strategy.RSILow >= c.Strategy.RSIHigh {
		return fmt.Errorf("strategy.rsi_low %v must be below rsi_high %v", c.Strategy.RSILow, c.Strategy.RSIHigh)
	}
	if c.Strategy.RSILow < 0 || c.Strategy.RSIHigh > 100 {
		return fmt.Errorf("RSI thresholds must be within 0-100, got %v/%v", c.Strategy.RSILow, c.Strategy.RSIHigh)
	}
	if err := c.Indicators.Validate(); err != nil {
		return fmt.Errorf("indicators: %w", err)
	}
	if c.Pacing.AfterTrade < 0 || c.Pacing.WhenFlat <= 0 || c.Pacing.WhenOpen <= 0 {
		return fmt.Errorf("pauses must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// TradeParams returns a copy of the per-trade parameter bundle.
func (c *Config) TradeParams() model.TradeParams { return c.Trade }

// StrategyConfig returns a copy of the evaluator config.
func (c *Config) StrategyConfig() strategy.Config { return c.Strategy }

// IndicatorConfig returns a copy of the indicator engine config.
func (c *Config) IndicatorConfig() indicator.Config { return c.Indicators }

// Location resolves the display time zone. Falls back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlogLevel maps LogLevel to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// YAML renders the effective configuration with secrets omitted.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// parseDuration accepts Go durations ("8s") or bare seconds ("8").
func parseDuration(v string) (time.Duration, error) {
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(n * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
