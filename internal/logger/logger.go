// Package logger provides structured logging using Go 1.21's log/slog.
// It sets up a JSON handler with service-level context, optional file sinks
// for the trade log and the debug stream, and trace ID propagation through
// context.Context.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
)

type ctxKey string

const traceIDKey ctxKey = "trace_id"

// Options configures New.
type Options struct {
	Service string
	RunID   string
	Level   slog.Level

	// Stdout receives the JSON event stream. Defaults to os.Stdout.
	Stdout io.Writer

	// TradeLogPath, when set, also receives INFO and above as text lines.
	TradeLogPath string

	// DebugLogPath, when set, receives DEBUG records only. Debug records
	// never reach stdout or the trade log.
	DebugLogPath string
}

// New builds the bot logger: JSON events on stdout plus the trade log file,
// and a separate debug file. The returned closer closes the log files.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	infoLevel := opts.Level
	if infoLevel < slog.LevelInfo {
		infoLevel = slog.LevelInfo
	}

	var files multiCloser
	handlers := []slog.Handler{
		slog.NewJSONHandler(out, &slog.HandlerOptions{Level: infoLevel}),
	}

	if opts.TradeLogPath != "" {
		f, err := openLog(opts.TradeLogPath)
		if err != nil {
			return nil, nil, err
		}
		files = append(files, f)
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: infoLevel}))
	}

	var debug slog.Handler
	if opts.DebugLogPath != "" && opts.Level <= slog.LevelDebug {
		f, err := openLog(opts.DebugLogPath)
		if err != nil {
			files.Close()
			return nil, nil, err
		}
		files = append(files, f)
		debug = slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	var h slog.Handler = &routeHandler{main: fanout(handlers), debug: debug}
	logger := slog.New(h).With(slog.String("service", opts.Service))
	if opts.RunID != "" {
		logger = logger.With(slog.String("run_id", opts.RunID))
	}
	slog.SetDefault(logger)
	return logger, files, nil
}

// NewRunID returns a time-sortable identifier for one bot run.
func NewRunID() string {
	return ulid.Make().String()
}

func openLog(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	return f, nil
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// WithTraceID stores a trace ID in the context for downstream propagation.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID extracts the trace ID from context. Returns "" if not set.
func TraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}

// GenerateTraceID creates a per-tick trace ID from the symbol and tick time.
// Format: "{symbol}-{unixNano}".
func GenerateTraceID(symbol string, ts time.Time) string {
	return fmt.Sprintf("%s-%d", symbol, ts.UnixNano())
}

// LogWithTrace returns slog attributes including the trace ID from context.
// Usage: slog.Info("msg", logger.LogWithTrace(ctx)...)
func LogWithTrace(ctx context.Context) []any {
	tid := TraceID(ctx)
	if tid == "" {
		return nil
	}
	return []any{slog.String("trace_id", tid)}
}
