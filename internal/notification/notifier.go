// Package notification delivers trade alerts (entries, exits) to external
// channels: Telegram, generic webhooks, or the log.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel        `json:"level"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	TS      time.Time         `json:"ts"`
}

// FieldsText renders Fields as sorted "key: value" lines.
func (a Alert) FieldsText() string {
	keys := make([]string, 0, len(a.Fields))
	for k := range a.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, a.Fields[k])
	}
	return strings.TrimRight(b.String(), "\n")
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier writes alerts to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	args := []any{"level", alert.Level, "title", alert.Title}
	for k, v := range alert.Fields {
		args = append(args, k, v)
	}
	n.logger.InfoContext(ctx, "alert: "+alert.Message, args...)
	return nil
}

// Multi sends each alert to every notifier with a per-send timeout.
type Multi struct {
	notifiers []Notifier
	timeout   time.Duration
}

// NewMulti creates a fan-out notifier. Nil notifiers are skipped.
func NewMulti(timeout time.Duration, ns ...Notifier) *Multi {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	m := &Multi{timeout: timeout}
	for _, n := range ns {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

// Len returns the number of notifiers.
func (m *Multi) Len() int { return len(m.notifiers) }

func (m *Multi) Send(ctx context.Context, alert Alert) error {
	if alert.TS.IsZero() {
		alert.TS = time.Now().UTC()
	}
	var errs []error
	for _, n := range m.notifiers {
		sctx, cancel := context.WithTimeout(ctx, m.timeout)
		if err := n.Send(sctx, alert); err != nil {
			errs = append(errs, err)
		}
		cancel()
	}
	return errors.Join(errs...)
}
