package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
)

// MultiSink fans a ledger export out to every configured sink. A failing
// sink is logged and does not stop the others.
type MultiSink struct {
	sinks   []model.LedgerSink
	logger  *slog.Logger
	onError func(sink string, err error)
}

// NewMultiSink creates a fan-out sink. Nil sinks are skipped.
func NewMultiSink(logger *slog.Logger, sinks ...model.LedgerSink) *MultiSink {
	if logger == nil {
		logger = slog.Default()
	}
	ms := &MultiSink{logger: logger}
	for _, s := range sinks {
		if s != nil {
			ms.sinks = append(ms.sinks, s)
		}
	}
	return ms
}

// ExportLedger writes rows to every sink and returns the joined errors.
func (m *MultiSink) ExportLedger(ctx context.Context, rows []model.TradeRow) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.ExportLedger(ctx, rows); err != nil {
			name := sinkName(s)
			m.logger.Warn("ledger export failed", "sink", name, "rows", len(rows), "error", err)
			if m.onError != nil {
				m.onError(name, err)
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OnError registers fn to be called with the sink name on every failure.
func (m *MultiSink) OnError(fn func(sink string, err error)) { m.onError = fn }

// Len returns the number of sinks.
func (m *MultiSink) Len() int { return len(m.sinks) }

type named interface{ Name() string }

func sinkName(s model.LedgerSink) string {
	if n, ok := s.(named); ok {
		return n.Name()
	}
	return "sink"
}
