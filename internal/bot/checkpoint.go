package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/indicator"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
)

const checkpointVersion = 1

// Checkpoint is the resumable state between ticks: the indicator windows,
// the open position and the next trade number. The ledger itself is
// reloaded from the trade store.
type Checkpoint struct {
	Version     int                      `json:"version"`
	RunID       string                   `json:"run_id"`
	Symbol      string                   `json:"symbol"`
	SavedAt     time.Time                `json:"saved_at"`
	Engine      indicator.EngineSnapshot `json:"engine"`
	Position    *model.Position          `json:"position,omitempty"`
	NextTradeNo int                      `json:"next_trade_no"`
}

// Checkpoint captures the current resumable state.
func (b *Bot) Checkpoint() Checkpoint {
	return Checkpoint{
		Version:     checkpointVersion,
		RunID:       b.runID,
		Symbol:      b.symbol,
		SavedAt:     b.now().UTC(),
		Engine:      b.engine.Snapshot(),
		Position:    b.tracker.Position(),
		NextTradeNo: b.tracker.NextTradeNo(),
	}
}

// SaveCheckpoint writes a checkpoint to the snapshot store, if any.
func (b *Bot) SaveCheckpoint(ctx context.Context) error {
	if b.snapshots == nil {
		return nil
	}
	cp := b.Checkpoint()
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := b.snapshots.SaveSnapshotJSON(ctx, data); err != nil {
		if b.prom != nil {
			b.prom.SnapshotErrors.Inc()
		}
		return fmt.Errorf("save checkpoint: %w", err)
	}
	if b.prom != nil {
		b.prom.SnapshotsSaved.Inc()
	}
	b.lastCheckpoint = b.now()
	b.logger.Debug("checkpoint saved", "prices", len(cp.Engine.Prices),
		"position_open", cp.Position != nil, "next_trade_no", cp.NextTradeNo)
	return nil
}

func (b *Bot) maybeCheckpoint(ctx context.Context) {
	if b.snapshots == nil || b.interval <= 0 || b.now().Sub(b.lastCheckpoint) < b.interval {
		return
	}
	if err := b.SaveCheckpoint(ctx); err != nil {
		b.logger.Warn("checkpoint failed", "error", err)
	}
}

// Restore reloads the ledger from the trade history and resumes the latest
// checkpoint. It must run before the first Step. A missing checkpoint or
// one taken for another symbol leaves the indicators cold. When there is no
// checkpoint or it holds no position, the newest open ledger row is resumed
// as the open position, so an entry made after the last checkpoint still
// gets settled.
func (b *Bot) Restore(ctx context.Context) error {
	if b.history != nil {
		rows, err := b.history.ReadTrades(ctx, 0)
		if err != nil {
			return fmt.Errorf("read trade history: %w", err)
		}
		if err := b.ledger.Load(rows); err != nil {
			return fmt.Errorf("load ledger: %w", err)
		}
		if len(rows) > 0 {
			b.logger.Info("ledger restored", "trades", len(rows),
				"total_profit", b.ledger.CumulativeProfit())
		}
	}

	var data []byte
	if b.snapshots != nil {
		var err error
		if data, err = b.snapshots.ReadLatestSnapshotJSON(ctx); err != nil {
			return fmt.Errorf("read checkpoint: %w", err)
		}
	}
	if data == nil {
		b.logger.Info("no checkpoint found, starting cold")
		if pos := b.openTradePosition(); pos != nil {
			b.logger.Warn("resuming open trade from ledger", "trade_no", pos.TradeNo,
				"direction", pos.Direction, "entry_price", pos.EntryPrice)
			if err := b.tracker.Restore(pos, 0); err != nil {
				return fmt.Errorf("restore position: %w", err)
			}
		}
		return nil
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return fmt.Errorf("decode checkpoint: %w", err)
	}
	if cp.Version != checkpointVersion {
		return fmt.Errorf("unsupported checkpoint version %d", cp.Version)
	}
	if cp.Symbol != b.symbol {
		b.logger.Warn("checkpoint is for another symbol, starting cold", "checkpoint_symbol", cp.Symbol)
		return nil
	}

	if cp.Position != nil {
		if row, ok := b.ledger.Row(cp.Position.TradeNo); ok && row.Closed {
			b.logger.Warn("checkpointed position already settled in ledger, staying flat",
				"trade_no", row.TradeNo)
			cp.Position = nil
		}
	}

	if cp.Position == nil {
		if pos := b.openTradePosition(); pos != nil {
			b.logger.Warn("resuming open trade from ledger, entry was not checkpointed",
				"trade_no", pos.TradeNo, "direction", pos.Direction, "entry_price", pos.EntryPrice)
			cp.Position = pos
		}
	}

	engine, err := indicator.RestoreEngine(b.engine.Config(), cp.Engine)
	if err != nil {
		return fmt.Errorf("restore indicators: %w", err)
	}
	if err := b.tracker.Restore(cp.Position, cp.NextTradeNo); err != nil {
		return fmt.Errorf("restore position: %w", err)
	}
	b.engine = engine

	b.logger.Info("checkpoint restored", "saved_at", cp.SavedAt, "prices", len(cp.Engine.Prices),
		"position_open", cp.Position != nil, "next_trade_no", b.tracker.NextTradeNo())
	return nil
}

// openTradePosition rebuilds the position of the newest open ledger row.
// The trailing stop restarts from the entry price.
func (b *Bot) openTradePosition() *model.Position {
	rows := b.ledger.Rows()
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		if r.Closed {
			continue
		}
		return &model.Position{
			TradeNo:      r.TradeNo,
			Direction:    r.Direction,
			EntryPrice:   r.EntryPrice,
			EntryTime:    r.EntryTime,
			ExtremePrice: r.EntryPrice,
			Params:       r.Params,
		}
	}
	return nil
}
