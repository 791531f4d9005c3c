package model

import "context"

// ── Port Interfaces ──
// These decouple the driver loop from concrete I/O (HTTP feed, SQLite,
// Redis, files, WebSocket).

// TickSource fetches the latest ticker sample for a symbol.
type TickSource interface {
	// FetchTick returns the latest sample, or an error when no tick is
	// available this cycle.
	FetchTick(ctx context.Context, symbol string) (PriceSample, error)
}

// StatePublisher receives the per-tick state snapshot.
type StatePublisher interface {
	// PublishState overwrites the previously published snapshot.
	PublishState(ctx context.Context, state BotState) error
}

// LedgerSink receives the full ledger after every entry and every finalize.
type LedgerSink interface {
	// ExportLedger writes all rows, replacing any previous export.
	ExportLedger(ctx context.Context, rows []TradeRow) error
}

// SnapshotStore reads and writes bot checkpoints as raw JSON.
// Using []byte avoids a model→bot import cycle.
type SnapshotStore interface {
	// SaveSnapshotJSON persists a JSON-encoded checkpoint.
	SaveSnapshotJSON(ctx context.Context, data []byte) error

	// ReadLatestSnapshotJSON loads the most recent checkpoint.
	// Returns nil, nil if none exists.
	ReadLatestSnapshotJSON(ctx context.Context) ([]byte, error)
}
