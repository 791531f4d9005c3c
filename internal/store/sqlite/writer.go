// Package sqlite persists the trade ledger and bot checkpoints to a local
// SQLite database in WAL mode.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

const keepSnapshots = 10

// WriterConfig configures the SQLite store.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/tradebot.db"
}

// Writer is the SQLite ledger sink and checkpoint store. It serializes
// access through a single connection.
type Writer struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// Name identifies the sink in logs.
func (w *Writer) Name() string { return "sqlite" }

// New creates a new SQLite Writer, initializes the database with WAL mode and schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			trade_no          INTEGER PRIMARY KEY,
			run_id            TEXT    NOT NULL DEFAULT '',
			direction         TEXT    NOT NULL,
			entry_price       REAL    NOT NULL,
			entry_time        INTEGER NOT NULL,
			closed            INTEGER NOT NULL DEFAULT 0,
			exit_price        REAL,
			exit_time         INTEGER,
			exit_reason       TEXT,
			gross_pnl         REAL,
			fee               REAL,
			net_profit        REAL,
			cumulative_profit REAL    NOT NULL DEFAULT 0,
			take_profit_pct   REAL    NOT NULL,
			stop_loss_pct     REAL    NOT NULL,
			trailing_trigger_pct REAL NOT NULL,
			trailing_margin_pct  REAL NOT NULL,
			fee_rate_pct      REAL    NOT NULL,
			gst_rate          REAL    NOT NULL,
			lot_size          REAL    NOT NULL,
			lots_per_unit     REAL    NOT NULL,
			updated_at        INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS bot_snapshots (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			data       TEXT    NOT NULL,
			created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);
	`)
	return err
}

// ExportLedger upserts every row by trade number in a single transaction.
// Closed rows are rewritten with identical values, so the table always
// mirrors the in-memory ledger.
func (w *Writer) ExportLedger(ctx context.Context, rows []model.TradeRow) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO trades (
			trade_no, run_id, direction, entry_price, entry_time, closed,
			exit_price, exit_time, exit_reason, gross_pnl, fee, net_profit, cumulative_profit,
			take_profit_pct, stop_loss_pct, trailing_trigger_pct, trailing_margin_pct,
			fee_rate_pct, gst_rate, lot_size, lots_per_unit, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	for _, r := range rows {
		var exitPrice, exitTime, reason, gross, fee, net any
		if r.Closed {
			exitPrice, exitTime, reason = r.ExitPrice, r.ExitTime.UnixMilli(), string(r.ExitReason)
			gross, fee, net = r.GrossPnL, r.Fee, r.NetProfit
		}
		p := r.Params
		_, err := stmt.ExecContext(ctx,
			r.TradeNo, r.RunID, string(r.Direction), r.EntryPrice, r.EntryTime.UnixMilli(), r.Closed,
			exitPrice, exitTime, reason, gross, fee, net, r.CumulativeProfit,
			p.TakeProfitPct, p.StopLossPct, p.TrailingTriggerPct, p.TrailingMarginPct,
			p.FeeRatePct, p.GSTRate, p.LotSize, p.LotsPerUnit, now,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite upsert trade %d: %w", r.TradeNo, err)
		}
	}

	return tx.Commit()
}

// ReadTrades returns ledger rows in trade-number order. limit <= 0 returns
// all rows; otherwise the most recent limit rows.
func (w *Writer) ReadTrades(ctx context.Context, limit int) ([]model.TradeRow, error) {
	q := `
		SELECT trade_no, run_id, direction, entry_price, entry_time, closed,
			exit_price, exit_time, exit_reason, gross_pnl, fee, net_profit, cumulative_profit,
			take_profit_pct, stop_loss_pct, trailing_trigger_pct, trailing_margin_pct,
			fee_rate_pct, gst_rate, lot_size, lots_per_unit
		FROM trades`
	var args []any
	if limit > 0 {
		q = `SELECT * FROM (` + q + ` ORDER BY trade_no DESC LIMIT ?) ORDER BY trade_no ASC`
		args = append(args, limit)
	} else {
		q += ` ORDER BY trade_no ASC`
	}

	rs, err := w.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite query trades: %w", err)
	}
	defer rs.Close()

	var out []model.TradeRow
	for rs.Next() {
		var (
			r                model.TradeRow
			dir              string
			entryMs          int64
			exitPrice, gross sql.NullFloat64
			fee, net         sql.NullFloat64
			exitMs           sql.NullInt64
			reason           sql.NullString
		)
		p := &r.Params
		if err := rs.Scan(&r.TradeNo, &r.RunID, &dir, &r.EntryPrice, &entryMs, &r.Closed,
			&exitPrice, &exitMs, &reason, &gross, &fee, &net, &r.CumulativeProfit,
			&p.TakeProfitPct, &p.StopLossPct, &p.TrailingTriggerPct, &p.TrailingMarginPct,
			&p.FeeRatePct, &p.GSTRate, &p.LotSize, &p.LotsPerUnit); err != nil {
			return nil, fmt.Errorf("sqlite scan trade: %w", err)
		}
		r.Direction = model.Direction(dir)
		r.EntryTime = time.UnixMilli(entryMs).UTC()
		if r.Closed {
			r.ExitPrice = exitPrice.Float64
			r.ExitTime = time.UnixMilli(exitMs.Int64).UTC()
			r.ExitReason = model.ExitReason(reason.String)
			r.GrossPnL, r.Fee, r.NetProfit = gross.Float64, fee.Float64, net.Float64
		}
		out = append(out, r)
	}
	return out, rs.Err()
}

// SaveSnapshotJSON stores a bot checkpoint and prunes all but the newest few.
func (w *Writer) SaveSnapshotJSON(ctx context.Context, data []byte) error {
	if _, err := w.db.ExecContext(ctx, `INSERT INTO bot_snapshots (data) VALUES (?)`, string(data)); err != nil {
		return fmt.Errorf("sqlite insert snapshot: %w", err)
	}

	_, err := w.db.ExecContext(ctx,
		`DELETE FROM bot_snapshots WHERE id NOT IN (SELECT id FROM bot_snapshots ORDER BY id DESC LIMIT ?)`,
		keepSnapshots)
	if err != nil {
		log.Printf("[sqlite] prune snapshots warning: %v", err)
	}
	return nil
}

// ReadLatestSnapshotJSON returns the newest checkpoint, or nil, nil if none.
func (w *Writer) ReadLatestSnapshotJSON(ctx context.Context) ([]byte, error) {
	var data string
	err := w.db.QueryRowContext(ctx, `SELECT data FROM bot_snapshots ORDER BY id DESC LIMIT 1`).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite read snapshot: %w", err)
	}
	return []byte(data), nil
}

// Ping checks the database connection.
func (w *Writer) Ping(ctx context.Context) error {
	return w.db.PingContext(ctx)
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
